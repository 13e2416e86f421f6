package usecase

import (
	"bridge/domain"
	"bridge/interface/repository"
)

const (
	BridgeMemoKey = "bridge"
)

type MemoInteractor struct {
	memoRepository *repository.MemoRepository
}

func NewMemoInteractor(memoRepository *repository.MemoRepository) *MemoInteractor {
	interactor := &MemoInteractor{
		memoRepository: memoRepository,
	}
	return interactor
}

func (interactor *MemoInteractor) GetLastEventId() (string, error) {
	memo, err := interactor.memoRepository.Find(BridgeMemoKey)
	if err != nil || memo == nil {
		return "", err
	}

	var bridgeMemo domain.BridgeMemo
	bridgeMemo.FromJson(memo.Memo)
	return bridgeMemo.LastEventId, nil
}

func (interactor *MemoInteractor) SetLastEventId(eventId string) error {
	memo, err := interactor.memoRepository.Find(BridgeMemoKey)
	if err != nil {
		return err
	}

	var bridgeMemo domain.BridgeMemo
	if memo != nil {
		bridgeMemo.FromJson(memo.Memo)
	}
	bridgeMemo.LastEventId = eventId
	_, err = interactor.memoRepository.Upsert(BridgeMemoKey, &bridgeMemo)
	return err
}
