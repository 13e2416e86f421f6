package repository

import (
	"bridge/domain"
	"encoding/hex"
	"encoding/json"

	"github.com/behrang/sqlbatch"
)

const (
	sqlConnectedAppUpsert = `
	insert into connected_apps as c (
			wallet_address, origin_host, client_id, manifest, session_public, session_secret, create_time
		)
		values (
			$1, $2, $3, $4::jsonb, $5, $6, now()
		)
	on conflict (wallet_address, origin_host) do
		update set
			client_id = $3, manifest = $4::jsonb, session_public = $5, session_secret = $6
`

	sqlConnectedAppDelete = `
	delete from connected_apps
	where wallet_address = $1 and origin_host = $2
`

	sqlConnectedAppDeleteByWallet = `
	delete from connected_apps
	where wallet_address = $1
`

	sqlConnectedAppFindByWallet = `
	select
		wallet_address, client_id, manifest, session_public, session_secret, create_time
	from connected_apps
	where wallet_address = $1
`

	sqlConnectedAppFindAll = `
	select
		wallet_address, client_id, manifest, session_public, session_secret, create_time
	from connected_apps
`
)

type ConnectedAppRepository struct {
	batchHandler BatchHandler
}

func NewConnectedAppRepository(db BatchHandler) *ConnectedAppRepository {
	return &ConnectedAppRepository{batchHandler: db}
}

func readAllConnectedApps(memo interface{}, scan func(...interface{}) error) (interface{}, error) {
	r := domain.ConnectedApp{}
	var manifestJson []byte
	var sessionPublic, sessionSecret string
	err := scan(
		&r.WalletAddress, &r.ClientId, &manifestJson, &sessionPublic, &sessionSecret, &r.CreateTime,
	)
	if err == nil {
		err = json.Unmarshal(manifestJson, &r.Manifest)
	}
	if err == nil {
		err = decodeSessionKey(sessionPublic, &r.SessionKeys.Public)
	}
	if err == nil {
		err = decodeSessionKey(sessionSecret, &r.SessionKeys.Secret)
	}

	list := memo.([]domain.ConnectedApp)
	list = append(list, r)
	return list, err
}

func decodeSessionKey(hexValue string, into *[32]byte) error {
	raw, err := hex.DecodeString(hexValue)
	if err != nil {
		return err
	}
	if len(raw) != 32 {
		return domain.ErrorInvalidPeerKey
	}
	copy(into[:], raw)
	return nil
}

func (repo *ConnectedAppRepository) Upsert(app domain.ConnectedApp) error {
	manifestJson, _ := json.Marshal(app.Manifest)
	_, err := repo.batchHandler.Batch(&BatchOptionNormal, []sqlbatch.Command{
		{
			Query: sqlConnectedAppUpsert,
			Args: []interface{}{
				app.WalletAddress, app.OriginHost(), app.ClientId, manifestJson,
				hex.EncodeToString(app.SessionKeys.Public[:]),
				hex.EncodeToString(app.SessionKeys.Secret[:]),
			},
			Affect: 1,
		},
	})
	return err
}

func (repo *ConnectedAppRepository) Delete(walletAddress string, originHost string) error {
	_, err := repo.batchHandler.Batch(&BatchOptionNormal, []sqlbatch.Command{
		{
			Query: sqlConnectedAppDelete,
			Args:  []interface{}{walletAddress, originHost},
		},
	})
	return err
}

func (repo *ConnectedAppRepository) DeleteByWallet(walletAddress string) error {
	_, err := repo.batchHandler.Batch(&BatchOptionNormal, []sqlbatch.Command{
		{
			Query: sqlConnectedAppDeleteByWallet,
			Args:  []interface{}{walletAddress},
		},
	})
	return err
}

func (repo *ConnectedAppRepository) FindByWallet(walletAddress string) ([]domain.ConnectedApp, error) {
	results, err := repo.batchHandler.Batch(&BatchOptionNormalReadOnly, []sqlbatch.Command{
		{
			Query:   sqlConnectedAppFindByWallet,
			Args:    []interface{}{walletAddress},
			Init:    make([]domain.ConnectedApp, 0),
			ReadAll: readAllConnectedApps,
		},
	})
	result, _ := results[0].([]domain.ConnectedApp)
	return result, err
}

func (repo *ConnectedAppRepository) FindAll() ([]domain.ConnectedApp, error) {
	results, err := repo.batchHandler.Batch(&BatchOptionNormalReadOnly, []sqlbatch.Command{
		{
			Query:   sqlConnectedAppFindAll,
			Init:    make([]domain.ConnectedApp, 0),
			ReadAll: readAllConnectedApps,
		},
	})
	result, _ := results[0].([]domain.ConnectedApp)
	return result, err
}
