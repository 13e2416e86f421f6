package usecase

import (
	"log"
	"sync"
	"sync/atomic"

	"bridge/domain"
)

// ConnectedAppStore is the persistence boundary for sessions; implemented by
// repository.ConnectedAppRepository.
type ConnectedAppStore interface {
	Upsert(app domain.ConnectedApp) error
	Delete(walletAddress string, originHost string) error
	DeleteByWallet(walletAddress string) error
	FindAll() ([]domain.ConnectedApp, error)
}

// registrySnapshot is immutable once published. Stream reads go through the
// snapshot pointer, so a connect or disconnect in flight can never expose a
// partially updated view.
type registrySnapshot struct {
	byPeer     map[string]domain.ConnectedApp
	byWallet   map[string][]domain.ConnectedApp
	ourClients []string
}

type RegistryInteractor struct {
	appStore ConnectedAppStore
	changed  chan struct{}

	mu       sync.Mutex // serializes mutations, not reads
	snapshot atomic.Pointer[registrySnapshot]
}

func NewRegistryInteractor(appStore ConnectedAppStore) *RegistryInteractor {
	interactor := &RegistryInteractor{
		appStore: appStore,
		changed:  make(chan struct{}, 1),
	}
	interactor.snapshot.Store(&registrySnapshot{
		byPeer:   map[string]domain.ConnectedApp{},
		byWallet: map[string][]domain.ConnectedApp{},
	})
	return interactor
}

// Reload rebuilds the snapshot from storage. Called once at startup and
// after every mutation.
func (interactor *RegistryInteractor) Reload() error {
	interactor.mu.Lock()
	defer interactor.mu.Unlock()
	return interactor.reloadLocked()
}

func (interactor *RegistryInteractor) reloadLocked() error {
	apps, err := interactor.appStore.FindAll()
	if err != nil {
		log.Printf("🔴 loading connected apps - %v\n", err.Error())
		return err
	}

	next := &registrySnapshot{
		byPeer:   make(map[string]domain.ConnectedApp, len(apps)),
		byWallet: make(map[string][]domain.ConnectedApp, len(apps)),
	}
	for _, app := range apps {
		next.byPeer[app.ClientId] = app
		next.byWallet[app.WalletAddress] = append(next.byWallet[app.WalletAddress], app)
		next.ourClients = append(next.ourClients, app.SessionKeys.ClientId())
	}

	interactor.snapshot.Store(next)

	select {
	case interactor.changed <- struct{}{}:
	default:
	}
	return nil
}

// Changes signals after every published snapshot. Coalescing: consecutive
// mutations may collapse into one signal, the consumer re-reads the snapshot
// anyway.
func (interactor *RegistryInteractor) Changes() <-chan struct{} {
	return interactor.changed
}

func (interactor *RegistryInteractor) Add(app domain.ConnectedApp) error {
	interactor.mu.Lock()
	defer interactor.mu.Unlock()

	if err := interactor.appStore.Upsert(app); err != nil {
		log.Printf("🔴 storing connected app [origin: %v] - %v\n", app.OriginHost(), err.Error())
		return err
	}
	return interactor.reloadLocked()
}

func (interactor *RegistryInteractor) Remove(wallet domain.WalletIdentity, originHost string) error {
	interactor.mu.Lock()
	defer interactor.mu.Unlock()

	if err := interactor.appStore.Delete(wallet.Address(), originHost); err != nil {
		log.Printf("🔴 removing connected app [origin: %v] - %v\n", originHost, err.Error())
		return err
	}
	return interactor.reloadLocked()
}

// RemoveWallet drops every session of a wallet, used when the user removes
// the wallet itself.
func (interactor *RegistryInteractor) RemoveWallet(wallet domain.WalletIdentity) error {
	interactor.mu.Lock()
	defer interactor.mu.Unlock()

	if err := interactor.appStore.DeleteByWallet(wallet.Address()); err != nil {
		log.Printf("🔴 removing wallet sessions [wallet: %v] - %v\n", wallet.Address(), err.Error())
		return err
	}
	return interactor.reloadLocked()
}

func (interactor *RegistryInteractor) All(wallet domain.WalletIdentity) []domain.ConnectedApp {
	return interactor.snapshot.Load().byWallet[wallet.Address()]
}

// FindByOrigin locates the single session of a wallet for an origin host.
func (interactor *RegistryInteractor) FindByOrigin(wallet domain.WalletIdentity, originHost string) (*domain.ConnectedApp, bool) {
	for _, app := range interactor.snapshot.Load().byWallet[wallet.Address()] {
		if app.OriginHost() == originHost {
			found := app
			return &found, true
		}
	}
	return nil, false
}

// FindByPeer locates the session owning an inbound event by the sender's
// client id.
func (interactor *RegistryInteractor) FindByPeer(clientId string) (*domain.ConnectedApp, bool) {
	app, ok := interactor.snapshot.Load().byPeer[clientId]
	if !ok {
		return nil, false
	}
	return &app, true
}

// OurClientIds is the union of our session public keys across all wallets,
// the id set the stream subscribes with.
func (interactor *RegistryInteractor) OurClientIds() []string {
	return interactor.snapshot.Load().ourClients
}
