package domain

import (
	"net/url"
	"strings"
	"time"
)

// AppManifest is the identity a dApp presents when connecting.
type AppManifest struct {
	Url     string `json:"url"`
	Name    string `json:"name"`
	IconUrl string `json:"iconUrl"`
}

// OriginHost normalizes the manifest url down to its host, which keys the
// at-most-one-session-per-origin invariant.
func (m AppManifest) OriginHost() string {
	u, err := url.Parse(m.Url)
	if err != nil || u.Host == "" {
		return strings.ToLower(strings.TrimSpace(m.Url))
	}
	return strings.ToLower(u.Host)
}

// ConnectedApp is one durable dApp session: the peer's client id, our session
// key pair and the manifest it connected with.
type ConnectedApp struct {
	WalletAddress string         `json:"wallet_address"`
	Manifest      AppManifest    `json:"manifest"`
	ClientId      string         `json:"client_id"`
	SessionKeys   SessionKeyPair `json:"session_keys"`
	CreateTime    time.Time      `json:"create_time"`
}

func (a ConnectedApp) OriginHost() string {
	return a.Manifest.OriginHost()
}

func (a ConnectedApp) PeerPublicKey() ([32]byte, error) {
	return ParseClientId(a.ClientId)
}
