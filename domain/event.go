package domain

import "encoding/json"

const (
	AppMethodSendTransaction = "sendTransaction"
	AppMethodDisconnect      = "disconnect"
)

// Bridge protocol error codes.
const (
	BridgeErrorUnknown        = uint64(0)
	BridgeErrorBadRequest     = uint64(1)
	BridgeErrorUnknownApp     = uint64(100)
	BridgeErrorUserDeclined   = uint64(300)
	BridgeErrorMethodNotFound = uint64(400)
)

// BridgeEvent is one raw frame from the relay: the sender's client id, the
// sealed payload and the relay-assigned event id used for resumption.
type BridgeEvent struct {
	From       string `json:"from"`
	Message    string `json:"message"`
	ServerId   string `json:"-"`
	Ciphertext []byte `json:"-"`
}

// AppRequest is a decrypted request from a connected dApp. The id is chosen
// by the application; at-least-once relay delivery means consumers may see
// the same id more than once.
type AppRequest struct {
	Id     string   `json:"id"`
	Method string   `json:"method"`
	Params []string `json:"params"`
}

// SendTransactionParams is the decoded first param of a sendTransaction
// request: an ordered message list plus an optional validity window and
// sender restriction.
type SendTransactionParams struct {
	Messages   []AppRequestMessage `json:"messages"`
	ValidUntil int64               `json:"valid_until"`
	From       string              `json:"from"`
	Network    string              `json:"network"`
}

type AppRequestMessage struct {
	Address   string `json:"address"`
	Amount    string `json:"amount"`
	Payload   string `json:"payload,omitempty"`
	StateInit string `json:"stateInit,omitempty"`
}

func (r AppRequest) SendTransactionParams() (*SendTransactionParams, error) {
	if len(r.Params) == 0 {
		return nil, ErrorNoMessages
	}
	params := SendTransactionParams{}
	if err := json.Unmarshal([]byte(r.Params[0]), &params); err != nil {
		return nil, err
	}
	return &params, nil
}

// AppRequestEvent is what the stream hands to observers once an inbound
// frame has been matched to a session and decrypted.
type AppRequestEvent struct {
	Request AppRequest
	Wallet  WalletIdentity
	App     ConnectedApp
}

//---------------------------------
// Wallet-side replies

type BridgeError struct {
	Code    uint64 `json:"code"`
	Message string `json:"message"`
}

// AppResponse correlates back to the request id chosen by the dApp.
type AppResponse struct {
	Id     string       `json:"id"`
	Result string       `json:"result,omitempty"`
	Error  *BridgeError `json:"error,omitempty"`
}

func SuccessResponse(id string, result string) AppResponse {
	return AppResponse{Id: id, Result: result}
}

func FailureResponse(id string, code uint64, message string) AppResponse {
	return AppResponse{Id: id, Error: &BridgeError{Code: code, Message: message}}
}

// WalletEvent is a wallet-initiated bridge message, e.g. the reply to a
// connect request or a disconnect notice.
type WalletEvent struct {
	Event   string      `json:"event"`
	Id      int64       `json:"id"`
	Payload interface{} `json:"payload"`
}

type ConnectSuccessPayload struct {
	Items  []ConnectItemReply `json:"items"`
	Device DeviceInfo         `json:"device"`
}

type ConnectErrorPayload struct {
	Code    uint64 `json:"code"`
	Message string `json:"message"`
}

type ConnectItemReply struct {
	Name            string    `json:"name"`
	Address         string    `json:"address,omitempty"`
	Network         string    `json:"network,omitempty"`
	PublicKey       string    `json:"publicKey,omitempty"`
	WalletStateInit string    `json:"walletStateInit,omitempty"`
	Proof           *TonProof `json:"proof,omitempty"`
}

type TonProof struct {
	Timestamp uint64         `json:"timestamp"`
	Domain    TonProofDomain `json:"domain"`
	Signature string         `json:"signature"`
	Payload   string         `json:"payload"`
}

type TonProofDomain struct {
	LengthBytes uint32 `json:"lengthBytes"`
	Value       string `json:"value"`
}

type DeviceInfo struct {
	Platform           string `json:"platform"`
	AppName            string `json:"appName"`
	AppVersion         string `json:"appVersion"`
	MaxProtocolVersion int    `json:"maxProtocolVersion"`
	Features           []any  `json:"features"`
}
