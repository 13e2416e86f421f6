package relay

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"bridge/domain"
)

// ApiClient covers the one-shot REST endpoints: broadcasting a signed
// transaction and requesting trace emulation for a fee estimate.
type ApiClient struct {
	baseUrl    string
	httpClient *http.Client
}

func NewApiClient(baseUrl string) *ApiClient {
	return &ApiClient{
		baseUrl:    strings.TrimRight(baseUrl, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type bocRequest struct {
	Boc string `json:"boc"`
}

type emulateResponse struct {
	TotalFee *int64 `json:"total_fee"`
}

// EmulateFee submits the blob to the trace emulation endpoint and reads back
// the total fee. A missing fee in the response is an emulation failure, not
// a zero fee.
func (c *ApiClient) EmulateFee(ctx context.Context, signedBoc []byte) (*big.Int, error) {
	payload, _ := json.Marshal(bocRequest{Boc: base64.StdEncoding.EncodeToString(signedBoc)})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseUrl+"/wallet/emulate", bytes.NewBuffer(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrorEmulationFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %v", domain.ErrorEmulationFailed, resp.StatusCode)
	}

	decoded := emulateResponse{}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrorEmulationFailed, err)
	}
	if decoded.TotalFee == nil || *decoded.TotalFee < 0 {
		return nil, domain.ErrorEmulationFailed
	}

	return big.NewInt(*decoded.TotalFee), nil
}

// SendBoc broadcasts a signed transaction blob.
func (c *ApiClient) SendBoc(ctx context.Context, signedBoc []byte) error {
	payload, _ := json.Marshal(bocRequest{Boc: base64.StdEncoding.EncodeToString(signedBoc)})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseUrl+"/sendBoc", bytes.NewBuffer(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %v", ErrorRelayStatus, resp.StatusCode)
	}
	return nil
}
