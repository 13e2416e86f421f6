package relay

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"bridge/domain"
)

var (
	ErrorRelayStatus = fmt.Errorf("relay returned an unexpected status")
	ErrorStreamEnded = fmt.Errorf("relay event stream ended")
)

// Client talks to the bridge relay: a long-lived server-sent-events
// subscription for inbound frames, and one-shot POSTs for outbound ones.
// The relay never sees plaintext, every payload is sealed by the session.
type Client struct {
	baseUrl    string
	httpClient *http.Client
}

func NewClient(baseUrl string) *Client {
	return &Client{
		baseUrl: strings.TrimRight(baseUrl, "/"),
		// No overall timeout: the events call is a deliberately
		// long-lived stream, cancellation comes from the context.
		httpClient: &http.Client{},
	}
}

// Subscribe opens the event stream for the given client ids and calls handle
// for every decoded message frame. It returns when the stream ends or the
// context is cancelled; reconnecting is the caller's policy.
func (c *Client) Subscribe(ctx context.Context, clientIds []string, lastEventId string, handle func(domain.BridgeEvent)) error {
	endpoint := fmt.Sprintf("%s/events?client_id=%s", c.baseUrl, url.QueryEscape(strings.Join(clientIds, ",")))
	if lastEventId != "" {
		endpoint += "&last_event_id=" + url.QueryEscape(lastEventId)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %v", ErrorRelayStatus, resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var eventId, data string
	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case line == "":
			if data != "" {
				c.dispatch(eventId, data, handle)
			}
			eventId, data = "", ""

		case strings.HasPrefix(line, "id:"):
			eventId = strings.TrimSpace(strings.TrimPrefix(line, "id:"))

		case strings.HasPrefix(line, "data:"):
			data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))

		case strings.HasPrefix(line, ":"):
			// heartbeat comment
		}
	}

	if err := scanner.Err(); err != nil {
		return err
	}
	return ErrorStreamEnded
}

func (c *Client) dispatch(eventId string, data string, handle func(domain.BridgeEvent)) {
	if data == "heartbeat" {
		return
	}

	event := domain.BridgeEvent{}
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return
	}

	ciphertext, err := base64.StdEncoding.DecodeString(event.Message)
	if err != nil {
		return
	}

	event.ServerId = eventId
	event.Ciphertext = ciphertext
	handle(event)
}

// SendMessage posts one sealed payload to the peer identified by 'to'. The
// relay holds it for at most ttl seconds.
func (c *Client) SendMessage(ctx context.Context, from string, to string, ttl time.Duration, ciphertext []byte) error {
	endpoint := fmt.Sprintf("%s/message?client_id=%s&to=%s&ttl=%v",
		c.baseUrl, url.QueryEscape(from), url.QueryEscape(to), int64(ttl.Seconds()))

	body := base64.StdEncoding.EncodeToString(ciphertext)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBufferString(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "text/plain")

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
