package exotel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrGateway classifies provider failures: unreachable API, non-2xx response,
// or a response body missing the call identifier. Callers decide whether to
// retry; the client never retries internally.
var ErrGateway = errors.New("exotel gateway error")

// CallMetadata is echoed back by Exotel in the CustomField of callbacks.
type CallMetadata struct {
	UserID       uint   `json:"userId"`
	TargetUserID uint   `json:"targetUserId"`
	Timestamp    string `json:"timestamp"`
}

type PlaceCallResult struct {
	CallSid string
	Status  string
}

type Leg struct {
	Status   string
	Duration int
}

type CallStatus struct {
	Status       string
	Duration     int
	RecordingURL string
	Legs         []Leg
}

// Gateway is the telephony surface the call service depends on.
type Gateway interface {
	Configured() bool
	PlaceCall(ctx context.Context, callerNumber, receiverNumber string, meta CallMetadata) (*PlaceCallResult, error)
	FetchCallStatus(ctx context.Context, callSid string) (*CallStatus, error)
}

// Client talks to the Exotel voice API. Stateless adapter: every call is a
// single HTTP round trip with Basic auth.
type Client struct {
	SID           string
	APIKey        string
	APIToken      string
	Subdomain     string
	VirtualNumber string
	AppURL        string
	scheme        string
	client        *http.Client
}

func NewClient(sid, apiKey, apiToken, subdomain, virtualNumber, appURL string) *Client {
	if subdomain == "" {
		subdomain = "api.exotel.com"
	}
	return &Client{
		SID:           sid,
		APIKey:        apiKey,
		APIToken:      apiToken,
		Subdomain:     subdomain,
		VirtualNumber: virtualNumber,
		AppURL:        appURL,
		scheme:        "https",
		client:        &http.Client{Timeout: 30 * time.Second},
	}
}

// Configured reports whether all credentials needed to place calls are set.
func (c *Client) Configured() bool {
	return c.SID != "" && c.APIKey != "" && c.APIToken != "" && c.VirtualNumber != ""
}

type callEnvelope struct {
	Call struct {
		Sid          string      `json:"Sid"`
		Status       string      `json:"Status"`
		Duration     json.Number `json:"Duration"`
		RecordingURL string      `json:"RecordingUrl"`
		Legs         []struct {
			Status         string      `json:"Status"`
			OnCallDuration json.Number `json:"OnCallDuration"`
		} `json:"Legs"`
	} `json:"Call"`
	RestException struct {
		Message string `json:"Message"`
	} `json:"RestException"`
}

// PlaceCall bridges caller and receiver through the virtual number. Exotel
// dials the caller leg first, then the receiver, and reports progress to
// AppURL + /api/calls/webhook.
func (c *Client) PlaceCall(ctx context.Context, callerNumber, receiverNumber string, meta CallMetadata) (*PlaceCallResult, error) {
	endpoint := fmt.Sprintf("%s://%s/v1/Accounts/%s/Calls/connect.json", c.scheme, c.Subdomain, c.SID)
	customField, _ := json.Marshal(meta)

	form := url.Values{}
	form.Set("From", callerNumber)
	form.Set("To", receiverNumber)
	form.Set("CallerId", c.VirtualNumber)
	form.Set("CallType", "trans")
	form.Set("TimeLimit", "3600")
	form.Set("TimeOut", "30")
	form.Set("StatusCallback", c.AppURL+"/api/calls/webhook")
	form.Set("StatusCallbackEvents[0]", "terminal")
	form.Set("StatusCallbackEvents[1]", "answered")
	form.Set("StatusCallbackContentType", "application/json")
	form.Set("Record", "true")
	form.Set("CustomField", string(customField))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.APIKey, c.APIToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: connect: %v", ErrGateway, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	var out callEnvelope
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: connect: malformed response: %v", ErrGateway, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || out.Call.Sid == "" {
		msg := out.RestException.Message
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		log.Printf("[EXOTEL] connect failed: %s body=%s", msg, string(body))
		return nil, fmt.Errorf("%w: connect: %s", ErrGateway, msg)
	}
	return &PlaceCallResult{CallSid: out.Call.Sid, Status: out.Call.Status}, nil
}

// FetchCallStatus polls the current state of a placed call.
func (c *Client) FetchCallStatus(ctx context.Context, callSid string) (*CallStatus, error) {
	endpoint := fmt.Sprintf("%s://%s/v1/Accounts/%s/Calls/%s.json", c.scheme, c.Subdomain, c.SID, callSid)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.APIKey, c.APIToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch %s: %v", ErrGateway, callSid, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: fetch %s: status %d", ErrGateway, callSid, resp.StatusCode)
	}

	var out callEnvelope
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: fetch %s: malformed response: %v", ErrGateway, callSid, err)
	}
	if out.Call.Sid == "" {
		return nil, fmt.Errorf("%w: fetch %s: missing call in response", ErrGateway, callSid)
	}
	status := &CallStatus{
		Status:       strings.ToLower(out.Call.Status),
		Duration:     numberToInt(out.Call.Duration),
		RecordingURL: out.Call.RecordingURL,
	}
	for _, l := range out.Call.Legs {
		status.Legs = append(status.Legs, Leg{
			Status:   strings.ToLower(l.Status),
			Duration: numberToInt(l.OnCallDuration),
		})
	}
	return status, nil
}

func numberToInt(n json.Number) int {
	if n == "" {
		return 0
	}
	v, err := strconv.Atoi(n.String())
	if err != nil {
		return 0
	}
	return v
}
