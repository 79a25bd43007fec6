package exotel

import (
	"encoding/json"
	"errors"
	"net/url"
	"strconv"
	"strings"
)

// WebhookPayload is one status callback from Exotel. Depending on account
// configuration the provider posts JSON or a form body; form bodies encode
// leg detail as bracket-indexed keys (Legs[0][Status], Legs[1][OnCallDuration]).
type WebhookPayload struct {
	CallSid              string
	EventType            string
	Status               string
	ConversationDuration int
	RecordingURL         string
	Legs                 []Leg
	Raw                  string
}

var ErrUnsupportedContentType = errors.New("unsupported webhook content type")

type webhookJSON struct {
	CallSid              string      `json:"CallSid"`
	EventType            string      `json:"EventType"`
	Status               string      `json:"Status"`
	ConversationDuration json.Number `json:"ConversationDuration"`
	RecordingURL         string      `json:"RecordingUrl"`
	Legs                 []struct {
		Status         string      `json:"Status"`
		OnCallDuration json.Number `json:"OnCallDuration"`
	} `json:"Legs"`
}

// ParseWebhook decodes a callback body. The raw body is preserved verbatim in
// Raw so it can be stored before any further processing.
func ParseWebhook(body []byte, contentType string) (*WebhookPayload, error) {
	switch {
	case strings.Contains(contentType, "application/json"):
		return parseWebhookJSON(body)
	case strings.Contains(contentType, "application/x-www-form-urlencoded"):
		return parseWebhookForm(body)
	default:
		return nil, ErrUnsupportedContentType
	}
}

func parseWebhookJSON(body []byte) (*WebhookPayload, error) {
	var in webhookJSON
	if err := json.Unmarshal(body, &in); err != nil {
		return nil, err
	}
	p := &WebhookPayload{
		CallSid:              in.CallSid,
		EventType:            strings.ToLower(in.EventType),
		Status:               strings.ToLower(in.Status),
		ConversationDuration: numberToInt(in.ConversationDuration),
		RecordingURL:         in.RecordingURL,
		Raw:                  string(body),
	}
	for _, l := range in.Legs {
		p.Legs = append(p.Legs, Leg{Status: strings.ToLower(l.Status), Duration: numberToInt(l.OnCallDuration)})
	}
	return p, nil
}

func parseWebhookForm(body []byte) (*WebhookPayload, error) {
	values, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, err
	}
	duration, _ := strconv.Atoi(values.Get("ConversationDuration"))
	p := &WebhookPayload{
		CallSid:              values.Get("CallSid"),
		EventType:            strings.ToLower(values.Get("EventType")),
		Status:               strings.ToLower(values.Get("Status")),
		ConversationDuration: duration,
		RecordingURL:         values.Get("RecordingUrl"),
		Raw:                  string(body),
	}
	// Legs arrive as Legs[0][Status], Legs[0][OnCallDuration], Legs[1][...].
	for i := 0; ; i++ {
		prefix := "Legs[" + strconv.Itoa(i) + "]"
		status := values.Get(prefix + "[Status]")
		durStr := values.Get(prefix + "[OnCallDuration]")
		if status == "" && durStr == "" {
			break
		}
		d, _ := strconv.Atoi(durStr)
		p.Legs = append(p.Legs, Leg{Status: strings.ToLower(status), Duration: d})
	}
	return p, nil
}
