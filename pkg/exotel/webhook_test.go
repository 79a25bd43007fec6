package exotel

import (
	"errors"
	"net/url"
	"testing"
)

func TestParseWebhookJSON(t *testing.T) {
	body := []byte(`{
		"CallSid": "call-abc",
		"EventType": "Terminal",
		"Status": "Completed",
		"ConversationDuration": "125",
		"RecordingUrl": "https://rec.example/r.mp3",
		"Legs": [
			{"Status": "Completed", "OnCallDuration": "125"},
			{"Status": "Completed", "OnCallDuration": 120}
		]
	}`)
	p, err := ParseWebhook(body, "application/json; charset=utf-8")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if p.CallSid != "call-abc" {
		t.Errorf("sid = %q", p.CallSid)
	}
	if p.EventType != "terminal" || p.Status != "completed" {
		t.Errorf("event/status not lowercased: %q %q", p.EventType, p.Status)
	}
	if p.ConversationDuration != 125 {
		t.Errorf("duration = %d", p.ConversationDuration)
	}
	if len(p.Legs) != 2 || p.Legs[1].Duration != 120 {
		t.Errorf("legs = %+v", p.Legs)
	}
	if p.Raw != string(body) {
		t.Error("raw body not preserved")
	}
}

func TestParseWebhookForm(t *testing.T) {
	form := url.Values{}
	form.Set("CallSid", "call-xyz")
	form.Set("EventType", "terminal")
	form.Set("Status", "no-answer")
	form.Set("ConversationDuration", "0")
	form.Set("Legs[0][Status]", "No-Answer")
	form.Set("Legs[0][OnCallDuration]", "0")
	form.Set("Legs[1][Status]", "Canceled")
	form.Set("Legs[1][OnCallDuration]", "0")

	p, err := ParseWebhook([]byte(form.Encode()), "application/x-www-form-urlencoded")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if p.CallSid != "call-xyz" || p.Status != "no-answer" {
		t.Errorf("parsed = %+v", p)
	}
	if len(p.Legs) != 2 {
		t.Fatalf("legs = %d, want 2", len(p.Legs))
	}
	if p.Legs[0].Status != "no-answer" || p.Legs[1].Status != "canceled" {
		t.Errorf("leg statuses = %+v", p.Legs)
	}
}

func TestParseWebhookUnsupportedContentType(t *testing.T) {
	_, err := ParseWebhook([]byte("<xml/>"), "text/xml")
	if !errors.Is(err, ErrUnsupportedContentType) {
		t.Fatalf("err = %v, want ErrUnsupportedContentType", err)
	}
}

func TestParseWebhookMalformedJSON(t *testing.T) {
	_, err := ParseWebhook([]byte("{not json"), "application/json")
	if err == nil {
		t.Fatal("malformed JSON parsed without error")
	}
}
