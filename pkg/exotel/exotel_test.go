package exotel

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func testClient(srv *httptest.Server) *Client {
	c := NewClient("sid123", "key", "token", strings.TrimPrefix(srv.URL, "http://"), "08000000000", "https://app.example.com")
	c.client = srv.Client()
	// httptest serves plain HTTP.
	c.scheme = "http"
	return c
}

func TestConfigured(t *testing.T) {
	c := NewClient("sid", "key", "token", "", "0800", "https://app")
	if !c.Configured() {
		t.Error("fully credentialed client reports unconfigured")
	}
	c = NewClient("sid", "key", "", "", "0800", "https://app")
	if c.Configured() {
		t.Error("client without token reports configured")
	}
	c = NewClient("sid", "key", "token", "", "", "https://app")
	if c.Configured() {
		t.Error("client without virtual number reports configured")
	}
}

func TestPlaceCallSendsConnectForm(t *testing.T) {
	var gotForm url.Values
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/Accounts/sid123/Calls/connect.json" {
			t.Errorf("path = %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		r.ParseForm()
		gotForm = r.PostForm
		json.NewEncoder(w).Encode(map[string]interface{}{
			"Call": map[string]interface{}{"Sid": "call-abc", "Status": "in-progress"},
		})
	}))
	defer srv.Close()

	c := testClient(srv)
	result, err := c.PlaceCall(context.Background(), "+911111111111", "+912222222222", CallMetadata{
		UserID: 7, TargetUserID: 9, Timestamp: "2026-08-30T10:00:00Z",
	})
	if err != nil {
		t.Fatalf("place call: %v", err)
	}
	if result.CallSid != "call-abc" || result.Status != "in-progress" {
		t.Errorf("result = %+v", result)
	}
	if gotAuth == "" || !strings.HasPrefix(gotAuth, "Basic ") {
		t.Errorf("auth header = %q", gotAuth)
	}

	checks := map[string]string{
		"From":                    "+911111111111",
		"To":                      "+912222222222",
		"CallerId":                "08000000000",
		"CallType":                "trans",
		"TimeLimit":               "3600",
		"TimeOut":                 "30",
		"Record":                  "true",
		"StatusCallback":          "https://app.example.com/api/calls/webhook",
		"StatusCallbackEvents[0]": "terminal",
		"StatusCallbackEvents[1]": "answered",
	}
	for k, want := range checks {
		if got := gotForm.Get(k); got != want {
			t.Errorf("form[%s] = %q, want %q", k, got, want)
		}
	}

	var meta CallMetadata
	if err := json.Unmarshal([]byte(gotForm.Get("CustomField")), &meta); err != nil {
		t.Fatalf("CustomField not JSON: %v", err)
	}
	if meta.UserID != 7 || meta.TargetUserID != 9 {
		t.Errorf("metadata = %+v", meta)
	}
}

func TestPlaceCallNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"RestException": map[string]string{"Message": "insufficient balance"},
		})
	}))
	defer srv.Close()

	_, err := testClient(srv).PlaceCall(context.Background(), "a", "b", CallMetadata{})
	if !errors.Is(err, ErrGateway) {
		t.Fatalf("err = %v, want ErrGateway", err)
	}
	if !strings.Contains(err.Error(), "insufficient balance") {
		t.Errorf("error lost provider message: %v", err)
	}
}

func TestPlaceCallMissingSid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"Call": map[string]string{"Status": "queued"}})
	}))
	defer srv.Close()

	_, err := testClient(srv).PlaceCall(context.Background(), "a", "b", CallMetadata{})
	if !errors.Is(err, ErrGateway) {
		t.Fatalf("err = %v, want ErrGateway", err)
	}
}

func TestFetchCallStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/Accounts/sid123/Calls/call-abc.json" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"Call": map[string]interface{}{
				"Sid":          "call-abc",
				"Status":       "COMPLETED",
				"Duration":     "125",
				"RecordingUrl": "https://rec.example/r.mp3",
				"Legs": []map[string]interface{}{
					{"Status": "Completed", "OnCallDuration": "125"},
					{"Status": "Completed", "OnCallDuration": 120},
				},
			},
		})
	}))
	defer srv.Close()

	status, err := testClient(srv).FetchCallStatus(context.Background(), "call-abc")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if status.Status != "completed" {
		t.Errorf("status = %q (must be lowercased)", status.Status)
	}
	if status.Duration != 125 {
		t.Errorf("duration = %d", status.Duration)
	}
	if len(status.Legs) != 2 || status.Legs[0].Duration != 125 || status.Legs[1].Duration != 120 {
		t.Errorf("legs = %+v", status.Legs)
	}
}

func TestFetchCallStatusNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := testClient(srv).FetchCallStatus(context.Background(), "nope")
	if !errors.Is(err, ErrGateway) {
		t.Fatalf("err = %v, want ErrGateway", err)
	}
}
