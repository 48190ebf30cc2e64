package provider

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type capturedRequest struct {
	path    string
	headers http.Header
	body    map[string]any
}

func newTestServer(t *testing.T, status int, response string, got *capturedRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		got.path = r.URL.Path
		got.headers = r.Header.Clone()
		_ = json.Unmarshal(data, &got.body)
		w.WriteHeader(status)
		_, _ = io.WriteString(w, response)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// ---------------------------------------------------------------------------
// Complete
// ---------------------------------------------------------------------------

func TestCompleteOpenAIChat(t *testing.T) {
	var got capturedRequest
	srv := newTestServer(t, http.StatusOK, `{"choices":[{"message":{"role":"assistant","content":"Hola.@Adiós."}}]}`, &got)

	c := New(Provider{ID: ProviderOpenAI, BaseURL: srv.URL + "/v1", APIKey: "sk-test", Model: "gpt-4o", Timeout: 5 * time.Second})
	text, err := c.Complete(context.Background(), "system text", "user text", "")
	if err != nil {
		t.Fatalf("Complete() error: %v", err)
	}
	if text != "Hola.@Adiós." {
		t.Errorf("text = %q", text)
	}

	if got.path != "/v1/chat/completions" {
		t.Errorf("path = %q, want /v1/chat/completions", got.path)
	}
	if auth := got.headers.Get("Authorization"); auth != "Bearer sk-test" {
		t.Errorf("Authorization = %q", auth)
	}
	if got.body["model"] != "gpt-4o" {
		t.Errorf("model = %v, want provider default gpt-4o", got.body["model"])
	}
	msgs, ok := got.body["messages"].([]any)
	if !ok || len(msgs) != 2 {
		t.Fatalf("messages = %#v, want 2 entries", got.body["messages"])
	}
	first := msgs[0].(map[string]any)
	second := msgs[1].(map[string]any)
	if first["role"] != "system" || first["content"] != "system text" {
		t.Errorf("messages[0] = %#v", first)
	}
	if second["role"] != "user" || second["content"] != "user text" {
		t.Errorf("messages[1] = %#v", second)
	}
}

func TestCompleteModelArgumentOverridesDefault(t *testing.T) {
	var got capturedRequest
	srv := newTestServer(t, http.StatusOK, `{"choices":[{"message":{"content":"ok"}}]}`, &got)

	c := New(Provider{ID: ProviderGroq, BaseURL: srv.URL, APIKey: "k", Model: "default-model"})
	if _, err := c.Complete(context.Background(), "s", "u", "llama-3.3-70b-versatile"); err != nil {
		t.Fatalf("Complete() error: %v", err)
	}
	if got.body["model"] != "llama-3.3-70b-versatile" {
		t.Errorf("model = %v", got.body["model"])
	}
}

func TestCompleteGemini(t *testing.T) {
	var got capturedRequest
	srv := newTestServer(t, http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":"Bonjour."}]}}]}`, &got)

	c := New(Provider{ID: ProviderGoogle, BaseURL: srv.URL, APIKey: "g-key", Model: "gemini-2.5-flash"})
	text, err := c.Complete(context.Background(), "sys", "usr", "")
	if err != nil {
		t.Fatalf("Complete() error: %v", err)
	}
	if text != "Bonjour." {
		t.Errorf("text = %q", text)
	}
	if got.path != "/v1beta/models/gemini-2.5-flash:generateContent" {
		t.Errorf("path = %q", got.path)
	}
	if k := got.headers.Get("x-goog-api-key"); k != "g-key" {
		t.Errorf("x-goog-api-key = %q", k)
	}
	if _, ok := got.body["systemInstruction"]; !ok {
		t.Error("systemInstruction missing from Gemini request")
	}
}

func TestCompleteAnthropic(t *testing.T) {
	var got capturedRequest
	srv := newTestServer(t, http.StatusOK, `{"content":[{"type":"text","text":"Hallo."}]}`, &got)

	c := New(Provider{ID: ProviderAnthropic, BaseURL: srv.URL, APIKey: "a-key", Model: "claude-sonnet-4"})
	text, err := c.Complete(context.Background(), "sys", "usr", "")
	if err != nil {
		t.Fatalf("Complete() error: %v", err)
	}
	if text != "Hallo." {
		t.Errorf("text = %q", text)
	}
	if got.path != "/messages" {
		t.Errorf("path = %q", got.path)
	}
	if got.headers.Get("x-api-key") != "a-key" || got.headers.Get("anthropic-version") == "" {
		t.Errorf("headers = %v", got.headers)
	}
	if got.body["system"] != "sys" {
		t.Errorf("system = %v", got.body["system"])
	}
}

func TestCompleteNonOKStatus(t *testing.T) {
	var got capturedRequest
	srv := newTestServer(t, http.StatusUnauthorized, `{"error":{"message":"bad key"}}`, &got)

	c := New(Provider{ID: ProviderOpenAI, BaseURL: srv.URL, APIKey: "x", Model: "gpt-4o"})
	_, err := c.Complete(context.Background(), "s", "u", "")
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want *StatusError", err)
	}
	if se.Code != http.StatusUnauthorized || !strings.Contains(se.Body, "bad key") {
		t.Errorf("StatusError = %+v", se)
	}
}

func TestCompleteConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(Provider{ID: ProviderOpenAI, BaseURL: url, APIKey: "x", Model: "gpt-4o", Timeout: time.Second})
	if _, err := c.Complete(context.Background(), "s", "u", ""); err == nil {
		t.Fatal("expected error for closed server")
	}
}

// ---------------------------------------------------------------------------
// extractResponseText
// ---------------------------------------------------------------------------

func TestExtractResponseText(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{"openai", `{"choices":[{"message":{"content":"a@b"}}]}`, "a@b", false},
		{"gemini", `{"candidates":[{"content":{"parts":[{"text":"g"}]}}]}`, "g", false},
		{"anthropic", `{"content":[{"type":"thinking"},{"type":"text","text":"t"}]}`, "t", false},
		{"api error", `{"error":{"message":"quota exceeded"}}`, "", true},
		{"no choices", `{"choices":[]}`, "", true},
		{"null content", `{"choices":[{"message":{"content":null}}]}`, "", true},
		{"unknown shape", `{"foo":"bar"}`, "", true},
		{"invalid json", `not json`, "", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := extractResponseText([]byte(tc.body))
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("error: %v", err)
			}
			if got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Resolve / Validate
// ---------------------------------------------------------------------------

func TestResolveAppliesOverrides(t *testing.T) {
	p := Resolve("OpenAI", Overrides{Model: "gpt-4o-mini", APIKey: "k", Timeout: 10 * time.Second})
	if p.ID != ProviderOpenAI {
		t.Errorf("ID = %q", p.ID)
	}
	if p.Model != "gpt-4o-mini" || p.APIKey != "k" || p.Timeout != 10*time.Second {
		t.Errorf("overrides not applied: %+v", p)
	}
	if p.BaseURL != "https://api.openai.com/v1" {
		t.Errorf("BaseURL = %q, want default", p.BaseURL)
	}
}

func TestResolveUnknownIsCustom(t *testing.T) {
	p := Resolve("my-gateway", Overrides{BaseURL: "http://gw.local/v1"})
	if p.ID != ProviderCustomOpenAI {
		t.Errorf("ID = %q, want %q", p.ID, ProviderCustomOpenAI)
	}
	if p.Name != "my-gateway" || p.BaseURL != "http://gw.local/v1" {
		t.Errorf("got %+v", p)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		prov    Provider
		wantErr bool
	}{
		{"ok", Provider{ID: ProviderOpenAI, BaseURL: "u", Model: "m", APIKey: "k"}, false},
		{"missing model", Provider{ID: ProviderOpenAI, BaseURL: "u", APIKey: "k"}, true},
		{"missing key", Provider{ID: ProviderGroq, BaseURL: "u", Model: "m"}, true},
		{"ollama without key", Provider{ID: ProviderOllama, BaseURL: "u", Model: "m"}, false},
		{"custom without url", Provider{ID: ProviderCustomOpenAI, Model: "m"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.prov)
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
