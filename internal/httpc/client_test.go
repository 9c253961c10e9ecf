package httpc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/teslashibe/go-scanner/pkg/decode"
	"github.com/teslashibe/go-scanner/pkg/scanner/state"
)

func TestNew_RejectsScheme(t *testing.T) {
	if _, err := New("ftp://scanner"); err == nil {
		t.Error("New(ftp://) should fail")
	}
}

func TestClient_StateURL(t *testing.T) {
	tests := []struct {
		base string
		want string
	}{
		{"http://localhost:8080", "ws://localhost:8080/ws/state"},
		{"https://scanner.local/", "wss://scanner.local/ws/state"},
		{"http://host/prefix", "ws://host/prefix/ws/state"},
	}

	for _, tt := range tests {
		c, err := New(tt.base)
		if err != nil {
			t.Fatalf("New(%q): %v", tt.base, err)
		}
		if got := c.StateURL(); got != tt.want {
			t.Errorf("StateURL() = %q, want %q", got, tt.want)
		}
	}
}

func TestClient_State(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/state" || r.Method != "GET" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(state.State{
			Scanning:   true,
			LastResult: &decode.Result{Text: "ABC123"},
		})
	}))
	defer server.Close()

	c, _ := New(server.URL)
	st, err := c.State(context.Background())
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if st.LastResult == nil || st.LastResult.Text != "ABC123" {
		t.Errorf("LastResult = %+v, want ABC123", st.LastResult)
	}
}

func TestClient_ResetCameraUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/reset" || r.Method != "POST" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(state.State{LastError: state.MessageCameraUnavailable})
	}))
	defer server.Close()

	c, _ := New(server.URL)
	st, err := c.Reset(context.Background())

	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusServiceUnavailable {
		t.Fatalf("err = %v, want StatusError 503", err)
	}
	if st.LastError != state.MessageCameraUnavailable {
		t.Errorf("LastError = %q, want camera message", st.LastError)
	}
}

func TestClient_UpdateCamera(t *testing.T) {
	var got map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c, _ := New(server.URL)
	if err := c.UpdateCamera(context.Background(), map[string]interface{}{"preset": "lowcpu"}); err != nil {
		t.Fatalf("UpdateCamera: %v", err)
	}
	if got["preset"] != "lowcpu" {
		t.Errorf("body = %v, want preset lowcpu", got)
	}
}
