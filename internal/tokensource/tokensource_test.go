package tokensource

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestEndpoint(t *testing.T) {
	tests := []struct {
		name        string
		accountsURL string
		want        string
	}{
		{name: "default host", accountsURL: DefaultAccountsURL, want: "https://accounts.platform.sh/oauth2/token"},
		{name: "trailing slash", accountsURL: "http://127.0.0.1:8080/", want: "http://127.0.0.1:8080/oauth2/token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Endpoint(tt.accountsURL).TokenURL; got != tt.want {
				t.Errorf("TokenURL = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMintSendsJSONGrant(t *testing.T) {
	var (
		receivedAuth        string
		receivedContentType string
		receivedBody        map[string]string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/oauth2/token" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		receivedAuth = r.Header.Get("Authorization")
		receivedContentType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &receivedBody); err != nil {
			t.Errorf("request body is not JSON: %v (%s)", err, body)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"session-1","token_type":"bearer","expires_in":900}`))
	}))
	defer server.Close()

	m := NewMinter(Endpoint(server.URL))
	tok, err := m.Mint(context.Background(), "api-secret")
	if err != nil {
		t.Fatalf("Mint failed: %v", err)
	}

	if tok.AccessToken != "session-1" {
		t.Errorf("AccessToken = %q, want %q", tok.AccessToken, "session-1")
	}
	if receivedAuth != "Basic cGxhdGZvcm0tY2xpOg==" {
		t.Errorf("Authorization = %q, want fixed platform-cli client header", receivedAuth)
	}
	if receivedContentType != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", receivedContentType)
	}
	if receivedBody["grant_type"] != "api_token" {
		t.Errorf("grant_type = %q, want api_token", receivedBody["grant_type"])
	}
	if receivedBody["api_token"] != "api-secret" {
		t.Errorf("api_token = %q, want api-secret", receivedBody["api_token"])
	}
}

func TestMintAlwaysContactsEndpoint(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"session","expires_in":900}`))
	}))
	defer server.Close()

	m := NewMinter(Endpoint(server.URL))
	for range 3 {
		if _, err := m.Mint(context.Background(), "api-secret"); err != nil {
			t.Fatalf("Mint failed: %v", err)
		}
	}

	if calls != 3 {
		t.Errorf("identity endpoint calls = %d, want 3", calls)
	}
}

func TestMintFailures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{
			name:    "invalid api token",
			status:  http.StatusBadRequest,
			body:    `{"error":"invalid_grant","error_description":"Invalid API token"}`,
			wantErr: "invalid_grant",
		},
		{
			name:    "missing access_token",
			status:  http.StatusOK,
			body:    `{"token_type":"bearer"}`,
			wantErr: "missing access_token",
		},
		{
			name:   "server error",
			status: http.StatusInternalServerError,
			body:   `{}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewMinter(Endpoint(server.URL)).Mint(context.Background(), "api-secret")
			if err == nil {
				t.Fatal("expected error but got none")
			}
			if tt.wantErr != "" && !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestMintUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	if _, err := NewMinter(Endpoint(url)).Mint(context.Background(), "api-secret"); err == nil {
		t.Fatal("expected error for unreachable endpoint")
	}
}

func TestMintEmptyAPIToken(t *testing.T) {
	_, err := NewMinter(Endpoint(DefaultAccountsURL)).Mint(context.Background(), "")
	if !errors.Is(err, ErrEmptyAPIToken) {
		t.Fatalf("expected ErrEmptyAPIToken, got %v", err)
	}
}
