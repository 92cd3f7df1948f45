package payments

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// StubBackend is an in-memory http.Handler that mimics the slice of the
// payments API this server uses. It backs the offline demo mode and the
// client tests; it is not a faithful emulator.
type StubBackend struct {
	mu       sync.Mutex
	accounts []Account

	// SecretKey, when set, is the only credential the stub accepts; other
	// keys get an authentication_error, letting tests exercise the
	// auth-failure path.
	SecretKey string
}

func NewStubBackend() *StubBackend {
	return &StubBackend{}
}

func (s *StubBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if s.SecretKey != "" {
		if r.Header.Get("Authorization") != "Bearer "+s.SecretKey {
			writeStubError(w, http.StatusUnauthorized, "authentication_error", "Invalid API key provided")
			return
		}
	}

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/v1/accounts":
		s.createAccount(w, r)
	case r.Method == http.MethodGet && r.URL.Path == "/v1/accounts":
		s.listAccounts(w)
	case r.Method == http.MethodGet && r.URL.Path == "/v1/account":
		s.retrieveAccount(w)
	case r.Method == http.MethodPost && r.URL.Path == "/v1/account_links":
		s.createAccountLink(w, r)
	case r.Method == http.MethodPost && r.URL.Path == "/v1/account_sessions":
		s.createAccountSession(w, r)
	default:
		writeStubError(w, http.StatusNotFound, "invalid_request_error", "Unrecognized request URL")
	}
}

func (s *StubBackend) createAccount(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	accountType := r.PostFormValue("type")
	switch accountType {
	case "standard", "express", "custom":
	default:
		writeStubError(w, http.StatusBadRequest, "invalid_request_error", "Invalid account type: "+accountType)
		return
	}

	account := Account{
		ID:      "acct_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16],
		Type:    accountType,
		Country: r.PostFormValue("country"),
		Email:   r.PostFormValue("email"),
	}

	s.mu.Lock()
	s.accounts = append(s.accounts, account)
	s.mu.Unlock()

	writeStubJSON(w, account)
}

func (s *StubBackend) listAccounts(w http.ResponseWriter) {
	s.mu.Lock()
	data := make([]Account, len(s.accounts))
	copy(data, s.accounts)
	s.mu.Unlock()

	writeStubJSON(w, map[string]any{"object": "list", "data": data})
}

func (s *StubBackend) retrieveAccount(w http.ResponseWriter) {
	writeStubJSON(w, Account{ID: "acct_platform_stub", Type: "standard", Country: "AU"})
}

func (s *StubBackend) createAccountLink(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	accountID := r.PostFormValue("account")
	if accountID == "" {
		writeStubError(w, http.StatusBadRequest, "invalid_request_error", "Missing required param: account")
		return
	}
	writeStubJSON(w, map[string]string{
		"url": "https://connect.stub.local/setup/s/" + accountID,
	})
}

func (s *StubBackend) createAccountSession(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	accountID := r.PostFormValue("account")
	if accountID == "" {
		writeStubError(w, http.StatusBadRequest, "invalid_request_error", "Missing required param: account")
		return
	}

	components := map[string]map[string]bool{}
	for key := range r.PostForm {
		// components[payments][enabled]=true
		if strings.HasPrefix(key, "components[") && strings.HasSuffix(key, "][enabled]") {
			name := strings.TrimSuffix(strings.TrimPrefix(key, "components["), "][enabled]")
			components[name] = map[string]bool{"enabled": r.PostFormValue(key) == "true"}
		}
	}

	writeStubJSON(w, map[string]any{
		"client_secret": "accs_secret_" + uuid.NewString(),
		"components":    components,
	})
}

func writeStubJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeStubError(w http.ResponseWriter, status int, errType, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"type": errType, "message": msg},
	})
}
