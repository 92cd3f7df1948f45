// Package httpapi exposes the settings store, the provisioning gateway and
// the user-mapping CRUD as a JSON REST surface.
package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/aleksvolk/connectboard/internal/common"
	"github.com/aleksvolk/connectboard/internal/logging"
	"github.com/aleksvolk/connectboard/internal/server/payments"
	"github.com/aleksvolk/connectboard/internal/server/services"
	"github.com/aleksvolk/connectboard/internal/settings"
)

// wireCategories are the categories addressable over the HTTP surface. The
// dashboard category travels only inside whole-record saves.
var wireCategories = []string{
	settings.CategoryGeneral,
	settings.CategoryOnboarding,
	settings.CategoryPayment,
	settings.CategoryLogs,
	settings.CategoryUI,
}

// Server wires the HTTP handlers to the services.
type Server struct {
	settings     *services.SettingsService
	provisioning *services.ProvisioningService
	users        *services.UsersService
	database     *services.DatabaseService
	logger       logging.Logger
}

// NewServer builds the handler set. databaseSvc may be nil (in-memory
// mode); the database-browser routes are then not registered.
func NewServer(
	settingsSvc *services.SettingsService,
	provisioningSvc *services.ProvisioningService,
	usersSvc *services.UsersService,
	databaseSvc *services.DatabaseService,
	logger logging.Logger,
) *Server {
	return &Server{
		settings:     settingsSvc,
		provisioning: provisioningSvc,
		users:        usersSvc,
		database:     databaseSvc,
		logger:       logger,
	}
}

// Routes returns the complete handler tree with logging applied.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/settings", s.handleGetSettings)
	mux.HandleFunc("POST /api/settings", s.handleSaveSettings)
	mux.HandleFunc("DELETE /api/settings", s.handleDeleteSettings)
	mux.HandleFunc("PUT /api/settings/{category}", s.handleUpdateCategory)
	mux.HandleFunc("POST /api/settings/verify", s.handleVerify)

	mux.HandleFunc("GET /api/onboarding/hosted", s.handleHostedOnboarding)
	mux.HandleFunc("POST /api/onboarding/create-account-with-email", s.handleCreateAccountWithEmail)
	mux.HandleFunc("GET /api/onboarding/embedded", s.handleEmbeddedOnboarding)
	mux.HandleFunc("GET /api/dashboard/embedded", s.handleEmbeddedDashboard)

	mux.HandleFunc("GET /api/users", s.handleListUsers)
	mux.HandleFunc("POST /api/users", s.handleCreateUser)
	mux.HandleFunc("GET /api/users/{id}", s.handleGetUser)
	mux.HandleFunc("PUT /api/users/{id}", s.handleUpdateUser)
	mux.HandleFunc("DELETE /api/users/{id}", s.handleDeleteUser)
	mux.HandleFunc("GET /api/users/email/{email}", s.handleGetUserByEmail)
	mux.HandleFunc("GET /api/users/account/{accountId}", s.handleGetUserByAccount)

	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/auth/logout", s.handleLogout)

	if s.database != nil {
		mux.HandleFunc("GET /api/database/tables", s.handleListTables)
		mux.HandleFunc("GET /api/database/tables/{table}/schema", s.handleTableSchema)
		mux.HandleFunc("GET /api/database/tables/{table}/data", s.handleTableData)
		mux.HandleFunc("PUT /api/database/tables/{table}/records/{id}", s.handleUpdateRecord)
		mux.HandleFunc("DELETE /api/database/tables/{table}/records/{id}", s.handleDeleteRecord)
	}

	return withLogging(s.logger, mux)
}

func userIDParam(r *http.Request) string {
	if id := r.URL.Query().Get("userId"); id != "" {
		return id
	}
	return services.DefaultUserID
}

// wireView projects a record onto the five wire categories.
func wireView(record *settings.Record) map[string]map[string]any {
	view := make(map[string]map[string]any, len(wireCategories))
	for _, name := range wireCategories {
		category, _ := record.Category(name)
		if category == nil {
			category = map[string]any{}
		}
		view[name] = category
	}
	return view
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	record, err := s.settings.Get(r.Context(), userIDParam(r))
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			writeError(w, statusFromError(err), err.Error())
			return
		}
		// never 404: unknown users see empty categories
		empty := settings.New()
		record = &empty
	}
	writeJSON(w, http.StatusOK, wireView(record))
}

func (s *Server) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID   string          `json:"userId"`
		Settings settings.Record `json:"settings"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.UserID == "" {
		req.UserID = services.DefaultUserID
	}

	saved, err := s.settings.Save(r.Context(), req.UserID, req.Settings)
	if err != nil {
		writeError(w, statusFromError(err), err.Error())
		return
	}
	resolved := settings.Resolve(*saved)
	writeJSON(w, http.StatusOK, resolved)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	category := r.PathValue("category")

	addressable := false
	for _, name := range wireCategories {
		if name == category {
			addressable = true
			break
		}
	}
	if !addressable {
		writeError(w, http.StatusBadRequest, "unknown settings category: "+category)
		return
	}

	var req struct {
		UserID  string         `json:"userId"`
		Updates map[string]any `json:"updates"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.UserID == "" {
		req.UserID = services.DefaultUserID
	}

	updated, err := s.settings.UpdateCategory(r.Context(), req.UserID, category, req.Updates)
	if err != nil {
		writeError(w, statusFromError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, wireView(updated))
}

func (s *Server) handleDeleteSettings(w http.ResponseWriter, r *http.Request) {
	deleted, err := s.settings.Delete(r.Context(), userIDParam(r))
	if err != nil {
		writeError(w, statusFromError(err), err.Error())
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "no settings stored")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PublicKey string `json:"publicKey"`
		SecretKey string `json:"secretKey"`
		UserID    string `json:"userId"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result := s.provisioning.VerifyCredentials(r.Context(), req.PublicKey, req.SecretKey)
	writeJSON(w, http.StatusOK, map[string]any{
		"isVerified": result.IsVerified,
		"accountId":  result.AccountID,
		"isPlatform": result.IsPlatform,
	})
}

func (s *Server) handleHostedOnboarding(w http.ResponseWriter, r *http.Request) {
	url, err := s.provisioning.CreateHostedRedirect(r.Context(), r.URL.Query().Get("account_id"))
	if err != nil {
		writeError(w, statusFromError(err), err.Error())
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}

func (s *Server) handleCreateAccountWithEmail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := s.provisioning.CreateOrGetAccountByEmail(r.Context(), req.Email)
	if err != nil {
		writeError(w, statusFromError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"id":      user.AccountID,
		"email":   user.Email,
	})
}

func (s *Server) handleEmbeddedOnboarding(w http.ResponseWriter, r *http.Request) {
	accountID := r.URL.Query().Get("account_id")

	session, err := s.provisioning.CreateEmbeddedSession(r.Context(), accountID,
		[]string{payments.ComponentAccountOnboarding})
	if err != nil {
		switch {
		case errors.Is(err, common.ErrUpstreamAuth):
			writeError(w, http.StatusUnauthorized,
				"The payments API rejected your credentials. Update the secret key in settings.")
		case errors.Is(err, common.ErrUpstreamRequest):
			writeError(w, http.StatusBadRequest,
				"The payments API rejected the request: "+err.Error())
		case errors.Is(err, common.ErrorValidation):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusBadGateway, "Could not initialize embedded onboarding.")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"client_secret": session.ClientSecret,
		"account":       accountID,
	})
}

func (s *Server) handleEmbeddedDashboard(w http.ResponseWriter, r *http.Request) {
	accountID := r.URL.Query().Get("account_id")

	session, err := s.provisioning.CreateEmbeddedSession(r.Context(), accountID, []string{
		payments.ComponentPayments,
		payments.ComponentPayouts,
		payments.ComponentBalances,
	})
	if err != nil {
		writeError(w, statusFromError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"clientSecret": session.ClientSecret,
		"components":   session.Components,
	})
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.GetAll(r.Context())
	if err != nil {
		writeError(w, statusFromError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email     string `json:"email"`
		AccountID string `json:"accountId"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := s.users.Create(r.Context(), req.Email, req.AccountID)
	if err != nil {
		writeError(w, statusFromError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func userID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		return 0, common.ErrorValidation
	}
	return id, nil
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := userID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	user, err := s.users.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, statusFromError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleGetUserByEmail(w http.ResponseWriter, r *http.Request) {
	user, err := s.users.GetByEmail(r.Context(), r.PathValue("email"))
	if err != nil {
		writeError(w, statusFromError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleGetUserByAccount(w http.ResponseWriter, r *http.Request) {
	user, err := s.users.GetByAccountID(r.Context(), r.PathValue("accountId"))
	if err != nil {
		writeError(w, statusFromError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := userID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req struct {
		Email     string `json:"email"`
		AccountID string `json:"accountId"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := s.users.Update(r.Context(), id, req.Email, req.AccountID)
	if err != nil {
		writeError(w, statusFromError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := userID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	deleted, err := s.users.Delete(r.Context(), id)
	if err != nil {
		writeError(w, statusFromError(err), err.Error())
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "no such user")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	user, err := s.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		// an unknown email is a normal "not logged in" outcome
		if errors.Is(err, common.ErrorNotFound) {
			writeJSON(w, http.StatusOK, map[string]any{
				"loggedIn": false,
				"message":  "no connected account found for this email",
			})
			return
		}
		writeError(w, statusFromError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"loggedIn": true,
		"user":     user,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"loggedIn": false})
}
