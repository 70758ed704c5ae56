package httpserver

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/webportal/internal/common"
	"github.com/dmitrijs2005/webportal/internal/server/resolver"
	"github.com/dmitrijs2005/webportal/internal/server/services"
	"github.com/dmitrijs2005/webportal/internal/validate"
)

const (
	msgInternal        = "something went wrong, please try again later"
	msgLoginOK         = "login successful"
	msgRegisterOK      = "registration successful, please log in"
	msgCheckFailed     = "could not check username availability"
	msgResolverOK      = "database connection established"
	msgResolverFailure = "could not connect to the database with any configured method"
)

var nextSteps = []string{
	"Use the working connection method in the application configuration.",
	"Create the application database and tables.",
	"Start building features on top of the connection.",
}

var troubleshooting = []string{
	"Check that SQL Server accepts mixed mode authentication.",
	"Check that the configured login is enabled.",
	"Check the configured password.",
	"Restart the SQL Server service after changing its settings.",
	"Try the same credentials from a management tool to confirm them.",
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type loginRequest struct {
	Username string   `json:"username"`
	Password string   `json:"password"`
	Remember flexBool `json:"remember"`
}

type userView struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

type loginResponse struct {
	Success     bool     `json:"success"`
	Message     string   `json:"message"`
	User        userView `json:"user"`
	RedirectURL string   `json:"redirectUrl"`
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

type registerResponse struct {
	Success     bool               `json:"success"`
	Message     string             `json:"message"`
	Field       string             `json:"field,omitempty"`
	Strength    *validate.Strength `json:"strength,omitempty"`
	RedirectURL string             `json:"redirectUrl,omitempty"`
}

type checkUsernameRequest struct {
	Username string `json:"username"`
}

type testDBSuccess struct {
	Success          bool               `json:"success"`
	Message          string             `json:"message"`
	ConnectionMethod string             `json:"connectionMethod"`
	Data             any                `json:"data"`
	NextSteps        []string           `json:"nextSteps"`
	AllAttempts      []resolver.Attempt `json:"allAttempts"`
}

type testDBFailure struct {
	Success         bool               `json:"success"`
	Message         string             `json:"message"`
	Troubleshooting []string           `json:"troubleshooting"`
	AllAttempts     []resolver.Attempt `json:"allAttempts"`
}

func (h *Handlers) index(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionFromContext(r.Context())
	h.views.Render(w, http.StatusOK, "index", pageData{
		Title:   "Web Portal",
		Message: "Welcome to the portal.",
		Session: session,
	})
}

func (h *Handlers) loginPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := sessionFromContext(r.Context()); ok {
		http.Redirect(w, r, common.DashboardPath, http.StatusSeeOther)
		return
	}
	h.views.Render(w, http.StatusOK, "login", pageData{Title: "Log in"})
}

func (h *Handlers) registerPage(w http.ResponseWriter, r *http.Request) {
	h.views.Render(w, http.StatusOK, "register", pageData{Title: "Register"})
}

func (h *Handlers) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if err := decodeBody(r, w, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "invalid request body"})
		return
	}
	session, err := h.accounts.Authenticate(ctx, req.Username, req.Password, bool(req.Remember))
	if err != nil {
		if errors.Is(err, common.ErrInvalidCredentials) {
			writeJSON(w, http.StatusUnauthorized, messageResponse{Message: common.ErrInvalidCredentials.Error()})
			return
		}
		writeJSON(w, http.StatusInternalServerError, messageResponse{Message: msgInternal})
		return
	}

	token, err := h.accounts.Token(session)
	if err != nil {
		h.logger.Error(ctx, "token signing failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, messageResponse{Message: msgInternal})
		return
	}

	// a browser switching accounts should not leave the old session alive
	if prev, ok := sessionFromContext(ctx); ok && prev.ID != session.ID {
		_ = h.accounts.Logout(ctx, prev.ID)
	}

	h.setSessionCookie(w, token, session.ExpiresAt, bool(req.Remember))
	writeJSON(w, http.StatusOK, loginResponse{
		Success: true,
		Message: msgLoginOK,
		User: userView{
			ID:       session.AccountID,
			Username: session.Username,
			FullName: session.FullName,
			Email:    session.Email,
			Role:     session.Role,
		},
		RedirectURL: common.DashboardPath,
	})
}

func (h *Handlers) logout(w http.ResponseWriter, r *http.Request) {
	if session, ok := sessionFromContext(r.Context()); ok {
		if err := h.accounts.Logout(r.Context(), session.ID); err != nil {
			h.internalError(w, r)
			return
		}
	}
	h.clearSessionCookie(w)
	http.Redirect(w, r, common.LoginPath, http.StatusSeeOther)
}

func (h *Handlers) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeBody(r, w, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, registerResponse{Message: "invalid request body"})
		return
	}

	_, err := h.accounts.Register(r.Context(), services.RegisterInput{
		Username: req.Username,
		Password: req.Password,
		FullName: req.FullName,
		Email:    req.Email,
	})

	var fieldErr *validate.FieldError
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, registerResponse{Success: true, Message: msgRegisterOK, RedirectURL: common.LoginPath})
	case errors.As(err, &fieldErr):
		writeJSON(w, http.StatusBadRequest, registerResponse{Message: fieldErr.Message, Field: fieldErr.Field, Strength: fieldErr.Strength})
	case errors.Is(err, common.ErrDuplicateUsername):
		writeJSON(w, http.StatusBadRequest, registerResponse{Message: common.ErrDuplicateUsername.Error(), Field: "username"})
	case errors.Is(err, common.ErrDuplicateEmail):
		writeJSON(w, http.StatusBadRequest, registerResponse{Message: common.ErrDuplicateEmail.Error(), Field: "email"})
	case errors.Is(err, common.ErrorValidation):
		writeJSON(w, http.StatusBadRequest, registerResponse{Message: "invalid registration data"})
	default:
		writeJSON(w, http.StatusInternalServerError, registerResponse{Message: msgInternal})
	}
}

func (h *Handlers) checkUsername(w http.ResponseWriter, r *http.Request) {
	var req checkUsernameRequest
	if err := decodeBody(r, w, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, services.UsernameAvailability{Message: "invalid request body"})
		return
	}

	res, err := h.accounts.CheckUsername(r.Context(), req.Username)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, services.UsernameAvailability{Available: false, Message: msgCheckFailed})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) testDB(w http.ResponseWriter, r *http.Request) {
	report := h.resolver.Resolve(r.Context())

	attempts := report.Attempts
	if attempts == nil {
		attempts = []resolver.Attempt{}
	}

	if !report.Success {
		writeJSON(w, http.StatusInternalServerError, testDBFailure{
			Message:         msgResolverFailure,
			Troubleshooting: troubleshooting,
			AllAttempts:     attempts,
		})
		return
	}

	writeJSON(w, http.StatusOK, testDBSuccess{
		Success:          true,
		Message:          msgResolverOK,
		ConnectionMethod: report.Method,
		Data:             report.Data,
		NextSteps:        nextSteps,
		AllAttempts:      attempts,
	})
}

func (h *Handlers) healthz(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		if err := h.db.PingContext(r.Context()); err != nil {
			h.logger.Error(r.Context(), "health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, messageResponse{Message: "database unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "ok"})
}

func (h *Handlers) dashboard(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionFromContext(r.Context())
	h.views.Render(w, http.StatusOK, "dashboard", pageData{Title: "Dashboard", Session: session})
}

func (h *Handlers) users(w http.ResponseWriter, r *http.Request) {
	session, _ := sessionFromContext(r.Context())

	list, err := h.accounts.ListAccounts(r.Context())
	if err != nil {
		h.internalError(w, r)
		return
	}
	h.views.Render(w, http.StatusOK, "users", pageData{Title: "Users", Session: session, Accounts: list})
}
