package httpserver

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/webportal/internal/logging"
	"github.com/dmitrijs2005/webportal/internal/server/metrics"
	"github.com/dmitrijs2005/webportal/internal/server/models"
	"github.com/dmitrijs2005/webportal/internal/server/resolver"
	"github.com/dmitrijs2005/webportal/internal/server/services"
	"github.com/gorilla/mux"
)

type accountService interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.Account, error)
	CheckUsername(ctx context.Context, username string) (*services.UsernameAvailability, error)
	Authenticate(ctx context.Context, username, password string, remember bool) (*models.Session, error)
	Token(session *models.Session) (string, error)
	CurrentSession(ctx context.Context, token string) (*models.Session, error)
	Logout(ctx context.Context, sessionID string) error
	ListAccounts(ctx context.Context) ([]*models.Account, error)
}

type connectionResolver interface {
	Resolve(ctx context.Context) *resolver.Report
}

type Options struct {
	Accounts       accountService
	Resolver       connectionResolver
	Logger         logging.Logger
	Metrics        *metrics.Metrics
	DB             *sql.DB
	RequestTimeout time.Duration
	SecureCookies  bool
}

type Handlers struct {
	accounts      accountService
	resolver      connectionResolver
	views         *Views
	logger        logging.Logger
	db            *sql.DB
	secureCookies bool
}

// NewRouter wires routes and middleware. Middleware order: panic recovery,
// access log, metrics, request timeout, session loading.
func NewRouter(o Options) (http.Handler, error) {
	views, err := NewViews()
	if err != nil {
		return nil, fmt.Errorf("templates: %w", err)
	}

	h := &Handlers{
		accounts:      o.Accounts,
		resolver:      o.Resolver,
		views:         views,
		logger:        o.Logger.With("module", "http"),
		db:            o.DB,
		secureCookies: o.SecureCookies,
	}

	r := mux.NewRouter()
	r.Use(h.recoverer, h.accessLog)
	if o.Metrics != nil {
		r.Use(o.Metrics.InstrumentHandler)
		r.Handle("/metrics", o.Metrics.Handler()).Methods(http.MethodGet)
	}
	r.Use(timeout(o.RequestTimeout), h.loadSession)

	r.HandleFunc("/", h.index).Methods(http.MethodGet)
	r.HandleFunc("/login", h.loginPage).Methods(http.MethodGet)
	r.HandleFunc("/login", h.login).Methods(http.MethodPost)
	r.HandleFunc("/logout", h.logout).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/register", h.registerPage).Methods(http.MethodGet)
	r.HandleFunc("/register", h.register).Methods(http.MethodPost)
	r.HandleFunc("/check-username", h.checkUsername).Methods(http.MethodPost)
	r.HandleFunc("/test-db", h.testDB).Methods(http.MethodGet)
	r.HandleFunc("/healthz", h.healthz).Methods(http.MethodGet)

	r.Handle("/dashboard", h.requireSession(http.HandlerFunc(h.dashboard))).Methods(http.MethodGet)
	r.Handle("/users", h.requireSession(http.HandlerFunc(h.users))).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(h.notFound)

	return r, nil
}
