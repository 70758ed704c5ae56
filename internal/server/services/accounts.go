// Package services contains the portal's business logic. AccountService
// covers registration, username availability, login, session lookup and
// logout.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/webportal/internal/common"
	"github.com/dmitrijs2005/webportal/internal/cryptox"
	"github.com/dmitrijs2005/webportal/internal/logging"
	"github.com/dmitrijs2005/webportal/internal/server/auth"
	"github.com/dmitrijs2005/webportal/internal/server/config"
	"github.com/dmitrijs2005/webportal/internal/server/models"
	"github.com/dmitrijs2005/webportal/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/webportal/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/webportal/internal/server/sessions"
	"github.com/dmitrijs2005/webportal/internal/validate"
)

// Outcome labels passed to the Recorder.
const (
	ResultSuccess   = "success"
	ResultInvalid   = "invalid"
	ResultDuplicate = "duplicate"
	ResultError     = "error"
)

type Recorder interface {
	RecordLogin(result string)
	RecordRegistration(result string)
}

type nopRecorder struct{}

func (nopRecorder) RecordLogin(string)        {}
func (nopRecorder) RecordRegistration(string) {}

type RegisterInput struct {
	Username string
	Password string
	FullName string
	Email    string
}

type UsernameAvailability struct {
	Available bool   `json:"available"`
	Message   string `json:"message"`
}

// AccountService is safe for concurrent use.
type AccountService struct {
	repomanager repomanager.RepositoryManager
	sessions    sessions.Store
	hasher      *cryptox.Hasher
	logger      logging.Logger
	recorder    Recorder
	now         func() time.Time

	jwtSecret          []byte
	sessionTTL         time.Duration
	rememberSessionTTL time.Duration
}

func NewAccountService(m repomanager.RepositoryManager, store sessions.Store, hasher *cryptox.Hasher,
	cfg *config.Config, logger logging.Logger, recorder Recorder) *AccountService {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &AccountService{
		repomanager:        m,
		sessions:           store,
		hasher:             hasher,
		logger:             logger.With("module", "accounts"),
		recorder:           recorder,
		now:                time.Now,
		jwtSecret:          []byte(cfg.SecretKey),
		sessionTTL:         cfg.SessionTTL,
		rememberSessionTTL: cfg.RememberSessionTTL,
	}
}

// Register validates the input, checks username then email uniqueness and
// stores the account with a fresh argon2id hash. The pre-checks only produce
// friendlier errors; the store's unique constraints are what guarantee that
// two concurrent registrations cannot both succeed.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*models.Account, error) {
	in.Username = normalizeUsername(in.Username)
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.TrimSpace(in.Email)

	if err := validate.Registration(in.Username, in.Password, in.FullName, in.Email); err != nil {
		s.recorder.RecordRegistration(ResultInvalid)
		return nil, err
	}

	repo := s.repomanager.Accounts()

	if err := s.ensureAbsent(ctx, repo.GetByUsername, in.Username, common.ErrDuplicateUsername); err != nil {
		return nil, s.registrationFailed(ctx, err)
	}
	if err := s.ensureAbsent(ctx, repo.GetByEmail, in.Email, common.ErrDuplicateEmail); err != nil {
		return nil, s.registrationFailed(ctx, err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, s.registrationFailed(ctx, fmt.Errorf("%w: %v", common.ErrorInternal, err))
	}

	account, err := repo.Create(ctx, &models.Account{
		Username:     in.Username,
		PasswordHash: hash,
		FullName:     in.FullName,
		Email:        in.Email,
		Role:         common.DefaultRole,
		IsActive:     true,
	})
	if err != nil {
		return nil, s.registrationFailed(ctx, err)
	}

	s.recorder.RecordRegistration(ResultSuccess)
	s.logger.Info(ctx, "account registered", "username", account.Username, "id", account.ID)

	return account, nil
}

func (s *AccountService) ensureAbsent(ctx context.Context, lookup func(context.Context, string) (*models.Account, error), key string, dup error) error {
	_, err := lookup(ctx, key)
	switch {
	case err == nil:
		return dup
	case errors.Is(err, common.ErrorNotFound):
		return nil
	default:
		return fmt.Errorf("%w: %v", common.ErrorConnectivity, err)
	}
}

func (s *AccountService) registrationFailed(ctx context.Context, err error) error {
	if isDuplicate(err) {
		s.recorder.RecordRegistration(ResultDuplicate)
		return err
	}
	s.recorder.RecordRegistration(ResultError)
	s.logger.Error(ctx, "registration failed", "error", err)
	return err
}

// CheckUsername reports whether username is well formed and unused. A
// malformed name is rejected without touching the store.
func (s *AccountService) CheckUsername(ctx context.Context, username string) (*UsernameAvailability, error) {
	username = normalizeUsername(username)
	if err := validate.Username(username); err != nil {
		return &UsernameAvailability{Available: false, Message: validate.UsernameFormatHint}, nil
	}

	_, err := s.repomanager.Accounts().GetByUsername(ctx, username)
	switch {
	case err == nil:
		return &UsernameAvailability{Available: false, Message: "username is already taken"}, nil
	case errors.Is(err, common.ErrorNotFound):
		return &UsernameAvailability{Available: true, Message: "username is available"}, nil
	default:
		s.logger.Error(ctx, "username check failed", "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrorConnectivity, err)
	}
}

// Authenticate verifies credentials and opens a session. Unknown, inactive
// and wrong-password cases, as well as empty fields, all return
// common.ErrInvalidCredentials. The hash is checked outside any transaction;
// only the last-login update runs in one.
func (s *AccountService) Authenticate(ctx context.Context, username, password string, remember bool) (*models.Session, error) {
	account, err := s.verifyCredentials(ctx, normalizeUsername(username), password)
	if err == nil {
		err = s.repomanager.WithTx(ctx, func(ctx context.Context, repo accounts.Repository) error {
			now := s.now().UTC()
			if err := repo.UpdateLastLogin(ctx, account.ID, now); err != nil {
				return fmt.Errorf("%w: %v", common.ErrorConnectivity, err)
			}
			account.LastLogin = &now
			return nil
		})
	}
	if err != nil {
		if errors.Is(err, common.ErrInvalidCredentials) {
			s.recorder.RecordLogin(ResultInvalid)
			return nil, err
		}
		s.recorder.RecordLogin(ResultError)
		s.logger.Error(ctx, "login failed", "error", err)
		return nil, err
	}

	session, err := s.openSession(ctx, account, remember)
	if err != nil {
		s.recorder.RecordLogin(ResultError)
		s.logger.Error(ctx, "session create failed", "error", err)
		return nil, err
	}

	s.recorder.RecordLogin(ResultSuccess)
	s.logger.Info(ctx, "user logged in", "username", account.Username)

	return session, nil
}

// verifyCredentials does one argon2 computation on every path so that the
// failure cases take the same time.
func (s *AccountService) verifyCredentials(ctx context.Context, username, password string) (*models.Account, error) {
	if username == "" || password == "" {
		s.hasher.DummyVerify(password)
		return nil, common.ErrInvalidCredentials
	}

	a, err := s.repomanager.Accounts().FindForAuth(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.DummyVerify(password)
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%w: %v", common.ErrorConnectivity, err)
	}

	ok, err := s.hasher.Verify(password, a.PasswordHash)
	if err != nil {
		s.logger.Warn(ctx, "stored password hash is unreadable", "username", username, "error", err)
		return nil, common.ErrInvalidCredentials
	}
	if !ok {
		return nil, common.ErrInvalidCredentials
	}
	return a, nil
}

func (s *AccountService) openSession(ctx context.Context, a *models.Account, remember bool) (*models.Session, error) {
	id, err := sessions.NewID()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	now := s.now().UTC()
	session := &models.Session{
		ID:        id,
		AccountID: a.ID,
		Username:  a.Username,
		FullName:  a.FullName,
		Email:     a.Email,
		Role:      a.Role,
		CreatedAt: now,
		ExpiresAt: now.Add(s.SessionTTL(remember)),
	}

	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// SessionTTL is the lifetime of a new session.
func (s *AccountService) SessionTTL(remember bool) time.Duration {
	if remember && s.rememberSessionTTL > 0 {
		return s.rememberSessionTTL
	}
	return s.sessionTTL
}

// Token signs the cookie value for session.
func (s *AccountService) Token(session *models.Session) (string, error) {
	return auth.GenerateToken(session.ID, s.jwtSecret, session.ExpiresAt.Sub(s.now()))
}

// CurrentSession resolves a cookie token to its live session. Any failure to
// do so is common.ErrNotAuthenticated, except store outages.
func (s *AccountService) CurrentSession(ctx context.Context, token string) (*models.Session, error) {
	if token == "" {
		return nil, common.ErrNotAuthenticated
	}

	id, err := auth.GetSessionIDFromToken(token, s.jwtSecret)
	if err != nil {
		return nil, common.ErrNotAuthenticated
	}

	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrNotAuthenticated
		}
		return nil, err
	}
	return session, nil
}

// Logout removes the session. Unknown ids are ignored.
func (s *AccountService) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		s.logger.Error(ctx, "logout failed", "error", err)
		return err
	}
	return nil
}

func (s *AccountService) ListAccounts(ctx context.Context) ([]*models.Account, error) {
	list, err := s.repomanager.Accounts().List(ctx)
	if err != nil {
		s.logger.Error(ctx, "list accounts failed", "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrorConnectivity, err)
	}
	return list, nil
}

// SetActive enables or disables login for the named account.
func (s *AccountService) SetActive(ctx context.Context, username string, active bool) error {
	repo := s.repomanager.Accounts()

	a, err := repo.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	if err := repo.SetActive(ctx, a.ID, active); err != nil {
		return err
	}

	s.logger.Info(ctx, "account active flag changed", "username", username, "active", active)
	return nil
}

// normalizeUsername is applied by every operation that takes a username, so
// availability, registration and login agree on what a name is.
func normalizeUsername(username string) string {
	return strings.TrimSpace(username)
}

func isDuplicate(err error) bool {
	return errors.Is(err, common.ErrDuplicateUsername) || errors.Is(err, common.ErrDuplicateEmail)
}
