// Package app is the composition root shared by the console server and the
// CLI. It owns the credential store, the backend gateway and the services,
// and tracks whether the operator is authenticated. On Start it subscribes
// to the logout signal so a session rejected by the backend drops the
// authenticated state wherever it happens.
package app

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tbourn/go-warehouse-approvals/internal/config"
	"github.com/tbourn/go-warehouse-approvals/internal/credentials"
	"github.com/tbourn/go-warehouse-approvals/internal/domain"
	"github.com/tbourn/go-warehouse-approvals/internal/gateway"
	"github.com/tbourn/go-warehouse-approvals/internal/repo"
	"github.com/tbourn/go-warehouse-approvals/internal/services"
	"github.com/tbourn/go-warehouse-approvals/internal/signal"
)

// App wires the client together.
type App struct {
	Config config.Config
	Log    zerolog.Logger

	Store   credentials.Store
	DB      *gorm.DB          // nil with the memory credential backend
	Audit   *repo.ApprovalLog // nil with the memory credential backend
	Gateway *gateway.Client
	Signal  *signal.LogoutSignal

	Auth      *services.AuthService
	Documents *services.DocumentService
	Approvals *services.ApprovalService
	Reports   *services.ReportService

	authenticated atomic.Bool

	mu        sync.Mutex
	listeners []func()
	started   bool
}

// Option customizes New.
type Option func(*options)

type options struct {
	store      credentials.Store
	db         *gorm.DB
	signal     *signal.LogoutSignal
	httpClient *http.Client
}

// WithStore uses s instead of the store selected by configuration.
func WithStore(s credentials.Store) Option { return func(o *options) { o.store = s } }

// WithDB uses an already opened database for credentials and the audit log.
func WithDB(db *gorm.DB) Option { return func(o *options) { o.db = db } }

// WithSignal uses s instead of signal.Default.
func WithSignal(s *signal.LogoutSignal) Option { return func(o *options) { o.signal = s } }

// WithHTTPClient sets the client used for backend calls.
func WithHTTPClient(c *http.Client) Option { return func(o *options) { o.httpClient = c } }

// New builds an App from cfg. Nothing is subscribed until Start.
func New(cfg config.Config, log zerolog.Logger, opts ...Option) (*App, error) {
	var o options
	for _, fn := range opts {
		fn(&o)
	}
	if o.signal == nil {
		o.signal = signal.Default
	}

	a := &App{Config: cfg, Log: log, Signal: o.signal}

	switch {
	case o.store != nil:
		a.Store = o.store
		a.DB = o.db
	case o.db != nil:
		a.DB = o.db
	case cfg.Credentials.Backend == config.CredentialsMemory:
		a.Store = credentials.NewMemoryStore()
	default:
		db, err := repo.OpenSQLite(cfg.Credentials.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open credential db: %w", err)
		}
		a.DB = db
	}
	if a.DB != nil {
		if err := repo.AutoMigrate(a.DB); err != nil {
			return nil, fmt.Errorf("migrate credential db: %w", err)
		}
		if a.Store == nil {
			a.Store = repo.NewCredentialStore(a.DB)
		}
		a.Audit = repo.NewApprovalLog(a.DB, cfg.IdempotencyTTL)
		a.Audit.Retention = cfg.ApprovalRetention
	}

	gw, err := gateway.New(gateway.Options{
		BaseURL:    cfg.Backend.BaseURL,
		Timeout:    cfg.Backend.RequestTimeout,
		UserAgent:  cfg.Backend.UserAgent,
		HTTPClient: o.httpClient,
		Store:      a.Store,
		Signal:     a.Signal,
		Logger:     log,
	})
	if err != nil {
		return nil, err
	}
	a.Gateway = gw

	a.Auth = services.NewAuthService(gw, a.Store, log.With().Str("component", "auth").Logger())
	a.Documents = services.NewDocumentService(gw, log.With().Str("component", "documents").Logger())
	a.Reports = services.NewReportService(gw)

	var audit services.ApprovalLog
	if a.Audit != nil {
		audit = a.Audit
	}
	a.Approvals = services.NewApprovalService(gw, a.Documents, audit, a.Store, log.With().Str("component", "approvals").Logger())
	return a, nil
}

// Start restores the authenticated state from the store, prunes approval
// records past their retention and subscribes to the logout signal.
func (a *App) Start(ctx context.Context) error {
	ok, err := a.Auth.IsLoggedIn(ctx)
	if err != nil {
		return fmt.Errorf("read session: %w", err)
	}
	a.authenticated.Store(ok)

	if a.Audit != nil {
		n, err := a.Audit.Prune(ctx, time.Now().UTC())
		switch {
		case err != nil:
			a.Log.Warn().Err(err).Msg("prune approval log")
		case n > 0:
			a.Log.Info().Int64("removed", n).Dur("retention", a.Audit.Retention).Msg("pruned approval log")
		}
	}

	a.mu.Lock()
	a.started = true
	a.mu.Unlock()
	a.Signal.Register(a.handleForcedLogout)
	return nil
}

// Authenticated reports whether the operator is logged in.
func (a *App) Authenticated() bool { return a.authenticated.Load() }

// OnLogout registers f to run after a forced logout.
func (a *App) OnLogout(f func()) {
	a.mu.Lock()
	a.listeners = append(a.listeners, f)
	a.mu.Unlock()
}

// Login authenticates and marks the app authenticated.
func (a *App) Login(ctx context.Context, username, password string) (domain.User, error) {
	u, err := a.Auth.Login(ctx, username, password)
	if err != nil {
		return domain.User{}, err
	}
	a.authenticated.Store(true)
	return u, nil
}

// Logout ends the session locally.
func (a *App) Logout(ctx context.Context) error {
	err := a.Auth.Logout(ctx)
	a.authenticated.Store(false)
	return err
}

func (a *App) handleForcedLogout() {
	a.authenticated.Store(false)
	a.Log.Warn().Msg("session ended by backend; login required")

	a.mu.Lock()
	ls := make([]func(), len(a.listeners))
	copy(ls, a.listeners)
	a.mu.Unlock()
	for _, f := range ls {
		f()
	}
}

// Close unsubscribes from the logout signal and closes the database.
func (a *App) Close() error {
	a.mu.Lock()
	started := a.started
	a.started = false
	a.mu.Unlock()
	if started {
		a.Signal.Clear()
	}
	if a.DB == nil {
		return nil
	}
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
