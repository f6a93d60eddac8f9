package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/arnavshah/staffmonitr-go/internal/config"
	"github.com/arnavshah/staffmonitr-go/internal/console"
	"github.com/arnavshah/staffmonitr-go/pkg/account"
	"github.com/arnavshah/staffmonitr-go/pkg/api"
	"github.com/arnavshah/staffmonitr-go/pkg/auth"
	"github.com/arnavshah/staffmonitr-go/pkg/database"
	"github.com/arnavshah/staffmonitr-go/pkg/store"
)

// App holds the wired client-side components
type App struct {
	Config   *config.AppConfig
	Logger   *zap.Logger
	Client   *api.Client
	Session  *auth.Session
	Selector *account.Selector
	Store    *store.ScheduleStore
	Console  *console.Console

	closers []func() error
	unsub   func()
}

// Option customizes New
type Option func(*settings)

type settings struct {
	apiOpts []api.Option
	tokens  auth.TokenStore
}

// WithAPIOptions passes extra options to the API client
func WithAPIOptions(opts ...api.Option) Option {
	return func(s *settings) { s.apiOpts = append(s.apiOpts, opts...) }
}

// WithTokenStore overrides the store selected by session.store
func WithTokenStore(tokens auth.TokenStore) Option {
	return func(s *settings) { s.tokens = tokens }
}

// New builds the client, session, account selector, schedule store and
// console from conf. The account selection follows the session's accounts
// and the schedule store is cleared on sign-out.
func New(conf *config.AppConfig, logger *zap.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = zap.L()
	}
	var s settings
	for _, opt := range opts {
		opt(&s)
	}

	a := &App{Config: conf, Logger: logger}

	tokens := s.tokens
	if tokens == nil {
		var closer func() error
		var err error
		tokens, closer, err = NewTokenStore(conf.Session)
		if err != nil {
			return nil, fmt.Errorf("app.New -> %w", err)
		}
		if closer != nil {
			a.closers = append(a.closers, closer)
		}
	}

	apiOpts := append([]api.Option{api.WithTimeout(conf.API.Timeout), api.WithLogger(logger)}, s.apiOpts...)
	a.Client = api.New(conf.API.BaseURL, apiOpts...)
	a.Session = auth.NewSession(a.Client, tokens, logger)
	a.Selector = account.NewSelector()
	a.Store = store.New()
	a.Console = console.New(a.Client, a.Session, a.Selector, a.Store, console.Options{
		DefaultStaffID: conf.Console.DefaultStaffID,
		Logger:         logger,
	})

	a.unsub = a.Session.Subscribe(func(state auth.State) {
		a.Selector.Sync(state.Accounts)
		if !state.Loading && !state.IsAuthenticated() {
			a.Store.Reset()
		}
	})
	return a, nil
}

// Start restores the persisted session and selects accountID when given
func (a *App) Start(ctx context.Context, accountID string) error {
	a.Session.Bootstrap(ctx)
	if accountID == "" {
		return nil
	}
	return a.Selector.SelectByID(accountID)
}

// Close releases the token store connections
func (a *App) Close() error {
	if a.unsub != nil {
		a.unsub()
	}
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// NewTokenStore opens the token store named by conf.Store. The returned
// closer, when non-nil, releases its connection.
func NewTokenStore(conf config.Session) (auth.TokenStore, func() error, error) {
	switch conf.Store {
	case config.StoreMemory:
		return auth.NewMemoryTokenStore(), nil, nil

	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{Addr: conf.RedisAddr, Password: conf.RedisPassword})
		return database.NewRedisTokenStore(client, conf.Key), client.Close, nil

	case config.StoreSQLite, config.StorePostgres:
		dbConf := database.Config{SQLitePath: conf.SQLitePath}
		if conf.Store == config.StorePostgres {
			if conf.DatabaseURL == "" {
				return nil, nil, errors.New("session.database_url is required for the postgres store")
			}
			dbConf = database.Config{DatabaseURL: conf.DatabaseURL}
		} else if dir := filepath.Dir(conf.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return nil, nil, fmt.Errorf("failed to create session directory -> %w", err)
			}
		}

		db, err := database.Open(dbConf)
		if err != nil {
			return nil, nil, err
		}
		tokens, err := database.NewTokenStore(db, conf.Key)
		if err != nil {
			return nil, nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, err
		}
		return tokens, sqlDB.Close, nil
	}
	return nil, nil, fmt.Errorf("unsupported session.store %q", conf.Store)
}
