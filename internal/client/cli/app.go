package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/cashbackhub/internal/client/client"
	"github.com/dmitrijs2005/cashbackhub/internal/client/config"
	"github.com/dmitrijs2005/cashbackhub/internal/client/repositories/kv"
	"github.com/dmitrijs2005/cashbackhub/internal/client/routes"
	"github.com/dmitrijs2005/cashbackhub/internal/client/session"
	"github.com/dmitrijs2005/cashbackhub/internal/client/storage"
	"github.com/dmitrijs2005/cashbackhub/internal/client/tokens"
	"github.com/dmitrijs2005/cashbackhub/internal/filex"
	"github.com/dmitrijs2005/cashbackhub/internal/logging"
)

type Mode string

const (
	ModeOnline  Mode = "online"
	ModeOffline Mode = "offline"
)

// lastPageKey is where the page shown on exit is remembered, so the next
// start resumes there.
const lastPageKey = "last_page"

type App struct {
	config  *config.Config
	logger  logging.Logger
	api     client.Client
	session *session.Store
	nav     *Navigator
	state   kv.Repository

	reader *bufio.Reader
	out    io.Writer

	mu   sync.Mutex
	mode Mode

	closers []func() error
}

// NewApp wires the client: logger, local database, token store, API client,
// session and navigator.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, err := logging.New(c.LoggingOptions())
	if err != nil {
		return nil, err
	}

	a := &App{
		config: c,
		logger: logger,
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}
	if s, ok := logger.(interface{ Sync() error }); ok {
		a.closers = append(a.closers, s.Sync)
	}

	var store tokens.Store
	switch c.TokenStore {
	case config.StoreSQLite:
		path, err := filex.EnsureParentDir(c.DatabasePath)
		if err != nil {
			return nil, err
		}
		db, err := storage.Open(ctx, path)
		if err != nil {
			logger.Error(ctx, "error initializing database", "path", path, "error", err)
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		a.state = kv.NewSQLiteRepository(db)
		store = tokens.NewSQLiteStore(a.state)
	case config.StoreMemory:
		store = tokens.NewMemoryStore()
	default:
		return nil, fmt.Errorf("unknown token store %q", c.TokenStore)
	}

	a.api = client.NewHTTPClient(c.APIBaseURL, c.RequestTimeout, store, nil, logger)
	a.wire(store)
	return a, nil
}

// wire connects session and navigator around api and store.
func (a *App) wire(store tokens.Store) {
	a.nav = NewNavigator(a.sessionState, a.renderPage)
	a.nav.OnLoading(a.renderLoading)
	a.nav.OnVisit(a.rememberPage)

	a.session = session.New(a.api, store, a.nav, a.logger)
	unsubscribe := a.session.Subscribe(a.nav.OnSessionChange)
	a.closers = append([]func() error{
		func() error { unsubscribe(); a.session.Close(); return nil },
	}, a.closers...)
}

func (a *App) sessionState() session.State {
	return a.session.State()
}

// Run shows the last page, restores the session and blocks in the REPL
// until the user exits or input ends.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	a.println("Welcome to CashbackHub (type 'help' for commands)")

	if _, err := a.nav.Open(a.lastPage(ctx)); err != nil {
		_, _ = a.nav.Open(routes.Home)
	}
	a.session.Bootstrap(ctx)

	if a.config.OnlineCheckInterval > 0 {
		watchCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go a.StartOnlineStatusWatcher(watchCtx, a.config.OnlineCheckInterval)
	}

	runREPL(ctx, a, a.getStatus, a.reader)
}

// Close releases everything NewApp acquired. Errors are logged.
func (a *App) Close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			a.logger.Warn(context.Background(), "close", "error", err)
		}
	}
	a.closers = nil
}

func (a *App) isLoggedIn() bool {
	return a.session.IsAuthenticated()
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.mu.Unlock()
	if changed {
		a.logger.Info(context.Background(), "connectivity changed", "mode", mode)
	}
}

func (a *App) getMode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

// StartOnlineStatusWatcher pings the backend every interval and updates the
// mode shown in the prompt.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	a.checkOnline(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) checkOnline(ctx context.Context) {
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := a.api.Ping(pingCtx); err != nil {
		a.setMode(ModeOffline)
		return
	}
	a.setMode(ModeOnline)
}

// getStatus renders the prompt prefix: current page, user and mode.
func (a *App) getStatus() string {
	s := a.nav.Current()
	if u := a.session.User(); u != nil {
		s += " " + u.Email
	}
	if m := a.getMode(); m != "" {
		s += " " + string(m)
	}
	return fmt.Sprintf("(%s)", s)
}

func (a *App) lastPage(ctx context.Context) string {
	if a.state == nil {
		return routes.Home
	}
	v, err := a.state.Get(ctx, lastPageKey)
	if err != nil || len(v) == 0 {
		return routes.Home
	}
	return string(v)
}

func (a *App) rememberPage(path string) {
	if a.state == nil {
		return
	}
	if err := a.state.Set(context.Background(), lastPageKey, []byte(path)); err != nil {
		a.logger.Warn(context.Background(), "remember page", "error", err)
	}
}
