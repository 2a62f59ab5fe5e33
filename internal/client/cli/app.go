package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/accountkeeper/internal/client/browser"
	"github.com/dmitrijs2005/accountkeeper/internal/client/client"
	"github.com/dmitrijs2005/accountkeeper/internal/client/config"
	"github.com/dmitrijs2005/accountkeeper/internal/client/metrics"
	"github.com/dmitrijs2005/accountkeeper/internal/client/models"
	"github.com/dmitrijs2005/accountkeeper/internal/client/notifier"
	"github.com/dmitrijs2005/accountkeeper/internal/client/repositories"
	"github.com/dmitrijs2005/accountkeeper/internal/client/session"
	"github.com/dmitrijs2005/accountkeeper/internal/client/storage"
	"github.com/dmitrijs2005/accountkeeper/internal/client/user"
	"github.com/dmitrijs2005/accountkeeper/internal/filex"
	"github.com/dmitrijs2005/accountkeeper/internal/logging"
	"github.com/dmitrijs2005/accountkeeper/internal/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
)

const (
	serviceName = "accountkeeper"

	// uniqueUserIDKey stores the per-machine user id next to the accounts.
	uniqueUserIDKey = "uniqueUserId"

	// relierContext is the session token context of sessions created here.
	relierContext = "cli"
)

// listener delivers notifications from other processes to a notifier.
type listener interface {
	Listen(ctx context.Context, interval time.Duration, n *notifier.Notifier) error
}

// App holds the dependencies shared by all subcommands.
type App struct {
	// open builds the store for cfg. It is replaced in tests.
	open func(ctx context.Context, cfg *config.Config) error

	config   *config.Config
	logger   logging.Logger
	user     *user.User
	store    *storage.Storage
	notifier *notifier.Notifier
	channel  listener
	relier   models.Relier
	reader   *bufio.Reader
	out      io.Writer
	closers  []func(context.Context) error
}

// NewApp returns an App whose logger and store are built from
// configuration when a subcommand runs.
func NewApp() *App {
	a := &App{
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}
	a.open = a.openStore
	return a
}

// openStore wires storage, transport, notifications and telemetry, then
// migrates legacy data into the account store.
func (a *App) openStore(ctx context.Context, cfg *config.Config) error {
	shutdown, err := telemetry.Setup(ctx, serviceName, cfg.OTelEndpoint)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, shutdown)

	if err := filex.EnsureParentDir(cfg.DatabasePath); err != nil {
		return err
	}
	repos, err := repositories.InitDatabase(ctx, repositories.DSN(cfg.DatabasePath))
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	a.closers = append(a.closers, func(context.Context) error { return repos.Close() })

	store, err := storage.New(ctx, repos.LocalStorage)
	if err != nil {
		return err
	}
	a.store = store

	channel := notifier.NewSQLiteChannel(repos.DB, a.logger)
	a.channel = channel
	a.notifier = notifier.New(a.logger, channel)

	recorder, err := metrics.NewRecorder(otel.Meter(serviceName), a.logger)
	if err != nil {
		return err
	}

	api, err := client.NewGRPCClient(cfg.AuthServerAddr)
	if err != nil {
		return fmt.Errorf("auth client: %w", err)
	}
	a.closers = append(a.closers, func(context.Context) error { return api.Close() })

	window, err := browser.NewWindow(cfg.PageURL)
	if err != nil {
		return err
	}

	uniqueUserID, err := loadUniqueUserID(ctx, store)
	if err != nil {
		return err
	}

	a.user = user.New(user.Options{
		Client:        api,
		Marketing:     api,
		Metrics:       recorder,
		Notifier:      a.notifier,
		Storage:       store,
		Logger:        a.logger,
		Window:        window,
		UniqueUserID:  uniqueUserID,
		OAuthClientID: cfg.OAuthClientID,
	})

	a.upgrade(ctx, store, api)
	return nil
}

// upgrade migrates data written by older clients. Failures are logged; the
// store stays usable without the migrated accounts.
func (a *App) upgrade(ctx context.Context, store *storage.Storage, checker user.SessionChecker) {
	if err := a.user.UpgradeFromUnfilteredAccountData(ctx); err != nil {
		a.logger.Warn(ctx, "upgrade account data failed", "error", err)
	}
	if err := a.user.UpgradeFromSession(ctx, session.Load(store), checker); err != nil {
		a.logger.Warn(ctx, "upgrade legacy session failed", "error", err)
	}
	a.user.LogNumStoredAccounts(ctx)
}

// loadUniqueUserID returns the stored per-machine user id, creating one on
// first use.
func loadUniqueUserID(ctx context.Context, store *storage.Storage) (string, error) {
	var id string
	if store.Get(uniqueUserIDKey, &id) && id != "" {
		return id, nil
	}
	id = uuid.NewString()
	if err := store.Set(ctx, uniqueUserIDKey, id); err != nil {
		return "", fmt.Errorf("store unique user id: %w", err)
	}
	return id, nil
}

// Close releases everything opened by openStore, newest first.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
