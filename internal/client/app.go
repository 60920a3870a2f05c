package client

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/questlog-app/questlog/internal/adapter"
	"github.com/questlog-app/questlog/internal/config"
	"github.com/questlog-app/questlog/internal/logger"
	"github.com/questlog-app/questlog/internal/service"
	"github.com/questlog-app/questlog/internal/store"
	"github.com/questlog-app/questlog/internal/sync"
	"github.com/questlog-app/questlog/internal/workers"
	"github.com/questlog-app/questlog/models"
)

// App is the client process: a local store, a remote gateway, and the
// background workers keeping the two converged.
type App struct {
	cfg    *config.ClientConfig
	remote adapter.RemoteStore

	storages *store.ClientStorages
	records  service.ClientRecordService
	manager  *sync.Manager

	logger *logger.Logger
}

func NewApp(cfg *config.ClientConfig, log *logger.Logger) (*App, error) {
	remote, err := adapter.NewHTTPRemoteStore(cfg.Adapter, log)
	if err != nil {
		return nil, fmt.Errorf("create remote gateway: %w", err)
	}

	return &App{
		cfg:    cfg,
		remote: remote,
		logger: log,
	}, nil
}

// Run opens a session, starts the sync workers, and blocks until the
// process receives a stop signal.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
		syscall.SIGQUIT,
	)
	defer stop()

	token, err := a.openSession(ctx)
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}

	a.storages, err = store.NewClientStorages(ctx, a.cfg.Storage, a.logger)
	if err != nil {
		return fmt.Errorf("create local storage: %w", err)
	}
	defer func() {
		if closeErr := a.storages.Close(); closeErr != nil {
			a.logger.Error().Err(closeErr).Msg("closing local storage")
		}
	}()

	a.records = service.NewClientRecordService(a.storages, token.UserID)

	a.manager = sync.NewManager(a.remote, a.storages, a.cfg.Sync, a.logger)
	defer a.manager.Close()

	listener := sync.NewListener(a.remote, a.manager, a.cfg.Sync, a.logger)
	monitor := sync.NewMonitor(a.remote, a.manager, a.cfg.Sync, a.logger)

	a.logger.Info().Int64("user_id", token.UserID).Msg("session opened, starting sync workers")

	// The first cycle runs as a full sync; nudge it instead of waiting
	// out the first tick.
	a.manager.SyncNow()

	workers.NewWorkers(a.manager, listener, monitor).Run(ctx)

	a.logger.Info().Msg("client stopped")
	return nil
}

// Records exposes the local record surface once a session is open.
func (a *App) Records() service.ClientRecordService {
	return a.records
}

// Manager exposes the sync engine for state inspection and manual
// triggers.
func (a *App) Manager() *sync.Manager {
	return a.manager
}

// openSession logs the configured account in, registering it first if
// the server does not know it yet.
func (a *App) openSession(ctx context.Context) (models.Token, error) {
	user := models.User{
		Login:    a.cfg.Auth.Login,
		Password: a.cfg.Auth.Password,
	}

	token, err := a.remote.Login(ctx, user)
	if err == nil {
		return token, nil
	}
	if !errors.Is(err, adapter.ErrUnauthorized) {
		return models.Token{}, err
	}

	a.logger.Info().Str("login", user.Login).Msg("login rejected, registering account")
	return a.remote.Register(ctx, user)
}
