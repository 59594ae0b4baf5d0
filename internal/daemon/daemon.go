package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"kinetic/internal/api"
	"kinetic/internal/catalog"
	"kinetic/internal/config"
	"kinetic/internal/logging"
	"kinetic/internal/notifications"
	"kinetic/internal/services/chain"
	"kinetic/internal/services/identity"
	"kinetic/internal/services/ipreg"
	"kinetic/internal/services/mint"
	"kinetic/internal/services/pinning"
	"kinetic/internal/session"
)

// Daemon coordinates the marketplace services and enforces single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *catalog.Store
	sessions *session.Manager
	pins     *pinning.Client
	verifier identity.Verifier
	minter   *mint.Client
	videos   *api.VideoService
	notifier notifications.Service
	logPath  string

	lockPath string
	lock     *flock.Flock

	server *apiServer

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running            bool
	PID                int
	CatalogDBPath      string
	LockFilePath       string
	LiveSessions       int
	VideosByCategory   map[string]int
	PinningConfigured  bool
	IdentityConfigured bool
	ChainConfigured    bool
}

// New constructs a daemon and wires the service clients from configuration.
func New(cfg *config.Config, store *catalog.Store, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil {
		return nil, errors.New("daemon requires config and store")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	pins := pinning.NewFromConfig(cfg)
	chainClient := chain.NewFromConfig(cfg)
	wallet := chain.NewNodeWallet(chainClient, cfg)
	minter := mint.New(chainClient, wallet, cfg)
	registry := ipreg.New(chainClient, wallet, cfg)
	notifier := notifications.NewService(cfg)

	var verifier identity.Verifier
	worldID := identity.NewWorldID(cfg)
	switch {
	case worldID.Configured():
		verifier = worldID
	case cfg.Identity.AllowMock:
		logger.Warn("identity provider not configured, using mock verifier")
		verifier = identity.MockVerifier{}
	}

	ttl := time.Duration(cfg.Workflow.SessionTTLMinutes) * time.Minute
	sessions := session.NewManager(session.Deps{
		Store:     store,
		Pins:      pins,
		Mint:      minter,
		Registry:  registry,
		Notify:    notifier,
		GatewayFn: pins.GatewayURL,
		Logger:    logger,
	}, ttl)

	var unpinner api.Unpinner
	if pins.Configured() {
		unpinner = pins
	}
	videos := api.NewVideoService(store, pins, unpinner, notifier, logger)

	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		sessions: sessions,
		pins:     pins,
		verifier: verifier,
		minter:   minter,
		videos:   videos,
		notifier: notifier,
		logPath:  filepath.Join(cfg.Paths.LogDir, "kinetic.log"),
		lockPath: filepath.Join(cfg.Paths.LogDir, "kineticd.lock"),
	}
	d.lock = flock.New(d.lockPath)
	d.server = newAPIServer(cfg, d, logger)
	return d, nil
}

// Start acquires the daemon lock and launches the API server and session pruner.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another kinetic daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.server.start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start api server: %w", err)
	}

	interval := time.Duration(d.cfg.Workflow.PruneIntervalSec) * time.Second
	go d.sessions.Run(d.ctx, interval)

	d.running.Store(true)
	d.logger.Info("kinetic daemon started",
		logging.String("lock", d.lockPath),
		logging.String("api", d.server.addr()))
	return nil
}

// Stop shuts down the API server and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.server.stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("kinetic daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// APIAddr returns the bound API address, empty before Start.
func (d *Daemon) APIAddr() string {
	return d.server.addr()
}

// LogPath returns the path to the daemon log file.
func (d *Daemon) LogPath() string {
	return d.logPath
}

// Sessions exposes the workflow session manager.
func (d *Daemon) Sessions() *session.Manager {
	return d.sessions
}

// TestNotification triggers a test notification using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if d.cfg.Notifications.NtfyTopic == "" {
		return false, "ntfy topic not configured", nil
	}
	if err := d.notifier.TestNotification(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	stats, err := d.store.Stats(ctx)
	if err != nil {
		d.logger.Warn("collect video stats failed", logging.Error(err))
		stats = map[string]int{}
	}
	return Status{
		Running:            d.running.Load(),
		PID:                os.Getpid(),
		CatalogDBPath:      d.store.Path(),
		LockFilePath:       d.lockPath,
		LiveSessions:       d.sessions.Count(),
		VideosByCategory:   stats,
		PinningConfigured:  d.pins.Configured(),
		IdentityConfigured: d.verifier != nil,
		ChainConfigured:    d.minter.Configured(),
	}
}
