// Package daemon wires the service together: storage, document store,
// external capability clients, the analyzer, and the HTTP API.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gofrs/flock"

	"descant/internal/analysis"
	"descant/internal/assets"
	"descant/internal/config"
	"descant/internal/enrich"
	"descant/internal/logging"
	"descant/internal/notifications"
	"descant/internal/server"
	"descant/internal/services/speech"
	"descant/internal/services/vision"
	"descant/internal/store"
)

// Daemon owns the long-lived service components.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *store.Store
	storage  *assets.Storage
	analyzer *analysis.Analyzer
	notifier notifications.Service
	server   *server.Server
	lock     *flock.Flock
	pidPath  string
}

// New builds the daemon. It takes an exclusive lock in the data directory so
// two instances never share the database and asset tree.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil {
		return nil, fmt.Errorf("daemon: config is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	lock := flock.New(filepath.Join(cfg.Paths.DataDir, "descantd.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("daemon: acquire lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("daemon: another instance is already running (lock %s)", lock.Path())
	}

	st, err := store.Open(ctx, cfg)
	if err != nil {
		lock.Unlock()
		return nil, err
	}
	storage, err := assets.NewStorage(cfg.Paths.UploadDir)
	if err != nil {
		st.Close()
		lock.Unlock()
		return nil, err
	}

	var captioner enrich.Captioner
	if cfg.Caption.APIKey != "" {
		captioner = vision.NewClient(cfg.Caption.APIKey,
			vision.WithBaseURL(cfg.Caption.BaseURL),
			vision.WithModel(cfg.Caption.Model),
			vision.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.Caption.TimeoutSeconds) * time.Second}))
	} else {
		logger.Warn("no caption api key configured; descriptions degrade to the local fallback")
	}
	synth := speech.NewClient(cfg.Speech.APIKey,
		speech.WithBaseURL(cfg.Speech.BaseURL),
		speech.WithModel(cfg.Speech.Model),
		speech.WithVoice(cfg.Speech.Voice),
		speech.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.Speech.TimeoutSeconds) * time.Second}))
	if !synth.Configured() {
		logger.Warn("no speech api key configured; narration degrades to silent placeholders")
	}

	notifier := notifications.NewService(cfg)
	enricher := enrich.New(captioner, synth, storage, logger)
	analyzer := analysis.New(analysis.Options{
		Store:    st,
		Detector: analysis.VideoDetector{
			FFprobeBin: cfg.FFprobeBinary(),
			FFmpegBin:  cfg.FFmpegBinary(),
			Threshold:  cfg.Analysis.CutThreshold,
		},
		Enricher: enricher,
		Notifier: notifier,
		Logger:   logger,
		Workers:  cfg.Analysis.SceneWorkers,
	})

	return &Daemon{
		cfg:      cfg,
		logger:   logging.WithComponent(logger, "daemon"),
		store:    st,
		storage:  storage,
		analyzer: analyzer,
		notifier: notifier,
		server:   server.New(cfg, st, storage, analyzer, notifier, logger),
		lock:     lock,
	}, nil
}

// Start writes the PID file and begins serving the HTTP API. The daemon
// stops when ctx is cancelled.
func (d *Daemon) Start(ctx context.Context) error {
	d.pidPath = filepath.Join(d.cfg.Paths.LogDir, "descantd.pid")
	if err := writePIDFile(d.pidPath); err != nil {
		return fmt.Errorf("daemon: write pid file: %w", err)
	}
	if err := d.server.Start(ctx); err != nil {
		return err
	}
	d.logger.Info("daemon started",
		logging.String("database", d.store.Path()),
		logging.String("uploads", d.storage.Root()))
	return nil
}

// Addr returns the HTTP listen address once Start has succeeded.
func (d *Daemon) Addr() string {
	return d.server.Addr()
}

// Close releases every resource the daemon holds.
func (d *Daemon) Close() {
	if d.server != nil {
		d.server.Stop()
	}
	if d.store != nil {
		if err := d.store.Close(); err != nil {
			d.logger.Warn("close store", logging.Error(err))
		}
	}
	if d.pidPath != "" {
		os.Remove(d.pidPath)
		d.pidPath = ""
	}
	if d.lock != nil {
		if err := d.lock.Unlock(); err != nil {
			d.logger.Warn("release lock", logging.Error(err))
		}
		d.lock = nil
	}
}

func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())+"\n"), 0o644)
}
