package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"minutes/internal/config"
	"minutes/internal/logging"
	"minutes/internal/notifications"
	"minutes/internal/services/minutesapi"
	"minutes/internal/session"
	"minutes/internal/workflow"
)

// newClipboard is swapped in tests so commands never touch the real clipboard.
var newClipboard = func() workflow.Clipboard { return systemClipboard{} }

type commandContext struct {
	configFlag *string
	verbose    *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string, verbose *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		verbose:    verbose,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		verbose := c.verbose != nil && *c.verbose
		logger, err := logging.NewFromConfig(cfg, verbose)
		if err != nil {
			c.loggerErr = fmt.Errorf("init logging: %w", err)
			return
		}
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

// app bundles everything one invocation needs to drive the workflow.
type app struct {
	cfg        *config.Config
	logger     *slog.Logger
	store      *session.Store
	client     *minutesapi.Client
	controller *workflow.Controller
	lock       *session.Lock
}

type appOptions struct {
	// lock takes the single-job lock; required for anything that talks to
	// the backend or changes the session.
	lock      bool
	presenter workflow.Presenter
}

func (c *commandContext) openApp(opts appOptions) (*app, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger}
	if opts.lock {
		lock, err := session.AcquireLock(cfg)
		if err != nil {
			return nil, err
		}
		a.lock = lock
	}

	store, err := session.Open(cfg)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("open session store: %w", err)
	}
	a.store = store

	client, err := minutesapi.NewFromConfig(cfg, logger)
	if err != nil {
		a.close()
		return nil, err
	}
	a.client = client

	initial, err := store.Load(context.Background())
	if err != nil {
		a.close()
		return nil, err
	}
	controller, err := workflow.New(workflow.Options{
		Backend:      client,
		Store:        store,
		Presenter:    opts.presenter,
		Clipboard:    newClipboard(),
		Notifier:     notifications.NewService(cfg),
		Logger:       logger,
		DisplayDelay: cfg.DisplayDelay(),
		CopyFeedback: cfg.CopyFeedback(),
		Initial:      initial,
	})
	if err != nil {
		a.close()
		return nil, err
	}
	a.controller = controller
	return a, nil
}

func (a *app) close() {
	if a == nil {
		return
	}
	if a.controller != nil {
		a.controller.Close()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil && a.logger != nil {
			a.logger.Warn("close session store failed",
				logging.Error(err),
				logging.String(logging.FieldEventType, "session_close_failed"),
			)
		}
	}
	if a.lock != nil {
		_ = a.lock.Release()
	}
}

// withApp opens the app, runs fn and releases everything afterwards.
func (c *commandContext) withApp(opts appOptions, fn func(*app) error) error {
	a, err := c.openApp(opts)
	if err != nil {
		if errors.Is(err, session.ErrLocked) {
			return fmt.Errorf("%w; wait for it to finish or stop `minutes ui` / `minutes watch`", err)
		}
		return err
	}
	defer a.close()
	return fn(a)
}

// withStore opens only the session store, for read-only commands.
func (c *commandContext) withStore(fn func(*config.Config, *session.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := session.Open(cfg)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	defer store.Close()
	return fn(cfg, store)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
