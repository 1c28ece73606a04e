package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"bahaibot/internal/config"
	"bahaibot/internal/kb"
	"bahaibot/internal/kb/sqlitekb"
	"bahaibot/internal/kb/wikibase"
	"bahaibot/internal/logging"
	"bahaibot/internal/mediawiki"
	"bahaibot/internal/retry"
	"bahaibot/internal/services"
)

// store is what the import, volume, and sitelink commands need from a backend.
type store interface {
	kb.Store
	kb.SitelinkSetter
}

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = services.Wrap(services.ErrConfiguration, "config", "load", "", err)
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = services.Wrap(services.ErrConfiguration, "config", "ensure directories", "", err)
			return
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

func (c *commandContext) loggerValue() *slog.Logger {
	c.loggerOnce.Do(func() {
		logger, err := logging.NewFromConfig(c.configValue())
		if err != nil {
			logger = logging.NewNop()
		}
		c.logger = logger
	})
	return c.logger
}

// runContext tags ctx with a fresh run ID and the command name.
func (c *commandContext) runContext(cmd *cobra.Command) context.Context {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = services.WithRunID(ctx, uuid.NewString())
	return services.WithWorkflow(ctx, cmd.Name())
}

// openStore returns the configured backend, or an in-memory store when dryRun
// is set. The returned func releases the backend.
func (c *commandContext) openStore(ctx context.Context, dryRun bool) (store, func(), error) {
	cfg := c.configValue()
	logger := c.loggerValue()
	if dryRun {
		logger.Info("dry run: writes go to an in-memory store")
		return kb.NewMemStore(), func() {}, nil
	}
	switch cfg.Store.Backend {
	case config.StoreSQLite:
		s, err := sqlitekb.Open(cfg)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using rehearsal database", logging.String("path", s.Path()))
		return s, func() { _ = s.Close() }, nil
	default:
		session, err := c.dialWikibase(ctx)
		if err != nil {
			return nil, nil, err
		}
		s := wikibase.New(session, cfg.Wikibase.Language, wikibase.WithLogger(logger))
		return s, session.Logout, nil
	}
}

func (c *commandContext) dialWikibase(ctx context.Context) (*mediawiki.Session, error) {
	cfg := c.configValue()
	session, err := mediawiki.Dial(ctx, mediawiki.Options{
		APIURL:    cfg.Wikibase.APIURL,
		UserAgent: cfg.Wikibase.UserAgent,
		Username:  cfg.Wikibase.Username,
		Password:  cfg.Wikibase.Password,
		Retry:     retry.FromConfig(cfg.Retry),
		Logger:    c.loggerValue(),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", cfg.Wikibase.APIURL, err)
	}
	return session, nil
}

func (c *commandContext) dialWorks(ctx context.Context) (*mediawiki.Session, error) {
	cfg := c.configValue()
	session, err := mediawiki.Dial(ctx, mediawiki.Options{
		APIURL:    cfg.Works.APIURL,
		UserAgent: cfg.Wikibase.UserAgent,
		Username:  cfg.Works.Username,
		Password:  cfg.Works.Password,
		Retry:     retry.FromConfig(cfg.Retry),
		Logger:    c.loggerValue(),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", cfg.Works.APIURL, err)
	}
	return session, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
