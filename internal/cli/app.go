// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// app.go - Wiring of config, logging, storage, providers and the chat
// controller shared by every command.

package cli

import (
	"io"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jeranaias/localgpt/internal/chat"
	"github.com/jeranaias/localgpt/internal/cloud"
	"github.com/jeranaias/localgpt/internal/config"
	"github.com/jeranaias/localgpt/internal/logging"
	"github.com/jeranaias/localgpt/internal/ollama"
	"github.com/jeranaias/localgpt/internal/provider"
	"github.com/jeranaias/localgpt/internal/router"
	"github.com/jeranaias/localgpt/internal/session"
	"github.com/jeranaias/localgpt/internal/storage"
)

// globalFlags are the persistent flags of the root command.
type globalFlags struct {
	configPath string
	logLevel   string
	logFormat  string
	logFile    string
	storage    string
	dataDir    string
}

// App holds the components of one localgpt process.
type App struct {
	Config *config.Config
	Store  *session.Store
	Router *router.Router
	Chat   *chat.Controller

	Local *ollama.Client
	Cloud []*cloud.Client

	// Unconfigured lists cloud vendors skipped for lack of a credential.
	Unconfigured []cloud.Preset

	logCloser io.Closer
}

// loadConfig resolves configuration from .env, the config file, the
// environment and finally the command-line flags.
func loadConfig(flags *globalFlags) (*config.Config, []string, error) {
	envFiles, err := config.LoadDotEnv(config.DefaultDotEnvDirs()...)
	if err != nil {
		return nil, nil, err
	}

	var cfg *config.Config
	if flags.configPath != "" {
		cfg, err = config.LoadFromPath(flags.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, nil, err
	}

	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	if flags.logFormat != "" {
		cfg.Log.Format = flags.logFormat
	}
	if flags.logFile != "" {
		cfg.Log.File = flags.logFile
	}
	if flags.storage != "" {
		cfg.Storage.Backend = flags.storage
	}
	if flags.dataDir != "" {
		cfg.Storage.DataDir = flags.dataDir
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, errors.Wrap(err, "invalid flags")
	}
	return cfg, envFiles, nil
}

// newApp builds every component. The caller must Close the result.
func newApp(flags *globalFlags, logOut io.Writer) (*App, error) {
	cfg, envFiles, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}

	closer, err := logging.Init(logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
		Out:    logOut,
	})
	if err != nil {
		return nil, err
	}
	if len(envFiles) > 0 {
		log.Debug().Strs("files", envFiles).Msg("loaded .env")
	}

	backend, err := storage.Open(cfg.Storage.Backend, cfg.Storage.DataDir)
	if err != nil {
		_ = closer.Close()
		return nil, errors.Wrap(err, "open storage")
	}

	app := &App{
		Config:    cfg,
		Store:     session.Open(session.Config{Backend: backend}),
		logCloser: closer,
	}

	app.Local = ollama.NewClientWithConfig(&ollama.ClientConfig{
		BaseURL:         cfg.Local.OllamaURL,
		DefaultModel:    cfg.Local.Model,
		ProbeTimeout:    cfg.Local.ProbeTimeout(),
		GenerateTimeout: cfg.Local.GenerateTimeout(),
	})

	presets, err := cloud.Order(cfg.Cloud.Priority)
	if err != nil {
		app.Close()
		return nil, err
	}
	var candidates []provider.Client
	for _, p := range presets {
		key, ok := config.LookupCredential(p.EnvVar)
		if !ok {
			app.Unconfigured = append(app.Unconfigured, p)
			continue
		}
		c := cloud.NewClient(cloud.Config{
			Preset:          p,
			APIKey:          key,
			Model:           cfg.Cloud.Models[p.Name],
			MaxTokens:       cfg.Cloud.MaxTokens,
			Temperature:     cfg.Cloud.Temperature,
			ProbeTimeout:    cfg.Cloud.ProbeTimeout(),
			GenerateTimeout: cfg.Cloud.GenerateTimeout(),
		})
		log.Debug().Str("provider", p.Name).Str("key", c.KeyFingerprint()).Msg("cloud provider configured")
		app.Cloud = append(app.Cloud, c)
		candidates = append(candidates, c)
	}

	app.Router = router.New(app.Local, candidates)
	app.Chat = chat.NewController(app.Store, app.Router)

	log.Debug().
		Str("storage", app.Store.Location()).
		Int("cloud_providers", len(app.Cloud)).
		Msg("application ready")
	return app, nil
}

// Close releases storage and the log file.
func (a *App) Close() {
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			log.Warn().Err(err).Msg("closing storage")
		}
	}
	if a.logCloser != nil {
		_ = a.logCloser.Close()
	}
}

// withApp builds the app for the duration of fn. Logs go to the command's
// error stream unless a log file is configured.
func withApp(cmd *cobra.Command, flags *globalFlags, fn func(*App) error) error {
	app, err := newApp(flags, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(app)
}
