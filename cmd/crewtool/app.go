package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/mattjoyce/crewtool/internal/config"
	"github.com/mattjoyce/crewtool/internal/crew"
	"github.com/mattjoyce/crewtool/internal/history"
	"github.com/mattjoyce/crewtool/internal/log"
)

// app holds global flag values and lazily built collaborators.
type app struct {
	configPath string
	logLevel   string

	cfg *config.Config
}

func (a *app) config() (*config.Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}
	cfg, err := config.LoadOrDefault(a.configPath)
	if err != nil {
		return nil, err
	}

	level := cfg.Service.LogLevel
	if a.logLevel != "" {
		level = a.logLevel
	}
	log.Setup(level, cfg.Service.LogFormat)
	if cfg.SourcePath != "" {
		log.Debug("loaded config", "path", cfg.SourcePath)
	}

	a.cfg = cfg
	return cfg, nil
}

func (a *app) tool() (*crew.Tool, *config.Config, error) {
	cfg, err := a.config()
	if err != nil {
		return nil, nil, err
	}
	tool, err := crew.New(cfg.WorkerOptions(),
		crew.WithLogger(log.WithComponent("crew")),
		crew.WithEnvProvider(cfg.CredentialStore()),
	)
	if err != nil {
		return nil, nil, err
	}
	return tool, cfg, nil
}

// journal opens the history store, or returns nil when history is disabled.
func (a *app) journal(ctx context.Context, cfg *config.Config) (*history.Store, error) {
	if !cfg.History.Enabled {
		return nil, nil
	}
	return history.Open(ctx, cfg.History.Path)
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "crewtool",
		Short:         "Run crew-agents crews as supervised one-shot processes",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to crewtool.yaml (default: discover)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Override service.log_level (debug, info, warn, error)")

	root.AddCommand(
		newInvokeCmd(a),
		newListCmd(a),
		newInfoCmd(a),
		newDoctorCmd(a),
		newServeCmd(a),
		newHistoryCmd(a),
		newVersionCmd(),
	)
	return root
}
