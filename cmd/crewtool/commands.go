package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mattjoyce/crewtool/internal/api"
	"github.com/mattjoyce/crewtool/internal/crew"
	"github.com/mattjoyce/crewtool/internal/doctor"
	"github.com/mattjoyce/crewtool/internal/history"
	"github.com/mattjoyce/crewtool/internal/log"
	"github.com/mattjoyce/crewtool/internal/supervise"
)

func newInvokeCmd(a *app) *cobra.Command {
	var (
		input   string
		timeout time.Duration
		envs    []string
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:   "invoke <package> <crew>",
		Short: "Run one crew and print its result",
		Long: "invoke runs a crew through the configured worker. Use --input - to read the input from stdin.\n" +
			"Exits 1 when the crew fails for any reason.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := parseEnvFlags(envs)
			if err != nil {
				return err
			}
			if input == "-" {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read input from stdin: %w", err)
				}
				input = strings.TrimRight(string(data), "\n")
			}

			tool, cfg, err := a.tool()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			req := crew.Request{
				ID:      uuid.NewString(),
				Package: args[0],
				Crew:    args[1],
				Input:   input,
				Timeout: timeout,
				Env:     env,
			}
			log.WithCrew(req.Package, req.Crew).Debug("invoking crew", "invocation_id", req.ID)
			res := tool.Invoke(ctx, req)

			journal, err := a.journal(context.WithoutCancel(ctx), cfg)
			if err != nil {
				log.WithInvocation(req.ID).Warn("history unavailable", "error", err)
			} else if journal != nil {
				if _, err := journal.Record(context.WithoutCancel(ctx), req, res); err != nil {
					log.WithInvocation(req.ID).Warn("failed to record invocation", "error", err)
				}
				_ = journal.Close()
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				if err := writeJSON(out, api.InvokeResponse{ID: req.ID, Result: res}); err != nil {
					return err
				}
			} else {
				renderResult(out, req.ID, res)
			}
			if !res.Success {
				return &exitCodeError{code: 1}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "Input passed to the crew (- reads stdin)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Per-run timeout (default worker.default_timeout)")
	cmd.Flags().StringArrayVar(&envs, "env", nil, "Extra environment variable for the worker, KEY=VALUE (repeatable)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the result as JSON")
	return cmd
}

func parseEnvFlags(values []string) (map[string]string, error) {
	if len(values) == 0 {
		return nil, nil
	}
	env := make(map[string]string, len(values))
	for _, kv := range values {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --env %q: want KEY=VALUE", kv)
		}
		env[k] = v
	}
	return env, nil
}

func newListCmd(a *app) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List available crews",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tool, _, err := a.tool()
			if err != nil {
				return err
			}
			crews, err := tool.ListCrews(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOut {
				if crews == nil {
					crews = []crew.Info{}
				}
				return writeJSON(cmd.OutOrStdout(), api.CrewListResponse{Crews: crews})
			}
			renderCrews(cmd.OutOrStdout(), crews)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print crews as JSON")
	return cmd
}

func newInfoCmd(a *app) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "info <package> <crew>",
		Short: "Describe one crew",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tool, _, err := a.tool()
			if err != nil {
				return err
			}
			info, err := tool.CrewInfo(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), info)
			}
			renderCrews(cmd.OutOrStdout(), []crew.Info{info})
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the crew as JSON")
	return cmd
}

func newDoctorCmd(a *app) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration and worker installation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			result := doctor.New(cfg, exec.LookPath).Validate()
			if jsonOut {
				out, err := doctor.FormatJSON(result)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), out)
			} else {
				fmt.Fprint(cmd.OutOrStdout(), doctor.FormatHuman(result))
			}
			if !result.Valid {
				return &exitCodeError{code: 1}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the report as JSON")
	return cmd
}

func newServeCmd(a *app) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tool, cfg, err := a.tool()
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.API.Listen = listen
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			var journal api.Journal
			store, err := a.journal(ctx, cfg)
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			if store != nil {
				defer store.Close()
				journal = store
			}

			server := api.New(api.Config{
				Listen:        cfg.API.Listen,
				Token:         cfg.API.Token,
				MaxConcurrent: cfg.API.MaxConcurrent,
				CORSOrigins:   cfg.API.CORSOrigins,
				MaxTimeout:    cfg.API.MaxTimeout,
				WriteTimeout:  cfg.Worker.DefaultTimeout + supervise.GracePeriod + time.Minute,
			}, tool, journal, log.WithComponent("api"))

			err = server.Start(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "Override api.listen")
	return cmd
}

func newHistoryCmd(a *app) *cobra.Command {
	var (
		limit   int
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:   "history [id]",
		Short: "Show recent invocations, or one invocation by id",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			if !cfg.History.Enabled {
				return errors.New("history is disabled; set history.enabled in the config")
			}
			store, err := a.journal(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			var entries []history.Entry
			if len(args) == 1 {
				entry, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				entries = []history.Entry{entry}
			} else {
				entries, err = store.Recent(cmd.Context(), limit)
				if err != nil {
					return err
				}
			}

			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), api.HistoryResponse{Entries: entries})
			}
			renderHistory(cmd.OutOrStdout(), entries)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", history.DefaultLimit, "Number of entries to show")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print entries as JSON")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
