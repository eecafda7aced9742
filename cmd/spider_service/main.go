// Package main provides the CLI entry point for the spider plot query service.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/GiorgioRPo/ClinicalDataVisualization/internal/bus"
	"github.com/GiorgioRPo/ClinicalDataVisualization/internal/config"
	"github.com/GiorgioRPo/ClinicalDataVisualization/internal/dataset"
	httpapi "github.com/GiorgioRPo/ClinicalDataVisualization/internal/http"
	"github.com/GiorgioRPo/ClinicalDataVisualization/internal/logger"
	"github.com/GiorgioRPo/ClinicalDataVisualization/internal/query"
	"github.com/GiorgioRPo/ClinicalDataVisualization/internal/spider"
)

// Exit codes
const (
	ExitSuccess      = 0
	ExitRuntimeError = 1
	ExitInvalidInput = 2
	ExitDatasetError = 3
)

var (
	cfgPath string
	verbose bool

	queryDataset    string
	queryArms       string
	queryDoses      string
	queryTumorTypes string

	// set via ldflags
	version = "dev"
	commit  = "unknown"
)

// exitError carries a process exit code out of a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		os.Exit(ExitRuntimeError)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "spider_service",
		Short:        "Serve filtered spider plot data from a CSV dataset",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "configs/dev/spider_service.yaml", "path to config file")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newServeCmd(), newQueryCmd(), newVersionCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server (and the NATS responder when configured)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return serve(cfg)
		},
	}
}

func serve(cfg *config.Config) error {
	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	logger.Init(level, cfg.Log.Format)

	svc := spider.New(dataset.CSVFile{Path: cfg.Dataset.Path})
	if err := svc.Check(); err != nil {
		log.Warn().Err(err).Str("dataset", cfg.Dataset.Path).Msg("dataset not readable at startup")
	}

	if cfg.NATS.URL != "" {
		responder := bus.NewResponder(svc, cfg.WriteTimeout)
		if err := responder.Start(cfg.NATS.URL, cfg.NATS.Subject, cfg.NATS.Queue); err != nil {
			return fmt.Errorf("connect to nats: %w", err)
		}
		defer responder.Close()
	}

	srv := &http.Server{
		Addr:         cfg.Service.HTTPAddr,
		Handler:      httpapi.NewHandler(svc, cfg.CORS.AllowedOrigins),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Service.HTTPAddr).Str("dataset", cfg.Dataset.Path).Msg("spider service listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-sig:
		log.Info().Msg("shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown")
		return err
	}
	log.Info().Msg("server shutdown complete")
	return nil
}

func newQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Run one filtered query against a CSV file and print the JSON result",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger.InitWriter(cmd.ErrOrStderr(), "error", "console")
			return runQuery(cmd.Context(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&queryDataset, "dataset", config.DefaultDatasetPath, "path to the CSV dataset")
	cmd.Flags().StringVar(&queryArms, "arms", "", "comma-separated arms")
	cmd.Flags().StringVar(&queryDoses, "doses", "", "comma-separated integer doses")
	cmd.Flags().StringVar(&queryTumorTypes, "tumor-types", "", "comma-separated tumor types")
	return cmd
}

func runQuery(ctx context.Context, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	params := url.Values{}
	params.Set(query.ParamArms, queryArms)
	params.Set(query.ParamDoses, queryDoses)
	params.Set(query.ParamTumorTypes, queryTumorTypes)

	rows, err := spider.New(dataset.CSVFile{Path: queryDataset}).Query(ctx, params)
	if err != nil {
		var inputErr *query.InvalidInputError
		if errors.As(err, &inputErr) {
			return &exitError{code: ExitInvalidInput, err: err}
		}
		return &exitError{code: ExitDatasetError, err: err}
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "spider_service %s (%s)\n", version, commit)
		},
	}
}
