// Command aiweb runs the dubbing service: an HTTP boundary that accepts
// uploads and a worker that drains the job queue.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/niiell/aiweb/internal/config"
	"github.com/niiell/aiweb/internal/media"
	"github.com/niiell/aiweb/internal/pipeline"
	"github.com/niiell/aiweb/internal/providers"
	"github.com/niiell/aiweb/internal/queue"
	"github.com/niiell/aiweb/internal/server"
	"github.com/niiell/aiweb/internal/worker"
)

// Injected at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	// Load .env file if present (ignore error if missing).
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(log)

	rootCmd := &cobra.Command{
		Use:           "aiweb",
		Short:         "Media dubbing pipeline: transcribe, translate and re-voice videos",
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	rootCmd.AddCommand(serveCmd(log))
	rootCmd.AddCommand(workerCmd(log))

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// serveCmd runs the HTTP boundary.
func serveCmd(log *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Accept uploads and serve job state and artifacts over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load(os.Getenv)

			q, err := queue.NewFromURL(cfg.RedisURL)
			if err != nil {
				return fmt.Errorf("connect queue: %w", err)
			}

			srv := &http.Server{
				Addr:              cfg.HTTPAddr,
				Handler:           server.New(q, cfg.UploadDir, server.WithLogger(log)).Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				log.Info("http server listening", "addr", cfg.HTTPAddr)
				if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})
			return g.Wait()
		},
	}
}

// workerCmd runs the queue consumer.
func workerCmd(log *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Process queued dubbing jobs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load(os.Getenv)
			ctx := cmd.Context()

			tool, err := media.New()
			if err != nil {
				return err
			}
			transcriber, err := providers.NewTranscriber(cfg)
			if err != nil {
				return err
			}
			translator, err := providers.NewTranslator(ctx, cfg)
			if err != nil {
				return err
			}
			synthesizer, err := providers.NewSynthesizer(cfg)
			if err != nil {
				return err
			}

			q, err := queue.NewFromURL(cfg.RedisURL)
			if err != nil {
				return fmt.Errorf("connect queue: %w", err)
			}

			engine := pipeline.New(cfg, pipeline.Deps{
				Media:       tool,
				Transcriber: transcriber,
				Translator:  translator,
				Synthesizer: synthesizer,
			}, pipeline.WithLogger(log))

			w := worker.New(q, engine, worker.WithLogger(log))
			err = w.Run(ctx)
			if errors.Is(err, context.Canceled) {
				log.Info("worker stopped")
				return nil
			}
			return err
		},
	}
}
