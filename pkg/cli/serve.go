package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	httpctrl "github.com/secmon-lab/ariadne/pkg/controller/http"
	"github.com/secmon-lab/ariadne/pkg/service/worker"
	"github.com/secmon-lab/ariadne/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var addr string
	var maxUpload int64
	var rc runtimeConfig

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("ARIADNE_ADDR"),
			Destination: &addr,
		},
		&cli.Int64Flag{
			Name:        "max-upload-bytes",
			Usage:       "Maximum size of a CSV upload to /api/ingest/locations",
			Value:       32 << 20,
			Sources:     cli.EnvVars("ARIADNE_MAX_UPLOAD_BYTES"),
			Destination: &maxUpload,
		},
	}
	flags = append(flags, rc.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			rt, err := rc.build(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			refresher := worker.NewIndexRefreshWorker(rt.repo.Location(), rt.cache, rc.retrieval.RefreshInterval())
			if err := refresher.Start(ctx); err != nil {
				return goerr.Wrap(err, "failed to start index refresh worker")
			}
			defer refresher.Stop()

			httpHandler := httpctrl.New(
				httpctrl.WithQuery(rt.uc.Route),
				httpctrl.WithConversation(rt.uc.Conversation),
				httpctrl.WithIngest(rt.uc.Ingest),
				httpctrl.WithMaxIngestSize(maxUpload),
			)
			server := &http.Server{
				Addr:              addr,
				Handler:           httpHandler,
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server", "addr", addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				logging.Default().Info("Server shutdown completed")
				return nil
			}
		},
	}
}
