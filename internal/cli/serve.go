package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"llmgen/internal/driver"
	"llmgen/internal/httpapi"
)

func buildServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Serve the generation pipeline over HTTP",
		Example: `  llmgen serve --model bloom --backend runner --runner-url http://gpu-box:8090 --addr :8080`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := gatherConfig(cmd)
			if err != nil {
				return err
			}
			log := setupLogger(cfg.LogLevel)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := driver.ApplyAllocConf(cfg.AllocConf); err != nil {
				return err
			}
			loaded, err := driver.Load(ctx, driver.LoadOptions{
				Model:          cfg.Model,
				Kind:           cfg.Backend,
				RunnerURL:      cfg.RunnerURL,
				RunnerAPIKey:   cfg.RunnerAPIKey,
				MemoryFraction: cfg.Decoding().MemoryFraction,
				LlamaCtx:       cfg.LlamaCtx,
				LlamaThreads:   cfg.LlamaThreads,
			}, log)
			if err != nil {
				return err
			}
			defer func() { _ = loaded.Backend.Close() }()

			svc := driver.NewService(loaded, cfg.Decoding(), log)
			httpapi.SetLogger(log)
			httpapi.SetBaseContext(ctx)
			srv := &http.Server{Addr: cfg.Addr, Handler: httpapi.NewMux(svc)}

			errc := make(chan error, 1)
			go func() {
				log.Info().Str("addr", cfg.Addr).Str("model", cfg.Model).Msg("llmgen listening")
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errc <- err
				}
			}()

			select {
			case err := <-errc:
				return err
			case <-ctx.Done():
			}
			// Graceful shutdown (Ctrl+C / SIGTERM)
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Warn().Err(err).Msg("graceful shutdown error")
			}
			return nil
		},
	}
	addModelFlags(cmd)
	cmd.Flags().String("addr", envOr("LLMGEN_ADDR", ":8080"), "HTTP listen address, e.g. :8080")
	return cmd
}
