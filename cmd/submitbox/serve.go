package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"submitbox/internal/config"
	"submitbox/internal/receiver"
	"submitbox/internal/security"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var (
	host        string
	port        int
	serveSecret string
	testMode    bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a reference receiver for signed submissions",
	Long: `Start an HTTP server that accepts submissions on POST /submit, verifies their
X-Signature-256 header and answers with a receipt.

Useful for trying 'submitbox send' locally or in a CI smoke test. When no secret
is configured one is generated and printed.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&host, "host", getEnvOrDefault("SUBMITBOX_HOST", "127.0.0.1"), "Host to bind to")
	serveCmd.Flags().IntVarP(&port, "port", "p", getEnvOrDefaultInt("SUBMITBOX_PORT", 8080), "Port to listen on")
	serveCmd.Flags().StringVar(&serveSecret, "secret", os.Getenv(config.EnvSecret), "Signing secret (default: $"+config.EnvSecret+")")
	serveCmd.Flags().BoolVar(&testMode, "test-mode", false, "Disable rate limiting")
}

func runServe(cmd *cobra.Command, args []string) error {
	log := newLogger()

	secret := serveSecret
	if secret == "" {
		generated, err := security.GenerateSecret()
		if err != nil {
			return err
		}
		secret = generated
		fmt.Fprintf(cmd.OutOrStdout(), "Generated signing secret: %s\n", secret)
	} else if err := security.CheckSecret(secret); err != nil {
		log.Warn().Err(err).Msg("signing secret looks weak")
	}

	srv := receiver.NewServer(secret, log, testMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(host, port)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Int64("received", srv.Received()).Msg("Shutting down receiver")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return <-errCh
}

func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var intVal int
		if _, err := fmt.Sscanf(value, "%d", &intVal); err == nil {
			return intVal
		}
	}
	return defaultValue
}
