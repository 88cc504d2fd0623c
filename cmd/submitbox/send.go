package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"submitbox/internal/config"
	"submitbox/internal/delivery"
	"submitbox/internal/ghactions"
	"submitbox/internal/signature"
	"submitbox/internal/submission"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	sendConfig   configFlags
	sendDryRun   bool
	sendCheckRun bool
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Build, sign and deliver the submission",
	Long: `Build the submission payload, sign it and POST it to PAYLOAD_TARGET_URL.

This command will:
- Read PAYLOAD_NAME, PAYLOAD_EMAIL, PAYLOAD_RESUME_LINK, PAYLOAD_REPOSITORY_LINK,
  GITHUB_RUN_ID, PAYLOAD_WEBHOOK_SECRET and PAYLOAD_TARGET_URL
- Serialize the payload as canonical JSON
- Sign it with HMAC-SHA256 and send it in the X-Signature-256 header
- Print the receipt on HTTP 200, otherwise the status code and response body

The command exits non-zero on any failure. Nothing is retried.`,
	Example: `  PAYLOAD_TARGET_URL=https://example.com/submit submitbox send
  submitbox send --env-file ci.env --dry-run`,
	Args: cobra.NoArgs,
	RunE: runSend,
}

func init() {
	sendConfig.register(sendCmd)
	sendCmd.Flags().BoolVar(&sendDryRun, "dry-run", false, "Print the request instead of sending it")
	sendCmd.Flags().BoolVar(&sendCheckRun, "check-run", false, "Confirm GITHUB_RUN_ID exists via the GitHub API before sending (uses GITHUB_TOKEN)")
}

func runSend(cmd *cobra.Command, args []string) error {
	log := newLogger()

	cfg, err := sendConfig.load(cmd, log)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if sendCheckRun {
		checker := ghactions.NewRunChecker(os.Getenv("GITHUB_TOKEN"))
		if err := checkRun(ctx, checker, cfg, log); err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}
	}

	body, err := submission.Build(cfg.Fields())
	if err != nil {
		return err
	}
	sig := signature.Sign(body, cfg.Secret)

	if sendDryRun {
		printRequest(cmd.OutOrStdout(), cfg.TargetURL, body, sig)
		return nil
	}

	client := delivery.NewClient(cfg.Timeout, log)
	return submit(ctx, cmd.OutOrStdout(), client, cfg.TargetURL, body, sig)
}

// buildSigned builds the canonical body for cfg stamped at now, and its signature
func buildSigned(cfg *config.Config, now time.Time) ([]byte, string, error) {
	body, err := submission.New(cfg.Fields(), now).Encode()
	if err != nil {
		return nil, "", err
	}
	return body, signature.Sign(body, cfg.Secret), nil
}

// submit delivers a signed body and reports the outcome on out
func submit(ctx context.Context, out io.Writer, client *delivery.Client, targetURL string, body []byte, sig string) error {
	receipt, err := client.Deliver(ctx, targetURL, body, sig)
	if err != nil {
		var derr *delivery.DeliveryError
		if errors.As(err, &derr) && !derr.IsTransport() {
			fmt.Fprintf(out, "Failed! Response code was %d\n", derr.StatusCode)
			fmt.Fprintln(out, derr.Body)
		} else {
			fmt.Fprintf(out, "Failed! %v\n", err)
		}
		return err
	}

	fmt.Fprintf(out, "Success! Receipt: %s\n", receipt)
	return nil
}

// checkRun confirms the configured run exists in the configured repository
func checkRun(ctx context.Context, checker *ghactions.RunChecker, cfg *config.Config, log zerolog.Logger) error {
	owner, repo, err := ghactions.ParseRepository(cfg.RepositoryLink)
	if err != nil {
		return err
	}

	run, err := checker.Check(ctx, owner, repo, cfg.RunID)
	if err != nil {
		return err
	}

	log.Info().
		Int64("run_id", run.GetID()).
		Str("status", run.GetStatus()).
		Str("html_url", run.GetHTMLURL()).
		Msg("workflow run found")

	if url := run.GetHTMLURL(); url != "" && url != cfg.ActionRunLink() {
		log.Warn().Str("expected", cfg.ActionRunLink()).Str("actual", url).Msg("action run link differs from the GitHub run URL")
	}
	return nil
}

func printRequest(out io.Writer, targetURL string, body []byte, sig string) {
	fmt.Fprintf(out, "POST %s\n", targetURL)
	fmt.Fprintf(out, "Content-Type: %s\n", delivery.ContentType)
	fmt.Fprintf(out, "%s: %s\n\n", signature.Header, sig)
	fmt.Fprintf(out, "%s\n", body)
}
