package main

import (
	"fmt"
	"io"
	"time"

	"submitbox/internal/delivery"
	"submitbox/internal/signature"

	"github.com/kballard/go-shellquote"
	"github.com/spf13/cobra"
)

var (
	signConfig    configFlags
	signTimestamp string
	signCurl      bool
)

var signCmd = &cobra.Command{
	Use:   "sign",
	Short: "Print the signed submission without sending it",
	Long: `Build and sign the submission from the same configuration as 'send', then print
the canonical body and its X-Signature-256 value.

Pass --timestamp to reproduce the body and signature of an earlier submission.`,
	Example: `  submitbox sign
  submitbox sign --timestamp 2024-01-02T03:04:05.123456+00:00
  submitbox sign --curl | sh`,
	Args: cobra.NoArgs,
	RunE: runSign,
}

func init() {
	signConfig.register(signCmd)
	signCmd.Flags().StringVar(&signTimestamp, "timestamp", "", "Use this RFC 3339 timestamp instead of the current time")
	signCmd.Flags().BoolVar(&signCurl, "curl", false, "Print an equivalent curl command")
}

func runSign(cmd *cobra.Command, args []string) error {
	log := newLogger()

	cfg, err := signConfig.load(cmd, log)
	if err != nil {
		return err
	}

	now := time.Now()
	if signTimestamp != "" {
		now, err = time.Parse(time.RFC3339Nano, signTimestamp)
		if err != nil {
			return fmt.Errorf("invalid --timestamp: %w", err)
		}
	}

	body, sig, err := buildSigned(cfg, now)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if signCurl {
		fmt.Fprintln(out, curlCommand(cfg.TargetURL, body, sig))
		return nil
	}

	printSigned(out, body, sig)
	return nil
}

func printSigned(out io.Writer, body []byte, sig string) {
	fmt.Fprintf(out, "%s\n", body)
	fmt.Fprintf(out, "%s: %s\n", signature.Header, sig)
}

// curlCommand renders a shell-safe curl invocation that sends body unchanged
func curlCommand(targetURL string, body []byte, sig string) string {
	return shellquote.Join(
		"curl", "--fail-with-body", "-X", "POST",
		"-H", "Content-Type: "+delivery.ContentType,
		"-H", signature.Header+": "+sig,
		"--data-binary", string(body),
		targetURL,
	)
}
