package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"submitbox/internal/config"
	"submitbox/internal/signature"

	"github.com/spf13/cobra"
)

var (
	verifyConfig    configFlags
	verifyBodyFile  string
	verifySignature string
	verifySecret    string
)

var errSignatureMismatch = errors.New("signature does not match body")

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check a body against an X-Signature-256 value",
	Long: `Recompute the HMAC-SHA256 of a request body and compare it with a signature,
the way a receiving endpoint does.

The body is read from --body-file, or stdin when the flag is "-" or omitted.
The secret defaults to PAYLOAD_WEBHOOK_SECRET, looked up in the same places as
'send': the environment, the dotenv file and submitbox.yaml.`,
	Example: `  submitbox verify --body-file body.json --signature sha256=6cdf...`,
	Args:    cobra.NoArgs,
	RunE:    runVerify,
}

func init() {
	verifyConfig.registerSources(verifyCmd)
	verifyCmd.Flags().StringVarP(&verifyBodyFile, "body-file", "f", "-", "File containing the exact request body")
	verifyCmd.Flags().StringVarP(&verifySignature, "signature", "s", "", "Signature in sha256=<hex> form")
	verifyCmd.Flags().StringVar(&verifySecret, "secret", "", "Signing secret (default: $"+config.EnvSecret+")")
	_ = verifyCmd.MarkFlagRequired("signature")
}

func runVerify(cmd *cobra.Command, args []string) error {
	secret, err := resolveSecret(verifySecret, verifyConfig.options(cmd))
	if err != nil {
		return err
	}

	body, err := readBody(cmd.InOrStdin(), verifyBodyFile)
	if err != nil {
		return err
	}

	if err := verifyBody(body, verifySignature, secret); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Signature valid")
	return nil
}

// resolveSecret prefers an explicit secret, then falls back to the submission
// configuration. Only the secret is required here.
func resolveSecret(explicit string, opts config.Options) (string, error) {
	if explicit != "" {
		return explicit, nil
	}

	cfg, err := config.Load(opts)
	if err != nil {
		return "", fmt.Errorf("configuration error: %w", err)
	}
	if cfg.Secret == "" {
		return "", fmt.Errorf("configuration error: %w", &config.MissingError{Vars: []string{config.EnvSecret}})
	}
	return cfg.Secret, nil
}

func verifyBody(body []byte, sig, secret string) error {
	if !signature.Verify(body, sig, secret) {
		return errSignatureMismatch
	}
	return nil
}

func readBody(stdin io.Reader, path string) ([]byte, error) {
	if path == "" || path == "-" {
		body, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read body from stdin: %w", err)
		}
		return body, nil
	}

	body, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read body file: %w", err)
	}
	return body, nil
}
