package main

import (
	"fmt"
	"os"

	"submitbox/internal/logger"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var version = "dev" // Will be set during build

var (
	logLevel  string
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:   "submitbox",
	Short: "Signed job-application submissions from CI",
	Long: `Submitbox builds a canonical JSON submission, signs it with HMAC-SHA256 and
delivers it to a webhook endpoint.

It is meant to run once per CI job. Configuration comes from PAYLOAD_* environment
variables, an optional submitbox.yaml and an optional .env file.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Custom usage template that encourages 'help' subcommand pattern
const usageTemplate = `Usage:{{if .Runnable}}
  {{.UseLine}}{{end}}{{if .HasAvailableSubCommands}}
  {{.CommandPath}} [command]{{end}}{{if gt (len .Aliases) 0}}

Aliases:
  {{.NameAndAliases}}{{end}}{{if .HasExample}}

Examples:
{{.Example}}{{end}}{{if .HasAvailableSubCommands}}{{$cmds := .Commands}}

Available Commands:{{range $cmds}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}{{end}}{{if .HasAvailableLocalFlags}}

Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasAvailableInheritedFlags}}

Global Flags:
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasAvailableSubCommands}}

Use "{{.CommandPath}} help [command]" for more information about a command.{{end}}
`

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetUsageTemplate(usageTemplate)

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", getEnvOrDefault("SUBMITBOX_LOG_LEVEL", "info"), "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", getEnvOrDefault("SUBMITBOX_LOG_FORMAT", "text"), "Log format (text, json)")

	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(signCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(secretCmd)
	rootCmd.AddCommand(versionCmd)
}

// newLogger builds the diagnostic logger; it always writes to stderr so stdout
// stays reserved for results.
func newLogger() zerolog.Logger {
	return logger.New(logLevel, logFormat, os.Stderr)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
