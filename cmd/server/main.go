package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// chat flags
	initialQuery string
	siteFile     string
)

var rootCmd = &cobra.Command{
	Use:   "server",
	Short: "Portfolio chat site",
	Long: `Serves the portfolio landing page and its demo chat assistant.

Run without arguments to start the HTTP server.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the demo assistant in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	chatCmd.Flags().StringVarP(&initialQuery, "query", "q", "", "Question to ask right away")
	chatCmd.Flags().StringVar(&siteFile, "site", os.Getenv("SITE_FILE"), "Site content YAML (default: embedded)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(chatCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newLogger builds a JSON logger in production and a console logger
// everywhere else.
func newLogger(env, level string) (*zap.Logger, error) {
	config := zap.NewDevelopmentConfig()
	if env == "production" {
		config = zap.NewProductionConfig()
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", level, err)
	}
	config.Level = zap.NewAtomicLevelAt(lvl)

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}
