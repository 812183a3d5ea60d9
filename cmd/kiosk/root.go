package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/photobooth/photobooth-api/internal/config"
	"github.com/photobooth/photobooth-api/internal/pkg/boothclient"
	"github.com/photobooth/photobooth-api/internal/pkg/logger"
)

const userAgent = "photobooth-kiosk/1.0"

var (
	// cfg is loaded once a command runs, so --help stays quiet
	cfg *config.Config

	apiURL     string
	apiTimeout time.Duration
	logLevel   string

	rootCmd = &cobra.Command{
		Use:   "kiosk",
		Short: "Photobooth kiosk",
		Long: `Kiosk drives the booth camera: countdown, capture, filter and watermark,
then uploads the result to the photo API and prints the share QR link.
It also browses and manages the event gallery.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg = config.Load()
			setDefault(cmd, "api", &apiURL, cfg.KioskAPIURL)
			setDefault(cmd, "log-level", &logLevel, cfg.LogLevel)

			logger.Init(logger.Config{
				Level:       logLevel,
				Environment: cfg.Env,
				Output:      cmd.ErrOrStderr(),
			})
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "", "photo API base URL (default KIOSK_API_URL)")
	rootCmd.PersistentFlags().DurationVar(&apiTimeout, "timeout", 30*time.Second, "API request timeout")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (default LOG_LEVEL)")

	rootCmd.AddCommand(newCaptureCmd("single", "Take a single photo"))
	rootCmd.AddCommand(newCaptureCmd("strip", "Take a three photo strip"))
	rootCmd.AddCommand(filtersCmd, galleryCmd, showCmd, deleteCmd)
}

// Execute executes the root command.
func Execute() error {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	return rootCmd.Execute()
}

func newAPIClient() *boothclient.Client {
	return boothclient.NewClient(apiURL, apiTimeout, userAgent)
}

// setDefault fills an unset flag from configuration.
func setDefault(cmd *cobra.Command, name string, dst *string, value string) {
	if f := cmd.Flag(name); f != nil && f.Changed {
		return
	}
	*dst = value
}
