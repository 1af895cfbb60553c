package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"emotion/internal/config"
	"emotion/internal/logging"
	"emotion/internal/ui"
	"emotion/processing/capture"
	"emotion/processing/detector"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Version is the application version.
const Version = "0.1.0"

var (
	// cfg is loaded once in PersistentPreRunE and shared by subcommands
	cfg *config.Config

	cfgPath   string
	serverURL string
)

var rootCmd = &cobra.Command{
	Use:     "emotion",
	Short:   "Capture or upload a face image and show the emotions detected by the server",
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(cfgPath)
		if err != nil {
			return err
		}

		if serverURL != "" {
			loaded.SetServerURL(serverURL)
		}

		if err := loaded.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		if err := logging.Init(loaded.LogMode); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		cfg = loaded
		logging.Logger.Debug("config loaded",
			zap.String("path", cfgPath),
			zap.String("endpoint", cfg.PredictURL()),
			zap.String("source", string(cfg.GetSource())))

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		runGUI(cmd.Context())
		return nil
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", config.DefaultConfigPath, "Path to the JSON config file")
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "", "Emotion server base URL (overrides server_url)")
}

func newDetector() *detector.RemoteDetector {
	return detector.NewRemoteDetector(cfg.PredictURL(), nil, logging.Logger)
}

func newCamera() *capture.Camera {
	return capture.NewCamera(capture.FactoryFor(cfg), cfg.GetJPEGQuality(), logging.Logger)
}

func runGUI(ctx context.Context) {
	det := newDetector()

	logging.Logger.Info("starting emotion detection",
		zap.String("version", Version),
		zap.String("endpoint", det.URL()))

	app := ui.CreateApp(ui.Options{
		Context:    ctx,
		Config:     cfg,
		ConfigPath: cfgPath,
		Camera:     newCamera(),
		Submitter:  det,
		Logger:     logging.Logger,
	})

	app.Run()
}
