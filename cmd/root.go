// Package cmd implements the CLI commands using Cobra.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"linkgrab/internal/config"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Global flags
var (
	flagDownload bool
	flagDir      string
	flagQuality  int
	flagTimeout  int
	flagJSON     bool
	flagPlay     bool
	flagPlayer   string
	flagDebug    bool
)

// cfg holds the loaded configuration (merged: defaults < config file < flags).
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "linkgrab [share text or link]",
	Short: "Resolve and download Douyin, Xiaohongshu, Kuaishou and Bilibili links",
	Long: `linkgrab takes a share message or link from Douyin, Xiaohongshu, Kuaishou
or Bilibili, resolves it to a watermark-free video or the full image set,
and optionally downloads it into a per-post folder.`,
	Args:              cobra.ArbitraryArgs,
	PersistentPreRunE: loadConfig,
	RunE:              resolveRun,
	SilenceUsage:      true,
}

// Execute runs the root command. An interrupt cancels any running download.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	_ = zap.L().Sync()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagDownload, "download", "d", false, "Download after resolving")
	rootCmd.PersistentFlags().StringVar(&flagDir, "dir", "", "Download directory (default from config)")
	rootCmd.PersistentFlags().IntVarP(&flagQuality, "quality", "q", 0, "Bilibili quality: 16 | 32 | 64 | 80 | 112 | 116 | 120")
	rootCmd.PersistentFlags().IntVarP(&flagTimeout, "timeout", "t", 0, "HTTP timeout in seconds")
	rootCmd.PersistentFlags().BoolVarP(&flagJSON, "json", "j", false, "Print the resolved result as JSON")
	rootCmd.PersistentFlags().BoolVarP(&flagPlay, "play", "p", false, "Play the video after resolving (or downloading)")
	rootCmd.PersistentFlags().StringVar(&flagPlayer, "player", "", "Media player: mpv | vlc | iina | celluloid")
	rootCmd.PersistentFlags().BoolVarP(&flagDebug, "debug", "x", false, "Debug logging to stderr")

	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig loads and merges configuration: defaults < config file < CLI flags.
func loadConfig(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// CLI flags override config file values
	if flagQuality != 0 {
		cfg.BilibiliQuality = flagQuality
	}
	if flagTimeout != 0 {
		cfg.Timeout = flagTimeout
	}
	if flagDir != "" {
		cfg.DownloadDir = flagDir
	}
	if flagPlayer != "" {
		cfg.Player = flagPlayer
	}
	if flagDebug {
		cfg.Debug = true
	}

	// Re-validate after flag overrides
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := newLogger(cfg.Debug)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	zap.ReplaceGlobals(logger)
	return nil
}

// newLogger builds a development logger in debug mode, otherwise a quiet
// console logger that only reports warnings and errors on stderr.
func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	zc.Encoding = "console"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zc.DisableCaller = true
	zc.DisableStacktrace = true
	zc.OutputPaths = []string{"stderr"}
	return zc.Build()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	// no config needed
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "linkgrab", Version)
	},
}
