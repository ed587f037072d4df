package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/friendsincode/audiocast/internal/book"
	"github.com/friendsincode/audiocast/internal/config"
	"github.com/friendsincode/audiocast/internal/logging"
	"github.com/friendsincode/audiocast/internal/manifest"
	"github.com/friendsincode/audiocast/internal/scan"
	"github.com/friendsincode/audiocast/internal/server"
	"github.com/friendsincode/audiocast/internal/tags"
	"github.com/friendsincode/audiocast/internal/transcode"
	"github.com/friendsincode/audiocast/internal/version"
)

var (
	logger zerolog.Logger
	cfg    *config.Config

	debug       bool
	ignorePaths []string
)

var rootCmd = &cobra.Command{
	Use:   "audiocast",
	Short: "audiocast - serve audiobook directories as podcasts",
	Long:  "audiocast turns a directory of audio files into a podcast: it derives episode metadata from tags, merges a human-edited manifest on top, and serves the result as an RSS feed.",
}

var serveCmd = &cobra.Command{
	Use:   "serve [directory]",
	Short: "Serve an audiobook directory as a podcast feed",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runServe,
}

var initCmd = &cobra.Command{
	Use:   "init [directory]",
	Short: "Write a manifest derived from the directory contents",
	Long:  "Scan the directory, derive audiobook metadata, and write it to " + manifest.Filename + " for manual editing.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runInit,
}

var transcodeCmd = &cobra.Command{
	Use:   "transcode [directory]",
	Short: "Re-encode all items to Opus",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTranscode,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the audiocast version",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Println("audiocast", version.Version)
	},
}

var (
	initForce    bool
	transcodeOut string
)

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringSliceVar(&ignorePaths, "ignore", nil, "Audio files to leave out (repeatable)")

	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing manifest")
	transcodeCmd.Flags().StringVarP(&transcodeOut, "output", "o", "", "Output directory (default: <directory>/opus)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(transcodeCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads configuration (called by commands that need it)
func loadConfig() error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger = logging.Setup(cfg.Environment, debug)
	return nil
}

// resolveRoot picks the audiobook directory from the CLI argument or the
// configured default, as an absolute path.
func resolveRoot(args []string) (string, error) {
	root := cfg.LibraryRoot
	if len(args) > 0 {
		root = args[0]
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve directory %s: %w", root, err)
	}
	return abs, nil
}

// loadBook runs the whole derivation pipeline: scan, tag extraction, model
// building, and the manifest merge. The returned time is the manifest's
// modification time, zero when no manifest exists.
func loadBook(ctx context.Context, root string) (*book.Audiobook, time.Time, error) {
	scanner := scan.New(logger)
	results, err := scanner.Scan(root, scan.DefaultClassifiers())
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("scan %s: %w", root, err)
	}

	ignore, err := book.ResolveIgnoreSet(ignorePaths)
	if err != nil {
		return nil, time.Time{}, err
	}

	builder := book.NewBuilder(tags.NewFFProbe(cfg.FFProbeBin, logger), logger)
	derived, err := builder.Build(ctx, root, results, ignore)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("build audiobook: %w", err)
	}

	manifestPath := filepath.Join(root, manifest.Filename)
	doc, err := manifest.LoadFile(manifestPath)
	if err != nil {
		return nil, time.Time{}, err
	}

	var manifestModTime time.Time
	if doc != nil {
		if info, err := os.Stat(manifestPath); err == nil {
			manifestModTime = info.ModTime()
		}
		logger.Info().Str("path", manifestPath).Msg("manifest loaded")
	}

	merged, err := book.Merge(derived, doc, logger)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("merge manifest: %w", err)
	}
	return merged, manifestModTime, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}
	root, err := resolveRoot(args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	b, manifestModTime, err := loadBook(ctx, root)
	if err != nil {
		return err
	}
	logger.Info().
		Str("title", b.Title).
		Str("slug", b.Slug).
		Int("items", len(b.Items)).
		Msg("audiobook ready")

	checker := version.NewChecker(logger)
	checker.Start(ctx)
	defer checker.Stop()

	srv := server.New(cfg, b, manifestModTime, logger)
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("serve: %w", err)
	}

	logger.Info().Msg("audiocast stopped")
	return nil
}

func runInit(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}
	root, err := resolveRoot(args)
	if err != nil {
		return err
	}

	manifestPath := filepath.Join(root, manifest.Filename)
	if !initForce {
		if _, err := os.Stat(manifestPath); err == nil {
			return fmt.Errorf("%s already exists, use --force to overwrite", manifestPath)
		}
	}

	b, _, err := loadBook(cmd.Context(), root)
	if err != nil {
		return err
	}

	f, err := os.Create(manifestPath)
	if err != nil {
		return fmt.Errorf("create manifest: %w", err)
	}
	defer f.Close()

	if err := manifest.Dump(f, book.Export(b)); err != nil {
		return err
	}
	logger.Info().Str("path", manifestPath).Msg("manifest written")
	return nil
}

func runTranscode(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}
	root, err := resolveRoot(args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	b, _, err := loadBook(ctx, root)
	if err != nil {
		return err
	}

	outDir := transcodeOut
	if outDir == "" {
		outDir = filepath.Join(root, "opus")
	}

	pool := transcode.NewPool(cfg.FFMpegBin, cfg.OpusBitrate, cfg.TranscodeWorkers, logger)
	if err := pool.Run(ctx, b, outDir); err != nil {
		return fmt.Errorf("transcode: %w", err)
	}
	logger.Info().Str("dir", outDir).Int("items", len(b.Items)).Msg("transcode finished")
	return nil
}
