package cmd

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/rocknbirra/galleryctl/internal/publishcmd"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "galleryctl",
		Short: "Publish dated photo galleries",
		Long: `galleryctl publishes a dated photo gallery.

It watermarks photos, syncs them to the yearly GitHub photo repository,
renders a gallery page with 406px and 768px WEBP thumbnails and adds a
card for it to the Photos.html index page.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}

	cmd.PersistentFlags().String("config", "config.json", "Configuration file path")
	cmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Verbose logging")

	cmd.AddCommand(publishcmd.NewPublishCmd())
	cmd.AddCommand(publishcmd.NewSyncCmd())
	cmd.AddCommand(publishcmd.NewGalleryCmd())
	cmd.AddCommand(publishcmd.NewIndexCmd())
	cmd.AddCommand(publishcmd.NewWatermarkCmd())

	return cmd
}
