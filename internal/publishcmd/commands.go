package publishcmd

import (
	"github.com/spf13/cobra"
)

// NewPublishCmd creates the publish command running the whole workflow
func NewPublishCmd() *cobra.Command {
	var year int
	var reportPath string

	cmd := &cobra.Command{
		Use:   "publish <input_dir> <date> <title> <cover_image>",
		Short: "Sync photos, build the gallery page and update Photos.html",
		Long: `Run the complete publishing workflow for one dated gallery:

  1. make the remote photo directory for <date> mirror <input_dir>
     (new photos are watermarked and uploaded, missing ones deleted)
  2. pull the local mirror of the photo repository
  3. render images/<year>/<date>/<title>/gallery.html with thumbnails
  4. add a card for the gallery to the index page

The date uses the DD-MM-YY format. The cover image is a filename from
<input_dir>; its 406px thumbnail becomes the card background.`,
		Example: `  # Publish a gallery using ./config.json
  galleryctl publish ~/Pictures/live 14-06-25 "Live at Arci" IMG_0042.jpg

  # Publish into an explicit year and keep a YAML report
  galleryctl publish ./photos 28-12-25 Natale cover.jpg --year 2025 --report reports/natale.yaml`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			y, err := resolveYear(year, args[1])
			if err != nil {
				return err
			}
			return executePublish(cmd.Context(), cfg, y, args[0], args[1], args[2], args[3], reportPath)
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "Publication year (defaults to the year of <date>)")
	cmd.Flags().StringVar(&reportPath, "report", "", "Write a YAML run report to this path")

	return cmd
}

// NewSyncCmd creates the sync command that only reconciles the photo repository
func NewSyncCmd() *cobra.Command {
	var year int
	var title string

	cmd := &cobra.Command{
		Use:   "sync <input_dir> <date>",
		Short: "Make the remote photo directory for a date mirror a local folder",
		Long: `Reconcile the dated directory of the yearly photo repository with a local folder.

Photos missing locally are deleted remotely, together with their local
thumbnails when --title names the gallery. New photos are watermarked and
uploaded. Photos present on both sides are left untouched.`,
		Example: `  galleryctl sync ./photos 14-06-25 --title "Live at Arci"`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			y, err := resolveYear(year, args[1])
			if err != nil {
				return err
			}
			return executeSync(cmd.Context(), cfg, y, args[0], args[1], title)
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "Publication year (defaults to the year of <date>)")
	cmd.Flags().StringVar(&title, "title", "", "Gallery title, used to locate thumbnails of deleted photos")

	return cmd
}

// NewGalleryCmd creates the gallery command rendering a gallery page from a photo folder
func NewGalleryCmd() *cobra.Command {
	var indexPath string
	var quality int

	cmd := &cobra.Command{
		Use:   "gallery <imagedir> <outputdir> <title> <repo_url>",
		Short: "Create a gallery page with 406px and 768px thumbnails",
		Long: `Render <outputdir>/<title>/gallery.html for the photos in <imagedir>.

Thumbnails are written as WEBP to the 406px and 768px subfolders and are
reused when they already exist. Lightbox download links point at
<repo_url>/<filename>.`,
		Example: `  galleryctl gallery ../RocknBirra-Foto2025/14-06-25 images/2025/14-06-25 Live \
    https://raw.githubusercontent.com/RocknBirra/RocknBirra-Foto2025/main/14-06-25`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeGallery(args[0], args[1], args[2], args[3], indexPath, quality)
		},
	}

	cmd.Flags().StringVar(&indexPath, "index", "", "Index page the back link points to (default /Photos.html)")
	cmd.Flags().IntVar(&quality, "quality", 85, "WEBP quality for thumbnails")

	return cmd
}

// NewIndexCmd creates the index command adding a gallery card to Photos.html
func NewIndexCmd() *cobra.Command {
	var year int

	cmd := &cobra.Command{
		Use:   "index <date> <title> <cover_image>",
		Short: "Add a gallery card to the index page",
		Long: `Insert a card linking to the gallery of <date>/<title> into the index page.

The card goes right after the year marker comment, or opens a new year
section at the top of the container. Nothing changes when the index
already links to the gallery.`,
		Example: `  galleryctl index 14-06-25 "Live at Arci" IMG_0042.jpg`,
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			y, err := resolveYear(year, args[0])
			if err != nil {
				return err
			}
			return executeIndex(cfg, y, args[0], args[1], args[2])
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "Publication year (defaults to the year of <date>)")

	return cmd
}

// NewWatermarkCmd creates the watermark command for a single photo
func NewWatermarkCmd() *cobra.Command {
	var logoPath string
	var margin int

	cmd := &cobra.Command{
		Use:   "watermark <input> <output>",
		Short: "Stamp the logo on a single photo",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if logoPath != "" {
				cfg.WatermarkLogoPath = logoPath
			}
			if cmd.Flags().Changed("margin") {
				cfg.MarginBottom = margin
			}
			return executeWatermark(cfg, args[0], args[1])
		},
	}

	cmd.Flags().StringVar(&logoPath, "logo", "", "Logo image (defaults to watermark_logo_path)")
	cmd.Flags().IntVar(&margin, "margin", 0, "Bottom margin in pixels (defaults to margin_bottom)")

	return cmd
}
