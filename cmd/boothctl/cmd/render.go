package cmd

import (
	"fmt"
	"image"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/boothmap/boothmap/internal/export"
	"github.com/boothmap/boothmap/internal/render"
)

var (
	renderOutput     string
	renderBackground string
	renderWindow     string
	renderTents      bool
	renderNoZones    bool
)

var renderCmd = &cobra.Command{
	Use:   "render <document>",
	Short: "Render a document to PNG",
	Long: `Draw the map as the editor shows it with nothing selected. The canvas is
1920x1080; --window letterboxes it into another size.

Examples:
  boothctl render fair.json -o fair.png
  boothctl render fair.json -o fair.png --background hall.jpg --window 1280x1024
  boothctl render fair.json -o tents.png --tent-highlight --hide-zones`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "", "output PNG file (default stdout)")
	renderCmd.Flags().StringVarP(&renderBackground, "background", "b", "", "background image")
	renderCmd.Flags().StringVar(&renderWindow, "window", "", "window size as WxH")
	renderCmd.Flags().BoolVar(&renderTents, "tent-highlight", false, "outline booths that have tents in red")
	renderCmd.Flags().BoolVar(&renderNoZones, "hide-zones", false, "leave zones out of the image")
}

func runRender(cmd *cobra.Command, args []string) error {
	doc, err := loadDocument(args[0])
	if err != nil {
		return err
	}
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	opts := export.PNGOptions{
		LineSpacing:   settings.LabelLineSpacing,
		Logger:        slog.Default(),
		TentHighlight: renderTents,
		HideZones:     renderNoZones,
	}
	if renderWindow != "" {
		if opts.Window, err = parseWindow(renderWindow); err != nil {
			return err
		}
	}
	if renderBackground != "" {
		img, err := render.DecodeFile(renderBackground)
		if err != nil {
			slog.Warn("background image unavailable, using blank canvas", "path", renderBackground, "error", err)
		} else {
			opts.Background = img
		}
	}

	out, err := output(cmd, renderOutput)
	if err != nil {
		return err
	}
	defer out.Close()

	return export.WritePNG(out, doc, opts)
}

func parseWindow(s string) (image.Point, error) {
	var w, h int
	if _, err := fmt.Sscanf(s, "%dx%d", &w, &h); err != nil || w <= 0 || h <= 0 {
		return image.Point{}, fmt.Errorf("invalid window size %q, want WxH", s)
	}
	return image.Pt(w, h), nil
}
