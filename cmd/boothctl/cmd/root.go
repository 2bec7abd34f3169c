package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/boothmap/boothmap/internal/config"
	"github.com/boothmap/boothmap/internal/document"
)

var (
	// Global flags
	verbose      bool
	settingsPath string
)

var rootCmd = &cobra.Command{
	Use:   "boothctl",
	Short: "Offline tools for booth map documents",
	Long: `Inspect, export and render booth map documents without a server.

Examples:
  boothctl totals fair.json                      # Power per zone
  boothctl totals --format yaml fair.json        # Same, as YAML
  boothctl export csv fair.json -o booths.csv    # Booth list for spreadsheets
  boothctl render fair.json -o fair.png          # Full-size image
  boothctl validate fair.json                    # Check for broken shapes`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&settingsPath, "settings", "", "editor settings YAML file")
}

// loadDocument reads a document file; "-" reads stdin.
func loadDocument(path string) (*document.Document, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open document: %w", err)
		}
		defer f.Close()
		r = f
	}
	doc, err := document.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// output opens path for writing; "" or "-" means the command's stdout.
func output(cmd *cobra.Command, path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopCloser{cmd.OutOrStdout()}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output: %w", err)
	}
	return f, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func loadSettings() (config.Settings, error) {
	return config.LoadSettings(settingsPath)
}
