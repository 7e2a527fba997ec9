package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/gaurav-prasanna/pagesnap/core"
	"github.com/gaurav-prasanna/pagesnap/core/extract"
	"github.com/gaurav-prasanna/pagesnap/core/normalize"
	"github.com/gaurav-prasanna/pagesnap/core/output"
	"github.com/gaurav-prasanna/pagesnap/core/render"
	"github.com/gaurav-prasanna/pagesnap/core/resolve"
)

// Flag variables.
var (
	flagFormat        string
	flagOutputDir     string
	flagName          string
	flagMaxResources  int
	flagInlineFonts   bool
	flagRespectRobots bool
	flagCompact       bool
	flagStdout        bool
	flagWithMarkup    bool
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot <url>",
	Short: "Save a single page as an offline document",
	Long: `Snapshot fetches a page, inlines up to --max_resources external stylesheets
and scripts, and writes the result in the chosen format.

Examples:
  pagesnap snapshot example.com
  pagesnap snapshot https://example.com/docs --format markdown --output_dir ./out
  pagesnap snapshot https://example.com --format json --stdout`,
	Args: cobra.ExactArgs(1),
	RunE: runSnapshot,
}

func init() {
	rootCmd.AddCommand(snapshotCmd)

	snapshotCmd.Flags().StringVar(&flagFormat, "format", "html", "Output format: html, markdown, pdf or json")
	snapshotCmd.Flags().StringVar(&flagOutputDir, "output_dir", "", "Output directory (default: current directory)")
	snapshotCmd.Flags().StringVar(&flagName, "name", output.DefaultName, "Output file name without extension; \"url\" derives it from the page URL")
	snapshotCmd.Flags().IntVar(&flagMaxResources, "max_resources", 20, "Maximum stylesheets and scripts to inline")
	snapshotCmd.Flags().BoolVar(&flagInlineFonts, "inline_fonts", false, "Embed fonts referenced from inline CSS as data URIs")
	snapshotCmd.Flags().BoolVar(&flagRespectRobots, "respect_robots", false, "Refuse pages disallowed by robots.txt")
	snapshotCmd.Flags().BoolVar(&flagCompact, "compact", false, "Serialize without indentation")
	snapshotCmd.Flags().BoolVar(&flagStdout, "stdout", false, "Write to standard output instead of a file")
	snapshotCmd.Flags().BoolVar(&flagWithMarkup, "with_markup", false, "Include the snapshot HTML in json output")
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	if err := validateFlags(cmd.Flags()); err != nil {
		return err
	}

	target, err := resolve.NormalizeTarget(args[0])
	if err != nil {
		return fmt.Errorf("invalid URL %q: %w", args[0], err)
	}

	renderer, err := selectRenderer(flagFormat)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	snap, err := newAssembler().Snapshot(ctx, target)
	if err != nil {
		return err
	}

	data, err := renderer.Render(snap)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}

	if flagStdout {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}

	writer, err := output.New(flagOutputDir)
	if err != nil {
		return fmt.Errorf("initializing output writer: %w", err)
	}
	name := flagName
	if name == "url" {
		name = output.NameFromURL(snap.Metadata.URL)
	}
	path, err := writer.Write(name, data, renderer.Extension())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Written: %s (%d resources inlined)\n", path, snap.Inlined)
	return nil
}

// validateFlags checks flag values and applies the ones the user set on top
// of the loaded configuration.
func validateFlags(flags *pflag.FlagSet) error {
	if flags.Changed("max_resources") {
		if flagMaxResources <= 0 {
			return fmt.Errorf("--max_resources must be > 0 (got %d)", flagMaxResources)
		}
		cfg.Snapshot.MaxResources = flagMaxResources
	}
	if flags.Changed("inline_fonts") {
		cfg.Snapshot.InlineFonts = flagInlineFonts
	}
	if flags.Changed("respect_robots") {
		cfg.Snapshot.RespectRobots = flagRespectRobots
	}
	if flags.Changed("compact") {
		pretty := !flagCompact
		cfg.Snapshot.Pretty = &pretty
	}
	if flagStdout && flags.Changed("output_dir") {
		return fmt.Errorf("--stdout and --output_dir are mutually exclusive")
	}
	if flagWithMarkup && flagFormat != "json" {
		return fmt.Errorf("--with_markup only applies to --format json")
	}
	return nil
}

// selectRenderer creates the Renderer for the requested format.
func selectRenderer(format string) (core.Renderer, error) {
	md := render.NewMarkdownRenderer(extract.New(), normalize.New())
	switch format {
	case "html":
		return render.NewHTMLRenderer(), nil
	case "markdown", "md":
		return md, nil
	case "pdf":
		return render.NewPDFRenderer(md), nil
	case "json":
		return render.NewJSONRenderer(md, flagWithMarkup), nil
	default:
		return nil, fmt.Errorf("unknown format %q: use html, markdown, pdf or json", format)
	}
}
