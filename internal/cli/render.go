package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/visaposter/pkg/config"
	"github.com/matzehuels/visaposter/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	name      string // guest name
	country   string // destination country
	photo     string // photo path, URL or data URI
	formats   string // comma-separated output formats
	noShadows bool   // skip drop shadows under flags and photo
	flags     config.Flags
}

// renderCommand creates the render command for exporting posters.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Export a visa-granted poster",
		Long: `Export a visa-granted poster from a name, a destination country and a photo.

The poster is composed on a 595x842 template, upscaled (2x by default) and
written to the output directory as "<name>-poster.<ext>". All fields are
optional: without a name the file is called "visa-granted-poster.<ext>",
without a country no flags are drawn and without a photo the center stays
empty.

Supported countries: USA, UK, Australia, New Zealand, Canada.

Examples:
  visaposter render --name "Anita Sharma" --country UK --photo anita.jpg
  visaposter render -n "Anita Sharma" -c USA -f png,webp -o posters/
  visaposter render --country Canada --scale 4 --supersample 2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.flags.Formats = parseFormats(opts.formats)
			opts.flags.AssetTimeoutSet = cmd.Flags().Changed("asset-timeout")
			return c.runRender(cmd.Context(), &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.name, "name", "n", "", "guest name shown on the poster")
	cmd.Flags().StringVarP(&opts.country, "country", "c", "", "destination country: USA, UK, Australia, New Zealand, Canada")
	cmd.Flags().StringVarP(&opts.photo, "photo", "p", "", "photo file, http(s) URL or data URI")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output format(s): png (default), webp, json (comma-separated)")
	cmd.Flags().StringVarP(&opts.flags.OutputDir, "output", "o", "", "output directory (default from config, \".\")")
	cmd.Flags().Float64Var(&opts.flags.Scale, "scale", 0, fmt.Sprintf("export upscaling factor (default %g)", pipeline.DefaultScale))
	cmd.Flags().IntVar(&opts.flags.Supersample, "supersample", 0, "render at N times the scale and downsample (2-4)")
	cmd.Flags().StringVar(&opts.flags.AssetsDir, "assets-dir", "", "directory holding images/visa.png and flags/*.png")
	cmd.Flags().StringVar(&opts.flags.AssetsURL, "assets-url", "", "base URL serving the bundled assets")
	cmd.Flags().DurationVar(&opts.flags.AssetTimeout, "asset-timeout", 0, "longest wait for assets before failing (0 waits forever)")
	cmd.Flags().BoolVar(&opts.flags.NoCache, "no-cache", false, "disable the remote asset cache")
	cmd.Flags().BoolVar(&opts.noShadows, "no-shadows", false, "draw flags and photo without drop shadows")

	_ = cmd.RegisterFlagCompletionFunc("country", completeCountries)
	_ = cmd.RegisterFlagCompletionFunc("format", cobra.FixedCompletions(
		[]string{pipeline.FormatPNG, pipeline.FormatWebP, pipeline.FormatJSON}, cobra.ShellCompDirectiveNoFileComp))

	return cmd
}

// runRender exports the poster described by opts. Nothing is written when
// any step fails.
func (c *CLI) runRender(ctx context.Context, opts *renderOpts) error {
	if err := pipeline.ValidateFormats(opts.flags.Formats); err != nil {
		return err
	}
	cfg, err := c.loadConfig(opts.flags)
	if err != nil {
		return err
	}
	e, err := newEnv(ctx, cfg, c.Logger)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx = withLogger(ctx, c.Logger)
	popts := exportOptions(cfg)
	popts.Name = opts.name
	popts.Country = opts.country
	popts.Photo = opts.photo
	popts.NoShadows = opts.noShadows

	return c.execute(ctx, e, popts)
}

// execute runs the pipeline behind a spinner and reports the written files.
func (c *CLI) execute(ctx context.Context, e *env, opts pipeline.Options) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	spinner := newSpinnerWithContext(ctx, "Composing poster...")
	spinner.Start()
	restore := trackExports(spinner)
	result, err := e.runner.Execute(ctx, opts)
	restore()
	spinner.Stop()
	if err != nil {
		return err
	}

	prog.done("Exported poster")
	printSuccess("Poster ready for %s", displayName(result.Fields.TrimmedName()))
	for _, f := range result.Files {
		printFile(f.Path)
	}
	printStats(result.Stats.LayerCount, result.Stats.AssetCount,
		result.Stats.Width, result.Stats.Height, result.Stats.AssetWait)
	if result.Stats.AssetWait > time.Second {
		printDetail("Waited %s for assets", result.Stats.AssetWait.Round(time.Millisecond))
	}
	return nil
}

func displayName(name string) string {
	if name == "" {
		return StyleDim.Render("(no name)")
	}
	return StyleHighlight.Render(name)
}
