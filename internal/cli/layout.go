package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/visaposter/pkg/pipeline"
	"github.com/matzehuels/visaposter/pkg/poster"
)

// layoutCommand creates the layout command for inspecting resolved layers.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output string
		asJSON bool
		opts   pipeline.Options
	)

	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Print the resolved poster layers",
		Long: `Print the resolved poster layers without loading any asset.

The layout is the ordered list of layers (background, decoration, name,
flags, photo) with anchors and sizes in percent of the 595x842 template.
With --json (or -o) the layout document is written as JSON, the same
document "render -f json" produces.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(opts, output, asJSON)
		},
	}

	cmd.Flags().StringVarP(&opts.Name, "name", "n", "", "guest name shown on the poster")
	cmd.Flags().StringVarP(&opts.Country, "country", "c", "", "destination country")
	cmd.Flags().StringVarP(&opts.Photo, "photo", "p", "", "photo file, http(s) URL or data URI")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the JSON layout document to a file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the JSON layout document")

	_ = cmd.RegisterFlagCompletionFunc("country", completeCountries)

	return cmd
}

// runLayout resolves the layers for opts and prints or writes them.
func (c *CLI) runLayout(opts pipeline.Options, output string, asJSON bool) error {
	runner := pipeline.NewRunner(nil, nil, c.Logger)
	fields, layers, err := runner.Layout(opts)
	if err != nil {
		return err
	}
	c.Logger.Debug("resolved layout", "layers", len(layers), "assets", len(poster.RasterAssets(layers)))

	if output == "" && !asJSON {
		fmt.Println(layerTable(layers, -1))
		return nil
	}

	data, err := pipeline.MarshalLayout(fields, layers)
	if err != nil {
		return err
	}
	if output == "" {
		fmt.Println(string(data))
		return nil
	}
	if err := os.WriteFile(output, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	printSuccess("Layout written")
	printFile(output)
	return nil
}

// =============================================================================
// Layer Table
// =============================================================================

// layerTable renders layers as a bordered table. The row at highlight (if
// any) is emphasized; pass -1 for none.
func layerTable(layers []poster.Layer, highlight int) string {
	rows := make([][]string, 0, len(layers))
	for _, l := range layers {
		rows = append(rows, []string{
			fmt.Sprintf("%d", l.Z),
			l.Kind.String(),
			layerContent(l),
			fmt.Sprintf("%.1f, %.1f", l.Anchor.X, l.Anchor.Y),
			layerSize(l),
			layerTransform(l.Transform),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Z", "Layer", "Content", "Anchor %", "Size %", "Transform").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle
			case row == highlight:
				return lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
			case col == 0:
				return lipgloss.NewStyle().Foreground(colorDim)
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		}).
		Render()
}

func layerContent(l poster.Layer) string {
	switch {
	case len(l.Text) > 0:
		return truncate(strings.Join(l.Text, " / "), 28)
	case strings.HasPrefix(string(l.AssetID), "data:"):
		return "inline photo"
	default:
		return truncate(string(l.AssetID), 28)
	}
}

func layerSize(l poster.Layer) string {
	if l.FontSize > 0 {
		return fmt.Sprintf("font %.1f", l.FontSize)
	}
	if l.Size.H == 0 {
		return fmt.Sprintf("%.1f wide", l.Size.W)
	}
	return fmt.Sprintf("%.1f x %.1f", l.Size.W, l.Size.H)
}

func layerTransform(t poster.Transform) string {
	var parts []string
	if t.RotationDegrees != 0 {
		parts = append(parts, fmt.Sprintf("rot %g°", t.RotationDegrees))
	}
	if t.Mirrored {
		parts = append(parts, "mirrored")
	}
	if len(parts) == 0 {
		return "—"
	}
	return strings.Join(parts, ", ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
