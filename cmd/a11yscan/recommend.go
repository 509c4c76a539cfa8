package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/a11yscan/internal/config"
	"github.com/nao1215/a11yscan/internal/design"
	"github.com/nao1215/a11yscan/internal/model"
	"github.com/nao1215/a11yscan/internal/report"
	"github.com/nao1215/a11yscan/internal/source"
)

// errNotAReport is returned when the input is JSON but not an a11yscan report.
var errNotAReport = errors.New("input is not an a11yscan report")

// NewRecommendCmd creates the recommend command.
func NewRecommendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recommend <report.json|->",
		Short: "Generate a design recommendation from a saved report",
		Long: `Recommend reads a JSON report written by 'a11yscan scan --json' and
generates design guidance for it: the rules to fix first, a color palette with
contrast ratios checked against the rule table, typography and layout.

The preset is chosen by industry and brand tone. Unknown names fall back to
the general/neutral preset. Reports scoring below 70 get the high-contrast
variant of the preset.

Examples:
  # Recommend for a saved report
  a11yscan scan --json -o report.json index.html
  a11yscan recommend report.json --industry education --tone friendly

  # Read the report from standard input
  a11yscan scan --json index.html | a11yscan recommend - --json`,
		Args: cobra.ExactArgs(1),
		RunE: runRecommendCmd,
	}

	cmd.Flags().String("industry", "", "Industry preset (e.g. finance, healthcare)")
	cmd.Flags().String("tone", "", "Brand tone preset (e.g. professional, playful)")
	cmd.Flags().String("rules", "", "YAML rule table override for contrast and typography checks")
	cmd.Flags().BoolP("json", "j", false, "Output the recommendation as JSON")
	cmd.Flags().BoolP("markdown", "m", false, "Output the recommendation as Markdown")

	return cmd
}

// runRecommendCmd executes the recommend command.
func runRecommendCmd(cmd *cobra.Command, args []string) error {
	industry, err := cmd.Flags().GetString("industry")
	if err != nil {
		return err
	}
	tone, err := cmd.Flags().GetString("tone")
	if err != nil {
		return err
	}
	rulesFile, err := cmd.Flags().GetString("rules")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	markdownOutput, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}
	if jsonOutput && markdownOutput {
		return config.ErrConflictingReportFormats
	}

	r, err := readReport(cmd.InOrStdin(), args[0])
	if err != nil {
		return err
	}

	table, err := config.RuleTable(nil, rulesFile)
	if err != nil {
		return err
	}
	gen, err := design.NewGenerator(design.WithTable(table))
	if err != nil {
		return fmt.Errorf("failed to load design presets: %w", err)
	}

	rec, err := gen.Generate(design.InputFrom(r), design.Preferences{Industry: industry, Tone: tone})
	if err != nil {
		return err
	}

	var w report.Writer
	switch {
	case jsonOutput:
		w = report.NewJSONWriter(cmd.OutOrStdout(), report.WithPrettyPrint())
	case markdownOutput:
		w = report.NewMarkdownWriter(cmd.OutOrStdout())
	default:
		w = report.NewSimpleWriter(cmd.OutOrStdout())
	}
	_, err = w.WriteRecommendation(rec)
	return err
}

// readReport reads a report from path, or from stdin when path is "-".
// Both the bare report and the wrapper written for several targets are
// accepted; for a wrapper stream the first report is used.
func readReport(stdin io.Reader, path string) (*model.Report, error) {
	var r io.Reader = stdin
	if path != source.StdinTarget {
		f, err := os.Open(path) //nolint:gosec // path is provided by the user
		if err != nil {
			return nil, fmt.Errorf("failed to open report: %w", err)
		}
		defer f.Close()
		r = f
	}

	var raw json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}

	var wrapped report.JSONReport
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Report != nil {
		return wrapped.Report, nil
	}

	var bare model.Report
	if err := json.Unmarshal(raw, &bare); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	if bare.Timestamp.IsZero() && bare.WCAGVersion == "" {
		return nil, errNotAReport
	}
	return &bare, nil
}
