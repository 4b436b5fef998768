package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/raaihank/doc-sentinel/internal/analysis"
	"github.com/raaihank/doc-sentinel/internal/extract"
	"github.com/raaihank/doc-sentinel/internal/locator"
	"github.com/raaihank/doc-sentinel/internal/risk"
	"github.com/spf13/cobra"
)

var (
	scanFormat   string
	scanMIMEType string
	scanFailOn   string
)

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().StringVarP(&scanFormat, "format", "f", "text", "Output format (text|json|sensitive-info)")
	scanCmd.Flags().StringVar(&scanMIMEType, "mime", "", "MIME type of the input; guessed from the extension when empty")
	scanCmd.Flags().StringVar(&scanFailOn, "fail-on", "", "Exit non-zero when any document reaches this risk level (low|medium|high|critical)")
}

var scanCmd = &cobra.Command{
	Use:   "scan <file>...",
	Short: "Analyze documents for sensitive data",
	Long: "Extracts the text of each file (plain text or DOCX), runs the detector and\n" +
		"the broad classifier, and prints the findings with their risk score.\n\n" +
		"Use - to read plain text from stdin.",
	Args: cobra.MinimumNArgs(1),
	RunE: runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	if scanFailOn != "" && levelRank(scanFailOn) < 0 {
		return fmt.Errorf("invalid --fail-on level: %s", scanFailOn)
	}

	engine, _, err := newEngine()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	failed := false
	for _, path := range args {
		src, text, err := readDocument(cmd.InOrStdin(), path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		report := engine.AnalyzeDocument(src, text)
		if err := printReport(out, report, text); err != nil {
			return err
		}

		if scanFailOn != "" && levelRank(string(report.Risk.Level)) >= levelRank(scanFailOn) {
			failed = true
		}
	}

	if failed {
		return fmt.Errorf("risk level %s reached", scanFailOn)
	}
	return nil
}

func readDocument(stdin io.Reader, path string) (analysis.Source, string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return analysis.Source{}, "", err
	}

	mimeType := extract.DetectMIME(scanMIMEType, path)
	if path == "-" && mimeType == "" {
		mimeType = extract.MIMEPlainText
	}

	text, err := extract.Extract(mimeType, data)
	if err != nil {
		return analysis.Source{}, "", err
	}

	return analysis.Source{
		Filename: filepath.Base(path),
		MIMEType: mimeType,
		FileSize: int64(len(data)),
	}, text, nil
}

func printReport(w io.Writer, report *analysis.Report, text string) error {
	switch scanFormat {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "sensitive-info":
		s, err := report.SensitiveInfoJSON()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, s)
		return err
	case "text":
	default:
		return fmt.Errorf("unknown format: %s", scanFormat)
	}

	fmt.Fprintf(w, "%s: %d findings, risk %.0f (%s)\n",
		displayName(report.Filename), report.TotalMatches, report.Risk.Score, report.Risk.Level)
	for _, m := range report.Matches {
		pos := locator.Locate(text, m.Start)
		fmt.Fprintf(w, "  %-8s %-16s %s\n", pos, m.Subtype, m.Subtype.Label())
	}
	if report.Classification != nil {
		fmt.Fprintf(w, "  classification: %s\n", report.Classification.Summary)
	}
	return nil
}

func displayName(name string) string {
	if name == "" || name == "-" {
		return "<stdin>"
	}
	return name
}

func levelRank(level string) int {
	return slices.Index(risk.Levels, risk.Level(strings.ToLower(level)))
}
