package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

var classifyFormat string

func init() {
	rootCmd.AddCommand(classifyCmd)
	classifyCmd.Flags().StringVarP(&classifyFormat, "format", "f", "text", "Output format (text|json)")
}

var classifyCmd = &cobra.Command{
	Use:   "classify [text]",
	Short: "Classify text into broad sensitivity categories",
	Long:  "Runs only the broad classifier. Reads the text from stdin when no argument is given.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runClassify,
}

func runClassify(cmd *cobra.Command, args []string) error {
	engine, _, err := newEngine()
	if err != nil {
		return err
	}
	c := engine.Classifier()
	if c == nil {
		return errors.New("classifier is disabled in the configuration")
	}

	var text string
	if len(args) == 1 {
		text = args[0]
	} else {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return err
		}
		text = string(data)
	}

	result := c.Classify(text)
	out := cmd.OutOrStdout()

	switch classifyFormat {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case "text":
	default:
		return fmt.Errorf("unknown format: %s", classifyFormat)
	}

	cats := make([]string, 0, len(result.Categories))
	for _, cat := range result.Categories {
		cats = append(cats, string(cat))
	}
	fmt.Fprintln(out, strings.Join(cats, ", "))
	for _, d := range result.Details {
		fmt.Fprintf(out, "  %s: %s\n", d.Type, strings.Join(d.Matches, ", "))
	}
	return nil
}
