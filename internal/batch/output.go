package batch

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

type outputWriter interface {
	Write(OutputRecord) error
	Flush() error
}

func newOutputWriter(format string, w io.Writer) (outputWriter, error) {
	switch format {
	case OutputJSONL:
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		return &jsonlWriter{enc: enc}, nil
	case OutputCSV:
		return &csvWriter{w: csv.NewWriter(w)}, nil
	}
	return nil, fmt.Errorf("unsupported output format: %s", format)
}

type jsonlWriter struct {
	enc *json.Encoder
}

func (j *jsonlWriter) Write(rec OutputRecord) error { return j.enc.Encode(rec) }

func (j *jsonlWriter) Flush() error { return nil }

var csvHeader = []string{
	"id", "content_length", "total_matches", "subtypes", "categories",
	"classification", "risk_score", "risk_level",
}

type csvWriter struct {
	w           *csv.Writer
	wroteHeader bool
}

func (c *csvWriter) Write(rec OutputRecord) error {
	if !c.wroteHeader {
		if err := c.w.Write(csvHeader); err != nil {
			return err
		}
		c.wroteHeader = true
	}
	return c.w.Write([]string{
		rec.ID,
		strconv.Itoa(rec.ContentLength),
		strconv.Itoa(rec.TotalMatches),
		strings.Join(rec.Subtypes, ";"),
		strings.Join(rec.Categories, ";"),
		rec.Classification,
		strconv.FormatFloat(rec.RiskScore, 'f', -1, 64),
		string(rec.RiskLevel),
	})
}

func (c *csvWriter) Flush() error {
	if !c.wroteHeader {
		if err := c.w.Write(csvHeader); err != nil {
			return err
		}
		c.wroteHeader = true
	}
	c.w.Flush()
	return c.w.Error()
}
