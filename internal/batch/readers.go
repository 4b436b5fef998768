package batch

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/segmentio/parquet-go"
	"go.uber.org/zap"
)

// emitFunc receives each record read; returning false stops reading.
type emitFunc func(Record) bool

// readCSV streams rows of a CSV file with a header line
func (p *Pipeline) readCSV(ctx context.Context, r io.Reader, emit emitFunc, result *ProcessingResult) error {
	reader := csv.NewReader(r)
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("failed to read CSV header: %w", err)
	}
	textIdx, idIdx := -1, -1
	for i, col := range header {
		name := strings.TrimSpace(strings.TrimPrefix(col, "\ufeff"))
		switch {
		case strings.EqualFold(name, p.config.TextColumn):
			textIdx = i
		case strings.EqualFold(name, p.config.IDColumn):
			idIdx = i
		}
	}
	if textIdx < 0 {
		return fmt.Errorf("CSV header has no %q column", p.config.TextColumn)
	}

	p.logger.Info("CSV header detected", zap.Strings("columns", header))

	row := 0
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		fields, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		row++
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				p.logger.Warn("Failed to read CSV record", zap.Int("row", row), zap.Error(err))
				result.Failed++
				result.Errors = append(result.Errors, err.Error())
				continue
			}
			return fmt.Errorf("failed to read CSV: %w", err)
		}

		rec := Record{ID: strconv.Itoa(row), Text: fields[textIdx]}
		if idIdx >= 0 {
			rec.ID = fields[idIdx]
		}
		if !emit(rec) {
			return ctx.Err()
		}
	}
}

// readJSON accepts either a top-level array of objects or a stream of
// objects such as JSON Lines
func (p *Pipeline) readJSON(ctx context.Context, r io.Reader, emit emitFunc, result *ProcessingResult) error {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read JSON: %w", err)
	}

	decoder := json.NewDecoder(br)
	decoder.UseNumber()

	inArray := first == '['
	if inArray {
		if _, err := decoder.Token(); err != nil {
			return fmt.Errorf("failed to read JSON array: %w", err)
		}
	}

	row := 0
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if inArray && !decoder.More() {
			return nil
		}

		var obj map[string]any
		err := decoder.Decode(&obj)
		if err == io.EOF && !inArray {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to decode JSON record %d: %w", row+1, err)
		}
		row++

		text, ok := obj[p.config.TextColumn].(string)
		if !ok {
			p.logger.Warn("JSON record has no text field", zap.Int("row", row))
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("record %d: missing %q", row, p.config.TextColumn))
			continue
		}

		rec := Record{ID: strconv.Itoa(row), Text: text}
		if id, ok := obj[p.config.IDColumn]; ok && id != nil {
			rec.ID = fmt.Sprint(id)
		}
		if !emit(rec) {
			return ctx.Err()
		}
	}
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b, br.UnreadByte()
	}
}

// readParquet streams rows of a Parquet file with id and text columns
func (p *Pipeline) readParquet(ctx context.Context, filePath string, emit emitFunc) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open Parquet file: %w", err)
	}
	defer file.Close()

	reader := parquet.NewReader(file)
	defer reader.Close()

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		var rec Record
		err := reader.Read(&rec)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read Parquet record: %w", err)
		}
		if !emit(rec) {
			return ctx.Err()
		}
	}
}
