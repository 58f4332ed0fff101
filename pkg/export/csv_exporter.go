package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// Dataset defines tabular export content.
type Dataset struct {
	Headers []string
	Rows    [][]string
}

// CSVWriter streams records to an io.Writer using standard CSV quoting.
// Carriage returns and line feeds inside values are folded to spaces so every
// record occupies exactly one physical line.
type CSVWriter struct {
	w       *csv.Writer
	columns int
}

// NewCSVWriter writes the header row immediately.
func NewCSVWriter(out io.Writer, headers []string) (*CSVWriter, error) {
	if len(headers) == 0 {
		return nil, fmt.Errorf("csv requires at least one header")
	}
	writer := &CSVWriter{w: csv.NewWriter(out), columns: len(headers)}
	if err := writer.w.Write(headers); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	return writer, nil
}

// Write appends a record. Short records are padded, long ones rejected.
func (cw *CSVWriter) Write(record []string) error {
	if len(record) > cw.columns {
		return fmt.Errorf("csv record has %d fields, want %d", len(record), cw.columns)
	}
	row := make([]string, cw.columns)
	for i, value := range record {
		row[i] = singleLine(value)
	}
	if err := cw.w.Write(row); err != nil {
		return fmt.Errorf("write csv row: %w", err)
	}
	return nil
}

// Flush pushes buffered rows to the underlying writer.
func (cw *CSVWriter) Flush() error {
	cw.w.Flush()
	if err := cw.w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// CSVExporter renders Dataset records into CSV bytes.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render produces CSV encoded bytes for the dataset.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	buf := &bytes.Buffer{}
	writer, err := NewCSVWriter(buf, data.Headers)
	if err != nil {
		return nil, err
	}
	for _, row := range data.Rows {
		if err := writer.Write(row); err != nil {
			return nil, err
		}
	}
	if err := writer.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

func singleLine(value string) string {
	return lineBreaks.Replace(value)
}
