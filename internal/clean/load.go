package clean

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// Export column headers as Square writes them.
const (
	colDate        = "Date"
	colTransaction = "Transaction ID"
	colCategory    = "Category"
	colItem        = "Item"
	colQty         = "Qty"
	colModifiers   = "Modifiers Applied"
	colEventType   = "Event Type"
)

// ReadRawCSV parses a register export stream into raw records. Only the
// columns the pipeline uses are read; extra export columns are ignored.
func ReadRawCSV(r io.Reader) ([]RawRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read export header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{colDate, colCategory, colItem, colQty} {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("export missing column %q", required)
		}
	}

	cell := func(row []string, name string) string {
		i, ok := idx[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	var out []RawRecord
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read export row: %w", err)
		}
		out = append(out, RawRecord{
			Date:          cell(row, colDate),
			TransactionID: cell(row, colTransaction),
			Category:      cell(row, colCategory),
			Item:          cell(row, colItem),
			Qty:           cell(row, colQty),
			Modifiers:     cell(row, colModifiers),
			EventType:     cell(row, colEventType),
		})
	}
	return out, nil
}

// ReadRawFile reads a register export from disk.
func ReadRawFile(path string) ([]RawRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open export %s: %w", path, err)
	}
	defer f.Close()
	return ReadRawCSV(f)
}
