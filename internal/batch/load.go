package batch

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// LoadYieldEstimates reads a brew-yield estimates CSV into a
// tea_key → yield_ml map. Expected columns: tea_key, yield_ml; extra
// columns (leaf_grams, absorb figures) are ignored. Non-positive yields
// are rejected so downstream division stays meaningful.
func LoadYieldEstimates(path string) (map[string]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open yield estimates %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read yield estimates header: %w", err)
	}
	keyIdx, ymlIdx := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "tea_key":
			keyIdx = i
		case "yield_ml":
			ymlIdx = i
		}
	}
	if keyIdx < 0 || ymlIdx < 0 {
		return nil, fmt.Errorf("yield estimates %s missing tea_key/yield_ml columns", path)
	}

	yields := make(map[string]float64)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read yield estimates row: %w", err)
		}
		key := strings.TrimSpace(record[keyIdx])
		if key == "" {
			continue
		}
		yml, err := strconv.ParseFloat(strings.TrimSpace(record[ymlIdx]), 64)
		if err != nil {
			return nil, fmt.Errorf("yield estimates %s: bad yield_ml for %s: %w", path, key, err)
		}
		if yml <= 0 {
			return nil, fmt.Errorf("yield estimates %s: non-positive yield_ml for %s", path, key)
		}
		yields[key] = yml
	}
	return yields, nil
}
