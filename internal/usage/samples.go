package usage

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// manualSampleFiles are the calibration exports, one per ice bucket.
var manualSampleFiles = []string{
	"manual_samples_25pct.csv",
	"manual_samples_50pct.csv",
	"manual_samples_75pct.csv",
	"manual_samples_100pct.csv",
}

// LoadBucketMeans reads the manually measured tea-base samples and
// returns the mean volume per ice bucket. Every sample file must exist
// and carry exactly one ice_pct value.
func LoadBucketMeans(dir string) (map[int]float64, error) {
	means := make(map[int]float64, len(manualSampleFiles))
	for _, name := range manualSampleFiles {
		path := filepath.Join(dir, name)
		bucket, mean, err := readSampleFile(path)
		if err != nil {
			return nil, err
		}
		means[bucket] = mean
	}
	return means, nil
}

func readSampleFile(path string) (int, float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("missing manual sample file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return 0, 0, fmt.Errorf("read %s header: %w", path, err)
	}
	iceIdx, mlIdx := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "ice_pct":
			iceIdx = i
		case "tea_base_ml":
			mlIdx = i
		}
	}
	if iceIdx < 0 || mlIdx < 0 {
		return 0, 0, fmt.Errorf("invalid manual sample format: %s", path)
	}

	bucket := -1
	var sum float64
	var n int
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, 0, fmt.Errorf("read %s: %w", path, err)
		}
		ice, err := strconv.Atoi(strings.TrimSpace(record[iceIdx]))
		if err != nil {
			continue
		}
		if bucket == -1 {
			bucket = ice
		} else if bucket != ice {
			return 0, 0, fmt.Errorf("expected one ice_pct in %s, got %d and %d", path, bucket, ice)
		}
		ml, err := strconv.ParseFloat(strings.TrimSpace(record[mlIdx]), 64)
		if err != nil {
			continue
		}
		sum += ml
		n++
	}
	if n == 0 || bucket == -1 {
		return 0, 0, fmt.Errorf("no usable samples in %s", path)
	}
	return bucket, sum / float64(n), nil
}
