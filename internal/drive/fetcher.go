package drive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FetchOptions controls which Drive folder is pulled and where the
// exports land on disk.
type FetchOptions struct {
	FolderID string
	DestDir  string
}

// Fetcher pulls register exports from a Drive folder into a local
// directory so the cleaning pipeline can pick them up.
type Fetcher struct {
	service *Service
}

func NewFetcher(s *Service) *Fetcher {
	return &Fetcher{service: s}
}

// FetchExports downloads all non-trashed CSV and XLSX exports from the
// given Drive folder into DestDir and returns the local CSV paths.
//
//   - CSV exports are downloaded directly.
//   - XLSX exports are downloaded to a temporary .xlsx, then the first
//     sheet is converted to CSV in DestDir and the .xlsx is removed.
func (f *Fetcher) FetchExports(ctx context.Context, opts FetchOptions) ([]string, error) {
	if opts.DestDir == "" {
		return nil, fmt.Errorf("destination dir is required")
	}
	if err := os.MkdirAll(opts.DestDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create destination dir: %w", err)
	}

	files, err := f.service.ListExports(opts.FolderID)
	if err != nil {
		return nil, err
	}

	var localPaths []string
	for _, ef := range files {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		ext := strings.ToLower(filepath.Ext(ef.Name))
		if ext != ".csv" && ext != ".xlsx" {
			continue
		}

		if ext == ".csv" {
			localPath := filepath.Join(opts.DestDir, ef.Name)
			out, err := os.Create(localPath)
			if err != nil {
				return nil, fmt.Errorf("failed to create local file %s: %w", localPath, err)
			}
			if err := f.service.DownloadExport(ef.ID, out); err != nil {
				out.Close()
				return nil, fmt.Errorf("failed to download %s: %w", ef.Name, err)
			}
			out.Close()
			localPaths = append(localPaths, localPath)
			continue
		}

		tmpXLSXPath := filepath.Join(opts.DestDir, ef.Name)
		out, err := os.Create(tmpXLSXPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create temp xlsx %s: %w", tmpXLSXPath, err)
		}
		if err := f.service.DownloadExport(ef.ID, out); err != nil {
			out.Close()
			return nil, fmt.Errorf("failed to download %s: %w", ef.Name, err)
		}
		out.Close()

		csvName := strings.TrimSuffix(ef.Name, filepath.Ext(ef.Name)) + ".csv"
		csvPath := filepath.Join(opts.DestDir, csvName)
		if err := convertXLSXToCSV(tmpXLSXPath, csvPath); err != nil {
			return nil, fmt.Errorf("failed to convert %s to csv: %w", ef.Name, err)
		}
		_ = os.Remove(tmpXLSXPath)
		localPaths = append(localPaths, csvPath)
	}

	return localPaths, nil
}
