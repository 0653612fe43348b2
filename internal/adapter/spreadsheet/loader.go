// Package spreadsheet reads facility emission tables from .xlsx and .csv
// files into a domain.PollutantDataset.
package spreadsheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/emissions-dashboard/internal/domain"
	"github.com/xuri/excelize/v2"
)

// Options tunes how the input is read.
type Options struct {
	// Sheet selects a worksheet in .xlsx files. Empty means the first sheet.
	Sheet string
}

// Load reads path and partitions its records by pollutant. Every failure is
// returned as a *domain.LoadError carrying the path.
func Load(path string, opts Options) (*domain.PollutantDataset, error) {
	records, err := LoadRecords(path, opts)
	if err != nil {
		return nil, err
	}
	return domain.NewPollutantDataset(records), nil
}

// LoadRecords reads path into records in file order.
func LoadRecords(path string, opts Options) ([]domain.FacilityRecord, error) {
	rows, err := readRows(path, opts)
	if err != nil {
		return nil, domain.WithSource(err, path)
	}
	records, err := parseRows(rows)
	if err != nil {
		return nil, domain.WithSource(err, path)
	}
	return records, nil
}

func readRows(path string, opts Options) ([][]string, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx", ".xlsm":
		return readXLSX(path, opts.Sheet)
	case ".csv":
		return readCSV(path)
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, ext)
	}
}

func readXLSX(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
		if sheet == "" {
			return nil, errors.New("workbook has no sheets")
		}
	}

	// Raw values keep full numeric precision regardless of cell number formats.
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var rows [][]string
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// parseRows resolves the header on the first row and parses the rest.
func parseRows(rows [][]string) ([]domain.FacilityRecord, error) {
	if len(rows) == 0 {
		return nil, &domain.LoadError{Err: domain.ErrNoHeader}
	}

	header := rows[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	idx, err := domain.ResolveColumns(header)
	if err != nil {
		return nil, err
	}

	records := make([]domain.FacilityRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		rec, ok, err := domain.ParseRow(idx, row, i+2)
		if err != nil {
			return nil, err
		}
		if ok {
			records = append(records, rec)
		}
	}
	return records, nil
}
