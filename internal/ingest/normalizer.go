// internal/ingest/normalizer.go
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/demandcast/backend-go/internal/domain"
)

// RequiredColumns are the header names every upload must carry.
var RequiredColumns = []string{"Product_ID", "Product_Name", "Category", "Week", "Sales_Quantity"}

// dayFirstLayouts are tried first; Week values are day-first by contract.
var dayFirstLayouts = []string{
	"2/1/2006",
	"02/01/2006",
	"2-1-2006",
	"02-01-2006",
	"2/1/06",
}

// fallbackLayouts cover ISO and month-first exports.
var fallbackLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"1/2/2006",
	"01/02/2006",
}

// Normalize parses a raw tabular upload into per-product series. The filename
// selects the decoder: .xlsx sheets are read via excelize, everything else is
// treated as CSV. Series are returned in order of first appearance in the
// input, rows sorted ascending by week.
func Normalize(r io.Reader, filename string) ([]domain.ProductSeries, error) {
	var (
		records [][]string
		err     error
	)

	if strings.EqualFold(filepath.Ext(filename), ".xlsx") {
		records, err = readXLSX(r)
	} else {
		records, err = readCSV(r)
	}
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return nil, &domain.SchemaError{MissingColumns: RequiredColumns}
	}

	header := records[0]
	colMap := make(map[string]int, len(header))
	for i, col := range header {
		colMap[strings.TrimSpace(col)] = i
	}

	// Enumerate every missing column instead of failing on the first.
	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := colMap[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &domain.SchemaError{MissingColumns: missing}
	}

	// Price takes priority over Price_per_Unit when both are present.
	priceCol, hasPrice := colMap["Price"]
	if !hasPrice {
		priceCol, hasPrice = colMap["Price_per_Unit"]
	}

	var (
		seriesByID = make(map[string]*domain.ProductSeries)
		order      []string
		badDates   []domain.BadDate
	)

	for i, record := range records[1:] {
		rowNum := i + 2 // 1-based, counting the header

		pid := strings.TrimSpace(cell(record, colMap["Product_ID"]))
		if pid == "" {
			continue
		}

		week, ok := parseWeek(cell(record, colMap["Week"]))
		if !ok {
			badDates = append(badDates, domain.BadDate{Row: rowNum, Value: cell(record, colMap["Week"])})
			continue
		}

		rec := domain.RawRecord{
			ProductID:   pid,
			ProductName: strings.TrimSpace(cell(record, colMap["Product_Name"])),
			Category:    strings.TrimSpace(cell(record, colMap["Category"])),
			Week:        week,
			Sales:       parseQuantity(cell(record, colMap["Sales_Quantity"])),
		}
		if hasPrice {
			rec.Price = parseQuantity(cell(record, priceCol))
		}

		series, exists := seriesByID[pid]
		if !exists {
			series = &domain.ProductSeries{ProductID: pid}
			seriesByID[pid] = series
			order = append(order, pid)
		}
		series.Rows = append(series.Rows, rec)
	}

	// One bad date fails the whole upload, enumerating every offender.
	if len(badDates) > 0 {
		return nil, &domain.DateError{Rows: badDates}
	}

	out := make([]domain.ProductSeries, 0, len(order))
	for _, pid := range order {
		series := seriesByID[pid]
		sort.SliceStable(series.Rows, func(a, b int) bool {
			return series.Rows[a].Week.Before(series.Rows[b].Week)
		})
		out = append(out, *series)
	}

	return out, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	return records, nil
}

func parseWeek(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dayFirstLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseQuantity coerces a numeric cell to a non-negative float; missing or
// malformed values become 0.
func parseQuantity(raw string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

func cell(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return record[idx]
}
