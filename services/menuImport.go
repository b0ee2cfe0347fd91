package services

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go-food-ordering/helpers"
	"go-food-ordering/logger"
	"go-food-ordering/models"

	"github.com/xuri/excelize/v2"
)

// Import sheet columns, after a header row.
const (
	colName = iota
	colPrice
	colCategory
	colDescription
	colAvailable
)

type SkippedRow struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

type ImportResult struct {
	Imported int          `json:"imported"`
	Skipped  []SkippedRow `json:"skipped"`
}

// ParseMenuSheet reads menu items from the first sheet of an .xlsx workbook.
// Rows without a name or with a non-positive price are skipped and reported.
func ParseMenuSheet(r io.Reader) ([]models.MenuItem, []SkippedRow, error) {
	xl, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, helpers.Validation("failed to parse Excel file")
	}
	defer xl.Close()

	sheets := xl.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, helpers.Validation("workbook has no sheets")
	}
	rows, err := xl.GetRows(sheets[0])
	if err != nil || len(rows) < 2 {
		return nil, nil, helpers.Validation("Excel must have at least one row of data")
	}

	var (
		items   []models.MenuItem
		skipped = []SkippedRow{}
	)
	for i, row := range rows[1:] {
		rowNum := i + 2
		name := cell(row, colName)
		if name == "" {
			skipped = append(skipped, SkippedRow{Row: rowNum, Reason: "name is empty"})
			continue
		}
		price, err := strconv.ParseFloat(cell(row, colPrice), 64)
		if err != nil || price <= 0 {
			skipped = append(skipped, SkippedRow{Row: rowNum, Reason: fmt.Sprintf("invalid price %q", cell(row, colPrice))})
			continue
		}
		items = append(items, models.MenuItem{
			Name:        name,
			Price:       price,
			Category:    cell(row, colCategory),
			Description: cell(row, colDescription),
			IsAvailable: parseAvailable(cell(row, colAvailable)),
		})
	}
	return items, skipped, nil
}

func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseAvailable treats an empty cell as available.
func parseAvailable(v string) bool {
	switch strings.ToLower(v) {
	case "", "1", "true", "yes", "y":
		return true
	}
	return false
}

// ImportMenu appends every valid row of the workbook to the admin's menu in a
// single write.
func (s *RestaurantService) ImportMenu(ctx context.Context, admin models.Principal, r io.Reader) (*ImportResult, error) {
	rid, err := requireRestaurant(admin)
	if err != nil {
		return nil, err
	}
	items, skipped, err := ParseMenuSheet(r)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, helpers.Validation("no valid rows found")
	}
	if _, err := s.restaurants.AddMenuItems(ctx, rid, items...); err != nil {
		return nil, err
	}
	s.log.Info(logger.RequestID(ctx), "menu_imported", "Menu items imported", map[string]interface{}{
		"restaurant_id": rid.Hex(),
		"imported":      len(items),
		"skipped":       len(skipped),
	})
	return &ImportResult{Imported: len(items), Skipped: skipped}, nil
}
