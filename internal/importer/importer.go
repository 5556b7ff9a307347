package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

// ProductWriter is the admin API surface the importer writes through.
type ProductWriter interface {
	CreateProduct(ctx context.Context, token string, in domain.ProductInput) (int, error)
	UpdateProduct(ctx context.Context, token string, id int, in domain.ProductInput) error
}

// CSVImporter reads product rows and creates or updates them through the admin API.
//
// Columns: id, name, price, duration, features, badge, is_popular, is_active.
// Features are separated by "|". A row with an id updates that product; a row
// without a name continues the previous product's feature list.
type CSVImporter struct {
	reader *csv.Reader
	writer ProductWriter
	token  string
}

func NewCSVImporter(r io.Reader, writer ProductWriter, token string) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	return &CSVImporter{
		reader: csvr,
		writer: writer,
		token:  token,
	}
}

// Stats counts what a run did.
type Stats struct {
	Created int
	Updated int
}

type csvRow struct {
	line int
	id   int
	in   domain.ProductInput
}

// Run parses all rows and writes each product once its continuation rows are read.
func (i *CSVImporter) Run(ctx context.Context) (Stats, error) {
	var stats Stats

	headers, err := i.reader.Read()
	if err != nil {
		return stats, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	if _, ok := index["name"]; !ok {
		return stats, errors.New("missing required column \"name\"")
	}
	if _, ok := index["price"]; !ok {
		return stats, errors.New("missing required column \"price\"")
	}

	var current *csvRow
	line := 1
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return stats, fmt.Errorf("read row %d: %w", line, err)
		}

		name := pick(record, index, "name")
		if name == "" {
			// Continuation rows carry extra features for the current product.
			if current != nil {
				current.in.Features = append(current.in.Features, splitFeatures(pick(record, index, "features"))...)
			}
			continue
		}

		if current != nil {
			if err := i.save(ctx, current, &stats); err != nil {
				return stats, err
			}
		}
		current, err = parseRow(record, index, line)
		if err != nil {
			return stats, err
		}
	}

	if current != nil {
		if err := i.save(ctx, current, &stats); err != nil {
			return stats, err
		}
	}
	return stats, nil
}

func (i *CSVImporter) save(ctx context.Context, row *csvRow, stats *Stats) error {
	if row.id > 0 {
		if err := i.writer.UpdateProduct(ctx, i.token, row.id, row.in); err != nil {
			return fmt.Errorf("update product %d (row %d): %w", row.id, row.line, err)
		}
		stats.Updated++
		return nil
	}
	if _, err := i.writer.CreateProduct(ctx, i.token, row.in); err != nil {
		return fmt.Errorf("create product %q (row %d): %w", row.in.Name, row.line, err)
	}
	stats.Created++
	return nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int, line int) (*csvRow, error) {
	row := &csvRow{line: line}

	if raw := pick(record, index, "id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("row %d: invalid id %q", line, raw)
		}
		row.id = id
	}

	price, err := decimal.NewFromString(pick(record, index, "price"))
	if err != nil || price.IsNegative() {
		return nil, fmt.Errorf("row %d: invalid price %q", line, pick(record, index, "price"))
	}

	isPopular, err := parseBool(pick(record, index, "is_popular"), false)
	if err != nil {
		return nil, fmt.Errorf("row %d: is_popular: %w", line, err)
	}
	isActive, err := parseBool(pick(record, index, "is_active"), true)
	if err != nil {
		return nil, fmt.Errorf("row %d: is_active: %w", line, err)
	}

	row.in = domain.ProductInput{
		Name:      pick(record, index, "name"),
		Price:     price,
		Duration:  pick(record, index, "duration"),
		Features:  splitFeatures(pick(record, index, "features")),
		IsPopular: isPopular,
		IsActive:  isActive,
	}
	if badge := pick(record, index, "badge"); badge != "" {
		row.in.Badge = &badge
	}
	return row, nil
}

func splitFeatures(raw string) []string {
	var out []string
	for _, f := range strings.Split(raw, "|") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func parseBool(raw string, def bool) (bool, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.ParseBool(raw)
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
