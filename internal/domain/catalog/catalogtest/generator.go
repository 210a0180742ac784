// Package catalogtest generates vendor catalogs and encoded fixtures (CSV, XLSX,
// PDF) for tests.
package catalogtest

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/BornStar-hub/Makopo-Industrial-Price-Adjuster/internal/domain/catalog"
)

var categories = []string{
	"Fasteners", "Hydraulics", "Pneumatics", "Bearings", "Electrical",
	"Safety", "Welding", "Abrasives", "Lubricants", "Hand Tools",
}

// Generator generates realistic vendor catalog data using gofakeit.
type Generator struct {
	faker *gofakeit.Faker
}

// NewGenerator creates a generator with a random seed.
func NewGenerator() *Generator {
	return &Generator{faker: gofakeit.New(0)}
}

// NewGeneratorWithSeed creates a generator with a specific seed for reproducibility.
func NewGeneratorWithSeed(seed int64) *Generator {
	return &Generator{faker: gofakeit.New(seed)}
}

// Item returns a product name
func (g *Generator) Item() string {
	return strings.TrimSpace(g.faker.BuzzWord() + " " + g.faker.Noun())
}

// Price returns a price between 0.50 and 5000.00 with two decimals
func (g *Generator) Price() string {
	return decimal.NewFromFloat(g.faker.Float64Range(0.5, 5000)).Round(2).String()
}

// Catalog generates a table with columns SKU, Item, Category and Price.
func (g *Generator) Catalog(rows int) *catalog.Table {
	records := make([][]string, rows)
	for i := range records {
		records[i] = []string{
			fmt.Sprintf("SKU-%05d", i+1),
			g.Item(),
			categories[g.faker.Number(0, len(categories)-1)],
			g.Price(),
		}
	}
	t, err := catalog.NewTable([]string{"SKU", "Item", "Category", "Price"}, records)
	if err != nil {
		panic(err)
	}
	return t
}

// CSV encodes header and records as comma-separated text with minimal quoting.
func CSV(header []string, records ...[]string) []byte {
	var buf bytes.Buffer
	write := func(fields []string) {
		for i, f := range fields {
			if i > 0 {
				buf.WriteByte(',')
			}
			if strings.ContainsAny(f, ",\"\n") {
				f = `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
			}
			buf.WriteString(f)
		}
		buf.WriteByte('\n')
	}
	write(header)
	for _, r := range records {
		write(r)
	}
	return buf.Bytes()
}

// XLSX builds a workbook whose first sheet holds header and records. Cells that
// parse as numbers are written as numeric cells. Extra sheets follow the first,
// each holding only the given header.
func XLSX(header []string, records [][]string, extraSheets ...string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sheet1"
	if err := writeRow(f, sheet, 1, header); err != nil {
		return nil, err
	}
	for i, r := range records {
		if err := writeRow(f, sheet, i+2, r); err != nil {
			return nil, err
		}
	}

	for _, name := range extraSheets {
		if _, err := f.NewSheet(name); err != nil {
			return nil, err
		}
		if err := writeRow(f, name, 1, []string{"Decoy", "Column"}); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, cells []string) error {
	values := make([]interface{}, len(cells))
	for i, c := range cells {
		if d, err := decimal.NewFromString(c); err == nil {
			v, _ := d.Float64()
			values[i] = v
			continue
		}
		values[i] = c
	}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}
