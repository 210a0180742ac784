package catalog

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/shopspring/decimal"
)

const (
	// PriceColumn is the column the markup is applied to. Matching is exact.
	PriceColumn = "Price"

	// NewPriceColumn receives the marked-up price
	NewPriceColumn = "New Price"

	// DefaultMarkupPercent is the markup applied by the upload flow
	DefaultMarkupPercent = 25.0
)

// MarkupFactor returns 1 + percentage/100. NaN and infinite percentages are
// rejected with ErrInvalidMarkup.
func MarkupFactor(percentage float64) (decimal.Decimal, error) {
	if math.IsNaN(percentage) || math.IsInf(percentage, 0) {
		return decimal.Decimal{}, fmt.Errorf("%w: %v", ErrInvalidMarkup, percentage)
	}
	return decimal.NewFromInt(1).Add(decimal.NewFromFloat(percentage).Shift(-2)), nil
}

// Adjust returns a copy of t with a "New Price" column equal to
// Price * (1 + percentage/100) for every row. An existing "New Price" column is
// overwritten in place; otherwise the column is appended. t is not modified.
//
// Arithmetic is decimal and unrounded. Any blank or non-numeric price fails the
// whole adjustment with a *PriceError.
func Adjust(t *Table, percentage float64) (*Table, error) {
	priceCol := t.ColumnIndex(PriceColumn)
	if priceCol < 0 {
		return nil, &MissingColumnError{
			Column:      PriceColumn,
			Available:   t.ColumnNames(),
			Suggestions: suggestColumns(PriceColumn, t.ColumnNames()),
		}
	}

	factor, err := MarkupFactor(percentage)
	if err != nil {
		return nil, err
	}

	newPrices := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		raw := row[priceCol]
		price, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return nil, &PriceError{Row: i + 1, Value: raw}
		}
		newPrices[i] = FormatNumber(price.Mul(factor))
	}

	out := t.Clone()
	newCol := out.ColumnIndex(NewPriceColumn)
	if newCol < 0 {
		out.Columns = append(out.Columns, Column{Name: NewPriceColumn, Type: ColumnNumber})
		for i := range out.Rows {
			out.Rows[i] = append(out.Rows[i], newPrices[i])
		}
		return out, nil
	}

	out.Columns[newCol].Type = ColumnNumber
	for i := range out.Rows {
		out.Rows[i][newCol] = newPrices[i]
	}
	return out, nil
}

// FormatNumber renders d in plain notation with every significant digit,
// keeping a ".0" on integral values so derived columns read as floats.
func FormatNumber(d decimal.Decimal) string {
	s := d.String()
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// suggestColumns lists columns that loosely resemble name, closest first.
// Only used to enrich the error message.
func suggestColumns(name string, columns []string) []string {
	ranks := fuzzy.RankFindFold(name, columns)
	sort.Sort(ranks)

	suggestions := make([]string, 0, len(ranks))
	for _, r := range ranks {
		if r.Target == name {
			continue
		}
		suggestions = append(suggestions, r.Target)
	}
	return suggestions
}
