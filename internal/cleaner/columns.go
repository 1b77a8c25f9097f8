package cleaner

import (
	"errors"
	"fmt"
	"strings"

	"IndexForecaster/internal/table"
)

var (
	// ErrNoDateColumn is returned when neither a Date nor a Datetime index or column exists.
	ErrNoDateColumn = errors.New("no Date column found")
	// ErrNoPriceColumn is returned when no price-like column can be located.
	ErrNoPriceColumn = errors.New("no Close column found")
)

// IndexPosition marks the frame's index as the resolved column.
const IndexPosition = -1

// DateNames lists accepted date headers in priority order. The index is
// checked before the value columns for each name.
var DateNames = []string{"Date", "Datetime"}

// ResolveDate returns the position of the date source: IndexPosition for the
// index, otherwise a column position. Headers are compared on their first level.
func ResolveDate(f *table.Frame) (int, error) {
	for _, name := range DateNames {
		if f.IndexName == name {
			return IndexPosition, nil
		}
		if j, ok := f.Lookup(name); ok {
			return j, nil
		}
	}
	return 0, fmt.Errorf("%w in columns %v", ErrNoDateColumn, f.ColumnNames())
}

// ResolvePrice picks the closing-price column with this priority:
//  1. a column named exactly "Close"
//  2. a column named exactly "Adj Close"
//  3. the first column whose name contains "close", ignoring case
func ResolvePrice(f *table.Frame) (int, error) {
	for _, name := range []string{"Close", "Adj Close"} {
		if j, ok := f.Lookup(name); ok {
			return j, nil
		}
	}
	for j, c := range f.Columns {
		if strings.Contains(strings.ToLower(c.Flat()), "close") {
			return j, nil
		}
	}
	return 0, fmt.Errorf("%w in columns %v", ErrNoPriceColumn, f.ColumnNames())
}
