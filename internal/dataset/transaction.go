package dataset

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is one raw observation from the upstream export. Immutable after
// load; the loader is responsible for identifier formatting.
type Transaction struct {
	TransactionID   string
	CustomerID      string
	Amount          decimal.Decimal
	CurrencyCode    string
	ProductCategory string
	ChannelID       string
	// StartTime is the zero value when the source field could not be parsed;
	// the temporal stage surfaces that as a malformed-timestamp failure.
	StartTime time.Time
}

// Table is a labeled modeling table: one row per customer, numeric feature
// columns only, label and identifier already separated out.
type Table struct {
	Columns     []string
	CustomerIDs []string
	Rows        [][]float64
	Labels      []int
}

// NumRows returns the row count.
func (t *Table) NumRows() int { return len(t.Rows) }

// NumColumns returns the feature column count.
func (t *Table) NumColumns() int { return len(t.Columns) }
