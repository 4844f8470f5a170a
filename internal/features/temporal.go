package features

import (
	"errors"
	"fmt"
	"time"

	"github.com/riskline/credit-scoring/internal/dataset"
	"github.com/riskline/credit-scoring/pkg"
)

// Temporal feature column names, in output order.
var TemporalColumns = []string{
	"TransactionHour",
	"TransactionDay",
	"TransactionMonth",
	"TransactionYear",
}

// TimeFeatures holds the calendar fields of one transaction, extracted after
// normalizing the timestamp to UTC so results do not depend on the source
// offset.
type TimeFeatures struct {
	CustomerID string
	Hour       float64 // [0,23]
	Day        float64 // [1,31]
	Month      float64 // [1,12]
	Year       float64

	observedAt time.Time
}

// ExtractTimeFeatures derives calendar features per transaction. A record
// whose timestamp could not be parsed fails with a MalformedTimestamp error
// and is skipped; the remaining records are still returned, with the failures
// joined into the returned error.
func ExtractTimeFeatures(txs []dataset.Transaction) ([]TimeFeatures, error) {
	var rows []TimeFeatures
	var errs []error
	for _, tx := range txs {
		if tx.StartTime.IsZero() {
			errs = append(errs, pkg.NewAppError(pkg.ErrMalformedTimestampCode,
				fmt.Sprintf("transaction %s for customer %s has an unparseable timestamp", tx.TransactionID, tx.CustomerID), nil))
			continue
		}
		ts := tx.StartTime.UTC()
		rows = append(rows, TimeFeatures{
			CustomerID: tx.CustomerID,
			Hour:       float64(ts.Hour()),
			Day:        float64(ts.Day()),
			Month:      float64(ts.Month()),
			Year:       float64(ts.Year()),
			observedAt: ts,
		})
	}
	return rows, errors.Join(errs...)
}

// ReduceTimeFeaturesByCustomer keeps one temporal row per customer: the fields
// of the customer's most recent transaction (ties broken by input order, last
// wins). Output order follows first appearance.
func ReduceTimeFeaturesByCustomer(rows []TimeFeatures) []TimeFeatures {
	order := make([]string, 0)
	latest := make(map[string]TimeFeatures)
	for _, row := range rows {
		cur, ok := latest[row.CustomerID]
		if !ok {
			order = append(order, row.CustomerID)
			latest[row.CustomerID] = row
			continue
		}
		if !row.observedAt.Before(cur.observedAt) {
			latest[row.CustomerID] = row
		}
	}
	out := make([]TimeFeatures, 0, len(order))
	for _, id := range order {
		out = append(out, latest[id])
	}
	return out
}

// Row returns the temporal fields in TemporalColumns order.
func (t TimeFeatures) Row() []float64 {
	return []float64{t.Hour, t.Day, t.Month, t.Year}
}
