package features

import (
	"fmt"
	"math"

	"github.com/riskline/credit-scoring/internal/dataset"
	"github.com/riskline/credit-scoring/pkg"
)

// FeatureTable is the assembled fixed-schema feature matrix: one row per
// customer, columns in the permanent order aggregates → temporal →
// categorical indicators. The same schema is used for training and serving;
// a mismatch is a contract violation, not something to tolerate.
type FeatureTable struct {
	Columns     []string
	CustomerIDs []string
	Rows        [][]float64
}

// BuildCustomerFeatures runs the aggregation, temporal, and categorical
// stages and joins their outputs on the customer identifier. Temporal
// failures are record-local: customers whose every transaction has a bad
// timestamp get NaN temporal fields (imputed by the scaler downstream), and
// the malformed-timestamp errors are returned alongside the table.
func BuildCustomerFeatures(txs []dataset.Transaction, vocab *Vocabulary) (*FeatureTable, error) {
	aggregates := AggregateByCustomer(txs)

	timeRows, timeErr := ExtractTimeFeatures(txs)
	temporal := ReduceTimeFeaturesByCustomer(timeRows)
	temporalByCustomer := make(map[string]TimeFeatures, len(temporal))
	for _, row := range temporal {
		temporalByCustomer[row.CustomerID] = row
	}

	categorical := vocab.Encode(txs)
	categoricalByCustomer := make(map[string][]float64, len(categorical))
	for _, row := range categorical {
		categoricalByCustomer[row.CustomerID] = row.Indicators
	}

	columns := make([]string, 0, len(AggregateColumns)+len(TemporalColumns)+vocab.Width())
	columns = append(columns, AggregateColumns...)
	columns = append(columns, TemporalColumns...)
	columns = append(columns, vocab.FeatureNames()...)

	table := &FeatureTable{Columns: columns}
	for _, agg := range aggregates {
		row := make([]float64, 0, len(columns))
		row = append(row, agg.Row()...)

		if t, ok := temporalByCustomer[agg.CustomerID]; ok {
			row = append(row, t.Row()...)
		} else {
			row = append(row, math.NaN(), math.NaN(), math.NaN(), math.NaN())
		}

		if ind, ok := categoricalByCustomer[agg.CustomerID]; ok {
			row = append(row, ind...)
		} else {
			row = append(row, make([]float64, vocab.Width())...)
		}

		table.CustomerIDs = append(table.CustomerIDs, agg.CustomerID)
		table.Rows = append(table.Rows, row)
	}
	return table, timeErr
}

// AlignTo verifies that the table's column set and order match the given
// schema exactly.
func (t *FeatureTable) AlignTo(schema []string) error {
	if len(t.Columns) != len(schema) {
		return pkg.NewAppError(pkg.ErrSchemaMismatchCode,
			fmt.Sprintf("feature table has %d columns, schema expects %d", len(t.Columns), len(schema)), nil)
	}
	for i, name := range schema {
		if t.Columns[i] != name {
			return pkg.NewAppError(pkg.ErrSchemaMismatchCode,
				fmt.Sprintf("column %d is %q, schema expects %q", i, t.Columns[i], name), nil)
		}
	}
	return nil
}

// ToModelingTable joins per-customer labels onto the feature table. Customers
// without a label are dropped; the result feeds the training orchestrator.
func (t *FeatureTable) ToModelingTable(labels map[string]int) *dataset.Table {
	out := &dataset.Table{Columns: append([]string(nil), t.Columns...)}
	for i, id := range t.CustomerIDs {
		label, ok := labels[id]
		if !ok {
			continue
		}
		out.CustomerIDs = append(out.CustomerIDs, id)
		out.Rows = append(out.Rows, t.Rows[i])
		out.Labels = append(out.Labels, label)
	}
	return out
}
