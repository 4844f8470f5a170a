package features

import (
	"fmt"

	"github.com/riskline/credit-scoring/internal/dataset"
)

// Categorical columns encoded by default, matching the raw export.
var DefaultCategoricalColumns = []string{"CurrencyCode", "ProductCategory", "ChannelId"}

// Vocabulary is the set of (column, value) pairs observed at fit time. It is
// the permanent indicator schema: encoding never adds a column, and a value
// unseen at fit time encodes as all zeros for its column family. Persisted as
// JSON inside the model artifact so the serving schema is reproducible.
type Vocabulary struct {
	Columns []string            `json:"columns"`
	Values  map[string][]string `json:"values"` // column -> ordered observed values
}

// CategoricalRow is one customer's indicator vector, aligned to
// Vocabulary.FeatureNames order.
type CategoricalRow struct {
	CustomerID string
	Indicators []float64
}

// FitVocabulary fixes the indicator schema from the training transactions.
// Values are recorded in first-appearance order per column.
func FitVocabulary(txs []dataset.Transaction, columns []string) *Vocabulary {
	v := &Vocabulary{
		Columns: append([]string(nil), columns...),
		Values:  make(map[string][]string, len(columns)),
	}
	seen := make(map[string]map[string]struct{}, len(columns))
	for _, col := range columns {
		seen[col] = make(map[string]struct{})
	}
	for _, tx := range txs {
		for _, col := range columns {
			val := categoricalValue(tx, col)
			if val == "" {
				continue
			}
			if _, ok := seen[col][val]; !ok {
				seen[col][val] = struct{}{}
				v.Values[col] = append(v.Values[col], val)
			}
		}
	}
	return v
}

// FeatureNames returns the indicator column names as <Column>_<value>, in the
// fixed fit-time order.
func (v *Vocabulary) FeatureNames() []string {
	var names []string
	for _, col := range v.Columns {
		for _, val := range v.Values[col] {
			names = append(names, fmt.Sprintf("%s_%s", col, val))
		}
	}
	return names
}

// Width returns the total indicator count.
func (v *Vocabulary) Width() int {
	n := 0
	for _, col := range v.Columns {
		n += len(v.Values[col])
	}
	return n
}

// Encode produces one indicator row per customer against the fixed schema,
// taking each customer's most recent transaction (same reduction rule as the
// temporal stage). Unseen values yield zero vectors and never extend the
// schema.
func (v *Vocabulary) Encode(txs []dataset.Transaction) []CategoricalRow {
	order := make([]string, 0)
	chosen := make(map[string]dataset.Transaction)
	for _, tx := range txs {
		cur, ok := chosen[tx.CustomerID]
		if !ok {
			order = append(order, tx.CustomerID)
			chosen[tx.CustomerID] = tx
			continue
		}
		if !tx.StartTime.Before(cur.StartTime) {
			chosen[tx.CustomerID] = tx
		}
	}

	offsets := v.offsets()
	out := make([]CategoricalRow, 0, len(order))
	for _, id := range order {
		tx := chosen[id]
		row := make([]float64, v.Width())
		for _, col := range v.Columns {
			val := categoricalValue(tx, col)
			if i, ok := offsets[col][val]; ok {
				row[i] = 1.0
			}
			// unseen value: column family stays all-zero
		}
		out = append(out, CategoricalRow{CustomerID: id, Indicators: row})
	}
	return out
}

// offsets maps column -> value -> index into the flat indicator vector.
func (v *Vocabulary) offsets() map[string]map[string]int {
	offsets := make(map[string]map[string]int, len(v.Columns))
	base := 0
	for _, col := range v.Columns {
		offsets[col] = make(map[string]int, len(v.Values[col]))
		for j, val := range v.Values[col] {
			offsets[col][val] = base + j
		}
		base += len(v.Values[col])
	}
	return offsets
}

func categoricalValue(tx dataset.Transaction, column string) string {
	switch column {
	case "CurrencyCode":
		return tx.CurrencyCode
	case "ProductCategory":
		return tx.ProductCategory
	case "ChannelId":
		return tx.ChannelID
	default:
		return ""
	}
}
