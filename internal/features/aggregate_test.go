package features

import (
	"math"
	"testing"

	"github.com/riskline/credit-scoring/internal/dataset"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tx(customerID string, amount float64) dataset.Transaction {
	return dataset.Transaction{CustomerID: customerID, Amount: decimal.NewFromFloat(amount)}
}

func TestAggregateByCustomer(t *testing.T) {
	txs := []dataset.Transaction{
		tx("C1", 10), tx("C2", 20), tx("C1", 30), tx("C2", 40),
	}

	rows := AggregateByCustomer(txs)
	require.Len(t, rows, 2)

	// Output order follows first appearance.
	assert.Equal(t, "C1", rows[0].CustomerID)
	assert.Equal(t, "C2", rows[1].CustomerID)

	for _, row := range rows {
		assert.InDelta(t, 40.0, row.TotalTransactionAmount, 1e-9)
		assert.InDelta(t, 20.0, row.AvgTransactionAmount, 1e-9)
		assert.Equal(t, 2.0, row.TransactionCount)
		assert.Greater(t, row.StdTransactionAmount, 0.0)
	}
}

func TestAggregateByCustomer_SumMeanCountConsistency(t *testing.T) {
	txs := []dataset.Transaction{
		tx("A", 12.5), tx("A", -3.25), tx("A", 100), tx("B", 7.75), tx("B", 0.01),
	}

	for _, row := range AggregateByCustomer(txs) {
		assert.InDelta(t, row.TotalTransactionAmount, row.AvgTransactionAmount*row.TransactionCount, 1e-9,
			"customer %s: total must equal avg * count", row.CustomerID)
	}
}

func TestAggregateByCustomer_SingleTransactionStdIsNaN(t *testing.T) {
	rows := AggregateByCustomer([]dataset.Transaction{tx("solo", 99.99)})
	require.Len(t, rows, 1)

	assert.True(t, math.IsNaN(rows[0].StdTransactionAmount), "sample std of one observation is undefined, not zero")
	assert.Equal(t, 1.0, rows[0].TransactionCount)
	assert.InDelta(t, 99.99, rows[0].TotalTransactionAmount, 1e-9)
}

func TestAggregateByCustomer_ExactIdentifierGrouping(t *testing.T) {
	// No identifier normalization in this stage: "c1" and "C1" are distinct.
	rows := AggregateByCustomer([]dataset.Transaction{tx("c1", 5), tx("C1", 5)})
	assert.Len(t, rows, 2)
}

func TestAggregateByCustomer_Empty(t *testing.T) {
	assert.Empty(t, AggregateByCustomer(nil))
}
