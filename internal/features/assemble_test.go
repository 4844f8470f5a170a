package features

import (
	"math"
	"testing"
	"time"

	"github.com/riskline/credit-scoring/internal/dataset"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullTx(customerID string, amount float64, ts string, product string) dataset.Transaction {
	parsed, _ := time.Parse(time.RFC3339, ts)
	return dataset.Transaction{
		CustomerID:      customerID,
		Amount:          decimal.NewFromFloat(amount),
		CurrencyCode:    "UGX",
		ProductCategory: product,
		ChannelID:       "ChannelId_1",
		StartTime:       parsed,
	}
}

func TestBuildCustomerFeatures_JoinsAllStages(t *testing.T) {
	txs := []dataset.Transaction{
		fullTx("C1", 10, "2019-01-05T08:00:00Z", "airtime"),
		fullTx("C1", 30, "2019-02-10T14:00:00Z", "airtime"),
		fullTx("C2", 20, "2019-03-01T09:00:00Z", "tv"),
		fullTx("C2", 40, "2019-03-02T10:00:00Z", "tv"),
	}
	vocab := FitVocabulary(txs, DefaultCategoricalColumns)

	table, err := BuildCustomerFeatures(txs, vocab)
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)

	wantColumns := append(append(append([]string{}, AggregateColumns...), TemporalColumns...), vocab.FeatureNames()...)
	assert.Equal(t, wantColumns, table.Columns)
	for _, row := range table.Rows {
		assert.Len(t, row, len(wantColumns))
	}

	// C1: aggregates from both transactions, temporal from the most recent.
	c1 := table.Rows[0]
	assert.InDelta(t, 40.0, c1[0], 1e-9) // TotalTransactionAmount
	assert.InDelta(t, 20.0, c1[1], 1e-9) // AvgTransactionAmount
	assert.Equal(t, 2.0, c1[2])          // TransactionCount
	assert.Equal(t, 14.0, c1[4])         // TransactionHour of Feb 10 tx
	assert.Equal(t, 2.0, c1[6])          // TransactionMonth
}

func TestBuildCustomerFeatures_BadTimestampsGetNaNTemporal(t *testing.T) {
	txs := []dataset.Transaction{
		{CustomerID: "C1", Amount: decimal.NewFromInt(5), CurrencyCode: "UGX", ProductCategory: "airtime", ChannelID: "ChannelId_1"},
	}
	vocab := FitVocabulary(txs, DefaultCategoricalColumns)

	table, err := BuildCustomerFeatures(txs, vocab)
	require.Error(t, err) // malformed timestamp surfaced
	require.Len(t, table.Rows, 1)

	hourIdx := len(AggregateColumns)
	assert.True(t, math.IsNaN(table.Rows[0][hourIdx]), "temporal fields impute downstream")
	// Aggregation and categorical stages still produced their features.
	assert.InDelta(t, 5.0, table.Rows[0][0], 1e-9)
}

func TestFeatureTable_AlignTo(t *testing.T) {
	table := &FeatureTable{Columns: []string{"a", "b"}}

	assert.NoError(t, table.AlignTo([]string{"a", "b"}))
	assert.Error(t, table.AlignTo([]string{"b", "a"}), "order matters")
	assert.Error(t, table.AlignTo([]string{"a"}), "width matters")
}

func TestFeatureTable_ToModelingTable(t *testing.T) {
	table := &FeatureTable{
		Columns:     []string{"x"},
		CustomerIDs: []string{"C1", "C2", "C3"},
		Rows:        [][]float64{{1}, {2}, {3}},
	}
	out := table.ToModelingTable(map[string]int{"C1": 0, "C3": 1})

	require.Len(t, out.Rows, 2)
	assert.Equal(t, []string{"C1", "C3"}, out.CustomerIDs)
	assert.Equal(t, []int{0, 1}, out.Labels)
}
