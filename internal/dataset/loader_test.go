package dataset

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/riskline/credit-scoring/pkg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadTransactions(t *testing.T) {
	path := writeCSV(t, `TransactionId,CustomerId,Amount,CurrencyCode,ProductCategory,ChannelId,TransactionStartTime
T1,C1,1000.50,UGX,airtime,ChannelId_1,2018-11-15T02:18:49Z
T2,C2,-250,UGX,financial_services,ChannelId_3,2018-11-16T10:00:00Z
`)

	txs, err := LoadTransactions(path)
	require.NoError(t, err)
	require.Len(t, txs, 2)

	assert.Equal(t, "T1", txs[0].TransactionID)
	assert.Equal(t, "C1", txs[0].CustomerID)
	assert.Equal(t, "1000.5", txs[0].Amount.String())
	assert.Equal(t, "airtime", txs[0].ProductCategory)
	assert.Equal(t, 2018, txs[0].StartTime.Year())
	assert.Equal(t, "-250", txs[1].Amount.String())
}

func TestLoadTransactions_BadTimestampLoadsAsZeroTime(t *testing.T) {
	path := writeCSV(t, `TransactionId,CustomerId,Amount,CurrencyCode,ProductCategory,ChannelId,TransactionStartTime
T1,C1,10,UGX,airtime,ChannelId_1,not-a-timestamp
`)

	txs, err := LoadTransactions(path)
	require.NoError(t, err, "a bad timestamp is deferred to the temporal stage, not a load failure")
	require.Len(t, txs, 1)
	assert.True(t, txs[0].StartTime.IsZero())
}

func TestLoadTransactions_UnreadablePath(t *testing.T) {
	_, err := LoadTransactions(filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
	assert.True(t, pkg.IsCode(err, pkg.ErrDataLoadCode))
}

func TestLoadTransactions_MissingColumn(t *testing.T) {
	path := writeCSV(t, "TransactionId,CustomerId,Amount\nT1,C1,10\n")

	_, err := LoadTransactions(path)
	require.Error(t, err)
	assert.True(t, pkg.IsCode(err, pkg.ErrDataLoadCode))
}

func TestLoadModelingTable(t *testing.T) {
	path := writeCSV(t, `CustomerId,Feature1,Feature2,AnyFraud
1,10,100,0
2,20,200,1
3,30,,0
4,40,400,1
`)

	table, err := LoadModelingTable(path, "AnyFraud")
	require.NoError(t, err)

	assert.Equal(t, 4, table.NumRows())
	assert.Equal(t, []string{"Feature1", "Feature2"}, table.Columns)
	assert.Equal(t, []string{"1", "2", "3", "4"}, table.CustomerIDs)
	assert.Equal(t, []int{0, 1, 0, 1}, table.Labels)
	assert.True(t, math.IsNaN(table.Rows[2][1]), "missing cells load as NaN for imputation")
}

func TestLoadModelingTable_MissingLabelColumn(t *testing.T) {
	path := writeCSV(t, "CustomerId,Feature1\n1,10\n")

	_, err := LoadModelingTable(path, "AnyFraud")
	require.Error(t, err)
	assert.True(t, pkg.IsCode(err, pkg.ErrDataLoadCode))
}

func TestLoadModelingTable_NonNumericLabel(t *testing.T) {
	path := writeCSV(t, "CustomerId,Feature1,AnyFraud\n1,10,maybe\n")

	_, err := LoadModelingTable(path, "AnyFraud")
	require.Error(t, err)
	assert.True(t, pkg.IsCode(err, pkg.ErrDataLoadCode))
}

func TestLoadLabels(t *testing.T) {
	path := writeCSV(t, "CustomerId,AnyFraud\nC1,0\nC2,1\n")

	labels, err := LoadLabels(path, "AnyFraud")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"C1": 0, "C2": 1}, labels)
}
