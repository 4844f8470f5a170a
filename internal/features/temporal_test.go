package features

import (
	"testing"
	"time"

	"github.com/riskline/credit-scoring/internal/dataset"
	"github.com/riskline/credit-scoring/pkg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func txAt(customerID, ts string) dataset.Transaction {
	parsed, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		parsed = time.Time{} // loader behavior for malformed timestamps
	}
	return dataset.Transaction{CustomerID: customerID, StartTime: parsed}
}

func TestExtractTimeFeatures_NormalizesToUTC(t *testing.T) {
	// 02:18 at +03:00 is 23:18 UTC the previous day.
	rows, err := ExtractTimeFeatures([]dataset.Transaction{txAt("C1", "2018-11-15T02:18:49+03:00")})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, 23.0, rows[0].Hour)
	assert.Equal(t, 14.0, rows[0].Day)
	assert.Equal(t, 11.0, rows[0].Month)
	assert.Equal(t, 2018.0, rows[0].Year)
}

func TestExtractTimeFeatures_MalformedTimestampIsRecordLocal(t *testing.T) {
	rows, err := ExtractTimeFeatures([]dataset.Transaction{
		txAt("good", "2019-02-01T10:00:00Z"),
		{CustomerID: "bad", TransactionID: "T42"}, // zero StartTime
		txAt("also-good", "2019-02-01T12:00:00Z"),
	})

	// The bad record fails, the rest of the batch survives.
	require.Error(t, err)
	assert.True(t, pkg.IsCode(err, pkg.ErrMalformedTimestampCode))
	require.Len(t, rows, 2)
	assert.Equal(t, "good", rows[0].CustomerID)
	assert.Equal(t, "also-good", rows[1].CustomerID)
}

func TestReduceTimeFeaturesByCustomer_MostRecentWins(t *testing.T) {
	rows, err := ExtractTimeFeatures([]dataset.Transaction{
		txAt("C1", "2019-01-01T08:00:00Z"),
		txAt("C2", "2019-06-15T09:30:00Z"),
		txAt("C1", "2019-03-20T17:00:00Z"), // most recent for C1
	})
	require.NoError(t, err)

	reduced := ReduceTimeFeaturesByCustomer(rows)
	require.Len(t, reduced, 2)

	assert.Equal(t, "C1", reduced[0].CustomerID)
	assert.Equal(t, 17.0, reduced[0].Hour)
	assert.Equal(t, 3.0, reduced[0].Month)
	assert.Equal(t, "C2", reduced[1].CustomerID)
}
