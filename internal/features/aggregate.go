package features

import (
	"math"

	"github.com/riskline/credit-scoring/internal/dataset"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"
)

// Aggregate feature column names, in output order.
var AggregateColumns = []string{
	"TotalTransactionAmount",
	"AvgTransactionAmount",
	"TransactionCount",
	"StdTransactionAmount",
}

// CustomerAggregate is the per-customer summary of transaction amounts.
// StdTransactionAmount is NaN for a customer with a single transaction: the
// sample standard deviation is undefined there and callers impute it, they do
// not receive a zero.
type CustomerAggregate struct {
	CustomerID             string
	TotalTransactionAmount float64
	AvgTransactionAmount   float64
	TransactionCount       float64
	StdTransactionAmount   float64
}

type amountAccumulator struct {
	total   decimal.Decimal
	amounts []float64
}

// AggregateByCustomer collapses raw transactions into one summary row per
// distinct customer identifier. Grouping is exact string equality; output
// order follows first appearance in the input.
func AggregateByCustomer(txs []dataset.Transaction) []CustomerAggregate {
	order := make([]string, 0)
	acc := make(map[string]*amountAccumulator)

	for _, tx := range txs {
		a, ok := acc[tx.CustomerID]
		if !ok {
			a = &amountAccumulator{}
			acc[tx.CustomerID] = a
			order = append(order, tx.CustomerID)
		}
		a.total = a.total.Add(tx.Amount)
		a.amounts = append(a.amounts, tx.Amount.InexactFloat64())
	}

	out := make([]CustomerAggregate, 0, len(order))
	for _, id := range order {
		a := acc[id]
		n := len(a.amounts)
		total := a.total.InexactFloat64()

		std := math.NaN()
		if n > 1 {
			std = stat.StdDev(a.amounts, nil)
		}
		out = append(out, CustomerAggregate{
			CustomerID:             id,
			TotalTransactionAmount: total,
			AvgTransactionAmount:   total / float64(n),
			TransactionCount:       float64(n),
			StdTransactionAmount:   std,
		})
	}
	return out
}

// Row returns the aggregate fields in AggregateColumns order.
func (a CustomerAggregate) Row() []float64 {
	return []float64{
		a.TotalTransactionAmount,
		a.AvgTransactionAmount,
		a.TransactionCount,
		a.StdTransactionAmount,
	}
}
