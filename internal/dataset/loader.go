package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/riskline/credit-scoring/pkg"
	"github.com/shopspring/decimal"
)

// Column names expected in the raw transaction export.
const (
	ColTransactionID   = "TransactionId"
	ColCustomerID      = "CustomerId"
	ColAmount          = "Amount"
	ColCurrencyCode    = "CurrencyCode"
	ColProductCategory = "ProductCategory"
	ColChannelID       = "ChannelId"
	ColStartTime       = "TransactionStartTime"
)

// LoadTransactions reads the raw transaction CSV at path. Amounts are parsed
// as decimals; an unparseable timestamp loads as the zero time and is reported
// by the temporal stage, not here. Open or parse failures return a
// DataLoadError.
func LoadTransactions(path string) ([]Transaction, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, pkg.NewAppError(pkg.ErrDataLoadCode, fmt.Sprintf("failed to open transaction file %s", path), err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		return nil, pkg.NewAppError(pkg.ErrDataLoadCode, fmt.Sprintf("failed to read header from %s", path), err)
	}
	idx, err := columnIndex(header, ColCustomerID, ColAmount, ColCurrencyCode, ColProductCategory, ColChannelID, ColStartTime)
	if err != nil {
		return nil, pkg.NewAppError(pkg.ErrDataLoadCode, fmt.Sprintf("missing columns in %s", path), err)
	}
	txIdx := -1
	for i, name := range header {
		if name == ColTransactionID {
			txIdx = i
		}
	}

	var txs []Transaction
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, pkg.NewAppError(pkg.ErrDataLoadCode, fmt.Sprintf("error reading record from %s", path), err)
		}

		amount, err := decimal.NewFromString(record[idx[ColAmount]])
		if err != nil {
			return nil, pkg.NewAppError(pkg.ErrDataLoadCode, fmt.Sprintf("could not parse amount '%s'", record[idx[ColAmount]]), err)
		}

		tx := Transaction{
			CustomerID:      record[idx[ColCustomerID]],
			Amount:          amount,
			CurrencyCode:    record[idx[ColCurrencyCode]],
			ProductCategory: record[idx[ColProductCategory]],
			ChannelID:       record[idx[ColChannelID]],
		}
		if txIdx >= 0 {
			tx.TransactionID = record[txIdx]
		}
		// Bad timestamps are deferred to the temporal stage so one bad record
		// cannot abort the whole load.
		if ts, err := time.Parse(time.RFC3339, record[idx[ColStartTime]]); err == nil {
			tx.StartTime = ts
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

// LoadModelingTable reads a labeled modeling CSV into a Table. The label
// column and the customer identifier are separated from the feature columns.
// Missing or non-numeric feature cells load as NaN; a missing label column or
// a non-numeric label is a DataLoadError.
func LoadModelingTable(path, labelColumn string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, pkg.NewAppError(pkg.ErrDataLoadCode, fmt.Sprintf("failed to open dataset %s", path), err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		return nil, pkg.NewAppError(pkg.ErrDataLoadCode, fmt.Sprintf("failed to read header from %s", path), err)
	}

	labelIdx, customerIdx := -1, -1
	var columns []string
	var featureIdx []int
	for i, name := range header {
		switch name {
		case labelColumn:
			labelIdx = i
		case ColCustomerID:
			customerIdx = i
		default:
			columns = append(columns, name)
			featureIdx = append(featureIdx, i)
		}
	}
	if labelIdx < 0 {
		return nil, pkg.NewAppError(pkg.ErrDataLoadCode, fmt.Sprintf("label column %q not found in %s", labelColumn, path), nil)
	}

	table := &Table{Columns: columns}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, pkg.NewAppError(pkg.ErrDataLoadCode, fmt.Sprintf("error reading record from %s", path), err)
		}

		label, err := strconv.Atoi(record[labelIdx])
		if err != nil {
			return nil, pkg.NewAppError(pkg.ErrDataLoadCode, fmt.Sprintf("could not parse label '%s'", record[labelIdx]), err)
		}

		row := make([]float64, len(featureIdx))
		for j, i := range featureIdx {
			v, err := strconv.ParseFloat(record[i], 64)
			if err != nil {
				v = math.NaN() // imputed downstream
			}
			row[j] = v
		}
		table.Rows = append(table.Rows, row)
		table.Labels = append(table.Labels, label)
		if customerIdx >= 0 {
			table.CustomerIDs = append(table.CustomerIDs, record[customerIdx])
		}
	}
	return table, nil
}

// LoadLabels reads a CustomerId,<labelColumn> CSV into a customer→label map.
func LoadLabels(path, labelColumn string) (map[string]int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, pkg.NewAppError(pkg.ErrDataLoadCode, fmt.Sprintf("failed to open labels %s", path), err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		return nil, pkg.NewAppError(pkg.ErrDataLoadCode, fmt.Sprintf("failed to read header from %s", path), err)
	}
	idx, err := columnIndex(header, ColCustomerID, labelColumn)
	if err != nil {
		return nil, pkg.NewAppError(pkg.ErrDataLoadCode, fmt.Sprintf("missing columns in %s", path), err)
	}

	labels := make(map[string]int)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, pkg.NewAppError(pkg.ErrDataLoadCode, fmt.Sprintf("error reading record from %s", path), err)
		}
		label, err := strconv.Atoi(record[idx[labelColumn]])
		if err != nil {
			return nil, pkg.NewAppError(pkg.ErrDataLoadCode, fmt.Sprintf("could not parse label '%s'", record[idx[labelColumn]]), err)
		}
		labels[record[idx[ColCustomerID]]] = label
	}
	return labels, nil
}

func columnIndex(header []string, required ...string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[name] = i
	}
	for _, name := range required {
		if _, ok := idx[name]; !ok {
			return nil, fmt.Errorf("column %q not found", name)
		}
	}
	return idx, nil
}
