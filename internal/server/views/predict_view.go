package views

// PredictRequest is one customer feature row, already encoded to the
// permanent training schema. Fields are pointers so an explicit 0.0 satisfies
// the required binding; a missing field is rejected before the model runs.
type PredictRequest struct {
	TotalTransactionAmount *float64 `json:"TotalTransactionAmount" binding:"required"`
	AvgTransactionAmount   *float64 `json:"AvgTransactionAmount" binding:"required"`
	TransactionCount       *float64 `json:"TransactionCount" binding:"required"`
	StdTransactionAmount   *float64 `json:"StdTransactionAmount" binding:"required"`

	TransactionHour  *float64 `json:"TransactionHour" binding:"required"`
	TransactionDay   *float64 `json:"TransactionDay" binding:"required"`
	TransactionMonth *float64 `json:"TransactionMonth" binding:"required"`
	TransactionYear  *float64 `json:"TransactionYear" binding:"required"`

	CurrencyCodeUGX *float64 `json:"CurrencyCode_UGX" binding:"required"`

	ProductCategoryAirtime           *float64 `json:"ProductCategory_airtime" binding:"required"`
	ProductCategoryDataBundles       *float64 `json:"ProductCategory_data_bundles" binding:"required"`
	ProductCategoryFinancialServices *float64 `json:"ProductCategory_financial_services" binding:"required"`
	ProductCategoryMovies            *float64 `json:"ProductCategory_movies" binding:"required"`
	ProductCategoryOther             *float64 `json:"ProductCategory_other" binding:"required"`
	ProductCategoryTicket            *float64 `json:"ProductCategory_ticket" binding:"required"`
	ProductCategoryTransport         *float64 `json:"ProductCategory_transport" binding:"required"`
	ProductCategoryTv                *float64 `json:"ProductCategory_tv" binding:"required"`
	ProductCategoryUtilityBill       *float64 `json:"ProductCategory_utility_bill" binding:"required"`

	ChannelId1 *float64 `json:"ChannelId_ChannelId_1" binding:"required"`
	ChannelId2 *float64 `json:"ChannelId_ChannelId_2" binding:"required"`
	ChannelId3 *float64 `json:"ChannelId_ChannelId_3" binding:"required"`
	ChannelId5 *float64 `json:"ChannelId_ChannelId_5" binding:"required"`
}

// Features maps schema column names to values for alignment against the
// artifact's feature schema.
func (r PredictRequest) Features() map[string]float64 {
	return map[string]float64{
		"TotalTransactionAmount":             *r.TotalTransactionAmount,
		"AvgTransactionAmount":               *r.AvgTransactionAmount,
		"TransactionCount":                   *r.TransactionCount,
		"StdTransactionAmount":               *r.StdTransactionAmount,
		"TransactionHour":                    *r.TransactionHour,
		"TransactionDay":                     *r.TransactionDay,
		"TransactionMonth":                   *r.TransactionMonth,
		"TransactionYear":                    *r.TransactionYear,
		"CurrencyCode_UGX":                   *r.CurrencyCodeUGX,
		"ProductCategory_airtime":            *r.ProductCategoryAirtime,
		"ProductCategory_data_bundles":       *r.ProductCategoryDataBundles,
		"ProductCategory_financial_services": *r.ProductCategoryFinancialServices,
		"ProductCategory_movies":             *r.ProductCategoryMovies,
		"ProductCategory_other":              *r.ProductCategoryOther,
		"ProductCategory_ticket":             *r.ProductCategoryTicket,
		"ProductCategory_transport":          *r.ProductCategoryTransport,
		"ProductCategory_tv":                 *r.ProductCategoryTv,
		"ProductCategory_utility_bill":       *r.ProductCategoryUtilityBill,
		"ChannelId_ChannelId_1":              *r.ChannelId1,
		"ChannelId_ChannelId_2":              *r.ChannelId2,
		"ChannelId_ChannelId_3":              *r.ChannelId3,
		"ChannelId_ChannelId_5":              *r.ChannelId5,
	}
}

// PredictResponse carries the fraud probability in [0,1].
type PredictResponse struct {
	FraudProbability float64 `json:"fraud_probability"`
}
