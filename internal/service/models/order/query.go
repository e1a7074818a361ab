package order

import "time"

// Filter represents the list request as received from a client.
// Dates are kept raw; the service resolves them into a QueryOrdersModel.
// Nil Page and PageSize take the configured defaults.
type Filter struct {
	Name      string
	Phone     string
	CreatedAt string
	FromDate  string
	ToDate    string
	Page      *int
	PageSize  *int
	SortBy    string
	SortOrder string
}

// QueryOrdersModel represents resolved filter parameters for querying orders.
type QueryOrdersModel struct {
	Name          string
	Phone         string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	Limit         int
	Offset        int
}

// ListResult is one page of orders plus the size of the whole filtered set.
type ListResult struct {
	Orders   []Order
	Total    int
	Page     int
	PageSize int
}
