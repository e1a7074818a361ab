// Package payloads holds the request shapes shared by the HTTP and gRPC transports, their
// validation, and the mapping of operation results onto response envelopes.
package payloads

import (
	"net/http"

	"github.com/phamquangkhanh2999/order-api/internal/apperr"
	"github.com/phamquangkhanh2999/order-api/internal/service/models/order"
	"github.com/phamquangkhanh2999/order-api/pkg/envelope"
)

// CreateOrderRequest is the body of a create order request.
type CreateOrderRequest struct {
	Name        string `json:"name"         validate:"required,max=255"`
	Phone       string `json:"phone"        validate:"required,max=32"`
	Message     string `json:"message"      validate:"max=2000"`
	State       string `json:"state"        validate:"max=255"`
	District    string `json:"district"     validate:"max=255"`
	Ward        string `json:"ward"         validate:"max=255"`
	Address     string `json:"address"      validate:"max=500"`
	ProductNote string `json:"product_note" validate:"max=2000"`
	Quantity    *int   `json:"quantity"     validate:"omitnil,gte=0,lte=2147483647"`
	UTMSource   string `json:"utm_source"   validate:"max=255"`
	UTMMedium   string `json:"utm_medium"   validate:"max=255"`
	UTMCampaign string `json:"utm_campaign" validate:"max=255"`
	UTMContent  string `json:"utm_content"  validate:"max=255"`
	UTMTerm     string `json:"utm_term"     validate:"max=255"`
	FormURL     string `json:"form_url"     validate:"omitempty,url,max=2048"`
}

// ToModel converts CreateOrderRequest to order.Order.
func (r *CreateOrderRequest) ToModel() order.Order {
	return order.Order{
		Name:        r.Name,
		Phone:       r.Phone,
		Message:     r.Message,
		State:       r.State,
		District:    r.District,
		Ward:        r.Ward,
		Address:     r.Address,
		ProductNote: r.ProductNote,
		Quantity:    r.Quantity,
		UTMSource:   r.UTMSource,
		UTMMedium:   r.UTMMedium,
		UTMCampaign: r.UTMCampaign,
		UTMContent:  r.UTMContent,
		UTMTerm:     r.UTMTerm,
		FormURL:     r.FormURL,
	}
}

// UpdateOrderRequest is the body of an update order request. Absent fields are left untouched.
type UpdateOrderRequest struct {
	Name        *string `json:"name"         validate:"omitnil,min=1,max=255"`
	Phone       *string `json:"phone"        validate:"omitnil,min=1,max=32"`
	Message     *string `json:"message"      validate:"omitnil,max=2000"`
	State       *string `json:"state"        validate:"omitnil,max=255"`
	District    *string `json:"district"     validate:"omitnil,max=255"`
	Ward        *string `json:"ward"         validate:"omitnil,max=255"`
	Address     *string `json:"address"      validate:"omitnil,max=500"`
	ProductNote *string `json:"product_note" validate:"omitnil,max=2000"`
	Quantity    *int    `json:"quantity"     validate:"omitnil,gte=0,lte=2147483647"`
	UTMSource   *string `json:"utm_source"   validate:"omitnil,max=255"`
	UTMMedium   *string `json:"utm_medium"   validate:"omitnil,max=255"`
	UTMCampaign *string `json:"utm_campaign" validate:"omitnil,max=255"`
	UTMContent  *string `json:"utm_content"  validate:"omitnil,max=255"`
	UTMTerm     *string `json:"utm_term"     validate:"omitnil,max=255"`
	FormURL     *string `json:"form_url"     validate:"omitnil,url,max=2048"`
}

// ToPatch converts UpdateOrderRequest to order.Patch.
func (r *UpdateOrderRequest) ToPatch() order.Patch {
	return order.Patch{
		Name:        r.Name,
		Phone:       r.Phone,
		Message:     r.Message,
		State:       r.State,
		District:    r.District,
		Ward:        r.Ward,
		Address:     r.Address,
		ProductNote: r.ProductNote,
		Quantity:    r.Quantity,
		UTMSource:   r.UTMSource,
		UTMMedium:   r.UTMMedium,
		UTMCampaign: r.UTMCampaign,
		UTMContent:  r.UTMContent,
		UTMTerm:     r.UTMTerm,
		FormURL:     r.FormURL,
	}
}

// ListOrdersRequest carries the list filters. It decodes from a URL query (schema tags) and from
// a JSON object (json tags). date_from and date_to are accepted aliases of fromDate and toDate.
type ListOrdersRequest struct {
	Name      string `json:"name"       schema:"name"`
	Phone     string `json:"phone"      schema:"phone"`
	CreatedAt string `json:"created_at" schema:"created_at"`
	FromDate  string `json:"fromDate"   schema:"fromDate"`
	ToDate    string `json:"toDate"     schema:"toDate"`
	DateFrom  string `json:"date_from"  schema:"date_from"`
	DateTo    string `json:"date_to"    schema:"date_to"`
	Page      *int   `json:"page"       schema:"page"`
	PageSize  *int   `json:"pageSize"   schema:"pageSize"`
	SortBy    string `json:"sort_by"    schema:"sort_by"`
	SortOrder string `json:"sort_order" schema:"sort_order" validate:"omitempty,oneof=asc desc ASC DESC"`
}

// ToFilter converts ListOrdersRequest to order.Filter.
func (r *ListOrdersRequest) ToFilter() order.Filter {
	from, to := r.FromDate, r.ToDate
	if from == "" {
		from = r.DateFrom
	}
	if to == "" {
		to = r.DateTo
	}

	return order.Filter{
		Name:      r.Name,
		Phone:     r.Phone,
		CreatedAt: r.CreatedAt,
		FromDate:  from,
		ToDate:    to,
		Page:      r.Page,
		PageSize:  r.PageSize,
		SortBy:    r.SortBy,
		SortOrder: r.SortOrder,
	}
}

// Operation holds the texts and codes one order operation answers with.
type Operation struct {
	SuccessStatus      int
	SuccessMessage     string
	SuccessDescription string

	InternalCode        int
	InternalMessage     string
	InternalDescription string
}

var (
	CreateOrder = Operation{
		SuccessStatus:       http.StatusCreated,
		SuccessMessage:      "Order created successfully",
		SuccessDescription:  "Order created successfully",
		InternalCode:        apperr.CodeCreateInternal,
		InternalMessage:     "System error while creating order",
		InternalDescription: "Internal server error while creating order",
	}
	ListOrders = Operation{
		SuccessStatus:       http.StatusOK,
		SuccessMessage:      "Orders retrieved successfully",
		SuccessDescription:  "Orders retrieved successfully",
		InternalCode:        apperr.CodeListInternal,
		InternalMessage:     "System error while getting orders",
		InternalDescription: "Internal server error while getting orders",
	}
	UpdateOrder = Operation{
		SuccessStatus:       http.StatusOK,
		SuccessMessage:      "Order updated successfully",
		SuccessDescription:  "Order updated successfully",
		InternalCode:        apperr.CodeUpdateInternal,
		InternalMessage:     "System error while updating order",
		InternalDescription: "Internal server error while updating order",
	}
	DeleteOrder = Operation{
		SuccessStatus:       http.StatusOK,
		SuccessMessage:      "Order deleted successfully",
		SuccessDescription:  "Order deleted successfully",
		InternalCode:        apperr.CodeDeleteInternal,
		InternalMessage:     "System error while deleting order",
		InternalDescription: "Internal server error while deleting order",
	}
)

// Success wraps data into the operation's success envelope.
func (op Operation) Success(data any) envelope.Envelope[any] {
	return envelope.Success(data, op.SuccessMessage, op.SuccessDescription, op.SuccessStatus)
}

// Page wraps a list result into the operation's paginated envelope.
func (op Operation) Page(res order.ListResult) envelope.Envelope[envelope.Page[order.Order]] {
	return envelope.PaginatedSuccess(
		res.Orders,
		res.Total,
		res.Page,
		res.PageSize,
		op.SuccessMessage,
		op.SuccessDescription,
		op.SuccessStatus,
	)
}

// Failure classifies err and returns it with the matching envelope. Validation failures carry
// the per-field violations as data.
func (op Operation) Failure(err error) (*apperr.Error, any) {
	appErr := apperr.Classify(err, op.InternalCode, op.InternalMessage, op.InternalDescription)
	if appErr.Fields != nil {
		return appErr, envelope.ValidationError(
			appErr.Fields, appErr.Message, appErr.Description, appErr.Status, appErr.ErrorCode,
		)
	}

	return appErr, envelope.Error[any](appErr.Message, appErr.Description, appErr.Status, appErr.ErrorCode, nil)
}
