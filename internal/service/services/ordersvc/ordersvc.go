package ordersvc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/phamquangkhanh2999/order-api/internal/apperr"
	"github.com/phamquangkhanh2999/order-api/internal/dal/interfaces/iauditrepo"
	"github.com/phamquangkhanh2999/order-api/internal/dal/interfaces/iorderrepo"
	"github.com/phamquangkhanh2999/order-api/internal/service/models/auditlog"
	"github.com/phamquangkhanh2999/order-api/internal/service/models/order"
	"github.com/phamquangkhanh2999/order-api/pkg/daterange"
)

const (
	tracerName = "ordersvc"

	DefaultPageSize    = 10
	DefaultMaxPageSize = 100
)

// OrderService is a service for managing orders.
type OrderService struct {
	orderRepo iorderrepo.IOrderRepository
	auditRepo iauditrepo.IAuditRepository

	tracer          trace.Tracer
	loc             *time.Location
	defaultPageSize int
	maxPageSize     int
	now             func() time.Time
}

// Option is a function that configures the OrderService.
type Option func(*OrderService)

// MustNewOrderService creates a new OrderService. It panics without an order repository.
func MustNewOrderService(opts ...Option) *OrderService {
	s := &OrderService{
		tracer:          otel.Tracer(tracerName),
		loc:             time.Local,
		defaultPageSize: DefaultPageSize,
		maxPageSize:     DefaultMaxPageSize,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.orderRepo == nil {
		panic("ordersvc: order repository is required")
	}
	if s.defaultPageSize < 1 || s.defaultPageSize > s.maxPageSize {
		panic(fmt.Sprintf("ordersvc: invalid page sizes: default %d, max %d", s.defaultPageSize, s.maxPageSize))
	}

	return s
}

// WithOrderRepository sets the order store.
func WithOrderRepository(repo iorderrepo.IOrderRepository) Option {
	return func(s *OrderService) {
		s.orderRepo = repo
	}
}

// WithAuditRepository sets the order event publisher. Without one no events are published.
func WithAuditRepository(repo iauditrepo.IAuditRepository) Option {
	return func(s *OrderService) {
		s.auditRepo = repo
	}
}

// WithTracerProvider sets the provider service spans are started from. The global provider is
// used otherwise.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *OrderService) {
		if tp != nil {
			s.tracer = tp.Tracer(tracerName)
		}
	}
}

// WithLocation sets the timezone calendar days are resolved in.
func WithLocation(loc *time.Location) Option {
	return func(s *OrderService) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithPageSizes sets the page size used when none is requested and the largest accepted one.
func WithPageSizes(defaultSize, maxSize int) Option {
	return func(s *OrderService) {
		s.defaultPageSize = defaultSize
		s.maxPageSize = maxSize
	}
}

// CreateOrder assigns an id and creation time to o and stores it.
func (s *OrderService) CreateOrder(ctx context.Context, o order.Order) (order.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.CreateOrder")
	defer span.End()

	if invalid := checkQuantity(o.Quantity, apperr.CodeCreateFailed, "Failed to create order"); invalid != nil {
		return order.Order{}, fail(span, invalid)
	}

	o.ID = uuid.New()
	o.CreatedAt = s.now().UTC()

	created, err := s.orderRepo.Insert(ctx, o)
	if err != nil {
		slog.Error("Error creating order", "error", err)
		return order.Order{}, fail(span, apperr.Store(apperr.CodeCreateFailed, "Failed to create order", "create order", err))
	}

	span.SetAttributes(attribute.String("order.id", created.ID.String()))
	s.publish(ctx, auditlog.EventOrderCreated, created.ID, &created)

	return created, nil
}

// ListOrders returns one page of orders matching the filter, newest first.
func (s *OrderService) ListOrders(ctx context.Context, f order.Filter) (order.ListResult, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.ListOrders")
	defer span.End()

	page, pageSize, invalid := s.pagination(f)
	if invalid != nil {
		return order.ListResult{}, fail(span, invalid)
	}

	model := &order.QueryOrdersModel{
		Name:   strings.TrimSpace(f.Name),
		Phone:  strings.TrimSpace(f.Phone),
		Limit:  pageSize,
		Offset: (page - 1) * pageSize,
	}
	if err := s.resolveDates(f, model); err != nil {
		return order.ListResult{}, fail(span, err)
	}

	span.SetAttributes(
		attribute.Int("orders.page", page),
		attribute.Int("orders.page_size", pageSize),
	)
	if model.CreatedAfter != nil {
		span.SetAttributes(attribute.String("orders.created_after", daterange.FormatISO(*model.CreatedAfter)))
	}
	if model.CreatedBefore != nil {
		span.SetAttributes(attribute.String("orders.created_before", daterange.FormatISO(*model.CreatedBefore)))
	}

	orders, total, err := s.orderRepo.Query(ctx, model)
	if err != nil {
		slog.Error("Error querying orders", "error", err)
		return order.ListResult{}, fail(span, apperr.Store(apperr.CodeListFailed, "Failed to get orders", "get orders", err))
	}
	if orders == nil {
		orders = []order.Order{}
	}

	return order.ListResult{
		Orders:   orders,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// UpdateOrder applies patch to the order with the given id.
func (s *OrderService) UpdateOrder(ctx context.Context, id string, patch order.Patch) (order.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.UpdateOrder")
	defer span.End()

	orderID, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return order.Order{}, fail(span, apperr.New(
			http.StatusBadRequest, apperr.CodeUpdateFailed, "Failed to update order", "Invalid order id",
		))
	}
	if patch.IsEmpty() {
		return order.Order{}, fail(span, apperr.New(
			http.StatusBadRequest, apperr.CodeUpdateFailed, "Failed to update order", "No fields to update",
		))
	}

	if invalid := checkQuantity(patch.Quantity, apperr.CodeUpdateFailed, "Failed to update order"); invalid != nil {
		return order.Order{}, fail(span, invalid)
	}

	span.SetAttributes(attribute.String("order.id", orderID.String()))

	updated, err := s.orderRepo.Update(ctx, orderID, patch)
	if errors.Is(err, order.ErrNotFound) {
		return order.Order{}, fail(span, apperr.New(
			http.StatusNotFound, apperr.CodeUpdateNotFound, "Order not found", "Order not found",
		))
	}
	if err != nil {
		slog.Error("Error updating order", "error", err, "id", orderID)
		return order.Order{}, fail(span, apperr.Store(apperr.CodeUpdateFailed, "Failed to update order", "update order", err))
	}

	s.publish(ctx, auditlog.EventOrderUpdated, updated.ID, &updated)

	return updated, nil
}

// DeleteOrder removes the order with the given id.
func (s *OrderService) DeleteOrder(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "OrderService.DeleteOrder")
	defer span.End()

	orderID, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return fail(span, apperr.New(
			http.StatusBadRequest, apperr.CodeDeleteFailed, "Failed to delete order", "Invalid order id",
		))
	}

	span.SetAttributes(attribute.String("order.id", orderID.String()))

	err = s.orderRepo.Delete(ctx, orderID)
	if errors.Is(err, order.ErrNotFound) {
		return fail(span, apperr.New(
			http.StatusNotFound, apperr.CodeDeleteNotFound, "Order not found", "Order not found",
		))
	}
	if err != nil {
		slog.Error("Error deleting order", "error", err, "id", orderID)
		return fail(span, apperr.Store(apperr.CodeDeleteFailed, "Failed to delete order", "delete order", err))
	}

	s.publish(ctx, auditlog.EventOrderDeleted, orderID, nil)

	return nil
}

func (s *OrderService) pagination(f order.Filter) (page, pageSize int, err *apperr.Error) {
	page, pageSize = 1, s.defaultPageSize
	if f.Page != nil {
		page = *f.Page
	}
	if f.PageSize != nil {
		pageSize = *f.PageSize
	}

	if page < 1 || pageSize < 1 {
		return 0, 0, apperr.New(
			http.StatusBadRequest,
			apperr.CodeListInvalidPagination,
			"Invalid pagination parameters",
			"Page and pageSize must be positive numbers",
		)
	}
	if pageSize > s.maxPageSize {
		return 0, 0, apperr.New(
			http.StatusBadRequest,
			apperr.CodeListInvalidPagination,
			"Invalid pagination parameters",
			fmt.Sprintf("pageSize must not exceed %d", s.maxPageSize),
		)
	}
	// (page-1)*pageSize must not overflow.
	if page > math.MaxInt/pageSize {
		return 0, 0, apperr.New(
			http.StatusBadRequest,
			apperr.CodeListInvalidPagination,
			"Invalid pagination parameters",
			fmt.Sprintf("page must not exceed %d", math.MaxInt/pageSize),
		)
	}

	return page, pageSize, nil
}

// resolveDates turns the raw date inputs into inclusive created_at bounds.
// An explicit fromDate/toDate pair takes precedence over created_at.
func (s *OrderService) resolveDates(f order.Filter, m *order.QueryOrdersModel) *apperr.Error {
	from, to := strings.TrimSpace(f.FromDate), strings.TrimSpace(f.ToDate)

	if from == "" && to == "" {
		if strings.TrimSpace(f.CreatedAt) == "" {
			return nil
		}

		r, ok := daterange.ForDay(f.CreatedAt, s.loc)
		if !ok {
			return invalidDate("Invalid date format")
		}
		m.CreatedAfter, m.CreatedBefore = &r.Start, &r.End

		return nil
	}

	if from != "" {
		r, ok := daterange.ForDay(from, s.loc)
		if !ok {
			return invalidDate("Invalid date format")
		}
		m.CreatedAfter = &r.Start
	}

	if to != "" {
		r, ok := daterange.ForDay(to, s.loc)
		if !ok {
			return invalidDate("Invalid date format")
		}
		m.CreatedBefore = &r.End
	}

	if m.CreatedAfter != nil && m.CreatedBefore != nil && m.CreatedAfter.After(*m.CreatedBefore) {
		return invalidDate("fromDate must not be after toDate")
	}

	return nil
}

// publish emits an order event. Failures are logged and never fail the operation.
func (s *OrderService) publish(ctx context.Context, typ auditlog.EventType, id uuid.UUID, o *order.Order) {
	if s.auditRepo == nil {
		return
	}

	event := auditlog.OrderEvent{
		Type:       typ,
		OrderID:    id,
		Order:      o,
		OccurredAt: s.now().UTC(),
	}
	if err := s.auditRepo.LogOrderEvents(ctx, []auditlog.OrderEvent{event}); err != nil {
		slog.Error("Error publishing order event", "error", err, "type", typ, "id", id)
	}
}

// checkQuantity rejects quantities the store cannot hold.
func checkQuantity(quantity *int, errorCode int, message string) *apperr.Error {
	if quantity == nil || (*quantity >= 0 && *quantity <= order.MaxQuantity) {
		return nil
	}

	return apperr.New(
		http.StatusBadRequest,
		errorCode,
		message,
		fmt.Sprintf("quantity must be between 0 and %d", order.MaxQuantity),
	)
}

func invalidDate(description string) *apperr.Error {
	return apperr.New(http.StatusBadRequest, apperr.CodeListInvalidDate, "Invalid date format", description)
}

func fail(span trace.Span, err *apperr.Error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Description)

	return err
}
