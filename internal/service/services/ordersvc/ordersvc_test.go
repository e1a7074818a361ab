package ordersvc

import (
	"context"
	"errors"
	"math"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/phamquangkhanh2999/order-api/internal/apperr"
	"github.com/phamquangkhanh2999/order-api/internal/service/models/auditlog"
	"github.com/phamquangkhanh2999/order-api/internal/service/models/order"
)

type stubOrderRepo struct {
	insertFn func(ctx context.Context, o order.Order) (order.Order, error)
	queryFn  func(ctx context.Context, q *order.QueryOrdersModel) ([]order.Order, int, error)
	updateFn func(ctx context.Context, id uuid.UUID, p order.Patch) (order.Order, error)
	deleteFn func(ctx context.Context, id uuid.UUID) error

	queried bool
	lastQ   *order.QueryOrdersModel
}

func (r *stubOrderRepo) Insert(ctx context.Context, o order.Order) (order.Order, error) {
	if r.insertFn != nil {
		return r.insertFn(ctx, o)
	}
	return o, nil
}

func (r *stubOrderRepo) Query(ctx context.Context, q *order.QueryOrdersModel) ([]order.Order, int, error) {
	r.queried = true
	r.lastQ = q
	if r.queryFn != nil {
		return r.queryFn(ctx, q)
	}
	return nil, 0, nil
}

func (r *stubOrderRepo) Update(ctx context.Context, id uuid.UUID, p order.Patch) (order.Order, error) {
	if r.updateFn != nil {
		return r.updateFn(ctx, id, p)
	}
	return order.Order{ID: id}, nil
}

func (r *stubOrderRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if r.deleteFn != nil {
		return r.deleteFn(ctx, id)
	}
	return nil
}

type stubAuditRepo struct {
	events []auditlog.OrderEvent
	err    error
}

func (r *stubAuditRepo) LogOrderEvents(_ context.Context, events []auditlog.OrderEvent) error {
	r.events = append(r.events, events...)
	return r.err
}

var fixedNow = time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

func newTestService(repo *stubOrderRepo, opts ...Option) *OrderService {
	s := MustNewOrderService(append([]Option{WithOrderRepository(repo), WithLocation(time.UTC)}, opts...)...)
	s.now = func() time.Time { return fixedNow }

	return s
}

func intPtr(v int) *int {
	return &v
}

func strPtr(v string) *string {
	return &v
}

func requireAppErr(t *testing.T, err error, status, code int) *apperr.Error {
	t.Helper()

	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *apperr.Error, got %v", err)
	}
	if appErr.Status != status || appErr.ErrorCode != code {
		t.Fatalf("expected %d/%d, got %d/%d (%s)", status, code, appErr.Status, appErr.ErrorCode, appErr.Description)
	}

	return appErr
}

func TestMustNewOrderService_RequiresRepository(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic without repository")
		}
	}()

	MustNewOrderService()
}

func TestCreateOrder(t *testing.T) {
	t.Parallel()

	repo := &stubOrderRepo{}
	audit := &stubAuditRepo{}
	s := newTestService(repo, WithAuditRepository(audit))

	created, err := s.CreateOrder(context.Background(), order.Order{Name: "Nguyen Van A", Phone: "0901234567"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.ID == uuid.Nil {
		t.Fatal("expected generated id")
	}
	if !created.CreatedAt.Equal(fixedNow) {
		t.Fatalf("expected created_at %v, got %v", fixedNow, created.CreatedAt)
	}
	if created.Name != "Nguyen Van A" {
		t.Fatalf("unexpected name %q", created.Name)
	}

	if len(audit.events) != 1 || audit.events[0].Type != auditlog.EventOrderCreated || audit.events[0].OrderID != created.ID {
		t.Fatalf("expected one created event, got %+v", audit.events)
	}
}

func TestCreateOrder_QuantityOutOfRange(t *testing.T) {
	t.Parallel()

	repo := &stubOrderRepo{insertFn: func(context.Context, order.Order) (order.Order, error) {
		t.Error("expected store not to be called")
		return order.Order{}, nil
	}}

	_, err := newTestService(repo).CreateOrder(context.Background(), order.Order{
		Name:     "Nguyen Van A",
		Phone:    "0901234567",
		Quantity: intPtr(1<<32 + 1),
	})
	requireAppErr(t, err, http.StatusBadRequest, apperr.CodeCreateFailed)

	if _, err := newTestService(&stubOrderRepo{}).CreateOrder(context.Background(), order.Order{
		Name:     "Nguyen Van A",
		Phone:    "0901234567",
		Quantity: intPtr(math.MaxInt32),
	}); err != nil {
		t.Fatalf("expected the largest column value to pass, got %v", err)
	}
}

func TestCreateOrder_StoreFailure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "constraint", err: &pgconn.PgError{Code: "23502", Message: "null value in column"}, wantStatus: http.StatusBadRequest},
		{name: "network", err: errors.New("connection refused"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			audit := &stubAuditRepo{}
			repo := &stubOrderRepo{insertFn: func(context.Context, order.Order) (order.Order, error) {
				return order.Order{}, tt.err
			}}
			s := newTestService(repo, WithAuditRepository(audit))

			_, err := s.CreateOrder(context.Background(), order.Order{Name: "A", Phone: "1"})
			requireAppErr(t, err, tt.wantStatus, apperr.CodeCreateFailed)

			if len(audit.events) != 0 {
				t.Fatalf("expected no events on failure, got %d", len(audit.events))
			}
		})
	}
}

func TestCreateOrder_AuditFailureIsIgnored(t *testing.T) {
	t.Parallel()

	s := newTestService(&stubOrderRepo{}, WithAuditRepository(&stubAuditRepo{err: errors.New("broker down")}))

	if _, err := s.CreateOrder(context.Background(), order.Order{Name: "A", Phone: "1"}); err != nil {
		t.Fatalf("expected publish failure to be ignored, got %v", err)
	}
}

func TestListOrders_Pagination(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		page         *int
		pageSize     *int
		wantErr      bool
		wantLimit    int
		wantOffset   int
		wantPage     int
		wantPageSize int
	}{
		{name: "defaults", wantLimit: 10, wantOffset: 0, wantPage: 1, wantPageSize: 10},
		{name: "third_page", page: intPtr(3), pageSize: intPtr(10), wantLimit: 10, wantOffset: 20, wantPage: 3, wantPageSize: 10},
		{name: "max_page_size", page: intPtr(2), pageSize: intPtr(100), wantLimit: 100, wantOffset: 100, wantPage: 2, wantPageSize: 100},
		{name: "page_zero", page: intPtr(0), wantErr: true},
		{name: "page_size_zero", pageSize: intPtr(0), wantErr: true},
		{name: "negative_page", page: intPtr(-1), wantErr: true},
		{name: "page_size_over_cap", pageSize: intPtr(101), wantErr: true},
		{name: "offset_overflow", page: intPtr(math.MaxInt / 2), pageSize: intPtr(100), wantErr: true},
		{name: "max_int_page", page: intPtr(math.MaxInt), wantErr: true},
		{
			name:         "last_addressable_page",
			page:         intPtr(math.MaxInt / 100),
			pageSize:     intPtr(100),
			wantLimit:    100,
			wantOffset:   (math.MaxInt/100 - 1) * 100,
			wantPage:     math.MaxInt / 100,
			wantPageSize: 100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			repo := &stubOrderRepo{}
			s := newTestService(repo)

			res, err := s.ListOrders(context.Background(), order.Filter{Page: tt.page, PageSize: tt.pageSize})
			if tt.wantErr {
				requireAppErr(t, err, http.StatusBadRequest, apperr.CodeListInvalidPagination)
				if repo.queried {
					t.Fatal("expected store not to be queried")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if repo.lastQ.Limit != tt.wantLimit || repo.lastQ.Offset != tt.wantOffset {
				t.Fatalf("expected limit %d offset %d, got %d/%d", tt.wantLimit, tt.wantOffset, repo.lastQ.Limit, repo.lastQ.Offset)
			}
			if res.Page != tt.wantPage || res.PageSize != tt.wantPageSize {
				t.Fatalf("expected page %d size %d, got %d/%d", tt.wantPage, tt.wantPageSize, res.Page, res.PageSize)
			}
			if res.Orders == nil {
				t.Fatal("expected empty slice, got nil")
			}
		})
	}
}

func TestListOrders_ConfiguredPageSizes(t *testing.T) {
	t.Parallel()

	repo := &stubOrderRepo{}
	s := newTestService(repo, WithPageSizes(20, 50))

	if _, err := s.ListOrders(context.Background(), order.Filter{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.lastQ.Limit != 20 {
		t.Fatalf("expected default limit 20, got %d", repo.lastQ.Limit)
	}

	_, err := s.ListOrders(context.Background(), order.Filter{PageSize: intPtr(51)})
	requireAppErr(t, err, http.StatusBadRequest, apperr.CodeListInvalidPagination)
}

func TestListOrders_Dates(t *testing.T) {
	t.Parallel()

	day := func(y int, m time.Month, d, h, min, s, ms int) time.Time {
		return time.Date(y, m, d, h, min, s, ms*int(time.Millisecond), time.UTC)
	}

	tests := []struct {
		name       string
		filter     order.Filter
		wantAfter  *time.Time
		wantBefore *time.Time
	}{
		{
			name:       "created_at_day",
			filter:     order.Filter{CreatedAt: "2024-01-15"},
			wantAfter:  ptrTime(day(2024, 1, 15, 0, 0, 0, 0)),
			wantBefore: ptrTime(day(2024, 1, 15, 23, 59, 59, 999)),
		},
		{
			name:       "explicit_range_wins",
			filter:     order.Filter{CreatedAt: "2024-01-15", FromDate: "2024-01-01", ToDate: "2024-01-31"},
			wantAfter:  ptrTime(day(2024, 1, 1, 0, 0, 0, 0)),
			wantBefore: ptrTime(day(2024, 1, 31, 23, 59, 59, 999)),
		},
		{
			name:      "lone_from",
			filter:    order.Filter{FromDate: "2024-02-01"},
			wantAfter: ptrTime(day(2024, 2, 1, 0, 0, 0, 0)),
		},
		{
			name:       "lone_to",
			filter:     order.Filter{ToDate: "2024-02-01"},
			wantBefore: ptrTime(day(2024, 2, 1, 23, 59, 59, 999)),
		},
		{
			name:       "same_day_range",
			filter:     order.Filter{FromDate: "2024-02-01", ToDate: "2024-02-01"},
			wantAfter:  ptrTime(day(2024, 2, 1, 0, 0, 0, 0)),
			wantBefore: ptrTime(day(2024, 2, 1, 23, 59, 59, 999)),
		},
		{
			name:   "no_dates",
			filter: order.Filter{Name: " van "},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			repo := &stubOrderRepo{}
			s := newTestService(repo)

			if _, err := s.ListOrders(context.Background(), tt.filter); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			assertTime(t, "after", tt.wantAfter, repo.lastQ.CreatedAfter)
			assertTime(t, "before", tt.wantBefore, repo.lastQ.CreatedBefore)
		})
	}
}

func TestListOrders_TrimsSubstrings(t *testing.T) {
	t.Parallel()

	repo := &stubOrderRepo{}
	s := newTestService(repo)

	if _, err := s.ListOrders(context.Background(), order.Filter{Name: "  van a ", Phone: " 0901 "}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.lastQ.Name != "van a" || repo.lastQ.Phone != "0901" {
		t.Fatalf("expected trimmed substrings, got %q / %q", repo.lastQ.Name, repo.lastQ.Phone)
	}
}

func TestListOrders_InvalidDates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		filter order.Filter
	}{
		{name: "bad_created_at", filter: order.Filter{CreatedAt: "not-a-date"}},
		{name: "bad_from", filter: order.Filter{FromDate: "yesterday"}},
		{name: "bad_to", filter: order.Filter{FromDate: "2024-01-01", ToDate: "2024-13-40"}},
		{name: "from_after_to", filter: order.Filter{FromDate: "2024-02-01", ToDate: "2024-01-01"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			repo := &stubOrderRepo{}
			s := newTestService(repo)

			_, err := s.ListOrders(context.Background(), tt.filter)
			requireAppErr(t, err, http.StatusBadRequest, apperr.CodeListInvalidDate)
			if repo.queried {
				t.Fatal("expected store not to be queried")
			}
		})
	}
}

func TestListOrders_StoreFailure(t *testing.T) {
	t.Parallel()

	repo := &stubOrderRepo{queryFn: func(context.Context, *order.QueryOrdersModel) ([]order.Order, int, error) {
		return nil, 0, &pgconn.PgError{Code: "42703", Message: "column does not exist"}
	}}
	s := newTestService(repo)

	_, err := s.ListOrders(context.Background(), order.Filter{})
	appErr := requireAppErr(t, err, http.StatusInternalServerError, apperr.CodeListFailed)
	if appErr.Description != "Failed to get orders: column does not exist" {
		t.Fatalf("unexpected description %q", appErr.Description)
	}
}

func TestListOrders_Result(t *testing.T) {
	t.Parallel()

	items := []order.Order{{ID: uuid.New()}, {ID: uuid.New()}, {ID: uuid.New()}, {ID: uuid.New()}, {ID: uuid.New()}}
	repo := &stubOrderRepo{queryFn: func(context.Context, *order.QueryOrdersModel) ([]order.Order, int, error) {
		return items, 25, nil
	}}
	s := newTestService(repo)

	res, err := s.ListOrders(context.Background(), order.Filter{Page: intPtr(3), PageSize: intPtr(10)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Total != 25 || len(res.Orders) != len(items) || res.Page != 3 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestUpdateOrder(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	var gotPatch order.Patch
	repo := &stubOrderRepo{updateFn: func(_ context.Context, gotID uuid.UUID, p order.Patch) (order.Order, error) {
		if gotID != id {
			t.Errorf("expected id %s, got %s", id, gotID)
		}
		gotPatch = p
		return order.Order{ID: gotID, Name: *p.Name}, nil
	}}
	audit := &stubAuditRepo{}
	s := newTestService(repo, WithAuditRepository(audit))

	updated, err := s.UpdateOrder(context.Background(), id.String(), order.Patch{Name: strPtr("Tran Thi B")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Name != "Tran Thi B" || gotPatch.Phone != nil {
		t.Fatalf("unexpected update %+v / %+v", updated, gotPatch)
	}
	if len(audit.events) != 1 || audit.events[0].Type != auditlog.EventOrderUpdated {
		t.Fatalf("expected one updated event, got %+v", audit.events)
	}
}

func TestUpdateOrder_Errors(t *testing.T) {
	t.Parallel()

	notFound := &stubOrderRepo{updateFn: func(context.Context, uuid.UUID, order.Patch) (order.Order, error) {
		return order.Order{}, order.ErrNotFound
	}}
	constraint := &stubOrderRepo{updateFn: func(context.Context, uuid.UUID, order.Patch) (order.Order, error) {
		return order.Order{}, &pgconn.PgError{Code: "22001", Message: "value too long"}
	}}

	tests := []struct {
		name       string
		repo       *stubOrderRepo
		id         string
		patch      order.Patch
		wantStatus int
		wantCode   int
	}{
		{name: "malformed_id", repo: &stubOrderRepo{}, id: "abc", patch: order.Patch{Name: strPtr("x")}, wantStatus: http.StatusBadRequest, wantCode: apperr.CodeUpdateFailed},
		{name: "empty_patch", repo: &stubOrderRepo{}, id: uuid.NewString(), wantStatus: http.StatusBadRequest, wantCode: apperr.CodeUpdateFailed},
		{name: "not_found", repo: notFound, id: uuid.NewString(), patch: order.Patch{Name: strPtr("x")}, wantStatus: http.StatusNotFound, wantCode: apperr.CodeUpdateNotFound},
		{name: "quantity_over_column_range", repo: &stubOrderRepo{}, id: uuid.NewString(), patch: order.Patch{Quantity: intPtr(math.MaxInt32 + 1)}, wantStatus: http.StatusBadRequest, wantCode: apperr.CodeUpdateFailed},
		{name: "constraint", repo: constraint, id: uuid.NewString(), patch: order.Patch{Name: strPtr("x")}, wantStatus: http.StatusBadRequest, wantCode: apperr.CodeUpdateFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := newTestService(tt.repo).UpdateOrder(context.Background(), tt.id, tt.patch)
			requireAppErr(t, err, tt.wantStatus, tt.wantCode)
		})
	}
}

func TestDeleteOrder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		id         string
		deleteErr  error
		wantStatus int
		wantCode   int
		wantEvent  bool
	}{
		{name: "deleted", id: uuid.NewString(), wantEvent: true},
		{name: "not_found", id: uuid.NewString(), deleteErr: order.ErrNotFound, wantStatus: http.StatusNotFound, wantCode: apperr.CodeDeleteNotFound},
		{name: "malformed_id", id: "abc", wantStatus: http.StatusBadRequest, wantCode: apperr.CodeDeleteFailed},
		{name: "store_failure", id: uuid.NewString(), deleteErr: context.DeadlineExceeded, wantStatus: http.StatusGatewayTimeout, wantCode: apperr.CodeDeleteFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			audit := &stubAuditRepo{}
			repo := &stubOrderRepo{deleteFn: func(context.Context, uuid.UUID) error { return tt.deleteErr }}
			s := newTestService(repo, WithAuditRepository(audit))

			err := s.DeleteOrder(context.Background(), tt.id)
			if tt.wantStatus == 0 {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
			} else {
				requireAppErr(t, err, tt.wantStatus, tt.wantCode)
			}

			if gotEvent := len(audit.events) == 1; gotEvent != tt.wantEvent {
				t.Fatalf("expected event %v, got %+v", tt.wantEvent, audit.events)
			}
			if tt.wantEvent && audit.events[0].Order != nil {
				t.Fatal("expected deleted event without order payload")
			}
		})
	}
}

func ptrTime(t time.Time) *time.Time {
	return &t
}

func assertTime(t *testing.T, name string, want, got *time.Time) {
	t.Helper()

	switch {
	case want == nil && got == nil:
		return
	case want == nil || got == nil:
		t.Fatalf("%s: expected %v, got %v", name, want, got)
	case !want.Equal(*got):
		t.Fatalf("%s: expected %v, got %v", name, *want, *got)
	}
}

func TestListOrders_SpanCarriesDateBounds(t *testing.T) {
	t.Parallel()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	s := newTestService(&stubOrderRepo{}, WithTracerProvider(tp))

	_, err := s.ListOrders(context.Background(), order.Filter{FromDate: "2024-01-15", ToDate: "2024-01-16"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	spans := recorder.Ended()
	if len(spans) != 1 || spans[0].Name() != "OrderService.ListOrders" {
		t.Fatalf("expected one ListOrders span, got %d", len(spans))
	}

	attrs := map[string]string{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	if attrs["orders.created_after"] != "2024-01-15T00:00:00.000Z" {
		t.Fatalf("unexpected lower bound %q", attrs["orders.created_after"])
	}
	if attrs["orders.created_before"] != "2024-01-16T23:59:59.999Z" {
		t.Fatalf("unexpected upper bound %q", attrs["orders.created_before"])
	}
}
