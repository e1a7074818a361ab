package postgresrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/phamquangkhanh2999/order-api/internal/service/models/order"
)

const ordersTable = "orders"

var orderColumns = []string{
	"id",
	"name",
	"phone",
	"message",
	"state",
	"district",
	"ward",
	"address",
	"product_note",
	"quantity",
	"utm_source",
	"utm_medium",
	"utm_campaign",
	"utm_content",
	"utm_term",
	"form_url",
	"created_at",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// OrderDal represents order data access layer model.
type OrderDal struct {
	Id          pgtype.UUID        `db:"id"`
	Name        string             `db:"name"`
	Phone       string             `db:"phone"`
	Message     string             `db:"message"`
	State       string             `db:"state"`
	District    string             `db:"district"`
	Ward        string             `db:"ward"`
	Address     string             `db:"address"`
	ProductNote string             `db:"product_note"`
	Quantity    pgtype.Int4        `db:"quantity"`
	UTMSource   string             `db:"utm_source"`
	UTMMedium   string             `db:"utm_medium"`
	UTMCampaign string             `db:"utm_campaign"`
	UTMContent  string             `db:"utm_content"`
	UTMTerm     string             `db:"utm_term"`
	FormURL     string             `db:"form_url"`
	CreatedAt   pgtype.Timestamptz `db:"created_at"`
}

// ToModel converts OrderDal to service layer Order model.
func (o *OrderDal) ToModel() order.Order {
	var quantity *int
	if o.Quantity.Valid {
		q := int(o.Quantity.Int32)
		quantity = &q
	}

	return order.Order{
		ID:          uuid.UUID(o.Id.Bytes),
		Name:        o.Name,
		Phone:       o.Phone,
		Message:     o.Message,
		State:       o.State,
		District:    o.District,
		Ward:        o.Ward,
		Address:     o.Address,
		ProductNote: o.ProductNote,
		Quantity:    quantity,
		UTMSource:   o.UTMSource,
		UTMMedium:   o.UTMMedium,
		UTMCampaign: o.UTMCampaign,
		UTMContent:  o.UTMContent,
		UTMTerm:     o.UTMTerm,
		FormURL:     o.FormURL,
		CreatedAt:   o.CreatedAt.Time.UTC(),
	}
}

// OrderDalFromModel converts service layer Order model to OrderDal.
func OrderDalFromModel(o order.Order) OrderDal {
	var quantity pgtype.Int4
	if o.Quantity != nil {
		quantity = pgtype.Int4{Int32: int32(*o.Quantity), Valid: true}
	}

	return OrderDal{
		Id:          pgtype.UUID{Bytes: o.ID, Valid: true},
		Name:        o.Name,
		Phone:       o.Phone,
		Message:     o.Message,
		State:       o.State,
		District:    o.District,
		Ward:        o.Ward,
		Address:     o.Address,
		ProductNote: o.ProductNote,
		Quantity:    quantity,
		UTMSource:   o.UTMSource,
		UTMMedium:   o.UTMMedium,
		UTMCampaign: o.UTMCampaign,
		UTMContent:  o.UTMContent,
		UTMTerm:     o.UTMTerm,
		FormURL:     o.FormURL,
		CreatedAt:   pgtype.Timestamptz{Time: o.CreatedAt, Valid: true},
	}
}

// values returns the column values in orderColumns order.
func (o *OrderDal) values() []any {
	return []any{
		o.Id,
		o.Name,
		o.Phone,
		o.Message,
		o.State,
		o.District,
		o.Ward,
		o.Address,
		o.ProductNote,
		o.Quantity,
		o.UTMSource,
		o.UTMMedium,
		o.UTMCampaign,
		o.UTMContent,
		o.UTMTerm,
		o.FormURL,
		o.CreatedAt,
	}
}

// scanTargets returns pointers in orderColumns order.
func (o *OrderDal) scanTargets() []any {
	return []any{
		&o.Id,
		&o.Name,
		&o.Phone,
		&o.Message,
		&o.State,
		&o.District,
		&o.Ward,
		&o.Address,
		&o.ProductNote,
		&o.Quantity,
		&o.UTMSource,
		&o.UTMMedium,
		&o.UTMCampaign,
		&o.UTMContent,
		&o.UTMTerm,
		&o.FormURL,
		&o.CreatedAt,
	}
}

// GenericConn is an interface that works with both pgxpool.Pool and pgx.Tx.
type GenericConn interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// PostgresOrderRepository represents a Postgres order repository.
type PostgresOrderRepository struct {
	conn GenericConn
	sb   sq.StatementBuilderType
}

// NewPostgresOrderRepository creates a new Postgres order repository.
func NewPostgresOrderRepository(conn GenericConn) *PostgresOrderRepository {
	return &PostgresOrderRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Insert stores a new order and returns the stored row.
func (r *PostgresOrderRepository) Insert(ctx context.Context, o order.Order) (order.Order, error) {
	query, args, err := r.insertQuery(o)
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to build insert query: %w", err)
	}

	inserted, err := scanOrder(r.conn.QueryRow(ctx, query, args...))
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to insert order: %w", err)
	}

	return inserted, nil
}

// Query retrieves one window of orders matching the filter together with the total number of
// matching orders. Both statements go to the server in a single batch.
func (r *PostgresOrderRepository) Query(
	ctx context.Context,
	filter *order.QueryOrdersModel,
) (orders []order.Order, total int, err error) {
	countQuery, rowsQuery := r.listQueries(filter)

	countSQL, countArgs, err := countQuery.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count query: %w", err)
	}

	rowsSQL, rowsArgs, err := rowsQuery.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build query: %w", err)
	}

	batch := &pgx.Batch{}
	batch.Queue(countSQL, countArgs...)
	batch.Queue(rowsSQL, rowsArgs...)

	results := r.conn.SendBatch(ctx, batch)
	defer func() {
		if closeErr := results.Close(); closeErr != nil && err == nil {
			orders, total, err = nil, 0, fmt.Errorf("failed to close batch: %w", closeErr)
		}
	}()

	if err := results.QueryRow().Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	rows, err := results.Query()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query orders: %w", err)
	}

	orders, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.Order, error) {
		return scanOrder(row)
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to scan orders: %w", err)
	}

	return orders, total, nil
}

// Update applies a patch to the order with the given id and returns the updated row.
func (r *PostgresOrderRepository) Update(
	ctx context.Context,
	id uuid.UUID,
	patch order.Patch,
) (order.Order, error) {
	query, args, err := r.updateQuery(id, patch)
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to build update query: %w", err)
	}

	updated, err := scanOrder(r.conn.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return order.Order{}, order.ErrNotFound
	}
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to update order: %w", err)
	}

	return updated, nil
}

// Delete removes the order with the given id.
func (r *PostgresOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query, args, err := r.sb.Delete(ordersTable).
		Where(sq.Eq{"id": id.String()}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}

	return nil
}

func (r *PostgresOrderRepository) insertQuery(o order.Order) (string, []any, error) {
	if err := checkQuantity(o.Quantity); err != nil {
		return "", nil, err
	}

	dal := OrderDalFromModel(o)

	return r.sb.Insert(ordersTable).
		Columns(orderColumns...).
		Values(dal.values()...).
		Suffix("RETURNING " + strings.Join(orderColumns, ", ")).
		ToSql()
}

// listQueries builds the count and window statements sharing one predicate.
func (r *PostgresOrderRepository) listQueries(
	filter *order.QueryOrdersModel,
) (sq.SelectBuilder, sq.SelectBuilder) {
	conditions := sq.And{}

	if name := strings.TrimSpace(filter.Name); name != "" {
		conditions = append(conditions, sq.ILike{"name": containsPattern(name)})
	}

	if phone := strings.TrimSpace(filter.Phone); phone != "" {
		conditions = append(conditions, sq.ILike{"phone": containsPattern(phone)})
	}

	if filter.CreatedAfter != nil {
		conditions = append(conditions, sq.GtOrEq{"created_at": *filter.CreatedAfter})
	}

	if filter.CreatedBefore != nil {
		conditions = append(conditions, sq.LtOrEq{"created_at": *filter.CreatedBefore})
	}

	countQuery := r.sb.Select("COUNT(*)").From(ordersTable)
	rowsQuery := r.sb.Select(orderColumns...).
		From(ordersTable).
		OrderBy("created_at DESC", "id DESC")

	if len(conditions) > 0 {
		countQuery = countQuery.Where(conditions)
		rowsQuery = rowsQuery.Where(conditions)
	}

	if filter.Limit > 0 {
		rowsQuery = rowsQuery.Limit(uint64(filter.Limit))
	}

	if filter.Offset > 0 {
		rowsQuery = rowsQuery.Offset(uint64(filter.Offset))
	}

	return countQuery, rowsQuery
}

func (r *PostgresOrderRepository) updateQuery(id uuid.UUID, patch order.Patch) (string, []any, error) {
	if err := checkQuantity(patch.Quantity); err != nil {
		return "", nil, err
	}

	set := patchSetMap(patch)
	if len(set) == 0 {
		return "", nil, errors.New("nothing to update")
	}

	return r.sb.Update(ordersTable).
		SetMap(set).
		Where(sq.Eq{"id": id.String()}).
		Suffix("RETURNING " + strings.Join(orderColumns, ", ")).
		ToSql()
}

func patchSetMap(p order.Patch) map[string]any {
	set := map[string]any{}
	text := map[string]*string{
		"name":         p.Name,
		"phone":        p.Phone,
		"message":      p.Message,
		"state":        p.State,
		"district":     p.District,
		"ward":         p.Ward,
		"address":      p.Address,
		"product_note": p.ProductNote,
		"utm_source":   p.UTMSource,
		"utm_medium":   p.UTMMedium,
		"utm_campaign": p.UTMCampaign,
		"utm_content":  p.UTMContent,
		"utm_term":     p.UTMTerm,
		"form_url":     p.FormURL,
	}
	for column, value := range text {
		if value != nil {
			set[column] = *value
		}
	}

	if p.Quantity != nil {
		set["quantity"] = int32(*p.Quantity)
	}

	return set
}

// checkQuantity rejects quantities the int4 column cannot hold instead of letting the int32
// conversion wrap them.
func checkQuantity(quantity *int) error {
	if quantity != nil && (*quantity < 0 || *quantity > order.MaxQuantity) {
		return fmt.Errorf("%w: %d", order.ErrQuantityOutOfRange, *quantity)
	}

	return nil
}

// containsPattern builds a substring ILIKE pattern with LIKE metacharacters escaped.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

func scanOrder(row pgx.Row) (order.Order, error) {
	var dal OrderDal
	if err := row.Scan(dal.scanTargets()...); err != nil {
		return order.Order{}, err
	}

	return dal.ToModel(), nil
}
