package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/spf13/viper"

	"github.com/phamquangkhanh2999/order-api/migrations"
)

// Client represents a Postgres client.
type Client struct {
	pool *pgxpool.Pool
}

// Pool returns the underlying connection pool.
func (p *Client) Pool() *pgxpool.Pool {
	return p.pool
}

// Ping checks that the database is reachable.
func (p *Client) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close closes the database connection for graceful shutdown.
func (p *Client) Close() {
	p.pool.Close()
}

// ConnString builds the connection string from the postgres.* configuration.
func ConnString() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(viper.GetString("postgres.user"), viper.GetString("postgres.password")),
		Host:   fmt.Sprintf("%s:%d", viper.GetString("postgres.host"), viper.GetInt("postgres.port")),
		Path:   "/" + viper.GetString("postgres.db"),
	}

	q := url.Values{}
	q.Set("sslmode", viper.GetString("postgres.sslmode"))
	u.RawQuery = q.Encode()

	return u.String()
}

// MustNewClient creates a new Postgres client and applies the bundled migrations.
func MustNewClient() *Client {
	config, err := pgxpool.ParseConfig(ConnString())
	if err != nil {
		panic(err)
	}

	if maxConns := viper.GetInt32("postgres.max_conns"); maxConns > 0 {
		config.MaxConns = maxConns
	}
	if minConns := viper.GetInt32("postgres.min_conns"); minConns > 0 {
		config.MinConns = minConns
	}
	if lifetime := viper.GetDuration("postgres.max_conn_lifetime"); lifetime > 0 {
		config.MaxConnLifetime = lifetime
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		panic(err)
	}

	if err := pool.Ping(ctx); err != nil {
		panic(err)
	}

	if err := migrate(pool); err != nil {
		panic(err)
	}

	slog.Info("Postgres connected", "host", config.ConnConfig.Host, "db", config.ConnConfig.Database)

	return &Client{
		pool: pool,
	}
}

// migrate runs the embedded migrations using goose with the stdlib adapter.
func migrate(pool *pgxpool.Pool) error {
	goose.SetBaseFS(migrations.FS)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	if err := goose.Up(db, "."); err != nil && !errors.Is(err, goose.ErrNoNextVersion) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	return nil
}
