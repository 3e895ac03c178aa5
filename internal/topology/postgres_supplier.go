package topology

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/fakeNetflix/dyno/internal/model"
)

// PostgresSupplier reads the token map from a metadata table. One row
// per (host, token) assignment, keyed by application:
//
//	CREATE TABLE tokens (
//	    app_id     TEXT   NOT NULL,
//	    hostname   TEXT   NOT NULL,
//	    port       INT    NOT NULL,
//	    rack       TEXT   NOT NULL,
//	    datacenter TEXT   NOT NULL,
//	    token      BIGINT NOT NULL
//	);
type PostgresSupplier struct {
	pool   *pgxpool.Pool
	appID  string
	logger *zap.Logger
}

// NewPostgresSupplier connects to the metadata database and verifies the
// connection before returning
func NewPostgresSupplier(connString, appID string, logger *zap.Logger) (*PostgresSupplier, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping metadata database: %w", err)
	}

	return &PostgresSupplier{pool: pool, appID: appID, logger: logger}, nil
}

// GetTokens queries the token table and returns assignments for the given hosts
func (s *PostgresSupplier) GetTokens(ctx context.Context, activeHosts []*model.Host) ([]model.HostToken, error) {
	query := `
		SELECT hostname, port, rack, datacenter, token
		FROM tokens
		WHERE app_id = $1
	`

	rows, err := s.pool.Query(ctx, query, s.appID)
	if err != nil {
		return nil, fmt.Errorf("failed to query token map: %w", err)
	}
	defer rows.Close()

	var tokens []model.HostToken
	for rows.Next() {
		var (
			hostname, rack, dc string
			port               int
			token              int64
		)
		if err := rows.Scan(&hostname, &port, &rack, &dc, &token); err != nil {
			return nil, fmt.Errorf("failed to scan token row: %w", err)
		}
		host := model.NewHost(hostname, port, rack, dc, model.StatusUp)
		tokens = append(tokens, model.NewHostToken(uint64(token), host))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read token rows: %w", err)
	}

	s.logger.Debug("Token map loaded from database",
		zap.String("app_id", s.appID),
		zap.Int("entries", len(tokens)))

	return filterTokens(tokens, activeHosts), nil
}

// GetTokenForHost queries the assignment for a single host
func (s *PostgresSupplier) GetTokenForHost(ctx context.Context, host *model.Host, _ []*model.Host) (model.HostToken, error) {
	query := `
		SELECT token
		FROM tokens
		WHERE app_id = $1 AND hostname = $2 AND port = $3
	`

	var token int64
	err := s.pool.QueryRow(ctx, query, s.appID, host.Hostname, host.Port).Scan(&token)
	if err != nil {
		return model.HostToken{}, fmt.Errorf("%w: %s", ErrTokenNotFound, host.Key())
	}

	return model.NewHostToken(uint64(token), host), nil
}

// Close releases the database pool
func (s *PostgresSupplier) Close() {
	s.pool.Close()
}
