package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore is a PostgreSQL implementation of the Store interface.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the tables if they do not exist yet.
func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			username TEXT UNIQUE NOT NULL,
			email TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			is_admin BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS predictions (
			id UUID PRIMARY KEY,
			user_id BIGINT REFERENCES users(id),
			features JSONB NOT NULL DEFAULT '{}',
			probability DOUBLE PRECISION NOT NULL,
			prediction INT NOT NULL,
			risk_tier TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS predictions_user_created_idx
			ON predictions (user_id, created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS api_tokens (
			id UUID PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id),
			token_hash TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			last_used_at TIMESTAMPTZ
		)`,
	}
	for _, stmt := range stmts {
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// CreateUser creates a new user in the database.
func (p *PostgresStore) CreateUser(ctx context.Context, params CreateUserParams) (*User, error) {
	row := p.pool.QueryRow(ctx,
		`INSERT INTO users (username, email, password_hash, is_admin)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		params.Username, params.Email, params.PasswordHash, params.IsAdmin)

	user := User{
		Username:     params.Username,
		Email:        params.Email,
		PasswordHash: params.PasswordHash,
		IsAdmin:      params.IsAdmin,
	}
	if err := row.Scan(&user.ID, &user.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return &user, nil
}

// GetUserByUsername retrieves a user by username.
func (p *PostgresStore) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	return p.scanUser(p.pool.QueryRow(ctx,
		`SELECT id, username, email, password_hash, is_admin, created_at
		 FROM users WHERE username = $1`, username))
}

// GetUserByID retrieves a user by id.
func (p *PostgresStore) GetUserByID(ctx context.Context, id int64) (*User, error) {
	return p.scanUser(p.pool.QueryRow(ctx,
		`SELECT id, username, email, password_hash, is_admin, created_at
		 FROM users WHERE id = $1`, id))
}

func (p *PostgresStore) scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.IsAdmin, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ListUsers returns all users, newest first.
func (p *PostgresStore) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, username, email, password_hash, is_admin, created_at
		 FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.IsAdmin, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// SavePrediction appends one prediction to the history.
func (p *PostgresStore) SavePrediction(ctx context.Context, pred Prediction) error {
	if pred.CreatedAt.IsZero() {
		pred.CreatedAt = time.Now().UTC()
	}
	_, err := p.pool.Exec(ctx,
		`INSERT INTO predictions (id, user_id, features, probability, prediction, risk_tier, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		pred.ID, pred.UserID, pred.Features, pred.Probability, pred.Prediction, pred.RiskTier, pred.CreatedAt)
	return err
}

// ListPredictionsByUser returns the user's most recent predictions.
func (p *PostgresStore) ListPredictionsByUser(ctx context.Context, userID int64, limit int) ([]Prediction, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, user_id, features, probability, prediction, risk_tier, created_at
		 FROM predictions WHERE user_id = $1
		 ORDER BY created_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var preds []Prediction
	for rows.Next() {
		var pr Prediction
		if err := rows.Scan(&pr.ID, &pr.UserID, &pr.Features, &pr.Probability, &pr.Prediction, &pr.RiskTier, &pr.CreatedAt); err != nil {
			return nil, err
		}
		preds = append(preds, pr)
	}
	return preds, rows.Err()
}

// SegmentStats groups stored predictions into risk segments.
func (p *PostgresStore) SegmentStats(ctx context.Context) ([]SegmentStat, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT risk_tier, COUNT(*), AVG(probability)
		 FROM predictions
		 GROUP BY risk_tier
		 ORDER BY MIN(probability)`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []SegmentStat
	for rows.Next() {
		var s SegmentStat
		if err := rows.Scan(&s.Segment, &s.Count, &s.AvgProbability); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// DailyCounts returns per-day prediction counts for the last `days` days.
func (p *PostgresStore) DailyCounts(ctx context.Context, days int) ([]DailyCount, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT to_char(created_at::date, 'YYYY-MM-DD'), COUNT(*)
		 FROM predictions
		 WHERE created_at >= now() - make_interval(days => $1)
		 GROUP BY created_at::date
		 ORDER BY created_at::date`, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []DailyCount
	for rows.Next() {
		var d DailyCount
		if err := rows.Scan(&d.Date, &d.Count); err != nil {
			return nil, err
		}
		counts = append(counts, d)
	}
	return counts, rows.Err()
}

// ProbabilityDistribution returns counts bucketed by probability to one decimal.
func (p *PostgresStore) ProbabilityDistribution(ctx context.Context) ([]ProbabilityBucket, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT ROUND(probability::numeric, 1)::float8, COUNT(*)
		 FROM predictions
		 GROUP BY 1
		 ORDER BY 1`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var buckets []ProbabilityBucket
	for rows.Next() {
		var b ProbabilityBucket
		if err := rows.Scan(&b.Probability, &b.Count); err != nil {
			return nil, err
		}
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}

// CreateToken stores a new API token.
func (p *PostgresStore) CreateToken(ctx context.Context, t Token) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	_, err := p.pool.Exec(ctx,
		`INSERT INTO api_tokens (id, user_id, token_hash, created_at)
		 VALUES ($1, $2, $3, $4)`,
		t.ID, t.UserID, t.TokenHash, t.CreatedAt)
	return err
}

// ListTokens returns all stored API tokens.
func (p *PostgresStore) ListTokens(ctx context.Context) ([]Token, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, user_id, token_hash, created_at, COALESCE(last_used_at, 'epoch'::timestamptz)
		 FROM api_tokens`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []Token
	for rows.Next() {
		var t Token
		if err := rows.Scan(&t.ID, &t.UserID, &t.TokenHash, &t.CreatedAt, &t.LastUsedAt); err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

// TouchToken updates the token's last-used timestamp.
func (p *PostgresStore) TouchToken(ctx context.Context, id string) error {
	_, err := p.pool.Exec(ctx,
		`UPDATE api_tokens SET last_used_at = now() WHERE id = $1`, id)
	return err
}

// Close closes the database connection pool.
func (p *PostgresStore) Close() error {
	p.pool.Close()
	return nil
}
