package store

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors shared by all implementations.
var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
)

// Store defines the interface for user and prediction-history persistence.
// Implementations must be thread-safe and support concurrent access.
type Store interface {
	// CreateUser creates a new user. Returns ErrDuplicate when the username
	// or email is already taken.
	CreateUser(ctx context.Context, params CreateUserParams) (*User, error)

	// GetUserByUsername retrieves a user by username. Returns ErrNotFound
	// if no such user exists.
	GetUserByUsername(ctx context.Context, username string) (*User, error)

	// GetUserByID retrieves a user by id. Returns ErrNotFound if no such
	// user exists.
	GetUserByID(ctx context.Context, id int64) (*User, error)

	// ListUsers returns all users, newest first.
	ListUsers(ctx context.Context) ([]User, error)

	// SavePrediction appends one prediction to the history.
	SavePrediction(ctx context.Context, p Prediction) error

	// ListPredictionsByUser returns the user's most recent predictions,
	// newest first, up to limit.
	ListPredictionsByUser(ctx context.Context, userID int64, limit int) ([]Prediction, error)

	// SegmentStats groups stored predictions into risk segments.
	SegmentStats(ctx context.Context) ([]SegmentStat, error)

	// DailyCounts returns per-day prediction counts for the last `days` days.
	DailyCounts(ctx context.Context, days int) ([]DailyCount, error)

	// ProbabilityDistribution returns prediction counts bucketed by
	// probability rounded to one decimal.
	ProbabilityDistribution(ctx context.Context) ([]ProbabilityBucket, error)

	// CreateToken stores a new API token (hash only).
	CreateToken(ctx context.Context, t Token) error

	// ListTokens returns all stored API tokens.
	ListTokens(ctx context.Context) ([]Token, error)

	// TouchToken updates the token's last-used timestamp.
	TouchToken(ctx context.Context, id string) error

	// Close releases any resources held by the store.
	Close() error
}

// User is an authenticated account.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
}

// CreateUserParams contains the parameters for creating a user.
type CreateUserParams struct {
	Username     string
	Email        string
	PasswordHash string
	IsAdmin      bool
}

// Prediction is one stored scoring call.
type Prediction struct {
	ID          string    `json:"id"`
	UserID      int64     `json:"user_id"`
	Features    []byte    `json:"features"` // request payload as JSON
	Probability float64   `json:"probability"`
	Prediction  int       `json:"prediction"`
	RiskTier    string    `json:"risk_tier"`
	CreatedAt   time.Time `json:"created_at"`
}

// Token is a stored API token. Only the bcrypt hash is persisted.
type Token struct {
	ID         string    `json:"id"`
	UserID     int64     `json:"user_id"`
	TokenHash  string    `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	LastUsedAt time.Time `json:"last_used_at,omitempty"`
}

// SegmentStat is one risk segment over the stored predictions.
type SegmentStat struct {
	Segment        string  `json:"segment"`
	Count          int     `json:"count"`
	AvgProbability float64 `json:"avg_probability"`
}

// DailyCount is the number of predictions made on one day.
type DailyCount struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Count int    `json:"count"`
}

// ProbabilityBucket is a histogram bucket over stored probabilities.
type ProbabilityBucket struct {
	Probability float64 `json:"probability"` // bucket lower edge, 1 decimal
	Count       int     `json:"count"`
}
