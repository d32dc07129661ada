package store

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory implementation of the Store interface.
// It uses maps with an RWMutex for thread-safe concurrent access and is
// suitable for development, testing, or single-instance deployments.
type MemoryStore struct {
	mu          sync.RWMutex
	users       map[int64]User
	nextUserID  int64
	predictions []Prediction
	tokens      map[string]Token
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:      make(map[int64]User),
		nextUserID: 1,
		tokens:     make(map[string]Token),
	}
}

// CreateUser creates a new user in memory.
func (m *MemoryStore) CreateUser(ctx context.Context, params CreateUserParams) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Username == params.Username || u.Email == params.Email {
			return nil, ErrDuplicate
		}
	}

	user := User{
		ID:           m.nextUserID,
		Username:     params.Username,
		Email:        params.Email,
		PasswordHash: params.PasswordHash,
		IsAdmin:      params.IsAdmin,
		CreatedAt:    time.Now().UTC(),
	}
	m.users[user.ID] = user
	m.nextUserID++
	return &user, nil
}

// GetUserByUsername retrieves a user by username.
func (m *MemoryStore) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Username == username {
			user := u
			return &user, nil
		}
	}
	return nil, ErrNotFound
}

// GetUserByID retrieves a user by id.
func (m *MemoryStore) GetUserByID(ctx context.Context, id int64) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

// ListUsers returns all users, newest first.
func (m *MemoryStore) ListUsers(ctx context.Context) ([]User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	users := make([]User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID > users[j].ID })
	return users, nil
}

// SavePrediction appends one prediction to the in-memory history.
func (m *MemoryStore) SavePrediction(ctx context.Context, p Prediction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	m.predictions = append(m.predictions, p)
	return nil
}

// ListPredictionsByUser returns the user's most recent predictions.
func (m *MemoryStore) ListPredictionsByUser(ctx context.Context, userID int64, limit int) ([]Prediction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]Prediction, 0, limit)
	for i := len(m.predictions) - 1; i >= 0 && len(result) < limit; i-- {
		if m.predictions[i].UserID == userID {
			result = append(result, m.predictions[i])
		}
	}
	return result, nil
}

// SegmentStats groups stored predictions into Low/Medium/High risk segments.
func (m *MemoryStore) SegmentStats(ctx context.Context) ([]SegmentStat, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := map[string]int{}
	sums := map[string]float64{}
	for _, p := range m.predictions {
		counts[p.RiskTier]++
		sums[p.RiskTier] += p.Probability
	}

	stats := make([]SegmentStat, 0, len(counts))
	for _, segment := range []string{"Low", "Medium", "High"} {
		if counts[segment] == 0 {
			continue
		}
		stats = append(stats, SegmentStat{
			Segment:        segment,
			Count:          counts[segment],
			AvgProbability: sums[segment] / float64(counts[segment]),
		})
	}
	return stats, nil
}

// DailyCounts returns per-day prediction counts for the last `days` days.
func (m *MemoryStore) DailyCounts(ctx context.Context, days int) ([]DailyCount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	counts := map[string]int{}
	for _, p := range m.predictions {
		if p.CreatedAt.Before(cutoff) {
			continue
		}
		counts[p.CreatedAt.Format("2006-01-02")]++
	}

	dates := make([]string, 0, len(counts))
	for d := range counts {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	result := make([]DailyCount, 0, len(dates))
	for _, d := range dates {
		result = append(result, DailyCount{Date: d, Count: counts[d]})
	}
	return result, nil
}

// ProbabilityDistribution buckets stored probabilities to one decimal.
func (m *MemoryStore) ProbabilityDistribution(ctx context.Context) ([]ProbabilityBucket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := map[float64]int{}
	for _, p := range m.predictions {
		bucket := math.Round(p.Probability*10) / 10
		counts[bucket]++
	}

	buckets := make([]float64, 0, len(counts))
	for b := range counts {
		buckets = append(buckets, b)
	}
	sort.Float64s(buckets)

	result := make([]ProbabilityBucket, 0, len(buckets))
	for _, b := range buckets {
		result = append(result, ProbabilityBucket{Probability: b, Count: counts[b]})
	}
	return result, nil
}

// CreateToken stores a new API token.
func (m *MemoryStore) CreateToken(ctx context.Context, t Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	m.tokens[t.ID] = t
	return nil
}

// ListTokens returns all stored API tokens.
func (m *MemoryStore) ListTokens(ctx context.Context) ([]Token, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tokens := make([]Token, 0, len(m.tokens))
	for _, t := range m.tokens {
		tokens = append(tokens, t)
	}
	return tokens, nil
}

// TouchToken updates the token's last-used timestamp.
func (m *MemoryStore) TouchToken(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tokens[id]
	if !ok {
		return ErrNotFound
	}
	t.LastUsedAt = time.Now().UTC()
	m.tokens[id] = t
	return nil
}

// Close is a no-op for MemoryStore as there are no resources to release.
func (m *MemoryStore) Close() error {
	return nil
}
