package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sertugser/assessai/internal/logger"
	"github.com/sertugser/assessai/internal/store"
)

// Persisted key names, kept compatible with the browser build.
const (
	KeyActivities = "userActivities"
	KeyStreak     = "userStreak"
)

// DefaultUser is the namespace used when no user id is given.
const DefaultUser = "local"

// Publisher is notified after a user's activity collection changes.
type Publisher interface {
	Publish(ctx context.Context, userID string) error
}

// Option configures a Registry.
type Option func(*Registry)

// WithPublisher sets the change publisher.
func WithPublisher(p Publisher) Option {
	return func(r *Registry) { r.pub = p }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(r *Registry) { r.log = l }
}

// WithClock overrides time.Now. The clock's location decides calendar days.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// Registry hands out one Store per user so that every writer for a user
// shares the same lock.
type Registry struct {
	kv  store.KVRepo
	pub Publisher
	log *logger.Logger
	now func() time.Time

	mu     sync.Mutex
	stores map[string]*Store
}

// NewRegistry creates a Registry over kv.
func NewRegistry(kv store.KVRepo, opts ...Option) *Registry {
	r := &Registry{
		kv:     kv,
		log:    logger.Nop(),
		now:    time.Now,
		stores: make(map[string]*Store),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// For returns the store for userID. An empty id selects DefaultUser.
func (r *Registry) For(userID string) *Store {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		userID = DefaultUser
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.stores[userID]; ok {
		return s
	}
	s := &Store{
		userID: userID,
		kv:     r.kv,
		pub:    r.pub,
		log:    r.log.With("user", userID),
		now:    r.now,
	}
	r.stores[userID] = s
	return s
}

// Now returns the registry clock's current time.
func (r *Registry) Now() time.Time {
	return r.now()
}

// Store is one user's activity collection.
type Store struct {
	userID string
	kv     store.KVRepo
	pub    Publisher
	log    *logger.Logger
	now    func() time.Time

	mu sync.Mutex
}

// UserID returns the namespace this store writes to.
func (s *Store) UserID() string { return s.userID }

// Save validates in, assigns an id and date, appends it, and rewrites the
// streak cache.
func (s *Store) Save(ctx context.Context, in ActivityInput) (UserActivity, error) {
	if err := in.Validate(); err != nil {
		return UserActivity{}, err
	}

	s.mu.Lock()
	now := s.now()
	activities, err := s.load(ctx)
	if err != nil {
		s.mu.Unlock()
		return UserActivity{}, err
	}

	rec := in.record(newID(now), now)
	activities = append(activities, rec)

	if err := s.write(ctx, activities, ComputeStreakData(activities, now)); err != nil {
		s.mu.Unlock()
		return UserActivity{}, err
	}
	s.mu.Unlock()

	s.log.Debug("activity saved", "id", rec.ID, "type", rec.Type, "score", rec.Score)
	s.publish(ctx)
	return rec, nil
}

// List returns every saved activity in insertion order.
func (s *Store) List(ctx context.Context) ([]UserActivity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Reset clears the activity collection and the streak cache.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	err := s.kv.Delete(ctx, s.userID, KeyActivities, KeyStreak)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("reset activities: %w", err)
	}

	s.log.Info("progress reset")
	s.publish(ctx)
	return nil
}

// Streak returns the streak as of now. The cache is compared with a fresh
// derivation from the list and rewritten when missing, corrupt, or stale.
func (s *Store) Streak(ctx context.Context) (StreakData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	activities, err := s.load(ctx)
	if err != nil {
		return StreakData{}, err
	}
	fresh := ComputeStreakData(activities, s.now())

	raw, ok, err := s.kv.Get(ctx, s.userID, KeyStreak)
	if err != nil {
		return StreakData{}, fmt.Errorf("read streak: %w", err)
	}

	var cached StreakData
	if ok && json.Unmarshal(raw, &cached) == nil && cached == fresh {
		return cached, nil
	}
	if len(activities) == 0 && !ok {
		return fresh, nil
	}

	b, err := json.Marshal(fresh)
	if err == nil {
		err = s.kv.Put(ctx, s.userID, KeyStreak, b)
	}
	if err != nil {
		s.log.Warn("failed to refresh streak cache", "error", err)
	}
	return fresh, nil
}

// load reads the collection. Undecodable data is treated as empty.
func (s *Store) load(ctx context.Context) ([]UserActivity, error) {
	raw, ok, err := s.kv.Get(ctx, s.userID, KeyActivities)
	if err != nil {
		return nil, fmt.Errorf("read activities: %w", err)
	}
	activities := []UserActivity{}
	if !ok {
		return activities, nil
	}
	if err := json.Unmarshal(raw, &activities); err != nil {
		s.log.Warn("stored activities are corrupt, treating as empty", "error", err)
		return []UserActivity{}, nil
	}
	return activities, nil
}

func (s *Store) write(ctx context.Context, activities []UserActivity, streak StreakData) error {
	list, err := json.Marshal(activities)
	if err != nil {
		return fmt.Errorf("encode activities: %w", err)
	}
	cache, err := json.Marshal(streak)
	if err != nil {
		return fmt.Errorf("encode streak: %w", err)
	}
	err = s.kv.PutAll(ctx, s.userID, map[string][]byte{
		KeyActivities: list,
		KeyStreak:     cache,
	})
	if err != nil {
		return fmt.Errorf("write activities: %w", err)
	}
	return nil
}

func (s *Store) publish(ctx context.Context) {
	if s.pub == nil {
		return
	}
	if err := s.pub.Publish(ctx, s.userID); err != nil {
		s.log.Warn("failed to publish progress change", "error", err)
	}
}

// newID returns "<unix-millis>-<8 hex chars>".
func newID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%d-%s", now.UnixMilli(), suffix)
}
