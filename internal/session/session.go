package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"taskhub/internal/model"
	"taskhub/pkg/util"
)

var (
	ErrExpired          = errors.New("session expired")
	ErrNotAuthenticated = errors.New("not authenticated")
)

// ProfileFunc resolves the viewer behind a token
type ProfileFunc func(ctx context.Context, token string) (model.User, error)

// Session holds the viewer's token and profile. Nothing else reads the
// persisted record directly.
type Session struct {
	store   Store
	key     string
	ttl     time.Duration
	profile ProfileFunc
	logger  *zap.Logger
	now     func() time.Time

	mu  sync.RWMutex
	rec *Record
}

// New builds an uninitialized session stored under key. A zero ttl keeps
// records until the token expires.
func New(store Store, key string, ttl time.Duration, profile ProfileFunc, logger *zap.Logger) *Session {
	return &Session{
		store:   store,
		key:     key,
		ttl:     ttl,
		profile: profile,
		logger:  logger,
		now:     time.Now,
	}
}

// Init loads the persisted record. A missing record leaves the session
// unauthenticated; an expired one is removed and reported as ErrExpired.
func (s *Session) Init(ctx context.Context) error {
	rec, err := s.store.Load(ctx, s.key)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if s.expired(rec) {
		s.logger.Info("Persisted session expired", zap.String("user_id", rec.User.ID.String()))
		if err := s.store.Delete(ctx, s.key); err != nil {
			s.logger.Warn("Failed to delete expired session", zap.Error(err))
		}
		return ErrExpired
	}

	s.mu.Lock()
	s.rec = &rec
	s.mu.Unlock()
	return nil
}

func (s *Session) expired(rec Record) bool {
	if !rec.ExpiresAt.IsZero() && !s.now().Before(rec.ExpiresAt) {
		return true
	}
	return util.CheckTokenExpiry(rec.Token, s.now()) != nil
}

// Begin starts a session for a freshly issued token
func (s *Session) Begin(ctx context.Context, token string) error {
	if token == "" {
		return ErrNotAuthenticated
	}
	if err := util.CheckTokenExpiry(token, s.now()); err != nil {
		if errors.Is(err, util.ErrTokenExpired) {
			return ErrExpired
		}
		return fmt.Errorf("%w: %v", ErrNotAuthenticated, err)
	}

	user, err := s.profile(ctx, token)
	if err != nil {
		return fmt.Errorf("resolve profile: %w", err)
	}

	rec := Record{Token: token, User: user, ExpiresAt: s.expiry(token)}
	if err := s.store.Save(ctx, s.key, rec, s.ttlUntil(rec.ExpiresAt)); err != nil {
		return err
	}

	s.mu.Lock()
	s.rec = &rec
	s.mu.Unlock()
	return nil
}

// Refresh re-reads the profile, e.g. after a profile update
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.RLock()
	if s.rec == nil {
		s.mu.RUnlock()
		return ErrNotAuthenticated
	}
	rec := *s.rec
	s.mu.RUnlock()

	user, err := s.profile(ctx, rec.Token)
	if err != nil {
		return fmt.Errorf("refresh profile: %w", err)
	}
	rec.User = user
	if err := s.store.Save(ctx, s.key, rec, s.ttlUntil(rec.ExpiresAt)); err != nil {
		return err
	}

	s.mu.Lock()
	s.rec = &rec
	s.mu.Unlock()
	return nil
}

// Logout clears the session and its persisted record
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.rec = nil
	s.mu.Unlock()
	return s.store.Delete(ctx, s.key)
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.rec == nil {
		return ""
	}
	return s.rec.Token
}

func (s *Session) User() (model.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.rec == nil {
		return model.User{}, false
	}
	return s.rec.User, true
}

func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rec != nil
}

// expiry is the earlier of the token's exp and now+ttl
func (s *Session) expiry(token string) time.Time {
	var exp time.Time
	if claims, err := util.ParseTokenClaims(token); err == nil {
		exp = claims.ExpiresAt
	}
	if s.ttl > 0 {
		byTTL := s.now().Add(s.ttl)
		if exp.IsZero() || byTTL.Before(exp) {
			exp = byTTL
		}
	}
	return exp
}

func (s *Session) ttlUntil(exp time.Time) time.Duration {
	if exp.IsZero() {
		return 0
	}
	if d := exp.Sub(s.now()); d > 0 {
		return d
	}
	return time.Second
}
