package sessions

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"
)

// Service manages refresh sessions and publishes auth state events.
type Service struct {
	repo Repository
	hub  *Hub
	now  func() time.Time
}

func NewService(r Repository, hub *Hub) *Service {
	return &Service{repo: r, hub: hub, now: time.Now}
}

func newRefreshToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func (s *Service) create(ctx context.Context, userID, email string, ttl time.Duration) (*Session, error) {
	r, err := newRefreshToken()
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	sess := &Session{
		RefreshToken: r,
		UserID:       userID,
		Email:        email,
		CreatedAt:    now,
		ExpiresAt:    now.Add(ttl),
	}
	if err := s.repo.Create(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// SignIn opens a refresh session for the user and emits SIGNED_IN.
func (s *Service) SignIn(ctx context.Context, userID, email string, ttl time.Duration) (*Session, error) {
	sess, err := s.create(ctx, userID, email, ttl)
	if err != nil {
		return nil, err
	}
	s.hub.Publish(Event{Type: EventSignedIn, Session: *sess, At: sess.CreatedAt})
	return sess, nil
}

// ValidateRefresh returns the session if the refresh token is known and not expired.
func (s *Service) ValidateRefresh(ctx context.Context, refresh string) (*Session, error) {
	sess, err := s.repo.GetByRefresh(ctx, refresh)
	if err != nil {
		return nil, err
	}
	if sess.Expired(s.now().UTC()) {
		_ = s.repo.DeleteByRefresh(ctx, refresh)
		return nil, ErrNotFound
	}
	return sess, nil
}

// Refresh rotates a refresh token: the old session is removed and a new one
// with a fresh ttl is returned.
func (s *Service) Refresh(ctx context.Context, refresh string, ttl time.Duration) (*Session, error) {
	old, err := s.ValidateRefresh(ctx, refresh)
	if err != nil {
		return nil, err
	}
	if err := s.repo.DeleteByRefresh(ctx, refresh); err != nil {
		return nil, err
	}
	sess, err := s.create(ctx, old.UserID, old.Email, ttl)
	if err != nil {
		return nil, err
	}
	s.hub.Publish(Event{Type: EventTokenRefreshed, Session: *sess, At: sess.CreatedAt})
	return sess, nil
}

// SignOut removes the refresh session and emits SIGNED_OUT. Unknown tokens
// are ignored.
func (s *Service) SignOut(ctx context.Context, refresh string) error {
	sess, err := s.repo.GetByRefresh(ctx, refresh)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := s.repo.DeleteByRefresh(ctx, refresh); err != nil {
		return err
	}
	s.hub.Publish(Event{Type: EventSignedOut, Session: *sess, At: s.now().UTC()})
	return nil
}

// SignOutUser drops every session of userID, e.g. on account deletion.
func (s *Service) SignOutUser(ctx context.Context, userID string) error {
	if err := s.repo.DeleteByUser(ctx, userID); err != nil {
		return err
	}
	s.hub.Publish(Event{Type: EventSignedOut, Session: Session{UserID: userID}, At: s.now().UTC()})
	return nil
}
