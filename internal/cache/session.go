package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"learnhub/api/internal/models"
)

const sessionPrefix = "session:"

var ErrNoSession = errors.New("session not found")

// SessionCache stores the serialized user snapshot that authenticates every
// request. Entries live until logout or the next overwrite. Concurrent writers
// for the same user are last-write-wins.
type SessionCache struct {
	store Store
}

func NewSessionCache(store Store) *SessionCache {
	return &SessionCache{store: store}
}

func sessionKey(userID string) string {
	return sessionPrefix + userID
}

func (s *SessionCache) Put(ctx context.Context, user models.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	return s.store.Set(ctx, sessionKey(user.ID), string(data), 0)
}

func (s *SessionCache) Get(ctx context.Context, userID string) (models.User, error) {
	raw, err := s.store.Get(ctx, sessionKey(userID))
	if errors.Is(err, ErrMiss) {
		return models.User{}, ErrNoSession
	}
	if err != nil {
		return models.User{}, err
	}

	var user models.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return models.User{}, fmt.Errorf("unmarshal session: %w", err)
	}
	return user, nil
}

func (s *SessionCache) Delete(ctx context.Context, userID string) error {
	return s.store.Del(ctx, sessionKey(userID))
}
