package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"checkout-service/models"

	"github.com/redis/go-redis/v9"
)

// CheckoutStore tracks the active checkout per user and keeps the
// last view snapshot of each attempt, so reads survive restarts and
// the single-open-attempt guard works across instances.
type CheckoutStore interface {
	SetActive(ctx context.Context, userID, checkoutID string) error
	GetActive(ctx context.Context, userID string) (string, error)
	ClearActive(ctx context.Context, userID string) error
	SaveView(ctx context.Context, view *models.CheckoutView) error
	GetView(ctx context.Context, checkoutID string) (*models.CheckoutView, error)
}

type redisCheckoutStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCheckoutStore(client *redis.Client, ttl time.Duration) CheckoutStore {
	return &redisCheckoutStore{client: client, ttl: ttl}
}

func activeKey(userID string) string   { return fmt.Sprintf("checkout:active:%s", userID) }
func viewKey(checkoutID string) string { return fmt.Sprintf("checkout:view:%s", checkoutID) }

func (s *redisCheckoutStore) SetActive(ctx context.Context, userID, checkoutID string) error {
	return s.client.Set(ctx, activeKey(userID), checkoutID, s.ttl).Err()
}

func (s *redisCheckoutStore) GetActive(ctx context.Context, userID string) (string, error) {
	val, err := s.client.Get(ctx, activeKey(userID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	return val, err
}

func (s *redisCheckoutStore) ClearActive(ctx context.Context, userID string) error {
	return s.client.Del(ctx, activeKey(userID)).Err()
}

func (s *redisCheckoutStore) SaveView(ctx context.Context, view *models.CheckoutView) error {
	data, err := json.Marshal(view)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, viewKey(view.CheckoutID), data, s.ttl).Err()
}

func (s *redisCheckoutStore) GetView(ctx context.Context, checkoutID string) (*models.CheckoutView, error) {
	data, err := s.client.Get(ctx, viewKey(checkoutID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var view models.CheckoutView
	if err := json.Unmarshal(data, &view); err != nil {
		return nil, err
	}
	return &view, nil
}
