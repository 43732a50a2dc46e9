package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/snackstopper/models"
)

// ErrInvalidSubscription is returned for payloads that are not a push subscription object.
var ErrInvalidSubscription = errors.New("subscription must be a JSON object with an endpoint")

// SubscriptionStore keeps the browser push subscriptions.
type SubscriptionStore struct {
	db *gorm.DB
}

// NewSubscriptionStore creates a SubscriptionStore backed by db.
func NewSubscriptionStore(db *gorm.DB) *SubscriptionStore {
	return &SubscriptionStore{db: db}
}

// Subscribe stores raw unless an identical payload is already stored. Payloads are compared
// as compacted JSON text, so the same object with a different key order is a new subscription.
func (s *SubscriptionStore) Subscribe(ctx context.Context, raw []byte) (bool, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidSubscription, err)
	}

	var probe struct {
		Endpoint string `json:"endpoint"`
	}
	if err := json.Unmarshal(buf.Bytes(), &probe); err != nil || probe.Endpoint == "" {
		return false, ErrInvalidSubscription
	}

	sum := sha256.Sum256(buf.Bytes())
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "digest"}},
		DoNothing: true,
	}).Create(&models.PushSubscription{
		Payload: buf.String(),
		Digest:  hex.EncodeToString(sum[:]),
	})
	if res.Error != nil {
		return false, fmt.Errorf("store subscription: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// All returns every stored subscription in creation order.
func (s *SubscriptionStore) All(ctx context.Context) ([]models.PushSubscription, error) {
	var subs []models.PushSubscription
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("load subscriptions: %w", err)
	}
	return subs, nil
}

// Delete removes the subscription with id.
func (s *SubscriptionStore) Delete(ctx context.Context, id uint) error {
	if err := s.db.WithContext(ctx).Delete(&models.PushSubscription{}, id).Error; err != nil {
		return fmt.Errorf("delete subscription %d: %w", id, err)
	}
	return nil
}
