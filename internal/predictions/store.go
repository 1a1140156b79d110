// internal/predictions/store.go
package predictions

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "ai-ml-service/internal/common/errors"
	"ai-ml-service/internal/common/logger"
)

// Store caches prediction results in Redis for quick retrieval by the
// dashboard services. Keys are scoped per organization, user and model type.
type Store struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewStore(client *redis.Client, ttl time.Duration, log logger.Logger) *Store {
	return &Store{
		client: client,
		ttl:    ttl,
		logger: log.With(map[string]interface{}{
			"component": "prediction-store",
		}),
	}
}

func key(organizationID, userID, modelType string) string {
	return fmt.Sprintf("predictions:%s:%s:%s", organizationID, userID, modelType)
}

// Save stores a prediction result under its scoped key with the configured
// TTL.
func (s *Store) Save(ctx context.Context, organizationID, userID, modelType string, result map[string]interface{}) error {
	data, err := json.Marshal(result)
	if err != nil {
		return apperrors.NewCacheWriteFailedError(err)
	}

	if err := s.client.Set(ctx, key(organizationID, userID, modelType), data, s.ttl).Err(); err != nil {
		return apperrors.NewCacheWriteFailedError(err)
	}

	s.logger.Info("prediction result stored", map[string]interface{}{
		"organizationId": organizationID,
		"userId":         userID,
		"modelType":      modelType,
	})
	return nil
}

// Get retrieves a cached prediction result. The boolean reports whether the
// key existed.
func (s *Store) Get(ctx context.Context, organizationID, userID, modelType string) (map[string]interface{}, bool, error) {
	data, err := s.client.Get(ctx, key(organizationID, userID, modelType)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var result map[string]interface{}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, false, err
	}
	return result, true, nil
}
