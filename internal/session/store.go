// Package session persists conversation state in Redis. Each session is one
// hash; a commit replaces the hash in a single transaction so the next turn
// always observes the latest fully written state.
package session

import (
	"context"
	"time"

	stderrors "intake-orchestrator/internal/common/errors"
	"intake-orchestrator/internal/common/logger"
	"intake-orchestrator/internal/common/metrics"
	"intake-orchestrator/internal/models"

	"github.com/redis/go-redis/v9"
)

type Store struct {
	redis     *redis.Client
	keyPrefix string
	ttl       time.Duration
	log       logger.Logger
}

func NewStore(rdb *redis.Client, keyPrefix string, ttl time.Duration, log logger.Logger) *Store {
	return &Store{
		redis:     rdb,
		keyPrefix: keyPrefix,
		ttl:       ttl,
		log:       log,
	}
}

func (st *Store) key(sessionID string) string {
	return st.keyPrefix + sessionID
}

// Load fetches a session by ID.
func (st *Store) Load(ctx context.Context, sessionID string) (*models.Session, error) {
	attrs, err := st.redis.HGetAll(ctx, st.key(sessionID)).Result()
	if err != nil {
		return nil, stderrors.NewSessionStoreFailedError(err)
	}
	if len(attrs) == 0 {
		return nil, stderrors.NewSessionNotFoundError(sessionID)
	}
	return models.SessionFromAttributes(attrs)
}

// LoadOrCreate fetches the session, creating a fresh pre-consent one when
// the conversation is new.
func (st *Store) LoadOrCreate(ctx context.Context, sessionID string) (*models.Session, error) {
	s, err := st.Load(ctx, sessionID)
	if err == nil {
		return s, nil
	}
	if !stderrors.HasCode(err, stderrors.ErrCodeSessionNotFound) {
		return nil, err
	}

	s = models.NewSession(sessionID)
	if err := st.Commit(ctx, s); err != nil {
		return nil, err
	}
	metrics.SessionsActive.Inc()
	st.log.Info("Session created", map[string]interface{}{"sessionId": sessionID})
	return s, nil
}

// Commit writes the whole session atomically and refreshes its TTL. The
// hash is deleted and rewritten inside one transaction so attributes removed
// since the last commit do not linger.
func (st *Store) Commit(ctx context.Context, s *models.Session) error {
	s.UpdatedAt = time.Now().UTC()
	attrs := s.ToAttributes()

	flat := make([]interface{}, 0, len(attrs)*2)
	for k, v := range attrs {
		flat = append(flat, k, v)
	}

	key := st.key(s.SessionID)
	_, err := st.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, flat...)
		pipe.Expire(ctx, key, st.ttl)
		return nil
	})
	if err != nil {
		return stderrors.NewSessionStoreFailedError(err)
	}
	return nil
}

// Delete removes a session, typically after terminal routing and reporting.
func (st *Store) Delete(ctx context.Context, sessionID string) error {
	if err := st.redis.Del(ctx, st.key(sessionID)).Err(); err != nil {
		return stderrors.NewSessionStoreFailedError(err)
	}
	metrics.SessionsActive.Dec()
	return nil
}
