// internal/session/store_test.go
package session

import (
	"context"
	"errors"
	"testing"
	"time"

	stderrors "intake-orchestrator/internal/common/errors"
	"intake-orchestrator/internal/common/logger"
	"intake-orchestrator/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

// ==========================
// Test Helper Functions
// ==========================

func setupRedis(t *testing.T) *redis.Client {
	mr, err := miniredis.Run()
	assert.NoError(t, err)
	t.Cleanup(mr.Close)

	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}

func newTestStore(t *testing.T) *Store {
	return NewStore(setupRedis(t), "intake:session:", 2*time.Hour, logger.NewTestLogger(t))
}

// ==========================
// Tests
// ==========================

func TestStore_LoadMissing(t *testing.T) {
	store := newTestStore(t)

	s, err := store.Load(context.Background(), "nope")
	assert.Nil(t, s)
	assert.True(t, stderrors.HasCode(err, stderrors.ErrCodeSessionNotFound))
}

func TestStore_LoadOrCreate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	s, err := store.LoadOrCreate(ctx, "sess-1")
	assert.NoError(t, err)
	assert.Equal(t, models.ConsentNone, s.ConsentState)
	assert.Equal(t, models.PathUnset, s.Path)

	again, err := store.LoadOrCreate(ctx, "sess-1")
	assert.NoError(t, err)
	assert.Equal(t, s.SessionID, again.SessionID)
	assert.Equal(t, s.CreatedAt.Unix(), again.CreatedAt.Unix())
}

func TestStore_CommitRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	s := models.NewSession("sess-1")
	s.ConsentState = models.ConsentGranted
	s.NeedCategory = "housing"
	s.NeedSubcategory = "rent_assistance"
	s.Path = models.PathDirectSupport
	s.SetField("first_name", "Jordan", models.ProvenanceAnswered)
	s.SetField("zip_code", "29405", models.ProvenanceAnswered)
	s.SetField("contact_info", "", models.ProvenanceDeclined)
	s.CircleBackAsks = map[string]int{"contact_info": 1}
	s.Scoring = &models.ScoringOutput{
		HousingScore:     2.5,
		EmploymentScore:  3,
		FinancialScore:   2,
		CompositeScore:   2.5,
		PriorityFlag:     false,
		RecommendedPath:  models.PathMixed,
		InputFingerprint: "abc123",
	}
	s.Turn = 7
	s.LastDispatchTurn = 6

	assert.NoError(t, store.Commit(ctx, s))

	loaded, err := store.Load(ctx, "sess-1")
	assert.NoError(t, err)
	assert.Equal(t, s.ConsentState, loaded.ConsentState)
	assert.Equal(t, s.NeedSubcategory, loaded.NeedSubcategory)
	assert.Equal(t, s.Path, loaded.Path)
	assert.Equal(t, s.Fields, loaded.Fields)
	assert.Equal(t, s.CircleBackAsks, loaded.CircleBackAsks)
	assert.Equal(t, s.Scoring, loaded.Scoring)
	assert.Equal(t, 7, loaded.Turn)
	assert.Equal(t, 6, loaded.LastDispatchTurn)
}

func TestStore_CommitDropsStaleAttributes(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	s := models.NewSession("sess-1")
	s.ConsentState = models.ConsentGranted
	s.SetField("zip_code", "29405", models.ProvenanceAnswered)
	s.CaseReference = "12345678"
	assert.NoError(t, store.Commit(ctx, s))

	// A superseding commit without the case reference must not leave the
	// old value behind.
	s2 := models.NewSession("sess-1")
	s2.ConsentState = models.ConsentGranted
	assert.NoError(t, store.Commit(ctx, s2))

	loaded, err := store.Load(ctx, "sess-1")
	assert.NoError(t, err)
	assert.Empty(t, loaded.CaseReference)
	assert.Empty(t, loaded.Fields)
}

func TestStore_RedisFailureSurfacesAsStoreError(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	store := NewStore(rdb, "intake:session:", 2*time.Hour, logger.NewTestLogger(t))
	ctx := context.Background()

	mock.ExpectHGetAll("intake:session:sess-1").SetErr(errors.New("connection refused"))
	_, err := store.Load(ctx, "sess-1")
	assert.True(t, stderrors.HasCode(err, stderrors.ErrCodeSessionStoreFailed))

	mock.ExpectDel("intake:session:sess-1").SetErr(errors.New("connection refused"))
	err = store.Delete(ctx, "sess-1")
	assert.True(t, stderrors.HasCode(err, stderrors.ErrCodeSessionStoreFailed))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Delete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	s := models.NewSession("sess-1")
	assert.NoError(t, store.Commit(ctx, s))
	assert.NoError(t, store.Delete(ctx, "sess-1"))

	_, err := store.Load(ctx, "sess-1")
	assert.True(t, stderrors.HasCode(err, stderrors.ErrCodeSessionNotFound))
}
