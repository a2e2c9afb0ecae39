package audit

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestStore creates a Store over an in-memory SQLite DB.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	store := NewStore(db)
	require.NoError(t, store.AutoMigrate())
	return store
}

func strptr(s string) *string { return &s }

func TestStore_Append(t *testing.T) {
	store := newTestStore(t)

	rec := &Record{
		ID:            uuid.New().String(),
		RequirementID: 1,
		ActorID:       7,
		Action:        ActionStatusChange,
		FieldName:     "status",
		OldValue:      strptr("testing"),
		NewValue:      strptr("in_progress"),
		Comment:       "regression found",
		CreatedAt:     time.Now(),
	}
	require.NoError(t, store.Append(rec))

	records, err := store.ListByRequirement(1, false)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, ActionStatusChange, records[0].Action)
	assert.Equal(t, "status", records[0].FieldName)
	assert.Equal(t, "testing", *records[0].OldValue)
	assert.Equal(t, "in_progress", *records[0].NewValue)
	assert.Equal(t, "regression found", records[0].Comment)
	assert.Equal(t, uint(7), records[0].ActorID)
}

func TestStore_Append_RejectsUnknownAction(t *testing.T) {
	store := newTestStore(t)

	rec := &Record{
		ID:            uuid.New().String(),
		RequirementID: 1,
		ActorID:       1,
		Action:        Action("merge"),
		CreatedAt:     time.Now(),
	}
	err := store.Append(rec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown action")
}

func TestStore_ListByRequirement_Ordering(t *testing.T) {
	store := newTestStore(t)

	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	t1, t2, t3 := base, base.Add(time.Minute), base.Add(2*time.Minute)
	for i, ts := range []time.Time{t1, t2, t3} {
		require.NoError(t, store.Append(&Record{
			ID:            uuid.New().String(),
			RequirementID: 42,
			ActorID:       1,
			Action:        ActionUpdate,
			FieldName:     []string{"title", "priority", "description"}[i],
			OldValue:      strptr("a"),
			NewValue:      strptr("b"),
			CreatedAt:     ts,
		}))
	}
	// A record for another requirement must not leak in.
	require.NoError(t, store.Append(&Record{
		ID:            uuid.New().String(),
		RequirementID: 99,
		ActorID:       1,
		Action:        ActionCreate,
		CreatedAt:     base,
	}))

	desc, err := store.ListByRequirement(42, false)
	require.NoError(t, err)
	require.Len(t, desc, 3)
	assert.Equal(t, t3, desc[0].CreatedAt.UTC())
	assert.Equal(t, t2, desc[1].CreatedAt.UTC())
	assert.Equal(t, t1, desc[2].CreatedAt.UTC())

	asc, err := store.ListByRequirement(42, true)
	require.NoError(t, err)
	require.Len(t, asc, 3)
	assert.Equal(t, t1, asc[0].CreatedAt.UTC())
	assert.Equal(t, t3, asc[2].CreatedAt.UTC())
}

func TestStore_ListFiltered(t *testing.T) {
	store := newTestStore(t)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Append(&Record{
			ID:            uuid.New().String(),
			RequirementID: 1,
			ActorID:       1,
			Action:        ActionUpdate,
			FieldName:     "title",
			OldValue:      strptr("old"),
			NewValue:      strptr("new"),
			CreatedAt:     base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, store.Append(&Record{
		ID:            uuid.New().String(),
		RequirementID: 1,
		ActorID:       2,
		Action:        ActionStatusChange,
		FieldName:     "status",
		OldValue:      strptr("draft"),
		NewValue:      strptr("submitted"),
		CreatedAt:     base.Add(10 * time.Minute),
	}))

	// Filter by action kind.
	records, _, total, err := store.ListFiltered(ListFilter{RequirementID: 1, Action: ActionStatusChange}, 10, "")
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, records, 1)
	assert.Equal(t, "status", records[0].FieldName)

	// Filter by field name.
	records, _, total, err = store.ListFiltered(ListFilter{RequirementID: 1, FieldName: "title"}, 10, "")
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Len(t, records, 5)

	// Filter by actor.
	records, _, total, err = store.ListFiltered(ListFilter{ActorID: 2}, 10, "")
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, records, 1)

	// Paginate with pageSize 2.
	page1, token1, total1, err := store.ListFiltered(ListFilter{RequirementID: 1}, 2, "")
	require.NoError(t, err)
	assert.Equal(t, 6, total1)
	assert.Len(t, page1, 2)
	require.NotEmpty(t, token1)

	page2, token2, _, err := store.ListFiltered(ListFilter{RequirementID: 1}, 2, token1)
	require.NoError(t, err)
	assert.Len(t, page2, 2)
	require.NotEmpty(t, token2)

	page3, token3, _, err := store.ListFiltered(ListFilter{RequirementID: 1}, 2, token2)
	require.NoError(t, err)
	assert.Len(t, page3, 2)
	assert.Empty(t, token3)
}

// All records of one mutation batch carry the same instant; the page cursor
// must not lose the records of a batch that straddles a page boundary.
func TestStore_ListFiltered_SameInstantBatch(t *testing.T) {
	store := newTestStore(t)

	at := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	fields := []string{"title", "priority", "description"}
	for _, f := range fields {
		require.NoError(t, store.Append(&Record{
			ID:            uuid.New().String(),
			RequirementID: 1,
			ActorID:       1,
			Action:        ActionUpdate,
			FieldName:     f,
			OldValue:      strptr("a"),
			NewValue:      strptr("b"),
			CreatedAt:     at,
		}))
	}

	seen := map[string]bool{}
	token := ""
	for {
		page, next, total, err := store.ListFiltered(ListFilter{RequirementID: 1}, 2, token)
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		for _, r := range page {
			assert.False(t, seen[r.ID], "record %s returned twice", r.ID)
			seen[r.ID] = true
		}
		if next == "" {
			break
		}
		token = next
	}
	assert.Len(t, seen, 3, "every record of the batch must be reachable through pagination")
}

func TestStore_ListFiltered_RejectsBadToken(t *testing.T) {
	store := newTestStore(t)

	_, _, _, err := store.ListFiltered(ListFilter{RequirementID: 1}, 2, "not-a-token")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid page token")
}

func TestStore_DeleteByRequirement(t *testing.T) {
	store := newTestStore(t)

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Append(&Record{
			ID:            uuid.New().String(),
			RequirementID: 5,
			ActorID:       1,
			Action:        ActionUpdate,
			FieldName:     "title",
			OldValue:      strptr("a"),
			NewValue:      strptr("b"),
			CreatedAt:     time.Now(),
		}))
	}
	require.NoError(t, store.Append(&Record{
		ID:            uuid.New().String(),
		RequirementID: 6,
		ActorID:       1,
		Action:        ActionCreate,
		CreatedAt:     time.Now(),
	}))

	deleted, err := store.DeleteByRequirement(5)
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)

	count, err := store.CountByRequirement(5)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	count, err = store.CountByRequirement(6)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
