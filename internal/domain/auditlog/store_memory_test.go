package auditlog

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_NewestFirstAndCapped(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore(3)
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, m.Append(ctx, &Entry{
			ID:        uuid.New(),
			Action:    ActionEdit,
			Note:      string(rune('a' + i)),
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	assert.Equal(t, 3, m.Len())

	got, err := m.Recent(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "e", got[0].Note)
	assert.Equal(t, "c", got[2].Note)
}

func TestMemoryStore_QueryFilters(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore(0)
	target := uuid.New()
	other := uuid.New()

	require.NoError(t, m.Append(ctx, &Entry{ID: uuid.New(), Action: ActionAdd, EntityID: &target}))
	require.NoError(t, m.Append(ctx, &Entry{ID: uuid.New(), Action: ActionEdit, EntityID: &target}))
	require.NoError(t, m.Append(ctx, &Entry{ID: uuid.New(), Action: ActionEdit, EntityID: &other}))
	require.NoError(t, m.Append(ctx, &Entry{ID: uuid.New(), Action: ActionLogin}))

	got, err := m.Recent(ctx, Query{Action: ActionEdit})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = m.Recent(ctx, Query{EntityID: &target})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = m.Recent(ctx, Query{Action: ActionEdit, EntityID: &target, Limit: 1})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestQuery_Normalize(t *testing.T) {
	assert.Equal(t, DefaultListLimit, Query{}.Normalize().Limit)
	assert.Equal(t, DefaultListLimit, Query{Limit: 500}.Normalize().Limit)
	assert.Equal(t, 10, Query{Limit: 10}.Normalize().Limit)
}
