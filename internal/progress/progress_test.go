package progress

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/list-cleaner/internal/validation"
)

func setupProgressTest(t *testing.T) (*Tracker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewTracker(client, time.Hour), mr
}

func TestTracker_Lifecycle(t *testing.T) {
	ctx := context.Background()
	tracker, mr := setupProgressTest(t)

	run := tracker.Start(ctx, "u1")
	snap, err := tracker.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, snap.Status)

	run.StageStarted(ctx, validation.StageSyntax)
	snap, err = tracker.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, validation.StageSyntax, snap.CurrentStage)

	run.StageFinished(ctx, validation.StageSyntax, validation.StageResult{In: 10, Kept: 8, Removed: 2})
	run.Finish(ctx, nil)

	snap, err = tracker.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, StatusProcessed, snap.Status)
	assert.Empty(t, snap.CurrentStage)
	assert.Equal(t, []StageProgress{{Name: "syntax", In: 10, Kept: 8, Removed: 2}}, snap.Stages)
	assert.Equal(t, time.Hour, mr.TTL("upload:progress:u1"))
}

func TestTracker_Failure(t *testing.T) {
	ctx := context.Background()
	tracker, _ := setupProgressTest(t)

	run := tracker.Start(ctx, "u2")
	run.Finish(ctx, errors.New("dedup: disk full"))

	snap, err := tracker.Get(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, snap.Status)
	assert.Equal(t, "dedup: disk full", snap.Error)
}

func TestTracker_Unknown(t *testing.T) {
	tracker, _ := setupProgressTest(t)

	snap, err := tracker.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.Equal(t, StatusUnknown, snap.Status)
}

func TestTracker_NilClient(t *testing.T) {
	ctx := context.Background()
	tracker := NewTracker(nil, 0)

	run := tracker.Start(ctx, "u3")
	run.StageStarted(ctx, "role")
	run.Finish(ctx, nil)

	snap, err := tracker.Get(ctx, "u3")
	require.NoError(t, err)
	assert.Equal(t, StatusUnknown, snap.Status)
}

func TestTracker_CorruptSnapshot(t *testing.T) {
	tracker, mr := setupProgressTest(t)
	require.NoError(t, mr.Set("upload:progress:bad", "{not json"))

	_, err := tracker.Get(context.Background(), "bad")
	assert.Error(t, err)
}
