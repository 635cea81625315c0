package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/cityfix/internal/server/models"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePusher struct {
	key    string
	values []any
	err    error
}

func (f *fakePusher) LPush(ctx context.Context, key string, values ...any) *redis.IntCmd {
	f.key = key
	f.values = values
	return redis.NewIntResult(int64(len(values)), f.err)
}

func TestRedisPublisher_PushesJSON(t *testing.T) {
	fp := &fakePusher{}
	p := NewRedisPublisher(fp, "cityfix:status_events")

	comment := "crew dispatched"
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	ev := models.StatusEvent{
		IssueID:    "i-1",
		OldStatus:  models.StatusPending,
		NewStatus:  models.StatusProcessing,
		ActorID:    "u-auth",
		Comment:    &comment,
		OccurredAt: at,
	}

	require.NoError(t, p.PublishStatusChange(context.Background(), ev))
	assert.Equal(t, "cityfix:status_events", fp.key)
	require.Len(t, fp.values, 1)

	raw, ok := fp.values[0].([]byte)
	require.True(t, ok)
	assert.JSONEq(t, `{
		"issue_id": "i-1",
		"old_status": "Pending",
		"new_status": "Processing",
		"actor_id": "u-auth",
		"comment": "crew dispatched",
		"occurred_at": "2026-03-01T10:00:00Z"
	}`, string(raw))

	var back models.StatusEvent
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, ev.IssueID, back.IssueID)
}

func TestRedisPublisher_Error(t *testing.T) {
	fp := &fakePusher{err: errors.New("connection refused")}
	p := NewRedisPublisher(fp, "q")

	err := p.PublishStatusChange(context.Background(), models.StatusEvent{IssueID: "i-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "push status event to q")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	assert.NoError(t, p.PublishStatusChange(context.Background(), models.StatusEvent{}))
}
