package notify_test

import (
	"sync"
	"testing"

	"github.com/randalmurphal/todokit/pkg/todokit/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistory_Append(t *testing.T) {
	h := notify.NewHistory()

	rec := h.Append(notify.Record{
		TodoID:    "id-1",
		EventType: "created",
		Status:    notify.StatusProcessed,
	})

	assert.NotEmpty(t, rec.ID)
	assert.False(t, rec.ProcessedAt.IsZero())
	assert.Equal(t, 1, h.Len())

	other := h.Append(notify.Record{TodoID: "id-2", EventType: "deleted", Status: notify.StatusFailed})
	assert.NotEqual(t, rec.ID, other.ID)
}

func TestHistory_ByTodo(t *testing.T) {
	h := notify.NewHistory()
	h.Append(notify.Record{TodoID: "id-1", EventType: "created", Status: notify.StatusProcessed})
	h.Append(notify.Record{TodoID: "id-2", EventType: "created", Status: notify.StatusProcessed})
	h.Append(notify.Record{TodoID: "id-1", EventType: "updated", Status: notify.StatusFailed})

	recs := h.ByTodo("id-1")
	require.Len(t, recs, 2)
	assert.Equal(t, "created", recs[0].EventType)
	assert.Equal(t, "updated", recs[1].EventType)

	assert.Empty(t, h.ByTodo("no-such-id"))
}

func TestHistory_AllReturnsCopy(t *testing.T) {
	h := notify.NewHistory()
	h.Append(notify.Record{TodoID: "id-1", Status: notify.StatusProcessed})

	all := h.All()
	all[0].TodoID = "mutated"

	assert.Equal(t, "id-1", h.All()[0].TodoID)
}

func TestHistory_ConcurrentAppends(t *testing.T) {
	h := notify.NewHistory()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				h.Append(notify.Record{TodoID: "id-1", Status: notify.StatusProcessed})
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 200, h.Len())
}
