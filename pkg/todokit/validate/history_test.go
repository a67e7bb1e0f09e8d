package validate_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/randalmurphal/todokit/pkg/todokit/validate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistory_Append(t *testing.T) {
	h := validate.NewHistory()

	rec := h.Append(validate.Record{Name: "Buy milk", Accepted: true, Message: "Todo name is valid"})
	assert.NotEmpty(t, rec.ID)
	assert.False(t, rec.CheckedAt.IsZero())
	assert.Equal(t, 1, h.Len())

	other := h.Append(validate.Record{Name: "x", Accepted: false})
	assert.NotEqual(t, rec.ID, other.ID)
}

func TestHistory_AllReturnsCopy(t *testing.T) {
	h := validate.NewHistory()
	h.Append(validate.Record{Name: "Buy milk", Accepted: true})

	all := h.All()
	all[0].Name = "mutated"

	assert.Equal(t, "Buy milk", h.All()[0].Name)
}

func TestHistory_Rejected(t *testing.T) {
	h := validate.NewHistory()
	h.Append(validate.Record{Name: "Buy milk", Accepted: true})
	h.Append(validate.Record{Name: "x", Accepted: false, Message: "too short"})
	h.Append(validate.Record{Name: "anything", Accepted: true, Degraded: true})

	rejected := h.Rejected()
	require.Len(t, rejected, 1)
	assert.Equal(t, "x", rejected[0].Name)
}

func TestGateway_RecordsHistory(t *testing.T) {
	h := validate.NewHistory()
	g := validate.NewGateway(
		validate.NewRuleValidator(validate.DefaultRules()),
		validate.WithHistory(h),
	)

	g.Validate(context.Background(), "Buy milk")
	g.Validate(context.Background(), "x")

	records := h.All()
	require.Len(t, records, 2)

	assert.Equal(t, "Buy milk", records[0].Name)
	assert.True(t, records[0].Accepted)
	assert.False(t, records[0].Degraded)
	require.NotNil(t, records[0].Rules, "rule validator snapshots its rule set")
	assert.Equal(t, 3, records[0].Rules.MinLength)

	assert.Equal(t, "x", records[1].Name)
	assert.False(t, records[1].Accepted)
	assert.Contains(t, records[1].Message, "at least 3 characters")

	require.Len(t, h.Rejected(), 1)
}

func TestGateway_RecordsFailOpenInHistory(t *testing.T) {
	broken := validate.ValidatorFunc(func(context.Context, string) (validate.Result, error) {
		return validate.Result{}, errors.New("connection refused")
	})

	h := validate.NewHistory()
	g := validate.NewGateway(broken, validate.WithHistory(h))

	g.Validate(context.Background(), "anything")

	records := h.All()
	require.Len(t, records, 1)
	assert.True(t, records[0].Accepted)
	assert.True(t, records[0].Degraded)
	assert.Nil(t, records[0].Rules, "no rule set to snapshot on a remote validator")
	assert.Empty(t, h.Rejected(), "fail-open admissions are not rejections")
}

func TestGateway_NoHistoryByDefault(t *testing.T) {
	g := validate.NewGateway(validate.NewRuleValidator(validate.DefaultRules()))

	// No history attached: decisions are simply not recorded
	dec := g.Validate(context.Background(), "Buy milk")
	assert.True(t, dec.Accepted)
}

func TestHistory_ConcurrentAppends(t *testing.T) {
	h := validate.NewHistory()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				h.Append(validate.Record{Name: "Buy milk", Accepted: true})
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 200, h.Len())
}
