package kafka

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopic(t *testing.T) {
	assert.Equal(t, "warehouse.allocation.completed", Topic("allocation", "completed"))
}

func TestNewEvent(t *testing.T) {
	type payload struct {
		ProductID int64 `json:"product_id"`
		Granted   int   `json:"granted"`
	}

	ev, err := NewEvent("allocation.completed", "7", "product", "warehouse", payload{ProductID: 7, Granted: 30})
	require.NoError(t, err)

	assert.NotEmpty(t, ev.EventID)
	assert.Equal(t, 1, ev.Version)
	assert.WithinDuration(t, time.Now().UTC(), ev.Timestamp, 2*time.Second)
	assert.JSONEq(t, `{"product_id":7,"granted":30}`, string(ev.Data))
}

func TestNewEvent_UnmarshalablePayload(t *testing.T) {
	_, err := NewEvent("x", "1", "product", "warehouse", make(chan int))
	assert.Error(t, err)
}

func TestUnmarshalEvent(t *testing.T) {
	ev, err := NewEvent("movement.recorded", "3", "product", "warehouse", map[string]int{"delta": -2})
	require.NoError(t, err)
	ev.WithCorrelationID("corr-1").WithMetadata("actor", "u-9")

	raw, err := ev.Marshal()
	require.NoError(t, err)

	got, err := UnmarshalEvent(raw)
	require.NoError(t, err)
	assert.Equal(t, ev.EventID, got.EventID)
	assert.Equal(t, "corr-1", got.CorrelationID)
	assert.Equal(t, "u-9", got.Metadata["actor"])

	var data map[string]int
	require.NoError(t, got.UnmarshalData(&data))
	assert.Equal(t, -2, data["delta"])
}

func TestUnmarshalEvent_Rejects(t *testing.T) {
	_, err := UnmarshalEvent([]byte(`not json`))
	assert.Error(t, err)

	_, err = UnmarshalEvent([]byte(`{"event_id":"x"}`))
	assert.Error(t, err)
}
