package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/chronicle/internal/record"
	"git.home.luguber.info/inful/chronicle/internal/timestamp"
)

func TestChangeWireFormat(t *testing.T) {
	ts, err := timestamp.Date(2011, time.October, 29, 0, 0, 0, "US/Central")
	require.NoError(t, err)

	id, err := record.ParseID("3330c5b0-783f-4919-b2c4-8169c38f65ff")
	require.NoError(t, err)

	change := Change{
		Op:        OpPut,
		ID:        id,
		Timestamp: ts,
		Tags:      []string{"long"},
		EmittedAt: time.Date(2026, time.August, 29, 12, 0, 0, 0, time.UTC),
	}

	data, err := json.Marshal(change)
	require.NoError(t, err)

	var decoded Change
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, OpPut, decoded.Op)
	assert.Equal(t, id, decoded.ID)
	assert.True(t, decoded.Timestamp.Equal(ts))
	assert.Equal(t, "US/Central", decoded.Timestamp.Zone())
	assert.Equal(t, []string{"long"}, decoded.Tags)
	assert.True(t, decoded.EmittedAt.Equal(change.EmittedAt))
}

func TestNoopPublisher(t *testing.T) {
	var p Publisher = NoopPublisher{}
	require.NoError(t, p.Publish(t.Context(), Change{Op: OpDelete, ID: record.NewID()}))
	require.NoError(t, p.Close())
}
