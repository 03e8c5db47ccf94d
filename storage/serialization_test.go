package storage

import (
	"testing"
	"time"

	"github.com/easypatent/patentscout/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatentRecord_SerializationRoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	record := &core.PatentRecord{
		PatentNumber: "EP1000000A1",
		Abstract:     "A rechargeable battery assembly.",
		Keyword:      "battery",
		FetchedAt:    now,
		InsertedAt:   now,
		UpdatedAt:    now,
	}

	data := MarshalPatentRecord(record)
	decoded, err := UnmarshalPatentRecord(data)
	require.NoError(t, err)

	assert.Equal(t, record.PatentNumber, decoded.PatentNumber)
	assert.Equal(t, record.Abstract, decoded.Abstract)
	assert.Equal(t, record.Keyword, decoded.Keyword)
	assert.True(t, record.FetchedAt.Equal(decoded.FetchedAt))
	assert.True(t, record.UpdatedAt.Equal(decoded.UpdatedAt))
}

func TestUnmarshalPatentRecord_Truncated(t *testing.T) {
	record := &core.PatentRecord{PatentNumber: "EP1000000A1", Abstract: "text"}
	data := MarshalPatentRecord(record)

	_, err := UnmarshalPatentRecord(data[:len(data)/2])
	assert.ErrorIs(t, err, ErrSerializationFailed)
}
