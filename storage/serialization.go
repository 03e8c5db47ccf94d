package storage

import (
	"fmt"

	"github.com/easypatent/patentscout/core"
)

// MarshalPatentRecord serializes a PatentRecord to bytes.
func MarshalPatentRecord(record *core.PatentRecord) []byte {
	buf := make([]byte, core.PatentRecordMUS.Size(*record))
	core.PatentRecordMUS.Marshal(*record, buf)
	return buf
}

// UnmarshalPatentRecord deserializes a PatentRecord from bytes.
func UnmarshalPatentRecord(data []byte) (*core.PatentRecord, error) {
	record, _, err := core.PatentRecordMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &record, nil
}
