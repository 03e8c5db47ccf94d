package badger

import (
	"encoding/binary"

	"github.com/easypatent/patentscout/core"
)

// Key prefix for patent records.
const patentRecordPrefix = "patrec"

// makePatentKey generates a fixed-width key for a patent record from its
// content-derived ID. BigEndian so keys sort consistently.
func makePatentKey(id core.ID) []byte {
	prefix := []byte(patentRecordPrefix + ":")
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}
