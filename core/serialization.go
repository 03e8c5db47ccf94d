// Copyright 2025 Easy Patent Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// PatentRecordMUS is the MUS serializer for PatentRecord values stored in the
// embedded backend. Timestamps are encoded as Unix microseconds.
var PatentRecordMUS = patentRecordMUS{}

type patentRecordMUS struct{}

func (patentRecordMUS) Marshal(r PatentRecord, bs []byte) (n int) {
	n = ord.String.Marshal(r.PatentNumber, bs)
	n += ord.String.Marshal(r.Abstract, bs[n:])
	n += ord.String.Marshal(r.Keyword, bs[n:])
	n += varint.Int64.Marshal(r.FetchedAt.UnixMicro(), bs[n:])
	n += varint.Int64.Marshal(r.InsertedAt.UnixMicro(), bs[n:])
	n += varint.Int64.Marshal(r.UpdatedAt.UnixMicro(), bs[n:])
	return n
}

func (patentRecordMUS) Unmarshal(bs []byte) (r PatentRecord, n int, err error) {
	var n1 int
	r.PatentNumber, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	r.Abstract, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	r.Keyword, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	var micros int64
	micros, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	r.FetchedAt = time.UnixMicro(micros).UTC()
	micros, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	r.InsertedAt = time.UnixMicro(micros).UTC()
	micros, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	r.UpdatedAt = time.UnixMicro(micros).UTC()
	return
}

func (patentRecordMUS) Size(r PatentRecord) (size int) {
	size = ord.String.Size(r.PatentNumber)
	size += ord.String.Size(r.Abstract)
	size += ord.String.Size(r.Keyword)
	size += varint.Int64.Size(r.FetchedAt.UnixMicro())
	size += varint.Int64.Size(r.InsertedAt.UnixMicro())
	size += varint.Int64.Size(r.UpdatedAt.UnixMicro())
	return size
}

func (patentRecordMUS) Skip(bs []byte) (n int, err error) {
	var n1 int
	for i := 0; i < 3; i++ {
		n1, err = ord.String.Skip(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	for i := 0; i < 3; i++ {
		n1, err = varint.Int64.Skip(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}
