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

import "errors"

// Domain validation errors
var (
	// ErrInvalidPatentRecord indicates a PatentRecord failed validation.
	ErrInvalidPatentRecord = errors.New("invalid patent record")

	// ErrEmptyPatentNumber indicates the PatentNumber field is empty.
	ErrEmptyPatentNumber = errors.New("patent number cannot be empty")

	// ErrEmptyAbstract indicates the Abstract field is empty.
	// An absent abstract must be represented by a sentinel value instead.
	ErrEmptyAbstract = errors.New("abstract cannot be empty")

	// ErrInvalidTimestamp indicates a timestamp is in the future.
	ErrInvalidTimestamp = errors.New("timestamp cannot be in the future")
)
