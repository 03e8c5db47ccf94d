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

// Package harvest orchestrates the first ingestion stage: turning a list
// of search keywords into stored patent records.
//
// Each keyword becomes one work item for a bounded worker pool. A worker
// searches the patent source for publications matching its keyword,
// fetches the abstract of every match, and upserts one record per match
// into the document store. A failed abstract fetch degrades that single
// record to a sentinel abstract instead of failing the keyword, so one
// bad document never discards its siblings.
package harvest
