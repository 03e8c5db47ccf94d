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


// Package embed orchestrates the second ingestion stage: turning stored
// patent records into vectors in the vector index.
//
// Every stored record becomes one work item for the same bounded worker
// pool shape the harvest stage uses. A worker embeds the record's
// abstract, checks the vector length against the configured dimensions,
// normalizes it to unit length and upserts it into the index under the
// patent number. The embedding call is retried with exponential backoff;
// a record that still fails is reported without affecting its siblings.
package embed
