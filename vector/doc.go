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

// Package vector defines the abstraction for vector index backends.
//
// A vector index stores embedding vectors keyed by patent number so that
// downstream consumers can run semantic similarity queries. The embedding
// workflow depends only on the Store interface; concrete backends live in
// sub-packages such as vector/vectorize.
package vector
