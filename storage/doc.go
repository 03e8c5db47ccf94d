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


// Package storage provides the storage abstraction layer for patentscout.
//
// It defines the repository interface that decouples the pipelines from any
// particular backend. Two implementations ship with the project: a MongoDB
// repository (the document store of record) and an embedded BadgerDB
// repository for local runs and tests.
//
// All writes are idempotent upserts keyed by patent number: re-running a
// harvest against the same store replaces records instead of duplicating
// them. Public constructors return the storage.PatentRepository interface
// rather than concrete types so backends stay swappable and tests can
// substitute doubles.
package storage
