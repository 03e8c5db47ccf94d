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


// Package epo is a client for the EPO Open Patent Services (OPS) REST API.
//
// The client performs the two remote reads the harvest stage needs: a
// title-keyword bibliographic search and a per-publication abstract fetch.
// OAuth bearer tokens are owned by a TokenGuard that refreshes them
// just-in-time before expiry; concurrent workers share one guard and one
// rate gate.
//
// Errors are classified with three sentinels, all recoverable at work-item
// granularity: ErrAuth (credential acquisition or refresh failed), ErrNetwork
// (transport failure or non-2xx status), and ErrParse (unexpected response
// shape).
package epo
