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


// Package pipeline provides the generic bounded worker pool that drives both
// processing stages: patent harvesting and embedding generation.
//
// A Runner fans a list of work items out across a fixed-size pool of workers,
// invokes a caller-supplied process function for each item, and collects
// per-item outcomes into a Report. Individual failures never abort the batch:
// errors (including recovered panics) are recorded as failed outcomes and the
// remaining items keep flowing. Every submitted item yields exactly one
// outcome, so Report.Succeeded + Report.Failed always equals Report.Submitted.
//
// The same Runner shape serves both stages; only the item payload type and
// the process function differ:
//
//	runner, err := pipeline.NewRunner[string](20)
//	if err != nil { ... }
//	defer runner.Release()
//
//	report, err := runner.Run(ctx, items, func(ctx context.Context, item pipeline.Item[string]) error {
//		return processKeyword(ctx, item.Payload)
//	})
package pipeline
