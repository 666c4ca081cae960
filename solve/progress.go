// Copyright 2010-2024 Google LLC
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

package solve

import (
	"math"
	"sync/atomic"
	"time"
)

// EventKind distinguishes progress events.
type EventKind int8

// Progress event kinds.
const (
	// EventSolution is sent for every improving solution reported by the backend.
	EventSolution EventKind = iota
	// EventHeartbeat is sent periodically while the backend searches.
	EventHeartbeat
)

func (k EventKind) String() string {
	if k == EventSolution {
		return "solution"
	}
	return "heartbeat"
}

// Event is a progress notification. Objective is only meaningful when Solutions > 0.
type Event struct {
	Kind      EventKind
	RunID     string
	Elapsed   time.Duration
	Solutions int64
	Objective float64
}

// progress holds the counters shared between the backend callback and the heartbeat. Only
// atomics are touched so neither side can slow the search down.
type progress struct {
	start     time.Time
	solutions atomic.Int64
	objective atomic.Uint64
}

func newProgress() *progress {
	return &progress{start: time.Now()}
}

func (p *progress) record(objective float64) {
	p.objective.Store(math.Float64bits(objective))
	p.solutions.Add(1)
}

func (p *progress) event(kind EventKind, runID string) Event {
	return Event{
		Kind:      kind,
		RunID:     runID,
		Elapsed:   time.Since(p.start),
		Solutions: p.solutions.Load(),
		Objective: math.Float64frombits(p.objective.Load()),
	}
}
