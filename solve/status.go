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
	"fmt"

	"github.com/dentaplan/vacations/cpmodel"
)

// Status is the lifecycle state of a run. The last five values are terminal.
type Status int32

// Run states.
const (
	StatusIdle Status = iota
	StatusBuilding
	StatusSolving
	StatusOptimal
	StatusFeasible
	StatusInfeasible
	// StatusTimeout means the time limit or a cancellation stopped the search before any
	// solution was found.
	StatusTimeout
	// StatusError means the build or the backend failed; Result.Err holds the cause.
	StatusError
)

var statusNames = []string{"IDLE", "BUILDING", "SOLVING", "OPTIMAL", "FEASIBLE", "INFEASIBLE", "TIMEOUT", "ERROR"}

func (s Status) String() string {
	if s >= 0 && int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("Status(%d)", int32(s))
}

// Terminal reports whether s ends a run.
func (s Status) Terminal() bool {
	return s >= StatusOptimal
}

// HasSolution reports whether a run ending in s carries assignments.
func (s Status) HasSolution() bool {
	return s == StatusOptimal || s == StatusFeasible
}

// fromSolver maps a backend status onto a terminal run status.
func fromSolver(s cpmodel.CpSolverStatus) Status {
	switch s {
	case cpmodel.Optimal:
		return StatusOptimal
	case cpmodel.Feasible:
		return StatusFeasible
	case cpmodel.Infeasible:
		return StatusInfeasible
	case cpmodel.Unknown:
		return StatusTimeout
	}
	return StatusError
}

// Engine is the blocking solve operation the orchestrator delegates to. Closing interrupt must
// stop the search and return the best solution found so far.
type Engine interface {
	Solve(m *cpmodel.Model, params *cpmodel.Parameters, interrupt <-chan struct{}) (*cpmodel.Response, error)
}

// EngineFunc adapts a function to the Engine interface.
type EngineFunc func(m *cpmodel.Model, params *cpmodel.Parameters, interrupt <-chan struct{}) (*cpmodel.Response, error)

// Solve calls f.
func (f EngineFunc) Solve(m *cpmodel.Model, params *cpmodel.Parameters, interrupt <-chan struct{}) (*cpmodel.Response, error) {
	return f(m, params, interrupt)
}

// DefaultEngine solves with the cpmodel pseudo-Boolean backend.
var DefaultEngine Engine = EngineFunc(cpmodel.SolveCpModelInterruptibleWithParameters)
