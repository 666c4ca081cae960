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

package cpmodel

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/crillab/gophersat/solver"
	log "github.com/golang/glog"
)

// CpSolverStatus is the terminal status of a solve.
type CpSolverStatus int32

// Solver statuses.
const (
	// Unknown means the search stopped before finding a solution or proving infeasibility.
	Unknown CpSolverStatus = iota
	// ModelInvalid means the model or the parameters could not be handled.
	ModelInvalid
	// Feasible means a solution was found but not proven optimal.
	Feasible
	// Infeasible means the model has no solution.
	Infeasible
	// Optimal means the returned solution is proven optimal.
	Optimal
)

func (s CpSolverStatus) String() string {
	switch s {
	case Unknown:
		return "UNKNOWN"
	case ModelInvalid:
		return "MODEL_INVALID"
	case Feasible:
		return "FEASIBLE"
	case Infeasible:
		return "INFEASIBLE"
	case Optimal:
		return "OPTIMAL"
	}
	return fmt.Sprintf("CpSolverStatus(%d)", int32(s))
}

// Parameters configures a solve.
type Parameters struct {
	// MaxTimeInSeconds is the wall-clock limit; zero means no limit, negative values are invalid.
	MaxTimeInSeconds float64
	// NumWorkers is the requested number of search workers. The pseudo-Boolean backend searches
	// on a single goroutine and only reports the value.
	NumWorkers int32
	// LogSearchProgress logs every improving solution.
	LogSearchProgress bool
	// SolutionCallback is invoked from a separate goroutine for every improving solution.
	SolutionCallback func(*Response)
}

// Response is the outcome of a solve.
type Response struct {
	Status             CpSolverStatus
	Solution           []int64
	ObjectiveValue     float64
	BestObjectiveBound float64
	NumSolutions       int64
	WallTime           float64
	SolutionInfo       string
}

var errNegativeTime = errors.New("max_time_in_seconds must be non-negative")

func validateParameters(p *Parameters) error {
	if p.MaxTimeInSeconds < 0 {
		return errNegativeTime
	}
	if p.NumWorkers < 0 {
		return fmt.Errorf("num_workers=%d must be non-negative", p.NumWorkers)
	}
	return nil
}

// SolveCpModel solves a model and returns a Response.
func SolveCpModel(input *Model) (*Response, error) {
	return SolveCpModelWithParameters(input, nil)
}

// SolveCpModelWithParameters solves a model with the given solver parameters and returns a
// Response.
func SolveCpModelWithParameters(input *Model, params *Parameters) (*Response, error) {
	return SolveCpModelInterruptibleWithParameters(input, params, nil)
}

// SolveCpModelInterruptibleWithParameters solves a model with the given parameters and returns a
// Response. The solve returns as soon as `interrupt` is closed or the time limit expires, with the
// best solution found so far and status Feasible, or status Unknown when there is none.
func SolveCpModelInterruptibleWithParameters(input *Model, params *Parameters, interrupt <-chan struct{}) (*Response, error) {
	if input == nil {
		return nil, errors.New("nil model")
	}
	if params == nil {
		params = &Parameters{}
	}
	start := time.Now()
	elapsed := func() float64 { return time.Since(start).Seconds() }

	if err := validateParameters(params); err != nil {
		return &Response{Status: ModelInvalid, SolutionInfo: err.Error(), WallTime: elapsed()}, nil
	}

	// An interrupt that is already closed must win over the solve.
	select {
	case <-interrupt:
		return &Response{Status: Unknown, SolutionInfo: "interrupted before search", WallTime: elapsed()}, nil
	default:
	}

	enc, err := encodeModel(input)
	if err != nil {
		return &Response{Status: ModelInvalid, SolutionInfo: err.Error(), WallTime: elapsed()}, nil
	}
	if enc.infeasible {
		return &Response{Status: Infeasible, SolutionInfo: "infeasible row detected while encoding", WallTime: elapsed()}, nil
	}
	if params.NumWorkers > 1 {
		log.V(1).Infof("num_workers=%d requested; the pseudo-Boolean search runs on one goroutine", params.NumWorkers)
	}
	if params.LogSearchProgress {
		st := input.Stats()
		log.Infof("solving model: %d variables, %d constraints, %d pseudo-Boolean variables, %d rows",
			st.Variables, st.Constraints, enc.numPB, len(enc.constrs))
	}

	pb := solver.ParsePBConstrs(enc.constrs)
	if len(enc.costLits) > 0 {
		lits := make([]solver.Lit, len(enc.costLits))
		for i, l := range enc.costLits {
			lits[i] = solver.IntToLit(int32(l))
		}
		pb.SetCostFunc(lits, enc.costWeights)
	}
	s := solver.New(pb)

	var timeout <-chan time.Time
	if params.MaxTimeInSeconds > 0 {
		t := time.NewTimer(time.Duration(params.MaxTimeInSeconds * float64(time.Second)))
		defer t.Stop()
		timeout = t.C
	}

	// mu guards the collected solution and is held across the callback, so that no callback runs
	// once the search has been abandoned.
	var (
		mu           sync.Mutex
		last         []int64
		numSolutions int64
		abandoned    bool
	)
	results := make(chan solver.Result)
	collected := make(chan struct{})
	go func() {
		defer close(collected)
		for r := range results {
			if r.Status != solver.Sat {
				continue
			}
			sol := enc.solution(enc.values(r.Model))
			mu.Lock()
			if abandoned {
				mu.Unlock()
				continue
			}
			last = sol
			numSolutions++
			resp := &Response{Status: Feasible, Solution: sol, NumSolutions: numSolutions, WallTime: elapsed()}
			resp.ObjectiveValue = objectiveValue(input, sol)
			if params.LogSearchProgress {
				log.Infof("#%d solution objective=%v time=%.3fs", resp.NumSolutions, resp.ObjectiveValue, resp.WallTime)
			}
			if params.SolutionCallback != nil {
				params.SolutionCallback(resp)
			}
			mu.Unlock()
		}
	}()

	// gophersat does not poll its stop channel, so the search runs on its own goroutine and is
	// abandoned on interrupt or timeout. An abandoned search keeps running until it terminates;
	// its results are drained and dropped.
	done := make(chan solver.Result, 1)
	go func() { done <- s.Optimal(results, nil) }()

	var (
		res     solver.Result
		stopped bool
	)
	select {
	case res = <-done:
	case <-interrupt:
		stopped = true
	case <-timeout:
		stopped = true
	}
	if stopped {
		// A search that finished at the same moment is not cut short.
		select {
		case res = <-done:
			stopped = false
		default:
		}
	}

	var sol []int64
	resp := &Response{}
	if stopped {
		mu.Lock()
		abandoned = true
		sol = last
		resp.NumSolutions = numSolutions
		mu.Unlock()
		log.V(1).Infof("search abandoned after %.3fs with %d solutions", elapsed(), resp.NumSolutions)
		if sol != nil {
			resp.Status = Feasible
		} else {
			resp.Status = Unknown
			resp.SolutionInfo = "search stopped before a solution was found"
		}
	} else {
		<-collected
		resp.NumSolutions = numSolutions
		if res.Status == solver.Sat && len(res.Model) > 0 {
			sol = enc.solution(enc.values(res.Model))
		} else {
			sol = last
		}
		switch {
		case sol == nil && res.Status == solver.Unsat:
			resp.Status = Infeasible
		case sol == nil:
			resp.Status = Unknown
		case res.Status == solver.Sat:
			resp.Status = Optimal
		default:
			resp.Status = Feasible
		}
	}

	if sol != nil {
		if bad := input.Violations(sol); len(bad) > 0 {
			log.Errorf("backend returned an assignment violating %d constraints (first: %d)", len(bad), bad[0])
			resp.Status = Unknown
			resp.SolutionInfo = fmt.Sprintf("assignment violates constraint %d", bad[0])
			sol = nil
		}
	}
	if sol != nil {
		resp.Solution = sol
		if resp.NumSolutions == 0 {
			resp.NumSolutions = 1
		}
		resp.ObjectiveValue = objectiveValue(input, sol)
	}
	resp.BestObjectiveBound = objectiveBound(input)
	if resp.Status == Optimal {
		resp.BestObjectiveBound = resp.ObjectiveValue
	}
	resp.WallTime = elapsed()
	if params.LogSearchProgress {
		log.Infof("search finished: status=%v objective=%v bound=%v time=%.3fs",
			resp.Status, resp.ObjectiveValue, resp.BestObjectiveBound, resp.WallTime)
	}

	return resp, nil
}

func objectiveValue(m *Model, sol []int64) float64 {
	o := m.Objective
	if o == nil {
		return 0
	}
	v := o.Offset
	for i, ind := range o.Vars {
		v += o.Coeffs[i] * sol[ind]
	}
	return float64(o.scaling() * v)
}

// objectiveBound returns the bound implied by variable domains alone.
func objectiveBound(m *Model) float64 {
	o := m.Objective
	if o == nil {
		return 0
	}
	v := o.Offset
	for i, ind := range o.Vars {
		dom := m.Variables[ind].Domain
		lo, hi := dom[0], dom[len(dom)-1]
		v += min(o.Coeffs[i]*lo, o.Coeffs[i]*hi)
	}
	return float64(o.scaling() * v)
}

// Violations returns the indices of the constraints (and, as negative values -1-i, of the
// variables) that `sol` does not satisfy.
func (m *Model) Violations(sol []int64) []int {
	var bad []int
	if len(sol) != len(m.Variables) {
		return []int{-1}
	}
	for i, v := range m.Variables {
		d, err := FromFlatIntervals(v.Domain)
		if err != nil || !d.Contains(sol[i]) {
			bad = append(bad, -1-i)
		}
	}
	lit := func(l VarIndex) bool {
		if l < 0 {
			return sol[l.positiveIndex()] == 0
		}
		return sol[l] != 0
	}
	for ci, ct := range m.Constraints {
		enforced := true
		for _, l := range ct.EnforcementLiterals {
			enforced = enforced && lit(l)
		}
		if !enforced {
			continue
		}
		count := 0
		for _, l := range ct.Literals {
			if lit(l) {
				count++
			}
		}
		ok := true
		switch ct.Kind {
		case KindBoolOr:
			ok = count >= 1
		case KindBoolAnd:
			ok = count == len(ct.Literals)
		case KindAtMostOne:
			ok = count <= 1
		case KindExactlyOne:
			ok = count == 1
		case KindLinear:
			var sum int64
			for i, ind := range ct.Linear.Vars {
				sum += ct.Linear.Coeffs[i] * sol[ind]
			}
			d, err := FromFlatIntervals(ct.Linear.Domain)
			ok = err == nil && d.Contains(sum)
		}
		if !ok {
			bad = append(bad, ci)
		}
	}
	return bad
}

// SolutionBooleanValue returns the value of BoolVar `bv` in the response.
func SolutionBooleanValue(r *Response, bv BoolVar) bool {
	return bv.evaluateSolutionValue(r) != 0
}

// SolutionIntegerValue returns the value of LinearArgument `la` in the response.
func SolutionIntegerValue(r *Response, la LinearArgument) int64 {
	return la.evaluateSolutionValue(r)
}
