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

// Package solve runs a vacation instance through model building and solving, and reports the
// outcome together with statistics, diagnostics and progress events.
package solve

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dentaplan/vacations/cpmodel"
	"github.com/dentaplan/vacations/vacation"
	log "github.com/golang/glog"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ErrModelInvalid is wrapped by Result.Err when the backend rejects the compiled model.
var ErrModelInvalid = errors.New("model rejected by the solver")

// Options configures a run.
type Options struct {
	Build vacation.Options
	// TimeLimit bounds the search; zero means no limit.
	TimeLimit time.Duration
	Workers   int32
	LogSearch bool
	// Heartbeat is the period of EventHeartbeat; zero disables heartbeats.
	Heartbeat time.Duration
	// ProbeInfeasible re-solves an infeasible model once per hard family, with that family
	// disabled, to name the suspects.
	ProbeInfeasible bool
	ProbeTimeLimit  time.Duration
}

// DefaultOptions returns the reference build options, a 60 second limit and a 5 second heartbeat.
func DefaultOptions() Options {
	return Options{
		Build:           vacation.DefaultOptions(),
		TimeLimit:       60 * time.Second,
		Workers:         8,
		Heartbeat:       5 * time.Second,
		ProbeInfeasible: true,
		ProbeTimeLimit:  10 * time.Second,
	}
}

// Orchestrator drives runs. The zero value solves with DefaultEngine and the zero Options.
type Orchestrator struct {
	Engine  Engine
	Options Options
	// Progress, when set, receives solution and heartbeat events. It is called from background
	// goroutines and must not block.
	Progress func(Event)
	Metrics  *Metrics

	state atomic.Int32
}

// State returns the state of the current or last run.
func (o *Orchestrator) State() Status {
	return Status(o.state.Load())
}

func (o *Orchestrator) engine() Engine {
	if o.Engine == nil {
		return DefaultEngine
	}
	return o.Engine
}

func (o *Orchestrator) transition(r *Result, s Status) {
	o.state.Store(int32(s))
	r.Trace = append(r.Trace, s)
	log.V(1).Infof("run %s: %v", r.RunID, s)
}

func (o *Orchestrator) finish(r *Result, s Status) *Result {
	r.Status = s
	o.transition(r, s)
	o.Metrics.observeRun(r)
	return r
}

// Run builds and solves inst. Cancelling ctx stops the search; a solution found before that is
// returned as StatusFeasible.
func (o *Orchestrator) Run(ctx context.Context, inst *vacation.Instance) *Result {
	r := &Result{RunID: uuid.NewString()}
	o.transition(r, StatusIdle)

	o.transition(r, StatusBuilding)
	compiled, err := vacation.Build(inst, o.Options.Build)
	if err != nil {
		r.Err = fmt.Errorf("building model: %w", err)
		log.Errorf("run %s: %v", r.RunID, r.Err)
		return o.finish(r, StatusError)
	}
	r.Compiled = compiled
	r.BuildTime = compiled.BuildTime
	r.Diagnostics = compiled.Diagnostics
	r.TheoreticalMax = compiled.Max.Total
	o.Metrics.observeBuild(r)

	if err := ctx.Err(); err != nil {
		r.Cancelled = true
		r.Err = err
		return o.finish(r, StatusTimeout)
	}

	o.transition(r, StatusSolving)
	start := time.Now()
	res, err := o.solve(ctx, r.RunID, compiled.Model, o.Options.TimeLimit, true)
	r.SolveTime = time.Since(start)
	r.Cancelled = ctx.Err() != nil
	if err != nil {
		r.Err = fmt.Errorf("solving model: %w", err)
		log.Errorf("run %s: %v", r.RunID, r.Err)
		return o.finish(r, StatusError)
	}
	r.Response = res

	status := fromSolver(res.Status)
	if status == StatusError {
		r.Err = fmt.Errorf("%w: %s", ErrModelInvalid, res.SolutionInfo)
	}
	r.Bound = res.BestObjectiveBound
	if status.HasSolution() {
		r.Assignments = compiled.Assigned(res)
		r.Objective = res.ObjectiveValue
		r.Quality = vacation.Quality(res.ObjectiveValue, compiled.Max.Total)
	}
	r.Stats = computeStats(compiled, res, r.Assignments)

	if status == StatusInfeasible && o.Options.ProbeInfeasible && !r.Cancelled {
		r.Suspects = o.probe(ctx, inst, compiled)
		log.Warningf("run %s: infeasible, suspected families: %v", r.RunID, r.Suspects)
	}
	log.Infof("run %s: %v objective=%v bound=%v max=%d quality=%.1f assignments=%d in %v",
		r.RunID, status, r.Objective, r.Bound, r.TheoreticalMax, r.Quality, len(r.Assignments), r.SolveTime)
	return o.finish(r, status)
}

// solve runs the engine. Observed solves feed the metrics and the progress sink, with a heartbeat
// next to the engine.
func (o *Orchestrator) solve(ctx context.Context, runID string, m *cpmodel.Model, limit time.Duration, observed bool) (*cpmodel.Response, error) {
	p := newProgress()
	var sink func(Event)
	if observed {
		sink = o.Progress
	}
	params := &cpmodel.Parameters{
		MaxTimeInSeconds:  limit.Seconds(),
		NumWorkers:        o.Options.Workers,
		LogSearchProgress: o.Options.LogSearch,
		SolutionCallback: func(res *cpmodel.Response) {
			p.record(res.ObjectiveValue)
			if observed {
				o.Metrics.observeSolution()
			}
			if sink != nil {
				sink(p.event(EventSolution, runID))
			}
		},
	}

	var res *cpmodel.Response
	done := make(chan struct{})
	g := new(errgroup.Group)
	g.Go(func() error {
		defer close(done)
		var err error
		res, err = o.engine().Solve(m, params, ctx.Done())
		return err
	})
	if sink != nil && o.Options.Heartbeat > 0 {
		g.Go(func() error {
			t := time.NewTicker(o.Options.Heartbeat)
			defer t.Stop()
			for {
				select {
				case <-done:
					return nil
				case <-t.C:
					sink(p.event(EventHeartbeat, runID))
				}
			}
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if res == nil {
		return nil, errors.New("engine returned no response")
	}
	return res, nil
}

// probe re-solves inst once per hard family that emitted constraints, with that family
// disabled, and returns the families whose removal makes the model feasible.
func (o *Orchestrator) probe(ctx context.Context, inst *vacation.Instance, compiled *vacation.Compiled) []vacation.Family {
	var suspects []vacation.Family
	for _, f := range vacation.HardFamilies(o.Options.Build) {
		if compiled.FamilyCounts[f] == 0 {
			continue
		}
		if ctx.Err() != nil {
			break
		}
		c, err := vacation.Build(inst, o.Options.Build.Without(f))
		if err != nil {
			log.Warningf("probing without %s: %v", f, err)
			continue
		}
		res, err := o.solve(ctx, "probe-"+string(f), c.Model, o.Options.ProbeTimeLimit, false)
		if err != nil {
			log.Warningf("probing without %s: %v", f, err)
			continue
		}
		log.V(1).Infof("probing without %s: %v", f, res.Status)
		if fromSolver(res.Status).HasSolution() {
			suspects = append(suspects, f)
		}
	}
	return suspects
}
