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

// Package report renders a run result as a JSON document.
package report

import (
	"os"

	"github.com/dentaplan/vacations/solve"
	"github.com/dentaplan/vacations/vacation"
	"github.com/samber/lo"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// New returns the report of r.
func New(r *solve.Result) (*structpb.Struct, error) {
	m := map[string]any{
		"run_id":          r.RunID,
		"status":          r.Status.String(),
		"cancelled":       r.Cancelled,
		"raw_score":       r.Objective,
		"quality":         r.Quality,
		"theoretical_max": r.TheoreticalMax,
		"bound":           r.Bound,
		"assignments":     len(r.Assignments),
		"build_seconds":   r.BuildTime.Seconds(),
		"solve_seconds":   r.SolveTime.Seconds(),
		"diagnostics": lo.Map(r.Diagnostics, func(d vacation.Diagnostic, _ int) any {
			return map[string]any{
				"kind":        d.Kind.String(),
				"student":     d.Student,
				"code":        d.Code,
				"discipline":  d.Discipline,
				"name":        d.Name,
				"quota":       d.Quota,
				"theoretical": d.Theoretical,
				"effective":   d.Effective,
			}
		}),
		"suspects": lo.Map(r.Suspects, func(f vacation.Family, _ int) any { return string(f) }),
		"fill": lo.Map(r.Stats.Fill, func(f solve.DisciplineFill, _ int) any {
			return map[string]any{"discipline": f.Discipline, "name": f.Name, "assigned": f.Assigned, "seats": f.Seats}
		}),
		"students": lo.Map(r.Stats.Students, func(s solve.StudentTotal, _ int) any {
			return map[string]any{"student": s.Student, "code": s.Code, "assigned": s.Assigned}
		}),
		"quota": map[string]any{
			"terms":     r.Stats.QuotaTerms,
			"successes": r.Stats.QuotaSuccesses,
		},
		"forced_zero": r.Stats.ForcedZero,
	}
	if r.Err != nil {
		m["error"] = r.Err.Error()
	}
	if r.Compiled != nil {
		m["families"] = lo.MapEntries(r.Compiled.FamilyCounts, func(f vacation.Family, n int) (string, any) {
			return string(f), n
		})
		terms := make(map[string]any, len(r.Compiled.Max.ByTerm))
		for t, v := range r.Compiled.Max.ByTerm {
			terms[string(t)] = v
		}
		m["theoretical_max_by_term"] = terms
	}
	return structpb.NewStruct(m)
}

// Marshal returns the indented JSON report of r.
func Marshal(r *solve.Result) ([]byte, error) {
	s, err := New(r)
	if err != nil {
		return nil, err
	}
	return protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(s)
}

// Write writes the JSON report of r to path.
func Write(path string, r *solve.Result) error {
	b, err := Marshal(r)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
