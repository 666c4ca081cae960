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
	"sort"
	"time"

	"github.com/dentaplan/vacations/cpmodel"
	"github.com/dentaplan/vacations/vacation"
	"github.com/samber/lo"
)

// Result is the outcome of a run. Every terminal status carries what is needed to act on it:
// Suspects for Infeasible, Bound for Timeout and Feasible, Objective and Quality whenever a
// solution exists, Err for Error.
type Result struct {
	RunID  string
	Status Status
	Err    error
	// Trace lists every state the run went through, from StatusIdle to the terminal one.
	Trace []Status
	// Cancelled is set when the caller's context stopped the search.
	Cancelled bool

	Compiled *vacation.Compiled
	Response *cpmodel.Response

	Assignments    []vacation.Key
	Objective      float64
	Bound          float64
	TheoreticalMax int64
	Quality        float64
	Diagnostics    []vacation.Diagnostic
	// Suspects lists the hard families whose removal alone restores feasibility.
	Suspects []vacation.Family
	Stats    Stats

	BuildTime time.Duration
	SolveTime time.Duration
}

// DisciplineFill compares the assignments of a discipline with its seats over the rotation.
type DisciplineFill struct {
	Discipline int
	Name       string
	Assigned   int
	Seats      int
}

// StudentTotal is the number of assignments of a student over all disciplines.
type StudentTotal struct {
	Student  int
	Code     string
	Assigned int
}

// Stats summarises a solution.
type Stats struct {
	Fill     []DisciplineFill
	Students []StudentTotal
	// QuotaTerms is the number of (student, discipline) pairs with a quota and a candidate.
	QuotaTerms int
	// QuotaSuccesses counts the pairs whose assignments reach the quota.
	QuotaSuccesses int
	ForcedZero     int
}

func computeStats(c *vacation.Compiled, res *cpmodel.Response, assigned []vacation.Key) Stats {
	inst := c.Instance
	byDiscipline := lo.GroupBy(assigned, func(k vacation.Key) int { return k.Discipline })
	byStudent := lo.GroupBy(assigned, func(k vacation.Key) int { return k.Student })
	weeks := c.Table.NumWeeks()

	st := Stats{
		Fill: lo.Map(inst.Disciplines, func(d vacation.Discipline, _ int) DisciplineFill {
			seats := 0
			for p := 0; p < vacation.NumPatterns; p++ {
				seats += d.EffectiveCapacity(p)
			}
			return DisciplineFill{Discipline: d.ID, Name: d.Name, Assigned: len(byDiscipline[d.ID]), Seats: seats * weeks}
		}),
		Students: lo.Map(inst.Students, func(s vacation.Student, _ int) StudentTotal {
			return StudentTotal{Student: s.ID, Code: s.Code, Assigned: len(byStudent[s.ID])}
		}),
		QuotaTerms: len(c.Quotas),
		ForcedZero: len(c.ForcedZero),
	}
	if res != nil && len(res.Solution) > 0 {
		st.QuotaSuccesses = lo.CountBy(lo.Values(c.Quotas), func(t *vacation.QuotaTerm) bool {
			return cpmodel.SolutionIntegerValue(res, t.Total) >= int64(t.Quota)
		})
	}
	sort.Slice(st.Fill, func(i, j int) bool { return st.Fill[i].Discipline < st.Fill[j].Discipline })
	sort.Slice(st.Students, func(i, j int) bool { return st.Students[i].Student < st.Students[j].Student })
	return st
}
