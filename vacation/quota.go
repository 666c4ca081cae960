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

package vacation

import (
	"fmt"

	"github.com/dentaplan/vacations/cpmodel"
	log "github.com/golang/glog"
)

// DiagnosticKind classifies quota diagnostics.
type DiagnosticKind int8

// Diagnostic kinds.
const (
	// NoCandidates means a positive quota has no candidate slot at all.
	NoCandidates DiagnosticKind = iota
	// Shortfall means a positive quota exceeds the number of candidate slots.
	Shortfall
)

func (k DiagnosticKind) String() string {
	if k == NoCandidates {
		return "no-candidates"
	}
	return "shortfall"
}

// Diagnostic reports a (student, discipline) pair whose quota cannot be met by the available
// slots. Theoretical counts the open slots of the discipline; Effective counts the slots left
// after internships and coursework.
type Diagnostic struct {
	Kind        DiagnosticKind
	Student     int
	Code        string
	Discipline  int
	Name        string
	Quota       int
	Theoretical int
	Effective   int
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: student %d (%s) in discipline %d (%s) needs %d slots, %d available of %d open",
		d.Kind, d.Student, d.Code, d.Discipline, d.Name, d.Quota, d.Effective, d.Theoretical)
}

// QuotaTerm holds the accounting of one (student, discipline) pair with a positive quota.
// Satisfied and Excess split Total at the quota; Success is only set in the soft profile. None of
// them are set when the quota family is disabled.
type QuotaTerm struct {
	Quota      int
	Candidates int
	Total      *cpmodel.LinearExpr
	Satisfied  cpmodel.IntVar
	Excess     cpmodel.IntVar
	Success    cpmodel.BoolVar
}

// quotaPass emits the quota accounting of every (student, discipline) pair and records the
// diagnostics of pairs without enough candidates.
func (c *compiler) quotaPass() {
	w := c.opts.Weights
	for di := range c.inst.Disciplines {
		d := &c.inst.Disciplines[di]
		for si := range c.inst.Students {
			s := &c.inst.Students[si]
			q := d.QuotaFor(s.Level)
			if q <= 0 {
				continue
			}
			xs := boolVars(c.idx.ByStudentDiscipline[StudentDiscipline{s.ID, d.ID}])
			n := len(xs)
			if n < q {
				c.diagnose(s, d, q, n)
			}
			if n == 0 {
				continue
			}
			total := sum(xs)
			term := &QuotaTerm{Quota: q, Candidates: n, Total: total}
			c.out.Quotas[StudentDiscipline{s.ID, d.ID}] = term

			if !c.enabled(FamilyQuota) {
				continue
			}
			name := fmt.Sprintf("s%d_d%d", s.ID, d.ID)
			term.Satisfied = c.cp.NewIntVar(0, int64(q)).WithName("satisfied_" + name)
			term.Excess = c.cp.NewIntVar(0, int64(max(n-q, 0))).WithName("excess_" + name)
			c.add(FamilyQuota, c.cp.AddEquality(cpmodel.NewLinearExpr().AddSum(term.Satisfied, term.Excess), total))
			c.obj.add(term.Excess, w.QuotaExcess)
			if c.opts.QuotaMode == QuotaHard {
				c.add(FamilyQuota, c.cp.AddGreaterOrEqual(total, cpmodel.NewConstant(int64(q))))
				c.obj.add(term.Satisfied, w.Assigned)
				continue
			}

			term.Success = c.cp.NewBoolVar().WithName("success_" + name)
			c.add(FamilyQuota, c.cp.AddGreaterOrEqual(term.Satisfied, cpmodel.NewConstant(int64(q))).OnlyEnforceIf(term.Success))
			c.add(FamilyQuota, c.cp.AddLessOrEqual(term.Satisfied, cpmodel.NewConstant(int64(q-1))).OnlyEnforceIf(term.Success.Not()))
			c.obj.add(term.Satisfied, w.QuotaSatisfied)
			c.obj.add(term.Success, w.Success)
		}
	}
}

func (c *compiler) diagnose(s *Student, d *Discipline, q, n int) {
	diag := Diagnostic{
		Kind:        Shortfall,
		Student:     s.ID,
		Code:        s.Code,
		Discipline:  d.ID,
		Name:        d.Name,
		Quota:       q,
		Theoretical: c.el.OpenSlots(d),
		Effective:   n,
	}
	if n == 0 {
		diag.Kind = NoCandidates
	}
	log.Warningf("unsatisfiable quota: %v", diag)
	c.out.Diagnostics = append(c.out.Diagnostics, diag)
}

// smoothingPass sandwiches the totals of every student of a level between shared bounds whose
// spread is capped, per (level, discipline).
func (c *compiler) smoothingPass() {
	for di := range c.inst.Disciplines {
		d := &c.inst.Disciplines[di]
		for _, l := range d.Levels {
			q := d.QuotaFor(l)
			if q <= 0 {
				continue
			}
			var totals []*cpmodel.LinearExpr
			most := 0
			for si := range c.inst.Students {
				s := &c.inst.Students[si]
				if s.Level != l {
					continue
				}
				xs := c.idx.ByStudentDiscipline[StudentDiscipline{s.ID, d.ID}]
				if len(xs) == 0 {
					continue
				}
				totals = append(totals, sum(boolVars(xs)))
				most = max(most, len(xs))
			}
			if len(totals) < 2 {
				continue
			}
			delta := c.opts.SmoothingNarrowDelta
			if q >= c.opts.SmoothingThreshold {
				delta = c.opts.SmoothingWideDelta
			}
			name := fmt.Sprintf("%v_d%d", l, d.ID)
			lower := c.cp.NewIntVar(0, int64(most)).WithName("lower_" + name)
			upper := c.cp.NewIntVar(0, int64(most)).WithName("upper_" + name)
			for _, t := range totals {
				c.add(FamilySmoothing, c.cp.AddGreaterOrEqual(t, lower))
				c.add(FamilySmoothing, c.cp.AddLessOrEqual(t, upper))
			}
			spread := cpmodel.NewLinearExpr().Add(upper).AddTerm(lower, -1)
			c.add(FamilySmoothing, c.cp.AddLessOrEqual(spread, cpmodel.NewConstant(int64(delta))))
		}
	}
}
