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
	"sort"
	"strings"
	"time"

	"github.com/dentaplan/vacations/cpmodel"
	log "github.com/golang/glog"
)

// Family names a group of constraints emitted by one pass.
type Family string

// Constraint families.
const (
	FamilyCapacity     Family = "capacity"
	FamilyUniqueness   Family = "uniqueness"
	FamilyWeeklyCap    Family = "weekly-cap"
	FamilyFill         Family = "fill"
	FamilyBinome       Family = "binome"
	FamilyQuota        Family = "quota"
	FamilySmoothing    Family = "smoothing"
	FamilyFrequency    Family = "frequency"
	FamilySemester     Family = "semester"
	FamilyDiversity    Family = "diversity"
	FamilyContinuity   Family = "continuity"
	FamilySubstitution Family = "substitution"
	// FamilyBonus links the soft bonus Booleans to the assignments they reward.
	FamilyBonus Family = "bonus"
)

// Families lists every family in pass order.
var Families = []Family{
	FamilyCapacity, FamilyUniqueness, FamilyWeeklyCap, FamilyFill, FamilyBinome, FamilyQuota,
	FamilySmoothing, FamilyFrequency, FamilySemester, FamilyDiversity, FamilyContinuity,
	FamilySubstitution, FamilyBonus,
}

// ParseFamily parses a family name.
func ParseFamily(s string) (Family, error) {
	v := Family(strings.ToLower(strings.TrimSpace(s)))
	for _, f := range Families {
		if f == v {
			return f, nil
		}
	}
	return "", fmt.Errorf("constraint family %q: %w", s, ErrUnknownValue)
}

// HardFamilies returns the families that can make a model infeasible under opts.
func HardFamilies(opts Options) []Family {
	var out []Family
	for _, f := range Families {
		switch f {
		case FamilyBonus:
			continue
		case FamilyQuota:
			if opts.QuotaMode != QuotaHard {
				continue
			}
		}
		out = append(out, f)
	}
	return out
}

// QuotaMode selects the quota profile.
type QuotaMode int8

// Quota profiles.
const (
	// QuotaSoft rewards satisfied assignments and reaching the quota, and penalises excess.
	QuotaSoft QuotaMode = iota
	// QuotaHard requires every quota with candidates as a minimum.
	QuotaHard
)

func (m QuotaMode) String() string {
	if m == QuotaHard {
		return "hard"
	}
	return "soft"
}

// ParseQuotaMode parses "soft" or "hard".
func ParseQuotaMode(s string) (QuotaMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "soft":
		return QuotaSoft, nil
	case "hard":
		return QuotaHard, nil
	}
	return QuotaSoft, fmt.Errorf("quota mode %q: %w", s, ErrUnknownValue)
}

// Options configures a build.
type Options struct {
	QuotaMode QuotaMode
	Weights   Weights
	// SmoothingThreshold is the quota from which the wide spread applies.
	SmoothingThreshold   int
	SmoothingWideDelta   int
	SmoothingNarrowDelta int
	// EscalateDiagnostics turns quota diagnostics into a build failure.
	EscalateDiagnostics bool
	// Disabled families are not emitted.
	Disabled map[Family]bool
}

// DefaultOptions returns the reference options: soft quotas, default weights and a spread of 5
// from a quota of 10, 2 below.
func DefaultOptions() Options {
	return Options{
		QuotaMode:            QuotaSoft,
		Weights:              DefaultWeights(),
		SmoothingThreshold:   10,
		SmoothingWideDelta:   5,
		SmoothingNarrowDelta: 2,
	}
}

// Without returns a copy of o with family f disabled.
func (o Options) Without(f Family) Options {
	disabled := make(map[Family]bool, len(o.Disabled)+1)
	for k, v := range o.Disabled {
		disabled[k] = v
	}
	disabled[f] = true
	o.Disabled = disabled
	return o
}

// Compiled is the result of a build.
type Compiled struct {
	Instance *Instance
	Options  Options
	Model    *cpmodel.Model
	Table    *SlotTable
	Vars     *Variables
	Index    *Index
	// Quotas holds the accounting of every pair with a positive quota and a candidate.
	Quotas map[StudentDiscipline]*QuotaTerm
	// FamilyCounts is the number of constraints emitted per family.
	FamilyCounts map[Family]int
	// ForcedZero lists the variables the binôme pass constrained to 0.
	ForcedZero  []Key
	Diagnostics []Diagnostic
	Max         TheoreticalMax
	// BuildTime is the wall time of Build.
	BuildTime time.Duration
}

type compiler struct {
	cp       *cpmodel.Builder
	inst     *Instance
	opts     Options
	table    *SlotTable
	el       *Eligibility
	vars     *Variables
	idx      *Index
	students map[int]*Student
	obj      *objective
	out      *Compiled
}

func (c *compiler) enabled(f Family) bool {
	return !c.opts.Disabled[f]
}

func (c *compiler) add(f Family, ct cpmodel.Constraint) cpmodel.Constraint {
	c.out.FamilyCounts[f]++
	return ct.WithName(string(f))
}

func (c *compiler) forceZero(k Key, x cpmodel.BoolVar) {
	c.add(FamilyBinome, c.cp.AddBoolAnd(x.Not()))
	c.out.ForcedZero = append(c.out.ForcedZero, k)
}

// Build validates inst and compiles it into a model maximising the weighted objective.
func Build(inst *Instance, opts Options) (*Compiled, error) {
	start := time.Now()
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	table, err := NewSlotTable(inst.Weeks)
	if err != nil {
		return nil, err
	}

	c := &compiler{
		cp:       cpmodel.NewCpModelBuilder(),
		inst:     inst,
		opts:     opts,
		table:    table,
		el:       NewEligibility(inst, table),
		students: make(map[int]*Student, len(inst.Students)),
		obj:      &objective{expr: cpmodel.NewLinearExpr()},
		out: &Compiled{
			Instance:     inst,
			Options:      opts,
			Table:        table,
			Quotas:       make(map[StudentDiscipline]*QuotaTerm),
			FamilyCounts: make(map[Family]int),
		},
	}
	for i := range inst.Students {
		c.students[inst.Students[i].ID] = &inst.Students[i]
	}

	c.vars = BuildVariables(c.cp, inst, table, c.el)
	c.idx = BuildIndex(c.vars, inst, table)
	log.V(1).Infof("%d slots, %d decision variables", table.Len(), c.vars.Len())

	passes := []struct {
		family Family
		run    func()
	}{
		{FamilyCapacity, c.capacityPass},
		{FamilyUniqueness, c.uniquenessPass},
		{FamilyWeeklyCap, c.weeklyCapPass},
		{FamilyFill, c.fillPass},
		{FamilyBinome, c.binomePass},
		{FamilyQuota, c.quotaPass},
		{FamilySmoothing, c.smoothingPass},
		{FamilyFrequency, c.frequencyPass},
		{FamilySemester, c.semesterPass},
		{FamilyDiversity, c.diversityPass},
		{FamilyContinuity, c.continuityPass},
		{FamilySubstitution, c.substitutionPass},
		{FamilyBonus, c.preferencePass},
		{FamilyBonus, c.clusteringPass},
	}
	for _, p := range passes {
		// The quota pass always runs: it records diagnostics and quota accounting.
		if p.family != FamilyQuota && !c.enabled(p.family) {
			log.V(1).Infof("pass %s disabled", p.family)
			continue
		}
		before := c.cp.NumConstraints()
		p.run()
		log.V(1).Infof("pass %s: %d constraints", p.family, c.cp.NumConstraints()-before)
	}

	if n := len(c.out.Diagnostics); n > 0 && opts.EscalateDiagnostics {
		return nil, fmt.Errorf("%w: %d student/discipline pairs, first: %v", ErrUnsatisfiableQuota, n, c.out.Diagnostics[0])
	}

	c.out.Max = ComputeTheoreticalMax(inst, opts, func(student, discipline int) int {
		return len(c.idx.ByStudentDiscipline[StudentDiscipline{student, discipline}])
	})
	c.cp.Maximize(c.obj.expr)

	m, err := c.cp.Model()
	if err != nil {
		return nil, fmt.Errorf("building model: %w", err)
	}
	c.out.Model = m
	c.out.Vars = c.vars
	c.out.Index = c.idx
	c.out.BuildTime = time.Since(start)
	st := m.Stats()
	log.Infof("model built in %v: %d variables (%d decision), %d constraints, theoretical maximum %d",
		c.out.BuildTime, st.Variables, c.vars.Len(), st.Constraints, c.out.Max.Total)
	return c.out, nil
}

// Assigned returns the keys whose variable is true in res, in creation order.
func (cm *Compiled) Assigned(res *cpmodel.Response) []Key {
	if res == nil || len(res.Solution) == 0 {
		return nil
	}
	var out []Key
	for _, k := range cm.Vars.keys {
		if cpmodel.SolutionBooleanValue(res, cm.Vars.vars[k]) {
			out = append(out, k)
		}
	}
	return out
}

// SortedFamilyCounts returns the families with at least one constraint, in pass order.
func (cm *Compiled) SortedFamilyCounts() []Family {
	var out []Family
	for f, n := range cm.FamilyCounts {
		if n > 0 {
			out = append(out, f)
		}
	}
	order := make(map[Family]int, len(Families))
	for i, f := range Families {
		order[f] = i
	}
	sort.Slice(out, func(i, j int) bool { return order[out[i]] < order[out[j]] })
	return out
}
