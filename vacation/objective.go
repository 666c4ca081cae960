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
)

// Weights are the coefficients of the objective terms. Bonus weights are expected to be
// non-negative; QuotaExcess is a penalty and is expected to be negative.
type Weights struct {
	// QuotaSatisfied rewards each assignment counted towards a quota.
	QuotaSatisfied int64
	// QuotaExcess applies to each assignment beyond a quota.
	QuotaExcess int64
	// Success rewards each (student, discipline) pair reaching its quota exactly.
	Success int64
	// Assigned rewards each assignment in the hard quota profile.
	Assigned int64
	// DayPreference rewards each assignment on the student's preferred weekday.
	DayPreference int64
	// Priority rewards each assignment of a first, second and third priority level.
	Priority [3]int64
	// PairedDay rewards each week where both days of a discipline day pair are assigned.
	PairedDay int64
	// SameDay rewards a morning and afternoon assignment on the same day.
	SameDay int64
	// AdjacentDay rewards assignments on two consecutive weekdays of the same week.
	AdjacentDay int64
}

// DefaultWeights returns the reference weights. Success dominates, then quota fill, then the
// excess penalty, then the soft bonuses.
func DefaultWeights() Weights {
	return Weights{
		QuotaSatisfied: 1000,
		QuotaExcess:    -500,
		Success:        5000,
		Assigned:       1000,
		DayPreference:  50,
		Priority:       [3]int64{30, 20, 10},
		PairedDay:      40,
		SameDay:        40,
		AdjacentDay:    0,
	}
}

// Term names an objective term in theoretical maximum breakdowns.
type Term string

// Objective terms.
const (
	TermQuotaSatisfied Term = "quota_satisfied"
	TermSuccess        Term = "success"
	TermAssigned       Term = "assigned"
	TermDayPreference  Term = "day_preference"
	TermPriority       Term = "priority"
	TermPairedDay      Term = "paired_day"
	TermSameDay        Term = "same_day"
	TermAdjacentDay    Term = "adjacent_day"
)

type objective struct {
	expr *cpmodel.LinearExpr
}

func (o *objective) add(la cpmodel.LinearArgument, w int64) {
	if w != 0 {
		o.expr.AddTerm(la, w)
	}
}

// TheoreticalMax is the best objective value reachable under ideal conditions: every quota met
// exactly, no excess and every soft bonus triggered as often as the quota allows. It only
// depends on the instance, the options and the number of candidate slots per pair.
type TheoreticalMax struct {
	Total  int64
	ByTerm map[Term]int64
}

// ComputeTheoreticalMax sums, over every (student, discipline) pair with a positive quota q and
// at least one candidate slot, the best value of each term:
//
//	q*QuotaSatisfied + Success   (soft profile)
//	q*Assigned                   (hard profile)
//	q*DayPreference              (day preference considered and a preferred day set)
//	q*Priority[tier]             (prioritised level)
//	floor(q/2)*PairedDay         (discipline has day pairs)
//	floor(q/2)*SameDay           (same-day clustering rewarded)
//	max(q-1, 0)*AdjacentDay      (adjacent days rewarded)
//
// A bonus for every student of a discipline reaching their quota at once is not part of the
// objective, so it is not part of the maximum either.
func ComputeTheoreticalMax(inst *Instance, opts Options, candidates func(student, discipline int) int) TheoreticalMax {
	w := opts.Weights
	tm := TheoreticalMax{ByTerm: make(map[Term]int64)}
	add := func(t Term, v int64) {
		if v > 0 {
			tm.ByTerm[t] += v
			tm.Total += v
		}
	}
	for di := range inst.Disciplines {
		d := &inst.Disciplines[di]
		for si := range inst.Students {
			s := &inst.Students[si]
			q := int64(d.QuotaFor(s.Level))
			if q <= 0 || candidates(s.ID, d.ID) == 0 {
				continue
			}
			if opts.QuotaMode == QuotaHard {
				add(TermAssigned, q*w.Assigned)
			} else {
				add(TermQuotaSatisfied, q*w.QuotaSatisfied)
				add(TermSuccess, w.Success)
			}
			if d.DayPreference && s.PreferredDay.Valid() {
				add(TermDayPreference, q*w.DayPreference)
			}
			if t := d.PriorityTier(s.Level); t > 0 {
				add(TermPriority, q*w.Priority[t-1])
			}
			if len(d.DayPairs) > 0 {
				add(TermPairedDay, q/2*w.PairedDay)
			}
			if d.SameDay {
				add(TermSameDay, q/2*w.SameDay)
			}
			if d.AdjacentDays {
				add(TermAdjacentDay, max(q-1, 0)*w.AdjacentDay)
			}
		}
	}
	return tm
}

// Quality normalises a raw objective value onto 0..100 against the theoretical maximum.
func Quality(raw float64, maximum int64) float64 {
	if maximum <= 0 {
		return 0
	}
	q := 100 * raw / float64(maximum)
	switch {
	case q < 0:
		return 0
	case q > 100:
		return 100
	}
	return q
}

// preferencePass rewards assignments on preferred days and of prioritised levels, up to the quota
// of each pair.
func (c *compiler) preferencePass() {
	w := c.opts.Weights
	for di := range c.inst.Disciplines {
		d := &c.inst.Disciplines[di]
		for si := range c.inst.Students {
			s := &c.inst.Students[si]
			term, ok := c.out.Quotas[StudentDiscipline{s.ID, d.ID}]
			if !ok {
				continue
			}
			svs := c.idx.ByStudentDiscipline[StudentDiscipline{s.ID, d.ID}]
			name := fmt.Sprintf("s%d_d%d", s.ID, d.ID)
			if d.DayPreference && s.PreferredDay.Valid() {
				var pref []cpmodel.BoolVar
				for _, sv := range svs {
					if c.table.Slot(sv.Slot).Day == s.PreferredDay {
						pref = append(pref, sv.Var)
					}
				}
				c.capped(TermDayPreference, name, pref, term.Quota, w.DayPreference)
			}
			if tier := d.PriorityTier(s.Level); tier > 0 {
				c.capped(TermPriority, name, boolVars(svs), term.Quota, w.Priority[tier-1])
			}
		}
	}
}

// clusteringPass rewards paired days, same-day and adjacent-day assignments of every pair with a
// quota. Each bonus is capped at what the quota can earn: q/2 pairs of days and q-1 adjacencies.
func (c *compiler) clusteringPass() {
	w := c.opts.Weights
	for di := range c.inst.Disciplines {
		d := &c.inst.Disciplines[di]
		pairs := len(d.DayPairs) > 0 && w.PairedDay != 0
		same := d.SameDay && w.SameDay != 0
		adjacent := d.AdjacentDays && w.AdjacentDay != 0
		if !pairs && !same && !adjacent {
			continue
		}
		for _, s := range c.inst.Students {
			term, ok := c.out.Quotas[StudentDiscipline{s.ID, d.ID}]
			if !ok {
				continue
			}
			var paired, sameDay, adjacentDays []cpmodel.BoolVar
			for pos := 0; pos < c.table.NumWeeks(); pos++ {
				week := c.idx.Week(s.ID, d.ID, pos)
				if len(week) < 2 {
					continue
				}
				var days [NumWeekdays][]cpmodel.BoolVar
				for _, sv := range week {
					day := c.table.Slot(sv.Slot).Day.offset()
					days[day] = append(days[day], sv.Var)
				}
				name := fmt.Sprintf("s%d_d%d_w%d", s.ID, d.ID, c.table.Week(pos))
				if pairs {
					for _, p := range d.DayPairs {
						paired = c.bothDays(paired, TermPairedDay, fmt.Sprintf("pair%v%v_%s", p.First, p.Second, name), days[p.First.offset()], days[p.Second.offset()])
					}
				}
				if same {
					for day, xs := range days {
						if len(xs) == 2 {
							sameDay = c.bothDays(sameDay, TermSameDay, fmt.Sprintf("same%d_%s", day, name), xs[:1], xs[1:])
						}
					}
				}
				if adjacent {
					for day := 0; day+1 < NumWeekdays; day++ {
						adjacentDays = c.bothDays(adjacentDays, TermAdjacentDay, fmt.Sprintf("adj%d_%s", day, name), days[day], days[day+1])
					}
				}
			}
			name := fmt.Sprintf("s%d_d%d", s.ID, d.ID)
			c.capped(TermPairedDay, name, paired, term.Quota/2, w.PairedDay)
			c.capped(TermSameDay, name, sameDay, term.Quota/2, w.SameDay)
			c.capped(TermAdjacentDay, name, adjacentDays, term.Quota-1, w.AdjacentDay)
		}
	}
}

// bothDays appends to bonuses a Boolean that can only be true when both a and b carry an
// assignment.
func (c *compiler) bothDays(bonuses []cpmodel.BoolVar, t Term, name string, a, b []cpmodel.BoolVar) []cpmodel.BoolVar {
	if len(a) == 0 || len(b) == 0 {
		return bonuses
	}
	bonus := c.cp.NewBoolVar().WithName(string(t) + "_" + name)
	c.add(FamilyBonus, c.cp.AddBoolOr(a...).OnlyEnforceIf(bonus))
	c.add(FamilyBonus, c.cp.AddBoolOr(b...).OnlyEnforceIf(bonus))
	return append(bonuses, bonus)
}

// capped adds weight*min(sum(xs), limit) to the objective. Penalties are not capped.
func (c *compiler) capped(t Term, name string, xs []cpmodel.BoolVar, limit int, weight int64) {
	if weight == 0 || len(xs) == 0 {
		return
	}
	if weight < 0 || len(xs) <= limit {
		for _, x := range xs {
			c.obj.add(x, weight)
		}
		return
	}
	if limit <= 0 {
		return
	}
	hits := c.cp.NewIntVar(0, int64(limit)).WithName(string(t) + "_" + name)
	c.add(FamilyBonus, c.cp.AddLessOrEqual(hits, sum(xs)))
	c.obj.add(hits, weight)
}
