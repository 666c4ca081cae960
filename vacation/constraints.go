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

import "github.com/dentaplan/vacations/cpmodel"

// capacityPass bounds the assignments of every (discipline, slot) by its effective capacity.
func (c *compiler) capacityPass() {
	for di := range c.inst.Disciplines {
		d := &c.inst.Disciplines[di]
		for i := 0; i < c.table.Len(); i++ {
			xs := c.idx.ByDisciplineSlot[DisciplineSlot{d.ID, i}]
			if len(xs) == 0 {
				continue
			}
			c.atMost(FamilyCapacity, xs, d.EffectiveCapacity(c.table.PatternOf(i)))
		}
	}
}

// uniquenessPass seats every student in at most one discipline per half-day.
func (c *compiler) uniquenessPass() {
	for _, s := range c.inst.Students {
		for i := 0; i < c.table.Len(); i++ {
			xs := c.idx.ByStudentSlot[StudentSlot{s.ID, i}]
			if len(xs) > 1 {
				c.add(FamilyUniqueness, c.cp.AddAtMostOne(xs...))
			}
		}
	}
}

// weeklyCapPass bounds the weekly assignments of a student in disciplines with a weekly cap.
func (c *compiler) weeklyCapPass() {
	for di := range c.inst.Disciplines {
		d := &c.inst.Disciplines[di]
		if d.WeeklyCap <= 0 {
			continue
		}
		for _, s := range c.inst.Students {
			for w := 0; w < c.table.NumWeeks(); w++ {
				c.atMost(FamilyWeeklyCap, boolVars(c.idx.Week(s.ID, d.ID, w)), d.WeeklyCap)
			}
		}
	}
}

// fillPass forces min(capacity, candidates) assignments at every slot of fill-to-capacity
// disciplines that has a candidate.
func (c *compiler) fillPass() {
	for di := range c.inst.Disciplines {
		d := &c.inst.Disciplines[di]
		if !d.FillToCapacity {
			continue
		}
		for i := 0; i < c.table.Len(); i++ {
			xs := c.idx.ByDisciplineSlot[DisciplineSlot{d.ID, i}]
			if len(xs) == 0 {
				continue
			}
			want := int64(min(d.EffectiveCapacity(c.table.PatternOf(i)), len(xs)))
			c.add(FamilyFill, c.cp.AddEquality(sum(xs), cpmodel.NewConstant(want)))
		}
	}
}

// frequencyPass allows one assignment per student in any window of Frequency consecutive weeks.
func (c *compiler) frequencyPass() {
	for di := range c.inst.Disciplines {
		d := &c.inst.Disciplines[di]
		if d.Frequency <= 1 {
			continue
		}
		c.slidingWindows(FamilyFrequency, d, d.Frequency, 1)
	}
}

// continuityPass caps assignments within any rolling window of Continuity.Window weeks.
func (c *compiler) continuityPass() {
	for di := range c.inst.Disciplines {
		d := &c.inst.Disciplines[di]
		if d.Continuity == nil {
			continue
		}
		c.slidingWindows(FamilyContinuity, d, d.Continuity.Window, d.Continuity.Limit)
	}
}

// slidingWindows emits `sum <= limit` over every run of `window` consecutive rotation weeks for
// every student of d. Rotations shorter than the window yield a single window.
func (c *compiler) slidingWindows(f Family, d *Discipline, window, limit int) {
	n := c.table.NumWeeks()
	window = min(window, n)
	for _, s := range c.inst.Students {
		if len(c.idx.ByStudentDiscipline[StudentDiscipline{s.ID, d.ID}]) <= limit {
			continue
		}
		for start := 0; start+window <= n; start++ {
			xs := c.idx.Weeks(s.ID, d.ID, start, start+window)
			if limit == 1 && len(xs) > 1 {
				c.add(f, c.cp.AddAtMostOne(xs...))
				continue
			}
			c.atMost(f, xs, limit)
		}
	}
}

// semesterPass caps the assignments of each half of the rotation separately.
func (c *compiler) semesterPass() {
	half := (c.table.NumWeeks() + 1) / 2
	for di := range c.inst.Disciplines {
		d := &c.inst.Disciplines[di]
		if len(d.Semester) == 0 {
			continue
		}
		for _, s := range c.inst.Students {
			split, ok := d.Semester[s.Level]
			if !ok || !d.Eligible(s.Level) {
				continue
			}
			c.atMost(FamilySemester, c.idx.Weeks(s.ID, d.ID, 0, half), split.First)
			c.atMost(FamilySemester, c.idx.Weeks(s.ID, d.ID, half, c.table.NumWeeks()), split.Second)
		}
	}
}

func sum(xs []cpmodel.BoolVar) *cpmodel.LinearExpr {
	return cpmodel.NewLinearExpr().AddBoolSum(xs...)
}

// atMost emits `sum(xs) <= k` unless it holds trivially.
func (c *compiler) atMost(f Family, xs []cpmodel.BoolVar, k int) {
	if len(xs) <= k {
		return
	}
	c.add(f, c.cp.AddLessOrEqual(sum(xs), cpmodel.NewConstant(int64(k))))
}
