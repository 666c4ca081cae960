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
	"testing"

	"github.com/dentaplan/vacations/cpmodel"
	"github.com/google/go-cmp/cmp"
)

// oneSlot returns a discipline open on Monday mornings only, with a quota of 1 for each level.
func oneSlot(capacity int, levels ...Level) Discipline {
	d := discipline(1, capacity, levels...)
	d.Open = openOnly(PatternIndex(Monday, Morning))
	for _, l := range levels {
		d.Quota[l] = 1
	}
	return d
}

func solveAssigned(t *testing.T, inst *Instance) (*Compiled, []Key) {
	t.Helper()
	c := mustBuild(t, inst, DefaultOptions())
	res := mustSolve(t, c)
	if res.Status != cpmodel.Optimal {
		t.Fatalf("Status = %v, want OPTIMAL", res.Status)
	}
	return c, c.Assigned(res)
}

func levelsOf(inst *Instance, keys []Key) map[Level]int {
	levels := make(map[int]Level)
	for _, s := range inst.Students {
		levels[s.ID] = s.Level
	}
	out := make(map[Level]int)
	for _, k := range keys {
		out[levels[k.Student]]++
	}
	return out
}

func TestDiversity_ExactlyOnePerLevel(t *testing.T) {
	d := oneSlot(4, DFASO1, DFASO2)
	d.Diversity = ExactlyOnePerLevel
	inst := &Instance{
		Weeks:       []int{10},
		Disciplines: []Discipline{d},
		Students:    []Student{student(1, DFASO1), student(2, DFASO1), student(3, DFASO2), student(4, DFASO2)},
	}
	_, got := solveAssigned(t, inst)
	if diff := cmp.Diff(map[Level]int{DFASO1: 1, DFASO2: 1}, levelsOf(inst, got)); diff != "" {
		t.Errorf("assignments per level returned with unexpected diff (-want+got):\n%s", diff)
	}
}

func TestDiversity_AtLeastTwoLevels(t *testing.T) {
	d := oneSlot(2, DFASO1, DFASO2)
	d.Diversity = AtLeastTwoLevels
	inst := &Instance{
		Weeks:       []int{10},
		Disciplines: []Discipline{d},
		Students:    []Student{student(1, DFASO1), student(2, DFASO1)},
	}
	if _, got := solveAssigned(t, inst); len(got) != 0 {
		t.Errorf("Assigned() with a single level = %v, want none", got)
	}

	inst.Students = append(inst.Students, student(3, DFASO2))
	_, got := solveAssigned(t, inst)
	if diff := cmp.Diff(map[Level]int{DFASO1: 1, DFASO2: 1}, levelsOf(inst, got)); diff != "" {
		t.Errorf("assignments per level returned with unexpected diff (-want+got):\n%s", diff)
	}
}

func TestDiversity_SingleLevelOnly(t *testing.T) {
	d := oneSlot(4, DFASO1, DFASO2)
	d.Diversity = SingleLevelOnly
	inst := &Instance{
		Weeks:       []int{10},
		Disciplines: []Discipline{d},
		Students:    []Student{student(1, DFASO1), student(2, DFASO2), student(3, DFASO2)},
	}
	_, got := solveAssigned(t, inst)
	want := []Key{{2, 1, 0}, {3, 1, 0}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Assigned() returned with unexpected diff (-want+got):\n%s", diff)
	}
}

func TestSubstitution_AbsentLevel(t *testing.T) {
	d := oneSlot(2, DFASO1, DFASO2)
	d.Quota = map[Level]int{}
	d.Substitution = &Substitution{From: DFASO1, To: DFASO2, Percent: 50}
	inst := &Instance{
		Weeks:       []int{10},
		Disciplines: []Discipline{d},
		Students:    []Student{student(1, DFASO1), student(2, DFASO2)},
		Calendar:    []CalendarBlock{{Level: DFASO1, Week: 10, Day: Monday, Half: Morning}},
	}
	c, got := solveAssigned(t, inst)
	if n := c.FamilyCounts[FamilySubstitution]; n != 1 {
		t.Errorf("substitution constraints = %d, want 1", n)
	}
	if diff := cmp.Diff([]Key{{2, 1, 0}}, got); diff != "" {
		t.Errorf("Assigned() returned with unexpected diff (-want+got):\n%s", diff)
	}
}

func TestSubstitution_ConditionalOnAbsence(t *testing.T) {
	d := oneSlot(2, DFASO1, DFASO2)
	d.Substitution = &Substitution{From: DFASO1, To: DFASO2, Percent: 50}
	inst := &Instance{
		Weeks:       []int{10},
		Disciplines: []Discipline{d},
		Students:    []Student{student(1, DFASO1), student(2, DFASO2)},
	}
	c, _ := solveAssigned(t, inst)
	if n := c.FamilyCounts[FamilySubstitution]; n != 3 {
		t.Errorf("substitution constraints = %d, want 3", n)
	}
}

func TestWindows(t *testing.T) {
	testCases := []struct {
		name   string
		weeks  []int
		modify func(*Discipline)
		quota  int
		family Family
		want   int
	}{
		{
			name:   "WeeklyCap",
			weeks:  []int{10},
			modify: func(d *Discipline) { d.Open = AllOpen(); d.WeeklyCap = 1 },
			quota:  3,
			family: FamilyWeeklyCap,
			want:   1,
		},
		{
			name:   "Frequency",
			weeks:  []int{10, 11},
			modify: func(d *Discipline) { d.Frequency = 2 },
			quota:  2,
			family: FamilyFrequency,
			want:   1,
		},
		{
			name:   "Continuity",
			weeks:  []int{10, 11, 12},
			modify: func(d *Discipline) { d.Continuity = &Continuity{Window: 2, Limit: 1} },
			quota:  3,
			family: FamilyContinuity,
			want:   2,
		},
		{
			name:   "Semester",
			weeks:  []int{10, 11, 12, 13},
			modify: func(d *Discipline) { d.Semester = map[Level]Split{DFASO1: {First: 1, Second: 0}} },
			quota:  4,
			family: FamilySemester,
			want:   1,
		},
	}
	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			d := oneSlot(1, DFASO1)
			d.Quota[DFASO1] = test.quota
			test.modify(&d)
			inst := &Instance{Weeks: test.weeks, Disciplines: []Discipline{d}, Students: []Student{student(1, DFASO1)}}
			c, got := solveAssigned(t, inst)
			if c.FamilyCounts[test.family] == 0 {
				t.Errorf("no %s constraint emitted", test.family)
			}
			if len(got) != test.want {
				t.Errorf("len(Assigned()) = %d, want %d", len(got), test.want)
			}
		})
	}
}

func TestClustering_SameDay(t *testing.T) {
	d := discipline(1, 1, DFASO1)
	d.Open = openOnly(PatternIndex(Monday, Morning), PatternIndex(Monday, Afternoon), PatternIndex(Tuesday, Morning))
	d.Quota[DFASO1] = 2
	d.SameDay = true
	inst := &Instance{Weeks: []int{10}, Disciplines: []Discipline{d}, Students: []Student{student(1, DFASO1)}}

	c := mustBuild(t, inst, DefaultOptions())
	if got, want := c.Max.Total, int64(7040); got != want {
		t.Errorf("Max.Total = %d, want %d", got, want)
	}
	res := mustSolve(t, c)
	if res.ObjectiveValue != 7040 {
		t.Errorf("ObjectiveValue = %v, want 7040", res.ObjectiveValue)
	}
	if diff := cmp.Diff([]Key{{1, 1, 0}, {1, 1, 1}}, c.Assigned(res)); diff != "" {
		t.Errorf("Assigned() returned with unexpected diff (-want+got):\n%s", diff)
	}
}

func TestPreference_PreferredDay(t *testing.T) {
	d := discipline(1, 1, DFASO1)
	d.Quota[DFASO1] = 1
	d.DayPreference = true
	s := student(1, DFASO1)
	s.PreferredDay = Thursday
	inst := &Instance{Weeks: []int{10}, Disciplines: []Discipline{d}, Students: []Student{s}}

	c := mustBuild(t, inst, DefaultOptions())
	res := mustSolve(t, c)
	got := c.Assigned(res)
	if len(got) != 1 || c.Table.Slot(got[0].Slot).Day != Thursday {
		t.Errorf("Assigned() = %v, want a single Thursday assignment", got)
	}
	if res.ObjectiveValue != float64(c.Max.Total) {
		t.Errorf("ObjectiveValue = %v, want %d", res.ObjectiveValue, c.Max.Total)
	}
}

func TestSmoothing_BoundsSpread(t *testing.T) {
	// Student 2 is on internship in weeks 10 and 11 and can only reach one assignment.
	d := oneSlot(2, DFASO1)
	d.Quota[DFASO1] = 3
	s2 := student(2, DFASO1)
	s2.Period = 1
	inst := &Instance{
		Weeks:       []int{10, 11, 12},
		Disciplines: []Discipline{d},
		Students:    []Student{student(1, DFASO1), s2},
		Stages:      []Stage{{Level: DFASO1, Period: 1, StartWeek: 10, EndWeek: 11}},
	}
	opts := DefaultOptions()
	opts.SmoothingNarrowDelta = 1

	testCases := []struct {
		name string
		opts Options
		want map[int]int
	}{
		{name: "Smoothed", opts: opts, want: map[int]int{1: 2, 2: 1}},
		{name: "Unsmoothed", opts: opts.Without(FamilySmoothing), want: map[int]int{1: 3, 2: 1}},
	}
	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			c := mustBuild(t, inst, test.opts)
			res := mustSolve(t, c)
			if res.Status != cpmodel.Optimal {
				t.Fatalf("Status = %v, want OPTIMAL", res.Status)
			}
			got := make(map[int]int)
			for _, k := range c.Assigned(res) {
				got[k.Student]++
			}
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Errorf("assignments per student returned with unexpected diff (-want+got):\n%s", diff)
			}
		})
	}
	if got := mustBuild(t, inst, opts).FamilyCounts[FamilySmoothing]; got != 5 {
		t.Errorf("FamilyCounts[smoothing] = %d, want 5", got)
	}
}

func TestClustering_PairedDays(t *testing.T) {
	d := discipline(1, 1, DFASO1)
	d.Open = openOnly(PatternIndex(Monday, Morning), PatternIndex(Tuesday, Morning), PatternIndex(Thursday, Morning))
	d.Quota[DFASO1] = 2
	d.DayPairs = []DayPair{{Monday, Thursday}}
	inst := &Instance{
		Weeks:       []int{10},
		Disciplines: []Discipline{d},
		Students:    []Student{student(1, DFASO1)},
	}
	c := mustBuild(t, inst, DefaultOptions())
	res := mustSolve(t, c)
	if res.ObjectiveValue != 7040 {
		t.Errorf("ObjectiveValue = %v, want 7040", res.ObjectiveValue)
	}
	want := []Key{{1, 1, PatternIndex(Monday, Morning)}, {1, 1, PatternIndex(Thursday, Morning)}}
	if diff := cmp.Diff(want, c.Assigned(res)); diff != "" {
		t.Errorf("Assigned() returned with unexpected diff (-want+got):\n%s", diff)
	}
}
