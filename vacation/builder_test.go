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
	"errors"
	"fmt"
	"testing"

	"github.com/dentaplan/vacations/cpmodel"
	"github.com/google/go-cmp/cmp"
)

func openOnly(patterns ...int) PatternBools {
	var open PatternBools
	for _, p := range patterns {
		open[p] = true
	}
	return open
}

func discipline(id, capacity int, levels ...Level) Discipline {
	return Discipline{
		ID:       id,
		Name:     fmt.Sprintf("D%d", id),
		Capacity: Uniform(capacity),
		Open:     AllOpen(),
		Levels:   levels,
		Quota:    make(map[Level]int),
	}
}

func student(id int, l Level) Student {
	return Student{ID: id, Code: fmt.Sprintf("S%d", id), Level: l, PreferredDay: NoDay}
}

func mustBuild(t *testing.T, inst *Instance, opts Options) *Compiled {
	t.Helper()
	c, err := Build(inst, opts)
	if err != nil {
		t.Fatalf("Build() returned with unexpected error %v", err)
	}
	return c
}

func mustSolve(t *testing.T, c *Compiled) *cpmodel.Response {
	t.Helper()
	res, err := cpmodel.SolveCpModel(c.Model)
	if err != nil {
		t.Fatalf("SolveCpModel() returned with unexpected error %v", err)
	}
	return res
}

// twoStudents has one discipline open every half-day of week 10, seating one student, with a
// quota of 1 for both DFASO1 students.
func twoStudents() *Instance {
	d := discipline(1, 1, DFASO1)
	d.Quota[DFASO1] = 1
	return &Instance{
		Weeks:       []int{10},
		Disciplines: []Discipline{d},
		Students:    []Student{student(1, DFASO1), student(2, DFASO1)},
	}
}

func ExampleBuild() {
	inst := &Instance{
		Weeks: []int{10},
		Disciplines: []Discipline{{
			ID:       1,
			Name:     "Paro",
			Capacity: Uniform(1),
			Open:     AllOpen(),
			Levels:   []Level{DFASO1},
			Quota:    map[Level]int{DFASO1: 1},
		}},
		Students: []Student{
			{ID: 1, Code: "A", Level: DFASO1, PreferredDay: NoDay},
			{ID: 2, Code: "B", Level: DFASO1, PreferredDay: NoDay},
		},
	}
	c, err := Build(inst, DefaultOptions())
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println("slots:", c.Table.Len())
	fmt.Println("decision variables:", c.Vars.Len())
	fmt.Println("theoretical maximum:", c.Max.Total)

	// Output:
	// slots: 10
	// decision variables: 20
	// theoretical maximum: 12000
}

func TestBuild_ReachesTheoreticalMax(t *testing.T) {
	inst := twoStudents()
	inst.Disciplines[0].Capacity = Uniform(2)
	c := mustBuild(t, inst, DefaultOptions())
	res := mustSolve(t, c)

	if res.Status != cpmodel.Optimal {
		t.Fatalf("Status = %v, want OPTIMAL", res.Status)
	}
	if res.ObjectiveValue != 12000 {
		t.Errorf("ObjectiveValue = %v, want 12000", res.ObjectiveValue)
	}
	if got := Quality(res.ObjectiveValue, c.Max.Total); got != 100 {
		t.Errorf("Quality() = %v, want 100", got)
	}
	perStudent := map[int]int{}
	perSlot := map[int]int{}
	for _, k := range c.Assigned(res) {
		perStudent[k.Student]++
		perSlot[k.Slot]++
	}
	if diff := cmp.Diff(map[int]int{1: 1, 2: 1}, perStudent); diff != "" {
		t.Errorf("assignments per student returned with unexpected diff (-want+got):\n%s", diff)
	}
	for slot, n := range perSlot {
		if n > 2 {
			t.Errorf("slot %d has %d assignments, capacity is 2", slot, n)
		}
	}
	for k, term := range c.Quotas {
		if got := cpmodel.SolutionIntegerValue(res, term.Total); got != 1 {
			t.Errorf("total of %+v = %d, want 1", k, got)
		}
		if !cpmodel.SolutionBooleanValue(res, term.Success) {
			t.Errorf("success of %+v is false, want true", k)
		}
		sat := cpmodel.SolutionIntegerValue(res, term.Satisfied)
		exc := cpmodel.SolutionIntegerValue(res, term.Excess)
		if sat+exc != 1 {
			t.Errorf("satisfied+excess of %+v = %d, want 1", k, sat+exc)
		}
	}
}

func TestBuild_Capacity(t *testing.T) {
	d := discipline(1, 2, DFASO1)
	d.Open = openOnly(PatternIndex(Monday, Morning))
	d.Quota[DFASO1] = 1
	inst := &Instance{Weeks: []int{10}, Disciplines: []Discipline{d}}
	for id := 1; id <= 4; id++ {
		inst.Students = append(inst.Students, student(id, DFASO1))
	}
	c := mustBuild(t, inst, DefaultOptions())
	if got := c.FamilyCounts[FamilyCapacity]; got != 1 {
		t.Errorf("capacity constraints = %d, want 1", got)
	}
	res := mustSolve(t, c)
	if res.Status != cpmodel.Optimal {
		t.Fatalf("Status = %v, want OPTIMAL", res.Status)
	}
	if got := len(c.Assigned(res)); got != 2 {
		t.Errorf("len(Assigned()) = %d, want 2", got)
	}
}

func TestBuild_PairWorkDoublesCapacity(t *testing.T) {
	d := discipline(1, 1, DFASO1)
	d.Open = openOnly(PatternIndex(Monday, Morning))
	d.PairWork = true
	d.Quota[DFASO1] = 1
	inst := &Instance{
		Weeks:       []int{10},
		Disciplines: []Discipline{d},
		Students:    []Student{student(1, DFASO1), student(2, DFASO1), student(3, DFASO1)},
	}
	c := mustBuild(t, inst, DefaultOptions())
	res := mustSolve(t, c)
	if got := len(c.Assigned(res)); got != 2 {
		t.Errorf("len(Assigned()) = %d, want 2", got)
	}
}

func TestBuild_Uniqueness(t *testing.T) {
	a := discipline(1, 1, DFASO1)
	a.Open = openOnly(PatternIndex(Tuesday, Afternoon))
	a.Quota[DFASO1] = 1
	b := discipline(2, 1, DFASO1)
	b.Open = openOnly(PatternIndex(Tuesday, Afternoon))
	b.Quota[DFASO1] = 1
	inst := &Instance{
		Weeks:       []int{10},
		Disciplines: []Discipline{a, b},
		Students:    []Student{student(1, DFASO1)},
	}
	c := mustBuild(t, inst, DefaultOptions())
	if got := c.FamilyCounts[FamilyUniqueness]; got != 1 {
		t.Errorf("uniqueness constraints = %d, want 1", got)
	}
	res := mustSolve(t, c)
	if got := len(c.Assigned(res)); got != 1 {
		t.Errorf("len(Assigned()) = %d, want 1", got)
	}
	if got, want := res.ObjectiveValue, float64(6000); got != want {
		t.Errorf("ObjectiveValue = %v, want %v", got, want)
	}
}

func TestBuild_CalendarShortfall(t *testing.T) {
	inst := twoStudents()
	inst.Students = inst.Students[:1]
	inst.Disciplines[0].Quota[DFASO1] = 5
	for p := 0; p < 7; p++ {
		day, half := PatternAt(p)
		inst.Calendar = append(inst.Calendar, CalendarBlock{Level: DFASO1, Week: 10, Day: day, Half: half})
	}

	c := mustBuild(t, inst, DefaultOptions())
	want := []Diagnostic{{
		Kind:        Shortfall,
		Student:     1,
		Code:        "S1",
		Discipline:  1,
		Name:        "D1",
		Quota:       5,
		Theoretical: 10,
		Effective:   3,
	}}
	if diff := cmp.Diff(want, c.Diagnostics); diff != "" {
		t.Errorf("Diagnostics returned with unexpected diff (-want+got):\n%s", diff)
	}
	if got := c.Vars.Len(); got != 3 {
		t.Errorf("Vars.Len() = %d, want 3", got)
	}

	opts := DefaultOptions()
	opts.EscalateDiagnostics = true
	if _, err := Build(inst, opts); !errors.Is(err, ErrUnsatisfiableQuota) {
		t.Errorf("Build() with escalation returned error %v, want ErrUnsatisfiableQuota", err)
	}
}

func TestBuild_NoCandidates(t *testing.T) {
	inst := twoStudents()
	inst.Students = inst.Students[:1]
	inst.Students[0].Period = 2
	inst.Stages = []Stage{{Level: DFASO1, Period: 2, StartWeek: 1, EndWeek: 20}}

	c := mustBuild(t, inst, DefaultOptions())
	if len(c.Diagnostics) != 1 || c.Diagnostics[0].Kind != NoCandidates {
		t.Fatalf("Diagnostics = %v, want a single no-candidates diagnostic", c.Diagnostics)
	}
	if len(c.Quotas) != 0 {
		t.Errorf("Quotas = %v, want none", c.Quotas)
	}
	if c.Max.Total != 0 {
		t.Errorf("Max.Total = %d, want 0", c.Max.Total)
	}
}

func TestBuild_FillToCapacity(t *testing.T) {
	d := discipline(1, 3, DFASO1)
	d.Open = openOnly(PatternIndex(Wednesday, Morning))
	d.FillToCapacity = true
	inst := &Instance{Weeks: []int{10}, Disciplines: []Discipline{d}}
	for id := 1; id <= 5; id++ {
		inst.Students = append(inst.Students, student(id, DFASO1))
	}

	c := mustBuild(t, inst, DefaultOptions())
	if got := c.FamilyCounts[FamilyFill]; got != 1 {
		t.Errorf("fill constraints = %d, want 1", got)
	}
	res := mustSolve(t, c)
	if res.Status != cpmodel.Optimal {
		t.Fatalf("Status = %v, want OPTIMAL", res.Status)
	}
	if got := len(c.Assigned(res)); got != 3 {
		t.Errorf("len(Assigned()) = %d, want 3", got)
	}
}

func TestBuild_HardQuota(t *testing.T) {
	inst := twoStudents()
	inst.Disciplines[0].Quota[DFASO1] = 2
	opts := DefaultOptions()
	opts.QuotaMode = QuotaHard

	c := mustBuild(t, inst, opts)
	if got, want := c.Max.Total, int64(4000); got != want {
		t.Errorf("Max.Total = %d, want %d", got, want)
	}
	res := mustSolve(t, c)
	if res.Status != cpmodel.Optimal {
		t.Fatalf("Status = %v, want OPTIMAL", res.Status)
	}
	// Assignments beyond the quota are penalised as excess.
	if got := len(c.Assigned(res)); got != 4 {
		t.Errorf("len(Assigned()) = %d, want 4", got)
	}
	if res.ObjectiveValue != 4000 {
		t.Errorf("ObjectiveValue = %v, want 4000", res.ObjectiveValue)
	}

	inst.Disciplines[0].Quota[DFASO1] = 6
	c = mustBuild(t, inst, opts)
	if res := mustSolve(t, c); res.Status != cpmodel.Infeasible {
		t.Errorf("Status with quotas above capacity = %v, want INFEASIBLE", res.Status)
	}
}

func TestBuild_ObjectiveReachesButNeverExceedsMax(t *testing.T) {
	testCases := []struct {
		name string
		inst func() *Instance
		opts func() Options
	}{
		{
			name: "StudentsWithoutQuotaEarnNoBonus",
			inst: func() *Instance {
				d := discipline(1, 3, DFASO1, DFASO2)
				d.Quota[DFASO1] = 1
				d.DayPreference = true
				s1, s2 := student(1, DFASO1), student(2, DFASO2)
				s1.PreferredDay, s2.PreferredDay = Monday, Monday
				return &Instance{Weeks: []int{10}, Disciplines: []Discipline{d}, Students: []Student{s1, s2}}
			},
			opts: DefaultOptions,
		},
		{
			name: "HardProfile",
			inst: func() *Instance {
				inst := twoStudents()
				inst.Disciplines[0].Quota[DFASO1] = 2
				inst.Disciplines[0].Priority = []Level{DFASO1}
				return inst
			},
			opts: func() Options {
				opts := DefaultOptions()
				opts.QuotaMode = QuotaHard
				return opts
			},
		},
		{
			name: "OverlappingDayPairs",
			inst: func() *Instance {
				d := discipline(1, 1, DFASO1)
				d.Open = openOnly(PatternIndex(Monday, Morning), PatternIndex(Tuesday, Morning), PatternIndex(Wednesday, Morning))
				d.Quota[DFASO1] = 3
				d.DayPairs = []DayPair{{Monday, Tuesday}, {Tuesday, Wednesday}}
				d.AdjacentDays = true
				return &Instance{Weeks: []int{10}, Disciplines: []Discipline{d}, Students: []Student{student(1, DFASO1)}}
			},
			opts: func() Options {
				opts := DefaultOptions()
				opts.Weights.AdjacentDay = 10
				return opts
			},
		},
	}
	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			c := mustBuild(t, test.inst(), test.opts())
			res := mustSolve(t, c)
			if res.Status != cpmodel.Optimal {
				t.Fatalf("Status = %v, want OPTIMAL", res.Status)
			}
			if got, want := res.ObjectiveValue, float64(c.Max.Total); got != want {
				t.Errorf("ObjectiveValue = %v, want the theoretical maximum %v", got, want)
			}
		})
	}
}

func TestBuild_DisabledFamilies(t *testing.T) {
	d := discipline(1, 3, DFASO1)
	d.Open = openOnly(PatternIndex(Wednesday, Morning))
	d.FillToCapacity = true
	d.WeeklyCap = 1
	inst := &Instance{
		Weeks:       []int{10},
		Disciplines: []Discipline{d},
		Students:    []Student{student(1, DFASO1), student(2, DFASO1)},
	}
	c := mustBuild(t, inst, DefaultOptions().Without(FamilyFill).Without(FamilyCapacity))
	if diff := cmp.Diff([]Family(nil), c.SortedFamilyCounts()); diff != "" {
		t.Errorf("SortedFamilyCounts() returned with unexpected diff (-want+got):\n%s", diff)
	}

	c = mustBuild(t, inst, DefaultOptions())
	if diff := cmp.Diff([]Family{FamilyFill}, c.SortedFamilyCounts()); diff != "" {
		t.Errorf("SortedFamilyCounts() returned with unexpected diff (-want+got):\n%s", diff)
	}
}

func TestBuild_InvalidInstance(t *testing.T) {
	inst := twoStudents()
	inst.Students[1].ID = 1
	if _, err := Build(inst, DefaultOptions()); !errors.Is(err, ErrDataIntegrity) {
		t.Errorf("Build() returned error %v, want ErrDataIntegrity", err)
	}
}

func TestComputeTheoreticalMax(t *testing.T) {
	d := discipline(1, 1, DFASO1, DFASO2)
	d.Quota[DFASO1] = 3
	d.Quota[DFASO2] = 2
	d.DayPreference = true
	d.Priority = []Level{DFASO2}
	d.DayPairs = []DayPair{{Monday, Thursday}}
	d.SameDay = true
	inst := &Instance{
		Weeks:       []int{10},
		Disciplines: []Discipline{d},
		Students: []Student{
			{ID: 1, Level: DFASO1, PreferredDay: Monday},
			{ID: 2, Level: DFASO2, PreferredDay: NoDay},
			{ID: 3, Level: DFASO2, PreferredDay: NoDay},
		},
	}
	candidates := func(student, discipline int) int {
		if student == 3 {
			return 0
		}
		return 10
	}

	got := ComputeTheoreticalMax(inst, DefaultOptions(), candidates)
	want := TheoreticalMax{
		Total: 3000 + 5000 + 150 + 40 + 40 + 2000 + 5000 + 60 + 40 + 40,
		ByTerm: map[Term]int64{
			TermQuotaSatisfied: 5000,
			TermSuccess:        10000,
			TermDayPreference:  150,
			TermPriority:       60,
			TermPairedDay:      80,
			TermSameDay:        80,
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ComputeTheoreticalMax() returned with unexpected diff (-want+got):\n%s", diff)
	}
	if again := ComputeTheoreticalMax(inst, DefaultOptions(), candidates); !cmp.Equal(got, again) {
		t.Errorf("ComputeTheoreticalMax() is not deterministic: %v then %v", got, again)
	}
}

func TestQuality(t *testing.T) {
	testCases := []struct {
		raw     float64
		maximum int64
		want    float64
	}{
		{raw: 50, maximum: 200, want: 25},
		{raw: 300, maximum: 200, want: 100},
		{raw: -10, maximum: 200, want: 0},
		{raw: 10, maximum: 0, want: 0},
	}
	for _, test := range testCases {
		if got := Quality(test.raw, test.maximum); got != test.want {
			t.Errorf("Quality(%v, %v) = %v, want %v", test.raw, test.maximum, got, test.want)
		}
	}
}
