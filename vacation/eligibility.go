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

// Presence says whether a (student, discipline, slot) triple can carry an assignment, and if not,
// why.
type Presence int8

// Presence values. A stage absence takes precedence over a calendar one.
const (
	Present Presence = iota
	AbsentStage
	AbsentCalendar
	// AbsentOther covers closed patterns and non eligible levels.
	AbsentOther
)

func (p Presence) String() string {
	switch p {
	case Present:
		return "present"
	case AbsentStage:
		return "stage"
	case AbsentCalendar:
		return "calendar"
	}
	return "other"
}

type stageKey struct {
	level  Level
	period Period
}

// Eligibility answers availability questions for one instance and slot table.
type Eligibility struct {
	table *SlotTable
	// stages holds, per (level, period), the covered weeks indexed by week number.
	stages map[stageKey]*[WeeksPerYear + 1]bool
	// blocked holds, per level, the coursework half-days indexed by slot.
	blocked map[Level][]bool
}

// NewEligibility indexes the stage windows and calendar blocks of inst.
func NewEligibility(inst *Instance, table *SlotTable) *Eligibility {
	e := &Eligibility{
		table:   table,
		stages:  make(map[stageKey]*[WeeksPerYear + 1]bool),
		blocked: make(map[Level][]bool),
	}
	for _, st := range inst.Stages {
		k := stageKey{st.Level, st.Period}
		weeks, ok := e.stages[k]
		if !ok {
			weeks = new([WeeksPerYear + 1]bool)
			e.stages[k] = weeks
		}
		for w := max(st.StartWeek, 1); w <= min(st.EndWeek, WeeksPerYear); w++ {
			weeks[w] = true
		}
	}
	for _, c := range inst.Calendar {
		i, ok := table.Index(Slot{Week: c.Week, Day: c.Day, Half: c.Half})
		if !ok {
			continue
		}
		b, ok := e.blocked[c.Level]
		if !ok {
			b = make([]bool, table.Len())
			e.blocked[c.Level] = b
		}
		b[i] = true
	}
	return e
}

// InStage reports whether s is on internship during week.
func (e *Eligibility) InStage(s *Student, week int) bool {
	if s.Period == 0 || week < 1 || week > WeeksPerYear {
		return false
	}
	weeks, ok := e.stages[stageKey{s.Level, s.Period}]
	return ok && weeks[week]
}

// Blocked reports whether students of level l have coursework at slot i.
func (e *Eligibility) Blocked(l Level, i int) bool {
	b, ok := e.blocked[l]
	return ok && b[i]
}

// Presence classifies the triple (s, d, slot i).
func (e *Eligibility) Presence(s *Student, d *Discipline, i int) Presence {
	if !d.Open[e.table.PatternOf(i)] || !d.Eligible(s.Level) {
		return AbsentOther
	}
	if e.InStage(s, e.table.Week(e.table.PositionOf(i))) {
		return AbsentStage
	}
	if e.Blocked(s.Level, i) {
		return AbsentCalendar
	}
	return Present
}

// OpenSlots returns the number of slots of the table where d is open, ignoring students.
func (e *Eligibility) OpenSlots(d *Discipline) int {
	return d.Open.Count() * e.table.NumWeeks()
}
