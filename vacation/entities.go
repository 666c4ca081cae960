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
	"strconv"
	"strings"
)

var (
	// ErrDataIntegrity is wrapped by every input validation failure.
	ErrDataIntegrity = errors.New("data integrity error")
	// ErrUnknownValue is returned by the Parse functions for values outside their enum.
	ErrUnknownValue = errors.New("unknown value")
	// ErrUnsatisfiableQuota is returned by Build when quota diagnostics are escalated.
	ErrUnsatisfiableQuota = errors.New("unsatisfiable quota")
)

// DataError locates an invalid input value.
type DataError struct {
	Entity string
	ID     string
	Field  string
	Err    error
}

func (e *DataError) Error() string {
	var b strings.Builder
	b.WriteString(e.Entity)
	if e.ID != "" {
		b.WriteString(" ")
		b.WriteString(e.ID)
	}
	if e.Field != "" {
		b.WriteString(": ")
		b.WriteString(e.Field)
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

// Unwrap makes a DataError match both ErrDataIntegrity and its cause.
func (e *DataError) Unwrap() []error {
	return []error{ErrDataIntegrity, e.Err}
}

func dataErrorf(entity string, id int, field, format string, a ...any) *DataError {
	return &DataError{Entity: entity, ID: strconv.Itoa(id), Field: field, Err: fmt.Errorf(format, a...)}
}

// Level is a training year.
type Level int8

// Training years, in order.
const (
	DFASO1 Level = iota + 1
	DFASO2
	DFTCC
)

// Levels lists every training year in order.
var Levels = []Level{DFASO1, DFASO2, DFTCC}

var levelNames = map[Level]string{DFASO1: "DFASO1", DFASO2: "DFASO2", DFTCC: "DFTCC"}

func (l Level) String() string {
	if n, ok := levelNames[l]; ok {
		return n
	}
	return fmt.Sprintf("Level(%d)", int8(l))
}

// Valid reports whether l is a known training year.
func (l Level) Valid() bool {
	_, ok := levelNames[l]
	return ok
}

// ParseLevel parses a training year name, case-insensitively.
func ParseLevel(s string) (Level, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	for l, n := range levelNames {
		if v == n {
			return l, nil
		}
	}
	return 0, fmt.Errorf("level %q: %w", s, ErrUnknownValue)
}

// Period identifies an internship rotation. Zero means the student has no internship.
type Period int

// ParsePeriod parses "", "0", "3" or "P3".
func ParsePeriod(s string) (Period, error) {
	v := strings.TrimSpace(s)
	if v == "" {
		return 0, nil
	}
	v = strings.TrimPrefix(strings.TrimPrefix(v, "P"), "p")
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("period %q: %w", s, ErrUnknownValue)
	}
	return Period(n), nil
}

// Diversity is the level mix policy of a discipline, evaluated per slot.
type Diversity int8

// Level mix policies.
const (
	DiversityNone Diversity = iota
	// ExactlyOnePerLevel seats one student of every represented level once a slot is used.
	ExactlyOnePerLevel
	// AtLeastTwoLevels requires two distinct levels whenever a slot is used.
	AtLeastTwoLevels
	// SingleLevelOnly allows at most one level per slot.
	SingleLevelOnly
)

var diversityNames = []string{"none", "exactly-one-per-level", "at-least-two-levels", "single-level-only"}

func (d Diversity) String() string {
	if int(d) < len(diversityNames) && d >= 0 {
		return diversityNames[d]
	}
	return fmt.Sprintf("Diversity(%d)", int8(d))
}

// ParseDiversity parses a policy name; underscores and dashes are interchangeable.
func ParseDiversity(s string) (Diversity, error) {
	v := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-")
	if v == "" {
		return DiversityNone, nil
	}
	for i, n := range diversityNames {
		if v == n {
			return Diversity(i), nil
		}
	}
	return DiversityNone, fmt.Errorf("diversity %q: %w", s, ErrUnknownValue)
}

// DayPair asks for assignments on both First and Second in the same week. It is rewarded, not
// enforced.
type DayPair struct {
	First  Weekday
	Second Weekday
}

// Split caps the assignments of each half of the rotation.
type Split struct {
	First  int
	Second int
}

// Continuity caps assignments to Limit within any Window consecutive weeks.
type Continuity struct {
	Window int
	Limit  int
}

// Substitution requires level To to fill Percent of the capacity of any slot where level From
// has no assignment.
type Substitution struct {
	From    Level
	To      Level
	Percent int
}

// Modifiers are the optional behaviours of a discipline. The zero value disables all of them.
type Modifiers struct {
	// WeeklyCap is the maximum number of assignments per student and week; 0 means no cap.
	WeeklyCap int
	DayPairs  []DayPair
	Diversity Diversity
	// Frequency allows at most one assignment per student in any Frequency consecutive weeks
	// when greater than 1.
	Frequency    int
	Semester     map[Level]Split
	Continuity   *Continuity
	Substitution *Substitution
	// Priority lists up to three levels, from first to third priority.
	Priority       []Level
	FillToCapacity bool
	DayPreference  bool
	SameDay        bool
	AdjacentDays   bool
}

// Discipline is a clinical teaching unit.
type Discipline struct {
	ID       int
	Name     string
	Capacity PatternInts
	Open     PatternBools
	// PairWork disciplines seat two students per capacity unit.
	PairWork bool
	Levels   []Level
	Quota    map[Level]int
	Modifiers
}

// Eligible reports whether students of level l may be assigned to d.
func (d *Discipline) Eligible(l Level) bool {
	for _, v := range d.Levels {
		if v == l {
			return true
		}
	}
	return false
}

// QuotaFor returns the yearly quota of level l, zero when l is not eligible.
func (d *Discipline) QuotaFor(l Level) int {
	if !d.Eligible(l) {
		return 0
	}
	return d.Quota[l]
}

// EffectiveCapacity returns the number of students d can seat at weekly pattern p.
func (d *Discipline) EffectiveCapacity(p int) int {
	if !d.Open[p] {
		return 0
	}
	if d.PairWork {
		return 2 * d.Capacity[p]
	}
	return d.Capacity[p]
}

// PriorityTier returns 1, 2 or 3 for prioritised levels and 0 otherwise.
func (d *Discipline) PriorityTier(l Level) int {
	for i, v := range d.Priority {
		if v == l {
			return i + 1
		}
	}
	return 0
}

// Student is a trainee. Partner is the ID of the binôme partner, 0 when unpaired.
type Student struct {
	ID           int
	Code         string
	Level        Level
	Partner      int
	PreferredDay Weekday
	Period       Period
}

// Stage is an internship window during which students of Level on Period are unavailable.
type Stage struct {
	Level     Level
	Period    Period
	StartWeek int
	EndWeek   int
}

// Covers reports whether week falls inside the window.
func (s Stage) Covers(week int) bool {
	return week >= s.StartWeek && week <= s.EndWeek
}

// CalendarBlock is a half-day of mandatory coursework for every student of Level.
type CalendarBlock struct {
	Level Level
	Week  int
	Day   Weekday
	Half  Half
}

// Instance is the complete input of a build. It is read, never modified.
type Instance struct {
	Weeks       []int
	Disciplines []Discipline
	Students    []Student
	Stages      []Stage
	Calendar    []CalendarBlock
}

// Validate checks the referential and range rules of the instance and returns every violation
// found, joined. Each violation is a *DataError.
func (inst *Instance) Validate() error {
	var errs []error
	add := func(e *DataError) { errs = append(errs, e) }

	if _, err := NewSlotTable(inst.Weeks); err != nil {
		errs = append(errs, &DataError{Entity: "rotation", Err: err})
	}

	disciplines := make(map[int]bool, len(inst.Disciplines))
	for i := range inst.Disciplines {
		d := &inst.Disciplines[i]
		if d.ID <= 0 {
			add(dataErrorf("discipline", d.ID, "id", "must be positive"))
		}
		if disciplines[d.ID] {
			add(dataErrorf("discipline", d.ID, "id", "duplicate"))
		}
		disciplines[d.ID] = true
		for p, c := range d.Capacity {
			if c < 0 {
				add(dataErrorf("discipline", d.ID, "capacity", "pattern %d is negative (%d)", p, c))
			}
		}
		for _, l := range d.Levels {
			if !l.Valid() {
				add(dataErrorf("discipline", d.ID, "levels", "unknown level %d", int8(l)))
			}
		}
		for l, q := range d.Quota {
			if !d.Eligible(l) {
				add(dataErrorf("discipline", d.ID, "quotas", "quota for non eligible level %v", l))
			}
			if q < 0 {
				add(dataErrorf("discipline", d.ID, "quotas", "negative quota %d for %v", q, l))
			}
		}
		validateModifiers(d, add)
	}

	students := make(map[int]*Student, len(inst.Students))
	for i := range inst.Students {
		s := &inst.Students[i]
		if s.ID <= 0 {
			add(dataErrorf("student", s.ID, "id", "must be positive"))
		}
		if _, dup := students[s.ID]; dup {
			add(dataErrorf("student", s.ID, "id", "duplicate"))
		}
		students[s.ID] = s
		if !s.Level.Valid() {
			add(dataErrorf("student", s.ID, "level", "unknown level %d", int8(s.Level)))
		}
		if s.PreferredDay != NoDay && !s.PreferredDay.Valid() {
			add(dataErrorf("student", s.ID, "preferred_day", "unknown weekday %d", int8(s.PreferredDay)))
		}
		if s.Period < 0 {
			add(dataErrorf("student", s.ID, "period", "negative period %d", s.Period))
		}
	}
	for _, s := range inst.Students {
		if s.Partner == 0 {
			continue
		}
		if s.Partner == s.ID {
			add(dataErrorf("student", s.ID, "partner", "paired with itself"))
			continue
		}
		p, ok := students[s.Partner]
		if !ok {
			add(dataErrorf("student", s.ID, "partner", "unknown partner %d", s.Partner))
			continue
		}
		if p.Partner != s.ID {
			add(dataErrorf("student", s.ID, "partner", "pairing with %d is not mutual (%d is paired with %d)", p.ID, p.ID, p.Partner))
		}
	}

	for i, st := range inst.Stages {
		if !st.Level.Valid() {
			add(dataErrorf("stage", i+1, "level", "unknown level %d", int8(st.Level)))
		}
		if st.StartWeek < 1 || st.StartWeek > WeeksPerYear || st.EndWeek < 1 || st.EndWeek > WeeksPerYear {
			add(dataErrorf("stage", i+1, "weeks", "window %d..%d outside 1..%d", st.StartWeek, st.EndWeek, WeeksPerYear))
		}
		if st.StartWeek > st.EndWeek {
			add(dataErrorf("stage", i+1, "weeks", "start week %d after end week %d", st.StartWeek, st.EndWeek))
		}
	}

	for i, c := range inst.Calendar {
		if !c.Level.Valid() {
			add(dataErrorf("calendar", i+1, "level", "unknown level %d", int8(c.Level)))
		}
		if c.Week < 1 || c.Week > WeeksPerYear {
			add(dataErrorf("calendar", i+1, "week", "week %d outside 1..%d", c.Week, WeeksPerYear))
		}
		if !c.Day.Valid() {
			add(dataErrorf("calendar", i+1, "weekday", "unknown weekday %d", int8(c.Day)))
		}
		if c.Half != Morning && c.Half != Afternoon {
			add(dataErrorf("calendar", i+1, "half", "unknown half %d", int8(c.Half)))
		}
	}
	return errors.Join(errs...)
}

func validateModifiers(d *Discipline, add func(*DataError)) {
	m := &d.Modifiers
	if m.WeeklyCap < 0 {
		add(dataErrorf("discipline", d.ID, "weekly_cap", "negative cap %d", m.WeeklyCap))
	}
	if m.Frequency < 0 {
		add(dataErrorf("discipline", d.ID, "frequency", "negative window %d", m.Frequency))
	}
	for _, p := range m.DayPairs {
		if !p.First.Valid() || !p.Second.Valid() || p.First == p.Second {
			add(dataErrorf("discipline", d.ID, "day_pairs", "invalid pair %v/%v", p.First, p.Second))
		}
	}
	for l, s := range m.Semester {
		if !d.Eligible(l) {
			add(dataErrorf("discipline", d.ID, "semester", "split for non eligible level %v", l))
		}
		if s.First < 0 || s.Second < 0 {
			add(dataErrorf("discipline", d.ID, "semester", "negative split %d/%d for %v", s.First, s.Second, l))
		}
	}
	if c := m.Continuity; c != nil && (c.Window < 1 || c.Limit < 0) {
		add(dataErrorf("discipline", d.ID, "continuity", "window %d limit %d", c.Window, c.Limit))
	}
	if s := m.Substitution; s != nil {
		if !d.Eligible(s.From) || !d.Eligible(s.To) || s.From == s.To {
			add(dataErrorf("discipline", d.ID, "substitution", "levels %v->%v must be distinct eligible levels", s.From, s.To))
		}
		if s.Percent < 0 || s.Percent > 100 {
			add(dataErrorf("discipline", d.ID, "substitution", "percentage %d outside 0..100", s.Percent))
		}
	}
	if len(m.Priority) > 3 {
		add(dataErrorf("discipline", d.ID, "priority", "%d tiers, at most 3", len(m.Priority)))
	}
	for _, l := range m.Priority {
		if !d.Eligible(l) {
			add(dataErrorf("discipline", d.ID, "priority", "non eligible level %v", l))
		}
	}
}
