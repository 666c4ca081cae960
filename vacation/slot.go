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

// Package vacation compiles a dental clinic rotation (disciplines, students, internships and
// coursework calendars) into a constraint model whose solutions assign students to half-day
// clinical slots.
//
// A build runs in a fixed order: the slot table is generated from the week rotation, one Boolean
// is created per structurally possible (student, discipline, slot) triple, the variables are
// indexed by the access patterns of the constraint passes, every pass reads those indexes and
// emits its constraints, and the objective is assembled together with its theoretical maximum.
package vacation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Half is the morning or afternoon part of a day.
type Half int8

// Halves of a day.
const (
	Morning Half = iota
	Afternoon
)

func (h Half) String() string {
	switch h {
	case Morning:
		return "morning"
	case Afternoon:
		return "afternoon"
	}
	return fmt.Sprintf("Half(%d)", int8(h))
}

// ParseHalf parses "morning"/"am"/"m" and "afternoon"/"pm"/"a", case-insensitively.
func ParseHalf(s string) (Half, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "morning", "am", "m", "0":
		return Morning, nil
	case "afternoon", "pm", "a", "1":
		return Afternoon, nil
	}
	return 0, fmt.Errorf("half %q: %w", s, ErrUnknownValue)
}

// Weekday is a teaching day, Monday (1) to Friday (5). The zero value NoDay is not a day.
type Weekday int8

// Teaching days. NoDay marks an absent preference.
const (
	NoDay Weekday = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
)

// NumWeekdays is the number of teaching days in a week.
const NumWeekdays = 5

var weekdayNames = [NumWeekdays]string{"monday", "tuesday", "wednesday", "thursday", "friday"}

func (d Weekday) String() string {
	if d == NoDay {
		return "none"
	}
	if !d.Valid() {
		return fmt.Sprintf("Weekday(%d)", int8(d))
	}
	return weekdayNames[d.offset()]
}

// Valid reports whether d is a teaching day.
func (d Weekday) Valid() bool {
	return d >= Monday && d <= Friday
}

// offset is the position of d in the week, 0 for Monday.
func (d Weekday) offset() int {
	return int(d - Monday)
}

// ParseWeekday accepts English day names, their three letter prefixes and the digits 1-5. An
// empty string yields NoDay.
func ParseWeekday(s string) (Weekday, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "" || v == "none" || v == "-" {
		return NoDay, nil
	}
	if n, err := strconv.Atoi(v); err == nil {
		if d := Weekday(n); d.Valid() {
			return d, nil
		}
		return NoDay, fmt.Errorf("weekday %q: %w", s, ErrUnknownValue)
	}
	for i, name := range weekdayNames {
		if v == name || (len(v) == 3 && strings.HasPrefix(name, v)) {
			return Monday + Weekday(i), nil
		}
	}
	return NoDay, fmt.Errorf("weekday %q: %w", s, ErrUnknownValue)
}

// NumPatterns is the number of (weekday, half) combinations in a week.
const NumPatterns = NumWeekdays * 2

// PatternIndex returns the position of (day, half) in weekly pattern arrays.
func PatternIndex(day Weekday, half Half) int {
	return day.offset()*2 + int(half)
}

// PatternAt is the inverse of PatternIndex.
func PatternAt(p int) (Weekday, Half) {
	return Monday + Weekday(p/2), Half(p % 2)
}

// PatternInts holds one integer per weekly (weekday, half) pattern.
type PatternInts [NumPatterns]int

// At returns the value for (day, half).
func (p *PatternInts) At(day Weekday, half Half) int {
	return p[PatternIndex(day, half)]
}

// Set sets the value for (day, half).
func (p *PatternInts) Set(day Weekday, half Half, v int) {
	p[PatternIndex(day, half)] = v
}

// Uniform returns a PatternInts with every entry set to v.
func Uniform(v int) PatternInts {
	var p PatternInts
	for i := range p {
		p[i] = v
	}
	return p
}

// PatternBools holds one flag per weekly (weekday, half) pattern.
type PatternBools [NumPatterns]bool

// At returns the flag for (day, half).
func (p *PatternBools) At(day Weekday, half Half) bool {
	return p[PatternIndex(day, half)]
}

// Set sets the flag for (day, half).
func (p *PatternBools) Set(day Weekday, half Half, v bool) {
	p[PatternIndex(day, half)] = v
}

// Count returns the number of set flags.
func (p *PatternBools) Count() int {
	n := 0
	for _, v := range p {
		if v {
			n++
		}
	}
	return n
}

// AllOpen returns a PatternBools with every pattern set.
func AllOpen() PatternBools {
	var p PatternBools
	for i := range p {
		p[i] = true
	}
	return p
}

// Slot is one assignable half-day.
type Slot struct {
	Week int
	Day  Weekday
	Half Half
}

// Pattern returns the weekly pattern index of the slot.
func (s Slot) Pattern() int {
	return PatternIndex(s.Day, s.Half)
}

func (s Slot) String() string {
	return fmt.Sprintf("w%02d/%s/%s", s.Week, s.Day, s.Half)
}

// WeeksPerYear is the number of calendar weeks a rotation draws from.
const WeeksPerYear = 52

// Rotation returns numWeeks consecutive week numbers starting at firstWeek and wrapping from 52
// back to 1, e.g. Rotation(34, 52) is 34..52 followed by 1..33.
func Rotation(firstWeek, numWeeks int) ([]int, error) {
	if firstWeek < 1 || firstWeek > WeeksPerYear {
		return nil, fmt.Errorf("first week %d outside 1..%d", firstWeek, WeeksPerYear)
	}
	if numWeeks < 1 || numWeeks > WeeksPerYear {
		return nil, fmt.Errorf("number of weeks %d outside 1..%d", numWeeks, WeeksPerYear)
	}
	weeks := make([]int, numWeeks)
	for i := range weeks {
		weeks[i] = (firstWeek-1+i)%WeeksPerYear + 1
	}
	return weeks, nil
}

// ErrBadRotation is returned for week lists that cannot define a slot table.
var ErrBadRotation = errors.New("invalid week rotation")

// SlotTable is the ordered list of slots of a run. Slots are ordered by rotation position, then
// weekday, then half, and a slot's position in that order is its index everywhere else.
type SlotTable struct {
	weeks []int
	pos   map[int]int
}

// NewSlotTable builds the slot table of the given week rotation.
func NewSlotTable(weeks []int) (*SlotTable, error) {
	if len(weeks) == 0 {
		return nil, fmt.Errorf("%w: no weeks", ErrBadRotation)
	}
	t := &SlotTable{weeks: append([]int(nil), weeks...), pos: make(map[int]int, len(weeks))}
	for i, w := range weeks {
		if w < 1 || w > WeeksPerYear {
			return nil, fmt.Errorf("%w: week %d outside 1..%d", ErrBadRotation, w, WeeksPerYear)
		}
		if _, dup := t.pos[w]; dup {
			return nil, fmt.Errorf("%w: week %d listed twice", ErrBadRotation, w)
		}
		t.pos[w] = i
	}
	return t, nil
}

// Len returns the number of slots, NumWeeks()*NumPatterns.
func (t *SlotTable) Len() int {
	return len(t.weeks) * NumPatterns
}

// NumWeeks returns the number of weeks in the rotation.
func (t *SlotTable) NumWeeks() int {
	return len(t.weeks)
}

// Weeks returns the rotation in order.
func (t *SlotTable) Weeks() []int {
	return append([]int(nil), t.weeks...)
}

// Week returns the week number at rotation position pos.
func (t *SlotTable) Week(pos int) int {
	return t.weeks[pos]
}

// WeekPosition returns the rotation position of week.
func (t *SlotTable) WeekPosition(week int) (int, bool) {
	p, ok := t.pos[week]
	return p, ok
}

// Slot returns the slot at index i.
func (t *SlotTable) Slot(i int) Slot {
	d, h := PatternAt(i % NumPatterns)
	return Slot{Week: t.weeks[i/NumPatterns], Day: d, Half: h}
}

// Index returns the index of s, and false if its week is not part of the rotation.
func (t *SlotTable) Index(s Slot) (int, bool) {
	p, ok := t.pos[s.Week]
	if !ok || !s.Day.Valid() || (s.Half != Morning && s.Half != Afternoon) {
		return 0, false
	}
	return t.IndexAt(p, s.Pattern()), true
}

// IndexAt returns the index of the slot at rotation position pos and weekly pattern p.
func (t *SlotTable) IndexAt(pos, p int) int {
	return pos*NumPatterns + p
}

// PositionOf returns the rotation position of slot index i.
func (t *SlotTable) PositionOf(i int) int {
	return i / NumPatterns
}

// PatternOf returns the weekly pattern index of slot index i.
func (t *SlotTable) PatternOf(i int) int {
	return i % NumPatterns
}

// Slots returns every slot in index order.
func (t *SlotTable) Slots() []Slot {
	out := make([]Slot, t.Len())
	for i := range out {
		out[i] = t.Slot(i)
	}
	return out
}
