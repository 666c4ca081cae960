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

	"github.com/google/go-cmp/cmp"
)

func TestRotation(t *testing.T) {
	testCases := []struct {
		name      string
		first     int
		num       int
		want      []int
		wantError bool
	}{
		{name: "Plain", first: 1, num: 3, want: []int{1, 2, 3}},
		{name: "Wraps", first: 51, num: 4, want: []int{51, 52, 1, 2}},
		{name: "FirstOutOfRange", first: 53, num: 1, wantError: true},
		{name: "TooManyWeeks", first: 1, num: 53, wantError: true},
		{name: "NoWeeks", first: 1, num: 0, wantError: true},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			got, err := Rotation(test.first, test.num)
			if (err != nil) != test.wantError {
				t.Fatalf("Rotation(%d, %d) returned error %v, want error %v", test.first, test.num, err, test.wantError)
			}
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Errorf("Rotation(%d, %d) returned with unexpected diff (-want+got):\n%s", test.first, test.num, diff)
			}
		})
	}
}

func TestRotation_AcademicYear(t *testing.T) {
	weeks, err := Rotation(34, 52)
	if err != nil {
		t.Fatalf("Rotation(34, 52) returned with unexpected error %v", err)
	}
	if weeks[0] != 34 || weeks[18] != 52 || weeks[19] != 1 || weeks[51] != 33 {
		t.Errorf("Rotation(34, 52) = %v, want 34..52 then 1..33", weeks)
	}
}

func TestSlotTable_RoundTrip(t *testing.T) {
	weeks, err := Rotation(34, 52)
	if err != nil {
		t.Fatalf("Rotation() returned with unexpected error %v", err)
	}
	table, err := NewSlotTable(weeks)
	if err != nil {
		t.Fatalf("NewSlotTable() returned with unexpected error %v", err)
	}
	if got, want := table.Len(), len(weeks)*NumWeekdays*2; got != want {
		t.Errorf("Len() = %v, want %v", got, want)
	}
	seen := make(map[Slot]bool)
	for i, s := range table.Slots() {
		if seen[s] {
			t.Fatalf("slot %v listed twice", s)
		}
		seen[s] = true
		got, ok := table.Index(s)
		if !ok || got != i {
			t.Fatalf("Index(%v) = (%v, %v), want (%v, true)", s, got, ok, i)
		}
	}
	if got := table.Slot(0); got != (Slot{Week: 34, Day: Monday, Half: Morning}) {
		t.Errorf("Slot(0) = %v, want w34/monday/morning", got)
	}
	if got := table.Slot(11); got != (Slot{Week: 35, Day: Monday, Half: Afternoon}) {
		t.Errorf("Slot(11) = %v, want w35/monday/afternoon", got)
	}
	if _, ok := table.Index(Slot{Week: 34, Day: Weekday(6)}); ok {
		t.Errorf("Index() accepted a weekend slot")
	}
}

func TestNewSlotTable_Errors(t *testing.T) {
	for _, weeks := range [][]int{nil, {1, 2, 1}, {0}, {53}} {
		if _, err := NewSlotTable(weeks); !errors.Is(err, ErrBadRotation) {
			t.Errorf("NewSlotTable(%v) returned error %v, want ErrBadRotation", weeks, err)
		}
	}
}

func TestPatternIndex(t *testing.T) {
	seen := make(map[int]bool)
	for d := Monday; d <= Friday; d++ {
		for _, h := range []Half{Morning, Afternoon} {
			p := PatternIndex(d, h)
			if p < 0 || p >= NumPatterns || seen[p] {
				t.Fatalf("PatternIndex(%v, %v) = %v is out of range or repeated", d, h, p)
			}
			seen[p] = true
			if gd, gh := PatternAt(p); gd != d || gh != h {
				t.Errorf("PatternAt(%v) = (%v, %v), want (%v, %v)", p, gd, gh, d, h)
			}
		}
	}
	if got := PatternIndex(Wednesday, Afternoon); got != 5 {
		t.Errorf("PatternIndex(Wednesday, Afternoon) = %v, want 5", got)
	}

	var caps PatternInts
	caps.Set(Friday, Afternoon, 4)
	if got := caps[9]; got != 4 {
		t.Errorf("PatternInts.Set(Friday, Afternoon) wrote %v at index 9, want 4", got)
	}
	open := AllOpen()
	open.Set(Monday, Morning, false)
	if got := open.Count(); got != 9 {
		t.Errorf("Count() = %v, want 9", got)
	}
}

func TestWeekday_ZeroValue(t *testing.T) {
	var s Student
	if s.PreferredDay != NoDay || s.PreferredDay.Valid() {
		t.Errorf("zero Student.PreferredDay = %v, want no preference", s.PreferredDay)
	}
	if got := fmt.Sprint(Weekday(0), Monday, Friday, Weekday(6)); got != "none monday friday Weekday(6)" {
		t.Errorf("Weekday names = %q", got)
	}
}

func TestParseHalfAndWeekday(t *testing.T) {
	halves := []struct {
		in      string
		want    Half
		wantErr bool
	}{
		{in: "morning", want: Morning},
		{in: " PM ", want: Afternoon},
		{in: "evening", wantErr: true},
	}
	for _, test := range halves {
		got, err := ParseHalf(test.in)
		if (err != nil) != test.wantErr || (err == nil && got != test.want) {
			t.Errorf("ParseHalf(%q) = (%v, %v), want (%v, error %v)", test.in, got, err, test.want, test.wantErr)
		}
		if err != nil && !errors.Is(err, ErrUnknownValue) {
			t.Errorf("ParseHalf(%q) returned error %v, want ErrUnknownValue", test.in, err)
		}
	}

	days := []struct {
		in      string
		want    Weekday
		wantErr bool
	}{
		{in: "", want: NoDay},
		{in: "Tuesday", want: Tuesday},
		{in: "thu", want: Thursday},
		{in: "5", want: Friday},
		{in: "0", wantErr: true},
		{in: "sunday", wantErr: true},
	}
	for _, test := range days {
		got, err := ParseWeekday(test.in)
		if (err != nil) != test.wantErr || (err == nil && got != test.want) {
			t.Errorf("ParseWeekday(%q) = (%v, %v), want (%v, error %v)", test.in, got, err, test.want, test.wantErr)
		}
	}
}
