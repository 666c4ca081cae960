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

// Package csvio reads planner instances from CSV files and writes assignments back to CSV.
package csvio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dentaplan/vacations/vacation"
	"github.com/gocarina/gocsv"
)

// ListSeparator separates the values of multi-valued cells.
const ListSeparator = ";"

type disciplineRow struct {
	ID       string `csv:"id"`
	Name     string `csv:"name"`
	Capacity string `csv:"capacity"`
	Open     string `csv:"open"`
	PairWork string `csv:"pair_work"`
	Levels   string `csv:"levels"`
	Quotas   string `csv:"quotas"`
}

type studentRow struct {
	ID           string `csv:"id"`
	Code         string `csv:"code"`
	Level        string `csv:"level"`
	Partner      string `csv:"partner"`
	PreferredDay string `csv:"preferred_day"`
	Period       string `csv:"period"`
}

type stageRow struct {
	Level     string `csv:"level"`
	Period    string `csv:"period"`
	StartWeek string `csv:"start_week"`
	EndWeek   string `csv:"end_week"`
}

type calendarRow struct {
	Level   string `csv:"level"`
	Week    string `csv:"week"`
	Weekday string `csv:"weekday"`
	Half    string `csv:"half"`
}

// rowErrors collects the parse failures of a file, each located by entity, row and field.
type rowErrors struct {
	entity string
	errs   []error
}

func (re *rowErrors) add(id, field string, err error) {
	re.errs = append(re.errs, &vacation.DataError{Entity: re.entity, ID: id, Field: field, Err: err})
}

func (re *rowErrors) err() error {
	return errors.Join(re.errs...)
}

func atoi(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	return n, nil
}

func split(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ListSeparator) {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func parsePatternInts(s string) (vacation.PatternInts, error) {
	var p vacation.PatternInts
	vs := split(s)
	if len(vs) == 1 {
		n, err := atoi(vs[0])
		if err != nil {
			return p, err
		}
		return vacation.Uniform(n), nil
	}
	if len(vs) != vacation.NumPatterns {
		return p, fmt.Errorf("want 1 or %d values, got %d", vacation.NumPatterns, len(vs))
	}
	for i, v := range vs {
		n, err := atoi(v)
		if err != nil {
			return p, err
		}
		p[i] = n
	}
	return p, nil
}

func parsePatternBools(s string) (vacation.PatternBools, error) {
	var p vacation.PatternBools
	vs := split(s)
	if len(vs) == 0 {
		return vacation.AllOpen(), nil
	}
	if len(vs) != vacation.NumPatterns {
		return p, fmt.Errorf("want %d values, got %d", vacation.NumPatterns, len(vs))
	}
	for i, v := range vs {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return p, fmt.Errorf("%q is not a boolean", v)
		}
		p[i] = b
	}
	return p, nil
}

// ReadDisciplines parses the disciplines file. Capacity holds one value for every pattern or
// one per pattern; an empty open cell means open on every pattern; quotas are LEVEL:n pairs.
func ReadDisciplines(r io.Reader) ([]vacation.Discipline, error) {
	var rows []*disciplineRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("disciplines: %w", err)
	}
	re := &rowErrors{entity: "discipline"}
	out := make([]vacation.Discipline, 0, len(rows))
	for _, row := range rows {
		d := vacation.Discipline{Name: strings.TrimSpace(row.Name), Quota: make(map[vacation.Level]int)}
		var err error
		if d.ID, err = atoi(row.ID); err != nil {
			re.add(row.ID, "id", err)
		}
		if d.Capacity, err = parsePatternInts(row.Capacity); err != nil {
			re.add(row.ID, "capacity", err)
		}
		if d.Open, err = parsePatternBools(row.Open); err != nil {
			re.add(row.ID, "open", err)
		}
		if v := strings.TrimSpace(row.PairWork); v != "" {
			if d.PairWork, err = strconv.ParseBool(v); err != nil {
				re.add(row.ID, "pair_work", fmt.Errorf("%q is not a boolean", v))
			}
		}
		for _, v := range split(row.Levels) {
			l, err := vacation.ParseLevel(v)
			if err != nil {
				re.add(row.ID, "levels", err)
				continue
			}
			d.Levels = append(d.Levels, l)
		}
		for _, v := range split(row.Quotas) {
			name, n, ok := strings.Cut(v, ":")
			if !ok {
				re.add(row.ID, "quotas", fmt.Errorf("%q: want LEVEL:n", v))
				continue
			}
			l, err := vacation.ParseLevel(name)
			if err != nil {
				re.add(row.ID, "quotas", err)
				continue
			}
			q, err := atoi(n)
			if err != nil {
				re.add(row.ID, "quotas", err)
				continue
			}
			d.Quota[l] = q
		}
		out = append(out, d)
	}
	return out, re.err()
}

// ReadStudents parses the students file. Empty partner, preferred_day and period cells mean no
// partner, no preference and no internship.
func ReadStudents(r io.Reader) ([]vacation.Student, error) {
	var rows []*studentRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("students: %w", err)
	}
	re := &rowErrors{entity: "student"}
	out := make([]vacation.Student, 0, len(rows))
	for _, row := range rows {
		s := vacation.Student{Code: strings.TrimSpace(row.Code)}
		var err error
		if s.ID, err = atoi(row.ID); err != nil {
			re.add(row.ID, "id", err)
		}
		if s.Level, err = vacation.ParseLevel(row.Level); err != nil {
			re.add(row.ID, "level", err)
		}
		if s.Partner, err = atoi(row.Partner); err != nil {
			re.add(row.ID, "partner", err)
		}
		if s.PreferredDay, err = vacation.ParseWeekday(row.PreferredDay); err != nil {
			re.add(row.ID, "preferred_day", err)
		}
		if s.Period, err = vacation.ParsePeriod(row.Period); err != nil {
			re.add(row.ID, "period", err)
		}
		out = append(out, s)
	}
	return out, re.err()
}

// ReadStages parses the internship windows file.
func ReadStages(r io.Reader) ([]vacation.Stage, error) {
	var rows []*stageRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("stages: %w", err)
	}
	re := &rowErrors{entity: "stage"}
	out := make([]vacation.Stage, 0, len(rows))
	for i, row := range rows {
		id := strconv.Itoa(i + 1)
		var st vacation.Stage
		var err error
		if st.Level, err = vacation.ParseLevel(row.Level); err != nil {
			re.add(id, "level", err)
		}
		if st.Period, err = vacation.ParsePeriod(row.Period); err != nil {
			re.add(id, "period", err)
		}
		if st.StartWeek, err = atoi(row.StartWeek); err != nil {
			re.add(id, "start_week", err)
		}
		if st.EndWeek, err = atoi(row.EndWeek); err != nil {
			re.add(id, "end_week", err)
		}
		out = append(out, st)
	}
	return out, re.err()
}

// ReadCalendar parses the coursework file.
func ReadCalendar(r io.Reader) ([]vacation.CalendarBlock, error) {
	var rows []*calendarRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("calendar: %w", err)
	}
	re := &rowErrors{entity: "calendar"}
	out := make([]vacation.CalendarBlock, 0, len(rows))
	for i, row := range rows {
		id := strconv.Itoa(i + 1)
		var c vacation.CalendarBlock
		var err error
		if c.Level, err = vacation.ParseLevel(row.Level); err != nil {
			re.add(id, "level", err)
		}
		if c.Week, err = atoi(row.Week); err != nil {
			re.add(id, "week", err)
		}
		if c.Day, err = vacation.ParseWeekday(row.Weekday); err != nil || c.Day == vacation.NoDay {
			re.add(id, "weekday", fmt.Errorf("weekday %q: %w", row.Weekday, vacation.ErrUnknownValue))
		}
		if c.Half, err = vacation.ParseHalf(row.Half); err != nil {
			re.add(id, "half", err)
		}
		out = append(out, c)
	}
	return out, re.err()
}

// Paths locates the input files. Stages and Calendar may be empty.
type Paths struct {
	Disciplines string
	Students    string
	Stages      string
	Calendar    string
}

func readFile[T any](path string, read func(io.Reader) ([]T, error)) ([]T, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	out, err := read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}

// LoadInstance reads every input file and assembles an instance over weeks. Parse failures of
// all files are reported together.
func LoadInstance(p Paths, weeks []int) (*vacation.Instance, error) {
	if p.Disciplines == "" || p.Students == "" {
		return nil, errors.New("disciplines and students files are required")
	}
	inst := &vacation.Instance{Weeks: weeks}
	var errs []error
	var err error
	if inst.Disciplines, err = readFile(p.Disciplines, ReadDisciplines); err != nil {
		errs = append(errs, err)
	}
	if inst.Students, err = readFile(p.Students, ReadStudents); err != nil {
		errs = append(errs, err)
	}
	if inst.Stages, err = readFile(p.Stages, ReadStages); err != nil {
		errs = append(errs, err)
	}
	if inst.Calendar, err = readFile(p.Calendar, ReadCalendar); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return inst, nil
}
