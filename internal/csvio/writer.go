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

package csvio

import (
	"fmt"
	"io"
	"os"

	"github.com/dentaplan/vacations/vacation"
	"github.com/gocarina/gocsv"
)

// AssignmentRow is one line of the assignments export.
type AssignmentRow struct {
	Student    int    `csv:"student"`
	Code       string `csv:"code"`
	Discipline int    `csv:"discipline"`
	Week       int    `csv:"week"`
	Weekday    string `csv:"weekday"`
	Half       string `csv:"half"`
}

// AssignmentRows converts keys into export rows, in the order of keys.
func AssignmentRows(c *vacation.Compiled, keys []vacation.Key) []*AssignmentRow {
	codes := make(map[int]string, len(c.Instance.Students))
	for _, s := range c.Instance.Students {
		codes[s.ID] = s.Code
	}
	rows := make([]*AssignmentRow, 0, len(keys))
	for _, k := range keys {
		slot := c.Table.Slot(k.Slot)
		rows = append(rows, &AssignmentRow{
			Student:    k.Student,
			Code:       codes[k.Student],
			Discipline: k.Discipline,
			Week:       slot.Week,
			Weekday:    slot.Day.String(),
			Half:       slot.Half.String(),
		})
	}
	return rows
}

// WriteAssignments writes the assignments of keys as CSV, header included.
func WriteAssignments(w io.Writer, c *vacation.Compiled, keys []vacation.Key) error {
	rows := AssignmentRows(c, keys)
	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("writing assignments: %w", err)
	}
	return nil
}

// ExportAssignments writes the assignments of keys to path, replacing any existing file.
func ExportAssignments(path string, c *vacation.Compiled, keys []vacation.Key) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteAssignments(out, c, keys); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
