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

// StudentSlot groups the variables of one student at one slot.
type StudentSlot struct {
	Student int
	Slot    int
}

// DisciplineSlot groups the variables of one discipline at one slot.
type DisciplineSlot struct {
	Discipline int
	Slot       int
}

// StudentDiscipline groups the variables of one student in one discipline.
type StudentDiscipline struct {
	Student    int
	Discipline int
}

// StudentDisciplineWeek groups the variables of one student in one discipline during the week at
// rotation position Week.
type StudentDisciplineWeek struct {
	Student    int
	Discipline int
	Week       int
}

// DisciplineSlotLevel groups the variables of one level in one discipline at one slot.
type DisciplineSlotLevel struct {
	Discipline int
	Slot       int
	Level      Level
}

// SlotVar is a variable together with its slot index.
type SlotVar struct {
	Slot int
	Var  cpmodel.BoolVar
}

// Index groups the decision variables by the access patterns of the constraint passes. Lists
// follow variable creation order, so SlotVar lists are sorted by slot.
type Index struct {
	ByStudentSlot           map[StudentSlot][]cpmodel.BoolVar
	ByDisciplineSlot        map[DisciplineSlot][]cpmodel.BoolVar
	ByStudentDiscipline     map[StudentDiscipline][]SlotVar
	ByStudentDisciplineWeek map[StudentDisciplineWeek][]SlotVar
	ByDisciplineSlotLevel   map[DisciplineSlotLevel][]cpmodel.BoolVar
}

// BuildIndex fills every index in a single pass over vars.
func BuildIndex(vars *Variables, inst *Instance, table *SlotTable) *Index {
	levels := make(map[int]Level, len(inst.Students))
	for _, s := range inst.Students {
		levels[s.ID] = s.Level
	}
	idx := &Index{
		ByStudentSlot:           make(map[StudentSlot][]cpmodel.BoolVar),
		ByDisciplineSlot:        make(map[DisciplineSlot][]cpmodel.BoolVar),
		ByStudentDiscipline:     make(map[StudentDiscipline][]SlotVar),
		ByStudentDisciplineWeek: make(map[StudentDisciplineWeek][]SlotVar),
		ByDisciplineSlotLevel:   make(map[DisciplineSlotLevel][]cpmodel.BoolVar),
	}
	for _, k := range vars.keys {
		x := vars.vars[k]
		sv := SlotVar{Slot: k.Slot, Var: x}
		ss := StudentSlot{k.Student, k.Slot}
		ds := DisciplineSlot{k.Discipline, k.Slot}
		sd := StudentDiscipline{k.Student, k.Discipline}
		sdw := StudentDisciplineWeek{k.Student, k.Discipline, table.PositionOf(k.Slot)}
		dsl := DisciplineSlotLevel{k.Discipline, k.Slot, levels[k.Student]}

		idx.ByStudentSlot[ss] = append(idx.ByStudentSlot[ss], x)
		idx.ByDisciplineSlot[ds] = append(idx.ByDisciplineSlot[ds], x)
		idx.ByStudentDiscipline[sd] = append(idx.ByStudentDiscipline[sd], sv)
		idx.ByStudentDisciplineWeek[sdw] = append(idx.ByStudentDisciplineWeek[sdw], sv)
		idx.ByDisciplineSlotLevel[dsl] = append(idx.ByDisciplineSlotLevel[dsl], x)
	}
	return idx
}

// Week returns the variables of (student, discipline) during rotation position pos.
func (idx *Index) Week(student, discipline, pos int) []SlotVar {
	return idx.ByStudentDisciplineWeek[StudentDisciplineWeek{student, discipline, pos}]
}

// Weeks returns the variables of (student, discipline) during rotation positions [from, to).
func (idx *Index) Weeks(student, discipline, from, to int) []cpmodel.BoolVar {
	var out []cpmodel.BoolVar
	for p := from; p < to; p++ {
		for _, sv := range idx.Week(student, discipline, p) {
			out = append(out, sv.Var)
		}
	}
	return out
}

func boolVars(svs []SlotVar) []cpmodel.BoolVar {
	out := make([]cpmodel.BoolVar, len(svs))
	for i, sv := range svs {
		out[i] = sv.Var
	}
	return out
}
