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
	"fmt"

	"github.com/dentaplan/vacations/cpmodel"
)

// Key identifies a decision variable.
type Key struct {
	Student    int
	Discipline int
	Slot       int
}

// Variables holds one Boolean per possible assignment. A missing key means the assignment is
// impossible, which is different from a variable constrained to 0.
type Variables struct {
	keys []Key
	vars map[Key]cpmodel.BoolVar
}

// Len returns the number of decision variables.
func (v *Variables) Len() int {
	return len(v.keys)
}

// Keys returns the keys in creation order.
func (v *Variables) Keys() []Key {
	return v.keys
}

// Get returns the variable of k.
func (v *Variables) Get(k Key) (cpmodel.BoolVar, bool) {
	bv, ok := v.vars[k]
	return bv, ok
}

// BuildVariables creates one Boolean per (student, discipline, slot) triple that is Present,
// iterating slots, then disciplines, then students.
func BuildVariables(cp *cpmodel.Builder, inst *Instance, table *SlotTable, el *Eligibility) *Variables {
	v := &Variables{vars: make(map[Key]cpmodel.BoolVar)}
	for i := 0; i < table.Len(); i++ {
		for di := range inst.Disciplines {
			d := &inst.Disciplines[di]
			if !d.Open[table.PatternOf(i)] {
				continue
			}
			for si := range inst.Students {
				s := &inst.Students[si]
				if el.Presence(s, d, i) != Present {
					continue
				}
				k := Key{Student: s.ID, Discipline: d.ID, Slot: i}
				v.keys = append(v.keys, k)
				v.vars[k] = cp.NewBoolVar().WithName(fmt.Sprintf("x_s%d_d%d_t%d", s.ID, d.ID, i))
			}
		}
	}
	return v
}
