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

// PairAction is what the binôme pass does with one slot of a linked pair.
type PairAction int8

// Pair actions.
const (
	NoConstraint PairAction = iota
	BindEqual
	// ForceFirstZero constrains the first partner's variable to 0.
	ForceFirstZero
	// ForceSecondZero constrains the second partner's variable to 0.
	ForceSecondZero
)

func (a PairAction) String() string {
	switch a {
	case BindEqual:
		return "bind-equal"
	case ForceFirstZero:
		return "force-first-zero"
	case ForceSecondZero:
		return "force-second-zero"
	}
	return "no-constraint"
}

// binomeTable maps the presence of both partners at a slot to the action of the binôme pass.
// A partner away on internship frees the other one; a partner held by coursework holds the
// other one too. Missing entries mean NoConstraint.
var binomeTable = map[[2]Presence]PairAction{
	{Present, Present}:        BindEqual,
	{Present, AbsentStage}:    NoConstraint,
	{AbsentStage, Present}:    NoConstraint,
	{Present, AbsentCalendar}: ForceFirstZero,
	{AbsentCalendar, Present}: ForceSecondZero,
}

// BinomeDecision returns the action for a pair whose partners have presence a and b at a slot.
func BinomeDecision(a, b Presence) PairAction {
	return binomeTable[[2]Presence{a, b}]
}

// binomePass links the variables of paired students in pair-work disciplines.
func (c *compiler) binomePass() {
	for di := range c.inst.Disciplines {
		d := &c.inst.Disciplines[di]
		if !d.PairWork {
			continue
		}
		for si := range c.inst.Students {
			a := &c.inst.Students[si]
			if a.Partner == 0 || a.Partner < a.ID {
				continue
			}
			b, ok := c.students[a.Partner]
			if !ok || !d.Eligible(a.Level) || !d.Eligible(b.Level) {
				continue
			}
			for i := 0; i < c.table.Len(); i++ {
				if !d.Open[c.table.PatternOf(i)] {
					continue
				}
				ka := Key{Student: a.ID, Discipline: d.ID, Slot: i}
				kb := Key{Student: b.ID, Discipline: d.ID, Slot: i}
				xa, okA := c.vars.Get(ka)
				xb, okB := c.vars.Get(kb)
				pa, pb := Present, Present
				if !okA {
					pa = c.el.Presence(a, d, i)
				}
				if !okB {
					pb = c.el.Presence(b, d, i)
				}
				switch BinomeDecision(pa, pb) {
				case BindEqual:
					c.add(FamilyBinome, c.cp.AddEquality(xa, xb))
				case ForceFirstZero:
					c.forceZero(ka, xa)
				case ForceSecondZero:
					c.forceZero(kb, xb)
				}
			}
		}
	}
}
