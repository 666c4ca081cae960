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

// diversityPass applies the level mix policy of every discipline to each of its slots.
func (c *compiler) diversityPass() {
	for di := range c.inst.Disciplines {
		d := &c.inst.Disciplines[di]
		if d.Diversity == DiversityNone {
			continue
		}
		for i := 0; i < c.table.Len(); i++ {
			var groups [][]cpmodel.BoolVar
			for _, l := range d.Levels {
				if xs := c.idx.ByDisciplineSlotLevel[DisciplineSlotLevel{d.ID, i, l}]; len(xs) > 0 {
					groups = append(groups, xs)
				}
			}
			if len(groups) == 0 {
				continue
			}
			name := fmt.Sprintf("d%d_t%d", d.ID, i)
			switch d.Diversity {
			case ExactlyOnePerLevel:
				c.exactlyOnePerLevel(name, groups)
			case AtLeastTwoLevels:
				c.atLeastTwoLevels(name, groups)
			case SingleLevelOnly:
				c.singleLevelOnly(name, groups)
			}
		}
	}
}

// used returns a Boolean that is true iff any of groups is assigned.
func (c *compiler) used(name string, groups [][]cpmodel.BoolVar) cpmodel.BoolVar {
	u := c.cp.NewBoolVar().WithName("used_" + name)
	all := cpmodel.NewLinearExpr()
	for _, xs := range groups {
		for _, x := range xs {
			c.add(FamilyDiversity, c.cp.AddImplication(x, u))
		}
		all.AddBoolSum(xs...)
	}
	c.add(FamilyDiversity, c.cp.AddGreaterOrEqual(all, cpmodel.NewConstant(1)).OnlyEnforceIf(u))
	return u
}

// presence returns a Boolean per group that is true iff the group has an assignment.
func (c *compiler) presence(name string, groups [][]cpmodel.BoolVar) []cpmodel.BoolVar {
	ps := make([]cpmodel.BoolVar, len(groups))
	for g, xs := range groups {
		p := c.cp.NewBoolVar().WithName(fmt.Sprintf("level%d_%s", g, name))
		for _, x := range xs {
			c.add(FamilyDiversity, c.cp.AddImplication(x, p))
		}
		c.add(FamilyDiversity, c.cp.AddBoolOr(xs...).OnlyEnforceIf(p))
		ps[g] = p
	}
	return ps
}

func (c *compiler) exactlyOnePerLevel(name string, groups [][]cpmodel.BoolVar) {
	if len(groups) == 1 {
		if len(groups[0]) > 1 {
			c.add(FamilyDiversity, c.cp.AddAtMostOne(groups[0]...))
		}
		return
	}
	u := c.used(name, groups)
	for _, xs := range groups {
		if len(xs) > 1 {
			c.add(FamilyDiversity, c.cp.AddAtMostOne(xs...))
		}
		c.add(FamilyDiversity, c.cp.AddBoolOr(xs...).OnlyEnforceIf(u))
	}
}

func (c *compiler) atLeastTwoLevels(name string, groups [][]cpmodel.BoolVar) {
	if len(groups) < 2 {
		c.add(FamilyDiversity, c.cp.AddEquality(sum(groups[0]), cpmodel.NewConstant(0)))
		return
	}
	u := c.used(name, groups)
	ps := c.presence(name, groups)
	c.add(FamilyDiversity, c.cp.AddGreaterOrEqual(sum(ps), cpmodel.NewConstant(2)).OnlyEnforceIf(u))
}

func (c *compiler) singleLevelOnly(name string, groups [][]cpmodel.BoolVar) {
	if len(groups) < 2 {
		return
	}
	ps := c.presence(name, groups)
	c.add(FamilyDiversity, c.cp.AddAtMostOne(ps...))
}

// substitutionPass requires level To to fill Percent of the capacity of every slot where level
// From has no assignment.
func (c *compiler) substitutionPass() {
	for di := range c.inst.Disciplines {
		d := &c.inst.Disciplines[di]
		r := d.Substitution
		if r == nil || r.Percent <= 0 {
			continue
		}
		for i := 0; i < c.table.Len(); i++ {
			to := c.idx.ByDisciplineSlotLevel[DisciplineSlotLevel{d.ID, i, r.To}]
			capacity := d.EffectiveCapacity(c.table.PatternOf(i))
			need := min((r.Percent*capacity+99)/100, len(to))
			if need == 0 {
				continue
			}
			from := c.idx.ByDisciplineSlotLevel[DisciplineSlotLevel{d.ID, i, r.From}]
			fill := c.cp.AddGreaterOrEqual(sum(to), cpmodel.NewConstant(int64(need)))
			c.add(FamilySubstitution, fill)
			if len(from) == 0 {
				continue
			}
			absent := c.cp.NewBoolVar().WithName(fmt.Sprintf("absent_%v_d%d_t%d", r.From, d.ID, i))
			fill.OnlyEnforceIf(absent)
			c.add(FamilySubstitution, c.cp.AddBoolAnd(negated(from)...).OnlyEnforceIf(absent))
			c.add(FamilySubstitution, c.cp.AddBoolOr(from...).OnlyEnforceIf(absent.Not()))
		}
	}
}

func negated(xs []cpmodel.BoolVar) []cpmodel.BoolVar {
	out := make([]cpmodel.BoolVar, len(xs))
	for i, x := range xs {
		out[i] = x.Not()
	}
	return out
}
