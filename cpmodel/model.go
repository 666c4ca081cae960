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

package cpmodel

// Variable is an integer variable of the model. Domain is a flattened list of interval bounds.
type Variable struct {
	Name   string
	Domain []int64
}

// ConstraintKind identifies the shape of a ConstraintDef.
type ConstraintKind int

// Constraint kinds.
const (
	KindLinear ConstraintKind = iota
	KindBoolOr
	KindBoolAnd
	KindAtMostOne
	KindExactlyOne
)

func (k ConstraintKind) String() string {
	switch k {
	case KindLinear:
		return "linear"
	case KindBoolOr:
		return "bool_or"
	case KindBoolAnd:
		return "bool_and"
	case KindAtMostOne:
		return "at_most_one"
	case KindExactlyOne:
		return "exactly_one"
	}
	return "unknown"
}

// LinearDef constrains `sum(Coeffs[i] * Vars[i])` to the flattened interval list Domain.
type LinearDef struct {
	Vars   []VarIndex
	Coeffs []int64
	Domain []int64
}

// ConstraintDef is a constraint of the model. Literals is used by the Boolean kinds, Linear by
// KindLinear. The constraint only applies when all EnforcementLiterals are true.
type ConstraintDef struct {
	Name                string
	Kind                ConstraintKind
	EnforcementLiterals []VarIndex
	Literals            []VarIndex
	Linear              *LinearDef
}

// ObjectiveDef is always stored as a minimization. The user facing value is
// `ScalingFactor * (sum(Coeffs[i] * Vars[i]) + Offset)`; a scaling factor of 0 means 1.
type ObjectiveDef struct {
	Vars          []VarIndex
	Coeffs        []int64
	Offset        int64
	ScalingFactor int64
}

func (o *ObjectiveDef) scaling() int64 {
	if o.ScalingFactor == 0 {
		return 1
	}
	return o.ScalingFactor
}

// PartialAssignment holds solution hints, sorted by variable index.
type PartialAssignment struct {
	Vars   []VarIndex
	Values []int64
}

func (pa *PartialAssignment) Len() int {
	return len(pa.Vars)
}

func (pa *PartialAssignment) Less(i, j int) bool {
	return pa.Vars[i] < pa.Vars[j]
}

func (pa *PartialAssignment) Swap(i, j int) {
	pa.Vars[i], pa.Vars[j] = pa.Vars[j], pa.Vars[i]
	pa.Values[i], pa.Values[j] = pa.Values[j], pa.Values[i]
}

// Model is a complete constraint model as produced by a Builder.
type Model struct {
	Variables    []Variable
	Constraints  []ConstraintDef
	Objective    *ObjectiveDef
	SolutionHint *PartialAssignment
}

// ModelStats summarises the size of a Model.
type ModelStats struct {
	Variables     int
	BoolVariables int
	Constraints   int
	Enforced      int
	ByKind        map[ConstraintKind]int
}

// Stats returns size statistics of the model.
func (m *Model) Stats() ModelStats {
	st := ModelStats{
		Variables:   len(m.Variables),
		Constraints: len(m.Constraints),
		ByKind:      make(map[ConstraintKind]int),
	}
	for _, v := range m.Variables {
		if len(v.Domain) == 2 && v.Domain[0] >= 0 && v.Domain[1] <= 1 {
			st.BoolVariables++
		}
	}
	for _, ct := range m.Constraints {
		st.ByKind[ct.Kind]++
		if len(ct.EnforcementLiterals) > 0 {
			st.Enforced++
		}
	}
	return st
}
