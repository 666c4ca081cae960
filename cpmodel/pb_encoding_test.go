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

import (
	"errors"
	"testing"

	"github.com/crillab/gophersat/solver"
	"github.com/google/go-cmp/cmp"
)

func TestEncodeModel_Variables(t *testing.T) {
	model := NewCpModelBuilder()
	b := model.NewBoolVar()
	n := model.NewIntVar(2, 5)
	c := model.NewConstant(7)
	f := model.FalseVar()

	enc, err := encodeModel(mustModel(t, model))
	if err != nil {
		t.Fatalf("encodeModel() returned with unexpected error %v", err)
	}
	if got := enc.lit[b.Index()]; got != 1 {
		t.Errorf("lit[b] = %v, want 1", got)
	}
	if got := len(enc.ladder[n.Index()]); got != 3 {
		t.Errorf("len(ladder[n]) = %v, want 3", got)
	}
	if enc.lit[c.Index()] != 0 || enc.ladder[c.Index()] != nil {
		t.Errorf("constant variable was given DIMACS variables")
	}
	if enc.lit[f.Index()] == 0 {
		t.Errorf("fixed Boolean variable has no DIMACS variable")
	}
	// 1 Boolean, 3 ladder bits, 1 fixed Boolean and the anchor.
	if got := enc.numPB; got != 6 {
		t.Errorf("numPB = %v, want 6", got)
	}
	if enc.infeasible {
		t.Errorf("encodeModel() flagged a feasible model as infeasible")
	}
}

func TestEncodeModel_Unsupported(t *testing.T) {
	model := NewCpModelBuilder()
	model.NewIntVar(0, maxLadderWidth+1)

	_, err := encodeModel(mustModel(t, model))
	if !errors.Is(err, errUnsupported) {
		t.Errorf("encodeModel() returned error %v, want errUnsupported", err)
	}
}

func TestAddGreaterOrEqual(t *testing.T) {
	testCases := []struct {
		name           string
		coef           map[int]int64
		k              int64
		enf            []int
		want           []solver.PBConstr
		wantInfeasible bool
	}{
		{
			name: "Trivial",
			coef: map[int]int64{1: 1},
			k:    0,
		},
		{
			name: "NegativeCoefficients",
			coef: map[int]int64{1: 2, 2: -1},
			k:    1,
			want: []solver.PBConstr{solver.GtEq([]int{1, -2}, []int{2, 1}, 2)},
		},
		{
			name: "SaturatedWeights",
			coef: map[int]int64{1: 5, 2: 1},
			k:    2,
			want: []solver.PBConstr{solver.GtEq([]int{1, 2}, []int{2, 1}, 2)},
		},
		{
			name: "Enforced",
			coef: map[int]int64{1: 1, 2: 1},
			k:    2,
			enf:  []int{3},
			want: []solver.PBConstr{solver.GtEq([]int{1, 2, -3}, []int{1, 1, 2}, 2)},
		},
		{
			name: "EnforcementCancelsOpposite",
			coef: map[int]int64{3: 1},
			k:    1,
			enf:  []int{3},
		},
		{
			name:           "Infeasible",
			coef:           map[int]int64{1: 1, 2: 1},
			k:              3,
			wantInfeasible: true,
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			enc := &pbEncoding{}
			enc.addGreaterOrEqual(test.coef, test.k, test.enf)
			if enc.infeasible != test.wantInfeasible {
				t.Errorf("infeasible = %v, want %v", enc.infeasible, test.wantInfeasible)
			}
			if diff := cmp.Diff(test.want, enc.constrs); diff != "" {
				t.Errorf("addGreaterOrEqual() returned with unexpected diff (-want+got):\n%s", diff)
			}
		})
	}
}

func TestPBEncoding_Values(t *testing.T) {
	enc := &pbEncoding{numPB: 3}
	testCases := []struct {
		name string
		mm   solver.ModelMap
		want []bool
	}{
		{
			name: "ZeroBased",
			mm:   solver.ModelMap{0: true, 1: false, 2: true},
			want: []bool{false, true, false, true},
		},
		{
			name: "OneBased",
			mm:   solver.ModelMap{1: false, 2: true, 3: true},
			want: []bool{false, false, true, true},
		},
		{
			name: "IgnoresOtherKeys",
			mm:   solver.ModelMap{"x": true, 1: true, 7: true},
			want: []bool{false, true, false, false},
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			if diff := cmp.Diff(test.want, enc.values(test.mm)); diff != "" {
				t.Errorf("values() returned with unexpected diff (-want+got):\n%s", diff)
			}
		})
	}
}

func TestPBEncoding_Solution(t *testing.T) {
	model := NewCpModelBuilder()
	model.NewBoolVar()
	model.NewIntVar(-1, 2)
	model.NewConstant(4)

	enc, err := encodeModel(mustModel(t, model))
	if err != nil {
		t.Fatalf("encodeModel() returned with unexpected error %v", err)
	}
	vals := make([]bool, enc.numPB+1)
	vals[enc.lit[0]] = true
	vals[enc.ladder[1][0]] = true
	vals[enc.ladder[1][1]] = true

	want := []int64{1, 1, 4}
	if diff := cmp.Diff(want, enc.solution(vals)); diff != "" {
		t.Errorf("solution() returned with unexpected diff (-want+got):\n%s", diff)
	}
}
