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
	"fmt"
	"math"
	"reflect"
	"sort"

	"github.com/crillab/gophersat/solver"
)

// maxLadderWidth bounds the number of Booleans used to order-encode one integer variable.
const maxLadderWidth = 1 << 14

// errUnsupported is returned for model shapes the pseudo-Boolean backend cannot express.
var errUnsupported = errors.New("unsupported by the pseudo-Boolean backend")

// pbEncoding is the translation of a Model into pseudo-Boolean constraints over DIMACS
// variables 1..numPB.
//
// Variables with a domain inside [0,1] map to one DIMACS variable. Wider integer variables are
// order encoded: value = lo + sum(bits), with bits[k+1] => bits[k]. Fixed variables that are not
// Boolean are folded into constants.
type pbEncoding struct {
	numPB   int
	lit     []int
	ladder  [][]int
	lo      []int64
	hi      []int64
	constrs []solver.PBConstr
	// infeasible is set when a row can never be satisfied.
	infeasible bool

	costLits    []int
	costWeights []int
	costOffset  int64
}

func (e *pbEncoding) newID() int {
	e.numPB++
	return e.numPB
}

func encodeModel(m *Model) (*pbEncoding, error) {
	n := len(m.Variables)
	e := &pbEncoding{
		lit:    make([]int, n),
		ladder: make([][]int, n),
		lo:     make([]int64, n),
		hi:     make([]int64, n),
	}
	for i, v := range m.Variables {
		d, err := FromFlatIntervals(v.Domain)
		if err != nil {
			return nil, fmt.Errorf("variable %d: %w", i, err)
		}
		lo, ok := d.Min()
		if !ok {
			return nil, fmt.Errorf("variable %d has an empty domain", i)
		}
		hi, _ := d.Max()
		if !d.IsContiguous() {
			return nil, fmt.Errorf("variable %d domain %v has holes: %w", i, v.Domain, errUnsupported)
		}
		e.lo[i], e.hi[i] = lo, hi
		switch {
		case lo >= 0 && hi <= 1:
			id := e.newID()
			e.lit[i] = id
			if lo == hi {
				e.addGreaterOrEqual(map[int]int64{id: 2*lo - 1}, lo, nil)
			}
		case lo == hi:
		case hi-lo > maxLadderWidth:
			return nil, fmt.Errorf("variable %d domain width %d: %w", i, hi-lo, errUnsupported)
		default:
			bits := make([]int, hi-lo)
			for k := range bits {
				bits[k] = e.newID()
				if k > 0 {
					e.addGreaterOrEqual(map[int]int64{bits[k-1]: 1, bits[k]: -1}, 0, nil)
				}
			}
			e.ladder[i] = bits
		}
	}

	for ci, ct := range m.Constraints {
		if err := e.encodeConstraint(ct); err != nil {
			return nil, fmt.Errorf("constraint %d (%s %q): %w", ci, ct.Kind, ct.Name, err)
		}
	}

	if m.Objective != nil {
		coef, constant, err := e.linearTerms(m.Objective.Vars, m.Objective.Coeffs)
		if err != nil {
			return nil, fmt.Errorf("objective: %w", err)
		}
		e.costOffset = constant
		for _, id := range sortedIDs(coef) {
			switch c := coef[id]; {
			case c > 0:
				e.costLits = append(e.costLits, id)
				e.costWeights = append(e.costWeights, int(c))
			case c < 0:
				e.costLits = append(e.costLits, -id)
				e.costWeights = append(e.costWeights, int(-c))
				e.costOffset += c
			}
		}
	}

	// The problem size is derived from the largest literal, so the last DIMACS variable is
	// anchored by a dedicated always-true unit.
	anchor := e.newID()
	e.constrs = append(e.constrs, solver.GtEq([]int{anchor}, []int{1}, 1))

	return e, nil
}

// literal returns the signed DIMACS literal of a Boolean model literal.
func (e *pbEncoding) literal(l VarIndex) (int, error) {
	p := l.positiveIndex()
	if int(p) >= len(e.lit) {
		return 0, fmt.Errorf("literal %d refers to an unknown variable", l)
	}
	id := e.lit[p]
	if id == 0 {
		return 0, fmt.Errorf("variable %d is not Boolean", p)
	}
	if l < 0 {
		return -id, nil
	}
	return id, nil
}

// linearTerms expands `sum(coeffs[i] * vars[i])` into coefficients on positive DIMACS variables
// plus a constant.
func (e *pbEncoding) linearTerms(vars []VarIndex, coeffs []int64) (map[int]int64, int64, error) {
	coef := make(map[int]int64, len(vars))
	var constant int64
	for i, v := range vars {
		c := coeffs[i]
		if v < 0 {
			return nil, 0, fmt.Errorf("negated index %d in a linear term", v)
		}
		if int(v) >= len(e.lit) {
			return nil, 0, fmt.Errorf("unknown variable %d", v)
		}
		switch {
		case e.lit[v] != 0:
			coef[e.lit[v]] += c
		case e.ladder[v] != nil:
			constant += c * e.lo[v]
			for _, b := range e.ladder[v] {
				coef[b] += c
			}
		default:
			constant += c * e.lo[v]
		}
	}
	return coef, constant, nil
}

func (e *pbEncoding) enforcement(ls []VarIndex) ([]int, error) {
	var out []int
	for _, l := range ls {
		lit, err := e.literal(l)
		if err != nil {
			return nil, err
		}
		out = append(out, lit)
	}
	return out, nil
}

func (e *pbEncoding) literalCoefs(ls []VarIndex) (map[int]int64, int64, error) {
	coef := make(map[int]int64, len(ls))
	var constant int64
	for _, l := range ls {
		lit, err := e.literal(l)
		if err != nil {
			return nil, 0, err
		}
		if lit > 0 {
			coef[lit]++
		} else {
			// not(x) = 1 - x
			coef[-lit]--
			constant++
		}
	}
	return coef, constant, nil
}

func negate(coef map[int]int64) map[int]int64 {
	out := make(map[int]int64, len(coef))
	for id, c := range coef {
		out[id] = -c
	}
	return out
}

func (e *pbEncoding) encodeConstraint(ct ConstraintDef) error {
	enf, err := e.enforcement(ct.EnforcementLiterals)
	if err != nil {
		return err
	}
	switch ct.Kind {
	case KindBoolOr:
		coef, constant, err := e.literalCoefs(ct.Literals)
		if err != nil {
			return err
		}
		e.addGreaterOrEqual(coef, 1-constant, enf)
	case KindBoolAnd:
		for _, l := range ct.Literals {
			coef, constant, err := e.literalCoefs([]VarIndex{l})
			if err != nil {
				return err
			}
			e.addGreaterOrEqual(coef, 1-constant, enf)
		}
	case KindAtMostOne, KindExactlyOne:
		coef, constant, err := e.literalCoefs(ct.Literals)
		if err != nil {
			return err
		}
		// sum <= 1  <=>  -sum >= -1
		e.addGreaterOrEqual(negate(coef), constant-1, enf)
		if ct.Kind == KindExactlyOne {
			e.addGreaterOrEqual(coef, 1-constant, enf)
		}
	case KindLinear:
		lin := ct.Linear
		if lin == nil || len(lin.Vars) != len(lin.Coeffs) {
			return errors.New("malformed linear constraint")
		}
		d, err := FromFlatIntervals(lin.Domain)
		if err != nil {
			return err
		}
		lb, ok := d.Min()
		if !ok {
			e.addEmpty(enf)
			return nil
		}
		ub, _ := d.Max()
		if !d.IsContiguous() {
			return fmt.Errorf("linear domain %v: %w", lin.Domain, errUnsupported)
		}
		coef, constant, err := e.linearTerms(lin.Vars, lin.Coeffs)
		if err != nil {
			return err
		}
		if lb != math.MinInt64 {
			e.addGreaterOrEqual(coef, lb-constant, enf)
		}
		if ub != math.MaxInt64 {
			e.addGreaterOrEqual(negate(coef), constant-ub, enf)
		}
	default:
		return fmt.Errorf("constraint kind %v: %w", ct.Kind, errUnsupported)
	}
	return nil
}

// addEmpty encodes a constraint whose feasible set is empty: at least one enforcement literal
// must be false.
func (e *pbEncoding) addEmpty(enf []int) {
	if len(enf) == 0 {
		e.infeasible = true
		return
	}
	lits := make([]int, len(enf))
	weights := make([]int, len(enf))
	for i, l := range enf {
		lits[i], weights[i] = -l, 1
	}
	e.constrs = append(e.constrs, solver.GtEq(lits, weights, 1))
}

// mergeLiteral adds `w * lit` to a normalized row, cancelling it against its opposite literal
// if present. `k` is the right-hand side and absorbs the constant produced by the cancellation.
func mergeLiteral(row map[int]int64, lit int, w int64, k *int64) {
	if opp, ok := row[-lit]; ok {
		common := min(opp, w)
		opp -= common
		w -= common
		*k -= common
		if opp == 0 {
			delete(row, -lit)
		} else {
			row[-lit] = opp
		}
	}
	if w > 0 {
		row[lit] += w
	}
}

// addGreaterOrEqual appends `sum(coef[id] * x_id) >= k`, relaxed when any enforcement literal
// is false.
func (e *pbEncoding) addGreaterOrEqual(coef map[int]int64, k int64, enf []int) {
	row := make(map[int]int64, len(coef)+len(enf))
	for _, id := range sortedIDs(coef) {
		switch c := coef[id]; {
		case c > 0:
			row[id] = c
		case c < 0:
			row[-id] = -c
			k -= c
		}
	}
	if k <= 0 {
		return
	}
	bigM := k
	for _, l := range enf {
		mergeLiteral(row, -l, bigM, &k)
	}
	if k <= 0 {
		return
	}

	lits := make([]int, 0, len(row))
	for l := range row {
		lits = append(lits, l)
	}
	sort.Slice(lits, func(i, j int) bool {
		ai, aj := abs(lits[i]), abs(lits[j])
		if ai != aj {
			return ai < aj
		}
		return lits[i] < lits[j]
	})
	weights := make([]int, len(lits))
	var total int64
	for i, l := range lits {
		w := min(row[l], k)
		weights[i] = int(w)
		total += w
	}
	if total < k {
		e.infeasible = true
		return
	}
	e.constrs = append(e.constrs, solver.GtEq(lits, weights, int(k)))
}

// values converts a gophersat model into a slice indexed by DIMACS variable.
//
// Depending on the solver version the keys are either 0-based variables or 1-based DIMACS
// identifiers; both are accepted as long as they are integers.
func (e *pbEncoding) values(mm solver.ModelMap) []bool {
	vals := make([]bool, e.numPB+1)
	zeroBased := false
	keys := make(map[int64]bool, len(mm))
	for k, v := range mm {
		rv := reflect.ValueOf(k)
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			keys[rv.Int()] = v
			if rv.Int() == 0 {
				zeroBased = true
			}
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			keys[int64(rv.Uint())] = v
			if rv.Uint() == 0 {
				zeroBased = true
			}
		}
	}
	for k, v := range keys {
		id := k
		if zeroBased {
			id++
		}
		if id > 0 && id <= int64(e.numPB) {
			vals[id] = v
		}
	}
	return vals
}

// solution maps DIMACS values back onto the model variables.
func (e *pbEncoding) solution(vals []bool) []int64 {
	sol := make([]int64, len(e.lit))
	for i := range sol {
		switch {
		case e.lit[i] != 0:
			if vals[e.lit[i]] {
				sol[i] = 1
			}
		case e.ladder[i] != nil:
			v := e.lo[i]
			for _, b := range e.ladder[i] {
				if vals[b] {
					v++
				}
			}
			sol[i] = v
		default:
			sol[i] = e.lo[i]
		}
	}
	return sol
}

func sortedIDs(coef map[int]int64) []int {
	ids := make([]int, 0, len(coef))
	for id := range coef {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
