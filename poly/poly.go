// Package poly builds and evaluates integer polynomials exactly.
//
// Coefficient slices are in ascending degree order: coeffs[i] multiplies x^i.
package poly

import "math/big"

// Expand returns the coefficients of the monic polynomial prod(x - r) over
// the distinct roots. Repeated roots contribute one factor, so the result
// has one more entry than there are distinct roots. Expand(nil) is the
// constant polynomial [1].
func Expand(roots []*big.Int) []*big.Int {
	coeffs := []*big.Int{big.NewInt(1)}
	seen := make(map[string]struct{}, len(roots))
	for _, r := range roots {
		key := r.String()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		// (x - r) * P(x): shift up one degree, then subtract r * P(x)
		next := make([]*big.Int, len(coeffs)+1)
		next[0] = big.NewInt(0)
		for i, a := range coeffs {
			next[i+1] = new(big.Int).Set(a)
		}
		term := new(big.Int)
		for i, a := range coeffs {
			term.Mul(r, a)
			next[i].Sub(next[i], term)
		}
		coeffs = next
	}
	return coeffs
}

// Evaluate returns P(x) by Horner's method.
func Evaluate(coeffs []*big.Int, x *big.Int) *big.Int {
	acc := big.NewInt(0)
	for i := len(coeffs) - 1; i >= 0; i -= 1 {
		acc.Mul(acc, x)
		acc.Add(acc, coeffs[i])
	}
	return acc
}

// Powers returns [base^0, base^1, ..., base^maxPower], each reduced mod
// mod unless mod is nil.
func Powers(base *big.Int, maxPower int, mod *big.Int) []*big.Int {
	if maxPower < 0 {
		return nil
	}
	b := new(big.Int).Set(base)
	if mod != nil {
		b.Mod(b, mod)
	}
	powers := make([]*big.Int, maxPower+1)
	current := big.NewInt(1)
	if mod != nil {
		current.Mod(current, mod)
	}
	for i := range powers {
		powers[i] = new(big.Int).Set(current)
		current.Mul(current, b)
		if mod != nil {
			current.Mod(current, mod)
		}
	}
	return powers
}

// spot checks of Verify cover the integers in [-verifyRange, verifyRange]
const verifyRange = 10

// Verify reports whether coeffs is monic, vanishes at every root and at no
// other integer in [-10, 10].
func Verify(roots, coeffs []*big.Int) bool {
	if len(coeffs) == 0 || coeffs[len(coeffs)-1].Cmp(big.NewInt(1)) != 0 {
		return false
	}
	isRoot := make(map[string]bool, len(roots))
	for _, r := range roots {
		if Evaluate(coeffs, r).Sign() != 0 {
			return false
		}
		isRoot[r.String()] = true
	}
	for v := int64(-verifyRange); v <= verifyRange; v++ {
		x := big.NewInt(v)
		if isRoot[x.String()] {
			continue
		}
		if Evaluate(coeffs, x).Sign() == 0 {
			return false
		}
	}
	return true
}
