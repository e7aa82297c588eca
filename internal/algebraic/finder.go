package algebraic

import (
	"fmt"
	"math/big"
	"sort"
	"strconv"
	"strings"
)

// FindFactors returns expr's distinct syntactic factors, sorted and
// deduplicated, per the eight patterns tried in priority order. An
// expression matching none of them yields nil (no factors), matching
// original_source's "no match: empty factor list" fallthrough; the
// multiplication branch then falls back to the literal term for such a
// side.
func (f *FactorFinder) FindFactors(expr string) []string {
	index, groups, ok := f.firstMatch(expr)
	if !ok {
		return nil
	}

	var factors []string
	switch index {
	case patLucas:
		factors = f.findLucasFactors(groups[1])
	case patFibonacci:
		factors = f.findFibonacciFactors(groups[1])
	case patPowerForm:
		factors = f.findPowerFormFactors(groups[1], groups[2], groups[3], groups[4])
	case patRawInteger:
		factors = f.findRawIntegerFactors(expr)
	case patParens:
		factors = f.FindFactors(groups[1])
	case patDivByInteger:
		factors = f.findDivByIntegerFactors(groups[1], groups[2])
	case patDivByExpr:
		factors = f.findDivByExprFactors(groups[1], groups[2])
	case patMultiply:
		factors = f.findMultiplyFactors(groups[1], groups[2])
	}

	return dedupSorted(factors)
}

func dedupSorted(factors []string) []string {
	if len(factors) == 0 {
		return nil
	}
	sort.Strings(factors)
	out := factors[:1]
	for _, s := range factors[1:] {
		if s != out[len(out)-1] {
			out = append(out, s)
		}
	}
	return out
}

// findLucasFactors handles lucas(k): k = 2^e * m; for every proper
// sub-multiset of m's prime factors, emits lucas(2^e * product) when that
// value exceeds 2.
func (f *FactorFinder) findLucasFactors(termStr string) []string {
	term, err := strconv.ParseUint(termStr, 10, 64)
	if err != nil {
		return nil
	}
	factorsOfTerm := factorizeUint64(term)
	powerOf2 := uint64(factorsOfTerm[2])
	delete(factorsOfTerm, 2)
	multiset := expandFactors(factorsOfTerm)
	fullSetSize := len(multiset)

	var out []string
	for _, subset := range powerMultiset(multiset) {
		if len(subset) < fullSetSize {
			product := productUint64(subset) << powerOf2
			if product > 2 {
				out = append(out, fmt.Sprintf("lucas(%d)", product))
			}
		}
	}
	return out
}

// findFibonacciFactors handles I(k) (Fibonacci): if k is even, lucas(k/2)
// is a factor; additionally every proper non-empty sub-multiset of k's
// prime factors with product >= 2 contributes I(product).
func (f *FactorFinder) findFibonacciFactors(termStr string) []string {
	term, err := strconv.ParseUint(termStr, 10, 64)
	if err != nil {
		return nil
	}
	var out []string
	if term%2 == 0 {
		out = append(out, fmt.Sprintf("lucas(%d)", term/2))
	}
	multiset := expandFactors(factorizeUint64(term))
	fullSetSize := len(multiset)
	for _, subset := range powerMultiset(multiset) {
		if len(subset) < fullSetSize && len(subset) > 0 {
			product := productUint64(subset)
			if product >= 2 {
				out = append(out, fmt.Sprintf("I(%d)", product))
			}
		}
	}
	return out
}

// findPowerFormFactors handles a^n*b+c: emits any gcd-derived small
// factors of c, then every small prime dividing a^n*b+c, then an exact
// p-th-root factorization a^(n/p)*root_b+root_c whenever n has a prime
// factor p for which b and c both have exact p-th roots.
func (f *FactorFinder) findPowerFormFactors(aStr, nStr, bStr, cStr string) []string {
	a, ok := new(big.Int).SetString(aStr, 10)
	if !ok {
		return nil
	}
	n, ok := new(big.Int).SetString(nStr, 10)
	if !ok {
		return nil
	}
	b := big.NewInt(1)
	if bStr != "" {
		b, ok = new(big.Int).SetString(bStr, 10)
		if !ok {
			return nil
		}
	}
	c := big.NewInt(0)
	if cStr != "" {
		c, ok = new(big.Int).SetString(cStr, 10)
		if !ok {
			return nil
		}
	}

	absC := new(big.Int).Abs(c)
	gcdAC := new(big.Int).GCD(nil, nil, a, absC)
	gcdBC := new(big.Int).GCD(nil, nil, b, absC)

	var out []string
	if gcdAC.Cmp(big.NewInt(1)) > 0 {
		out = append(out, gcdAC.String())
	}
	if gcdBC.Cmp(big.NewInt(1)) > 0 {
		out = append(out, gcdBC.String())
	}
	if gcdBC.Sign() > 0 {
		b = new(big.Int).Div(b, gcdBC)
		c = new(big.Int).Div(c, gcdBC)
	}

	for _, primeU64 := range smallPrimes {
		prime := new(big.Int).SetUint64(primeU64)

		// a^n*b + c mod prime == 0 ?
		term := new(big.Int).Exp(a, n, prime)
		term.Mul(term, b)
		term.Add(term, c)
		term.Mod(term, prime)
		if term.Sign() < 0 {
			term.Add(term, prime)
		}
		if term.Sign() == 0 {
			out = append(out, primeU64String(primeU64))
		}

		if new(big.Int).Mod(n, prime).Sign() != 0 {
			continue
		}
		if primeU64 == 2 && c.Sign() <= 0 {
			continue
		}
		rootC, okC := nthRootExact(c, primeU64)
		rootB, okB := nthRootExact(b, primeU64)
		if !okC || !okB {
			continue
		}

		nOverP := new(big.Int).Div(n, prime)
		var sb strings.Builder
		sb.WriteString(a.String())
		if nOverP.Cmp(big.NewInt(1)) > 0 {
			sb.WriteString("^")
			sb.WriteString(nOverP.String())
		}
		if rootB.Cmp(big.NewInt(1)) > 0 {
			sb.WriteString("*")
			sb.WriteString(rootB.String())
		}
		if rootC.Sign() != 0 {
			if rootC.Sign() > 0 {
				sb.WriteString("+")
			}
			sb.WriteString(rootC.String())
		}
		out = append(out, sb.String())
	}
	return out
}

func primeU64String(p uint64) string {
	return strconv.FormatUint(p, 10)
}

// findRawIntegerFactors returns the distinct prime factors of a raw
// integer literal, or the literal itself if it overflows uint64 (this
// implementation's factorization ceiling).
func (f *FactorFinder) findRawIntegerFactors(expr string) []string {
	n, err := strconv.ParseUint(expr, 10, 64)
	if err != nil {
		return []string{expr}
	}
	factors := factorizeUint64(n)
	out := make([]string, 0, len(factors))
	for p := range factors {
		out = append(out, strconv.FormatUint(p, 10))
	}
	return out
}

// findDivByIntegerFactors handles E/n where n is a raw integer: remove n
// itself from E's factors if present; otherwise strip the gcd(n, s) part
// out of every numeric factor s that shares one.
func (f *FactorFinder) findDivByIntegerFactors(numeratorExpr, divisorStr string) []string {
	numerator := f.FindFactors(numeratorExpr)
	divisor, err := strconv.ParseUint(divisorStr, 10, 64)
	if err != nil {
		return numerator
	}

	set := make(map[string]struct{}, len(numerator))
	for _, s := range numerator {
		set[s] = struct{}{}
	}
	divisorStrNorm := strconv.FormatUint(divisor, 10)
	if _, present := set[divisorStrNorm]; present {
		delete(set, divisorStrNorm)
	} else {
		for s := range set {
			other, err := strconv.ParseUint(s, 10, 64)
			if err != nil {
				continue
			}
			g := gcdUint64(divisor, other)
			if g > 1 {
				delete(set, s)
				if other/g > 1 {
					set[strconv.FormatUint(other/g, 10)] = struct{}{}
				}
			}
		}
	}

	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	return out
}

// findDivByExprFactors handles E1/E2: the set difference of their factors.
func (f *FactorFinder) findDivByExprFactors(numeratorExpr, denominatorExpr string) []string {
	numerator := f.FindFactors(numeratorExpr)
	denominator := make(map[string]struct{})
	for _, s := range f.FindFactors(denominatorExpr) {
		denominator[s] = struct{}{}
	}
	out := make([]string, 0, len(numerator))
	for _, s := range numerator {
		if _, excluded := denominator[s]; !excluded {
			out = append(out, s)
		}
	}
	return out
}

// findMultiplyFactors handles E1*E2: the union of their factors, falling
// back to the literal term for any side that yields nothing.
func (f *FactorFinder) findMultiplyFactors(leftExpr, rightExpr string) []string {
	var out []string
	for _, term := range [2]string{leftExpr, rightExpr} {
		termFactors := f.FindFactors(term)
		if len(termFactors) == 0 {
			out = append(out, term)
		} else {
			out = append(out, termFactors...)
		}
	}
	return out
}
