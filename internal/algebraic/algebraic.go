// Package algebraic implements FactorFinder, the eight-pattern
// factor-expression parser: given a factordb-style expression string
// (a raw integer, or a recognized algebraic form such as "lucas(k)",
// "2^521-1", "(E)/n", "E1*E2"), it returns the expression's distinct
// syntactic factors, themselves expressed the same way. Grounded on
// original_source/src/algebraic.rs.
package algebraic

import "regexp"

// pattern indices, in the priority order original_source tries them.
const (
	patLucas = iota
	patFibonacci
	patPowerForm
	patRawInteger
	patParens
	patDivByInteger
	patDivByExpr
	patMultiply
	numPatterns
)

// FactorFinder holds the eight anchored patterns compiled once and tried
// in priority order; the first that matches an expression selects how it
// is decomposed.
type FactorFinder struct {
	patterns [numPatterns]*regexp.Regexp
}

// New compiles the eight patterns. Panics only on a compilation error,
// which would indicate a programming mistake in the pattern literals
// below, not a runtime condition.
func New() *FactorFinder {
	raw := [numPatterns]string{
		patLucas:        `^lucas\(([0-9]+)\)$`,
		patFibonacci:    `^I\(([0-9]+)\)$`,
		patPowerForm:    `^([0-9]+)\^([0-9]+)(?:\*([0-9]+))?([+-][0-9]+)?$`,
		patRawInteger:   `^([0-9]+)$`,
		patParens:       `^\(([^()]+)\)$`,
		patDivByInteger: `^([^+-]+|\([^()]+\))/([0-9]+)$`,
		patDivByExpr:    `^([^+-]+|\([^()]+\))/([^+-]+|\([^()]+\))$`,
		patMultiply:     `^([^+-]+|\([^()]+\))\*([^+-]+|\([^()]+\))$`,
	}
	f := &FactorFinder{}
	for i, p := range raw {
		f.patterns[i] = regexp.MustCompile(p)
	}
	return f
}

// firstMatch returns the index of the first pattern (in priority order)
// that matches expr, and its submatches, or ok=false if none match.
func (f *FactorFinder) firstMatch(expr string) (index int, groups []string, ok bool) {
	for i, re := range f.patterns {
		if m := re.FindStringSubmatch(expr); m != nil {
			return i, m, true
		}
	}
	return 0, nil, false
}
