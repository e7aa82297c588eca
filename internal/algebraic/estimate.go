package algebraic

import (
	"math"
	"math/big"
	"strconv"
)

// log10Phi is log10 of the golden ratio, used to approximate the order of
// magnitude of a Lucas or Fibonacci term: L(k) grows as phi^k and F(k) as
// phi^k/sqrt(5), both within the ±0.5 margin of k*log10(phi).
const log10Phi = 0.20898764024997873

// FindUniqueFactors is the single-level decomposition AddFactorNode uses
// to discover an expression's immediate syntactic children; it is
// FindFactors with the result simply renamed for that call site, since
// original_source's add_factor_node and FactorFinder::find_factors share
// the same traversal.
func (f *FactorFinder) FindUniqueFactors(expr string) []string {
	return f.FindFactors(expr)
}

// EstimateLog10 returns a (lower, upper) bound on log10 of the value expr
// denotes, used to size a newly created vertex's NumberFacts without
// evaluating the (potentially huge) number itself.
func (f *FactorFinder) EstimateLog10(expr string) (lower, upper float64) {
	index, groups, ok := f.firstMatch(expr)
	if !ok {
		n := float64(len(expr))
		return n - 1, n
	}

	switch index {
	case patLucas, patFibonacci:
		term, err := strconv.ParseFloat(groups[1], 64)
		if err != nil {
			return 0, 0
		}
		estimate := term * log10Phi
		return estimate - 0.5, estimate + 0.5
	case patPowerForm:
		a, okA := new(big.Int).SetString(groups[1], 10)
		n, okN := new(big.Int).SetString(groups[2], 10)
		if !okA || !okN {
			return 0, 0
		}
		aLog := math.Log10(bigIntApproxFloat(a))
		nFloat := bigIntApproxFloat(n)
		estimate := aLog * nFloat
		return estimate - 0.5, estimate + 0.5
	case patRawInteger:
		n := float64(len(expr))
		return n - 1, n
	case patParens:
		return f.EstimateLog10(groups[1])
	case patDivByInteger:
		lower, upper = f.EstimateLog10(groups[1])
		divisorDigits := float64(len(groups[2]))
		return lower - divisorDigits, upper - divisorDigits + 1
	case patDivByExpr:
		l1, u1 := f.EstimateLog10(groups[1])
		l2, u2 := f.EstimateLog10(groups[2])
		return l1 - u2, u1 - l2
	case patMultiply:
		l1, u1 := f.EstimateLog10(groups[1])
		l2, u2 := f.EstimateLog10(groups[2])
		return l1 + l2, u1 + u2
	default:
		n := float64(len(expr))
		return n - 1, n
	}
}

// bigIntApproxFloat converts a big.Int to a float64 approximation,
// sufficient for an order-of-magnitude estimate (never used for exact
// arithmetic).
func bigIntApproxFloat(x *big.Int) float64 {
	f := new(big.Float).SetInt(x)
	v, _ := f.Float64()
	if math.IsInf(v, 0) {
		// x has more digits than float64 can represent; fall back to a
		// decimal-digit-count approximation.
		return math.Pow(10, float64(len(x.String())))
	}
	return v
}
