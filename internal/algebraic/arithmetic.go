package algebraic

import "math/big"

// smallPrimes is the trial-division set used to test small-prime
// divisibility of a^n*b+c without factoring the whole expression.
// Grounded on num_prime::detail::SMALL_PRIMES in original_source; no
// equivalent constant exists in the Go example pack, so the list is
// reproduced directly (first primes below 300).
var smallPrimes = []uint64{
	2, 3, 5, 7, 11, 13, 17, 19, 23, 29, 31, 37, 41, 43, 47, 53, 59, 61, 67,
	71, 73, 79, 83, 89, 97, 101, 103, 107, 109, 113, 127, 131, 137, 139,
	149, 151, 157, 163, 167, 173, 179, 181, 191, 193, 197, 199, 211, 223,
	227, 229, 233, 239, 241, 251, 257, 263, 269, 271, 277, 281, 283, 293,
}

// factorizeUint64 returns the prime factorization of n as a map from
// prime to exponent, via trial division. Stands in for
// num_prime::nt_funcs::factorize128: no general-purpose factorization
// library appears anywhere in the example pack, and the term numbers this
// is applied to (Lucas/Fibonacci indices) are small enough for trial
// division to be adequate.
func factorizeUint64(n uint64) map[uint64]int {
	factors := make(map[uint64]int)
	if n == 0 {
		return factors
	}
	for _, p := range smallPrimes {
		for n%p == 0 {
			factors[p]++
			n /= p
		}
	}
	for d := uint64(307); d*d <= n; d += 2 {
		for n%d == 0 {
			factors[d]++
			n /= d
		}
	}
	if n > 1 {
		factors[n]++
	}
	return factors
}

// expandFactors flattens a prime->exponent map into a repeated-element
// multiset, e.g. {2:3, 5:1} -> [2,2,2,5].
func expandFactors(factors map[uint64]int) []uint64 {
	out := make([]uint64, 0)
	for p, e := range factors {
		for i := 0; i < e; i++ {
			out = append(out, p)
		}
	}
	return out
}

func gcdUint64(a, b uint64) uint64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func productUint64(vals []uint64) uint64 {
	p := uint64(1)
	for _, v := range vals {
		p *= v
	}
	return p
}

// nthRootExact returns the integer nth root of x, if x is a perfect nth
// power, via Newton's method followed by an exactness check. math/big has
// no built-in root-extraction, unlike num_prime's ExactRoots trait.
func nthRootExact(x *big.Int, n uint64) (*big.Int, bool) {
	if n == 0 {
		return nil, false
	}
	if x.Sign() < 0 {
		if n%2 == 0 {
			return nil, false // no real even root of a negative number
		}
		root, ok := nthRootExact(new(big.Int).Neg(x), n)
		if !ok {
			return nil, false
		}
		return new(big.Int).Neg(root), true
	}
	if x.Sign() == 0 {
		return big.NewInt(0), true
	}
	if n == 1 {
		return new(big.Int).Set(x), true
	}

	bigN := new(big.Int).SetUint64(n)
	guess := new(big.Int).Set(x)
	one := big.NewInt(1)
	for {
		// next = ((n-1)*guess + x/guess^(n-1)) / n
		guessPow := new(big.Int).Exp(guess, new(big.Int).SetUint64(n-1), nil)
		if guessPow.Sign() == 0 {
			break
		}
		term := new(big.Int).Div(x, guessPow)
		next := new(big.Int).Mul(guess, new(big.Int).Sub(bigN, one))
		next.Add(next, term)
		next.Div(next, bigN)
		if next.Cmp(guess) >= 0 {
			break
		}
		guess = next
	}
	// guess is now floor(x^(1/n)) or very close; probe a small window for
	// the exact root.
	for _, candidate := range []*big.Int{
		new(big.Int).Sub(guess, one),
		guess,
		new(big.Int).Add(guess, one),
	} {
		if candidate.Sign() < 0 {
			continue
		}
		pow := new(big.Int).Exp(candidate, new(big.Int).SetUint64(n), nil)
		if pow.Cmp(x) == 0 {
			return candidate, true
		}
	}
	return nil, false
}
