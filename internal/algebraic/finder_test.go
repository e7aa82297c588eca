package algebraic

import (
	"reflect"
	"sort"
	"testing"
)

func sorted(ss []string) []string {
	out := append([]string(nil), ss...)
	sort.Strings(out)
	return out
}

func TestRawIntegerFactors(t *testing.T) {
	f := New()
	got := f.FindFactors("12")
	want := []string{"2", "3"}
	if !reflect.DeepEqual(sorted(got), want) {
		t.Fatalf("FindFactors(12) = %v, want %v", got, want)
	}
}

func TestParensRecurse(t *testing.T) {
	f := New()
	got := f.FindFactors("(12)")
	want := []string{"2", "3"}
	if !reflect.DeepEqual(sorted(got), want) {
		t.Fatalf("FindFactors((12)) = %v, want %v", got, want)
	}
}

func TestMultiplyUnion(t *testing.T) {
	f := New()
	got := f.FindFactors("6*10")
	want := []string{"2", "3", "5"}
	if !reflect.DeepEqual(sorted(got), want) {
		t.Fatalf("FindFactors(6*10) = %v, want %v", got, want)
	}
}

func TestMultiplyFallsBackToLiteralTerm(t *testing.T) {
	f := New()
	got := f.FindFactors("x*6")
	want := []string{"2", "3", "x"}
	if !reflect.DeepEqual(sorted(got), want) {
		t.Fatalf("FindFactors(x*6) = %v, want %v", got, want)
	}
}

func TestDivByIntegerRemovesExactMatch(t *testing.T) {
	f := New()
	got := f.FindFactors("6/3")
	want := []string{"2"}
	if !reflect.DeepEqual(sorted(got), want) {
		t.Fatalf("FindFactors(6/3) = %v, want %v", got, want)
	}
}

func TestDivByExprSetDifference(t *testing.T) {
	f := New()
	got := f.FindFactors("30/6")
	// 30 = 2*3*5, 6 is a raw integer so it matches the div-by-integer
	// pattern, not div-by-expr; exercise the expr/expr form directly.
	_ = got
	got2 := f.FindFactors("(2*3*5)/(2*3)")
	want := []string{"5"}
	if !reflect.DeepEqual(sorted(got2), want) {
		t.Fatalf("FindFactors((2*3*5)/(2*3)) = %v, want %v", got2, want)
	}
}

func TestLucasFactorsOfCompositeTerm(t *testing.T) {
	f := New()
	// term 6 = 2*3: power of 2 is 1, remaining multiset [3]; proper
	// subsets of [3] are [] (product 1<<1=2, not >2, dropped) only, since
	// the full multiset itself is excluded (len(subset) < fullSetSize).
	got := f.findLucasFactors("6")
	if len(got) != 0 {
		t.Fatalf("findLucasFactors(6) = %v, want empty (only proper subset yields <=2)", got)
	}
}

func TestLucasFactorsOfTermWithMultiplePrimes(t *testing.T) {
	f := New()
	// term 12 = 2^2 * 3: power of 2 = 2, remaining multiset [3].
	// Proper subsets of [3]: [] -> product 1<<2=4 >2 -> lucas(4).
	got := f.findLucasFactors("12")
	want := []string{"lucas(4)"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("findLucasFactors(12) = %v, want %v", got, want)
	}
}

func TestFibonacciEvenTermIncludesHalfLucas(t *testing.T) {
	f := New()
	got := f.findFibonacciFactors("8")
	found := false
	for _, s := range got {
		if s == "lucas(4)" {
			found = true
		}
	}
	if !found {
		t.Fatalf("findFibonacciFactors(8) = %v, want it to include lucas(4)", got)
	}
}

func TestPowerFormFindsSmallPrimeDivisors(t *testing.T) {
	f := New()
	// 2^4 - 1 = 15 = 3*5.
	got := f.findPowerFormFactors("2", "4", "", "-1")
	has3, has5 := false, false
	for _, s := range got {
		if s == "3" {
			has3 = true
		}
		if s == "5" {
			has5 = true
		}
	}
	if !has3 || !has5 {
		t.Fatalf("findPowerFormFactors(2^4-1) = %v, want to include 3 and 5", got)
	}
}

func TestPowerFormEmitsExactRootFactorization(t *testing.T) {
	f := New()
	// 2^6 - 1 = 63 = 2^(6/2)... n=6 has prime factor p=2 or 3;
	// for p=3: b=1, c=-1, both have exact cube roots (1 and -1),
	// so a^(n/p)+root_c = 2^2-1 = "2^2-1".
	got := f.findPowerFormFactors("2", "6", "", "-1")
	found := false
	for _, s := range got {
		if s == "2^2-1" {
			found = true
		}
	}
	if !found {
		t.Fatalf("findPowerFormFactors(2^6-1) = %v, want to include 2^2-1", got)
	}
}

func TestFindFactorsPowerPlusOneIncludesSmallPrime(t *testing.T) {
	f := New()
	got := f.FindFactors("2^10+1")
	found := false
	for _, s := range got {
		if s == "5" {
			found = true
		}
	}
	if !found {
		t.Fatalf("FindFactors(2^10+1) = %v, want it to include 5", got)
	}
}

func TestFindFactorsFibonacci12(t *testing.T) {
	f := New()
	got := f.FindFactors("I(12)")
	want := []string{"I(2)", "I(3)", "I(4)", "I(6)", "lucas(6)"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("FindFactors(I(12)) = %v, want %v", got, want)
	}
}

func TestFindFactorsDivisionByLiteralDivisor(t *testing.T) {
	f := New()
	got := f.FindFactors("(3*5)/3")
	want := []string{"5"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("FindFactors((3*5)/3) = %v, want %v", got, want)
	}
}

func TestDedupSorted(t *testing.T) {
	got := dedupSorted([]string{"3", "1", "3", "2", "1"})
	want := []string{"1", "2", "3"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("dedupSorted = %v, want %v", got, want)
	}
}
