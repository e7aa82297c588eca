package graph

import "testing"

func TestUpsertNeverDowngradesDirect(t *testing.T) {
	g := New()
	if !g.UpsertEdge("a", "b", Direct) {
		t.Fatal("expected first upsert to report a change")
	}
	if g.UpsertEdge("a", "b", Transitive) {
		t.Fatal("Direct must not be downgraded to Transitive")
	}
	got, ok := g.Edge("a", "b")
	if !ok || got != Direct {
		t.Fatalf("edge a->b = %v, ok=%v, want Direct", got, ok)
	}
}

func TestUpsertPromotesTransitiveToDirect(t *testing.T) {
	g := New()
	g.UpsertEdge("a", "b", Transitive)
	if !g.UpsertEdge("a", "b", Direct) {
		t.Fatal("expected Transitive->Direct to report a change")
	}
	got, _ := g.Edge("a", "b")
	if got != Direct {
		t.Fatalf("edge a->b = %v, want Direct", got)
	}
}

func TestUpsertRejectsNoOpReplacement(t *testing.T) {
	g := New()
	g.UpsertEdge("a", "b", NotFactor)
	if g.UpsertEdge("a", "b", NotFactor) {
		t.Fatal("re-upserting the same label should report no change")
	}
}

func TestPropagateDivisibilityTransitiveReach(t *testing.T) {
	g := New()
	// b directly divides c first, then a directly divides b: propagation
	// extends a's reach through b's already-recorded outgoing edge to c,
	// so a ends up Transitive over c, and both c and b are ruled out as
	// factors of a.
	g.PropagateDivisibility("b", "c", false)
	g.PropagateDivisibility("a", "b", false)

	if got, _ := g.Edge("a", "b"); got != Direct {
		t.Fatalf("a->b = %v, want Direct", got)
	}
	if got, _ := g.Edge("b", "c"); got != Direct {
		t.Fatalf("b->c = %v, want Direct", got)
	}
	if got, ok := g.Edge("a", "c"); !ok || got != Transitive {
		t.Fatalf("a->c = %v, ok=%v, want Transitive", got, ok)
	}
	if got, ok := g.Edge("c", "a"); !ok || got != NotFactor {
		t.Fatalf("c->a = %v, ok=%v, want NotFactor", got, ok)
	}
	if got, ok := g.Edge("b", "a"); !ok || got != NotFactor {
		t.Fatalf("b->a = %v, ok=%v, want NotFactor", got, ok)
	}
}

func TestRuleOutDivisibilityPropagatesToIncomingNeighbors(t *testing.T) {
	g := New()
	g.UpsertEdge("x", "y", Direct)
	g.UpsertEdge("y", "z", Direct)

	g.RuleOutDivisibility("n", "z")

	if got, ok := g.Edge("n", "z"); !ok || got != NotFactor {
		t.Fatalf("n->z = %v, ok=%v, want NotFactor", got, ok)
	}
	if got, ok := g.Edge("n", "y"); !ok || got != NotFactor {
		t.Fatalf("n->y = %v, ok=%v, want NotFactor", got, ok)
	}
	if got, ok := g.Edge("n", "x"); !ok || got != NotFactor {
		t.Fatalf("n->x = %v, ok=%v, want NotFactor", got, ok)
	}
}

type stubFinder struct {
	factors map[string][]string
}

func (s stubFinder) EstimateLog10(expr string) (float64, float64) {
	return 1, 2
}

func (s stubFinder) FindUniqueFactors(expr string) []string {
	return s.factors[expr]
}

func TestAddFactorNodeCreatesChildrenAndFacts(t *testing.T) {
	g := New()
	finder := stubFinder{factors: map[string][]string{
		"12": {"2", "3"},
		"2":  nil,
		"3":  nil,
	}}

	facts, created := g.AddFactorNode("12", finder, "")
	if !created {
		t.Fatal("expected first AddFactorNode to report creation")
	}
	if facts.LowerBoundLog10 != 1 || facts.UpperBoundLog10 != 2 {
		t.Fatalf("unexpected log10 bounds: %+v", facts)
	}
	if len(facts.DetectedFactors) != 2 {
		t.Fatalf("expected 2 detected factors, got %v", facts.DetectedFactors)
	}
	if !g.HasVertex("2") || !g.HasVertex("3") {
		t.Fatal("expected child vertices 2 and 3 to exist")
	}

	_, createdAgain := g.AddFactorNode("12", finder, "")
	if createdAgain {
		t.Fatal("second AddFactorNode for the same name should not report creation")
	}
}

func TestAddFactorNodeRootBackEdge(t *testing.T) {
	g := New()
	finder := stubFinder{factors: map[string][]string{"7": nil}}

	g.AddFactorNode("7", finder, "root")

	got, ok := g.Edge("root", "7")
	if !ok || got != NotFactor {
		t.Fatalf("root->7 = %v, ok=%v, want NotFactor", got, ok)
	}
}

func TestCopyEdgesOverridingWeakerKeepsHigherLabel(t *testing.T) {
	g := New()
	g.UpsertEdge("new", "existing", Transitive)

	g.CopyEdgesOverridingWeaker("new",
		map[string]Divisibility{"existing": Direct, "fresh": Transitive},
		nil,
	)

	if got, _ := g.Edge("new", "existing"); got != Direct {
		t.Fatalf("new->existing = %v, want Direct after override", got)
	}
	if got, _ := g.Edge("new", "fresh"); got != Transitive {
		t.Fatalf("new->fresh = %v, want Transitive", got)
	}
}
