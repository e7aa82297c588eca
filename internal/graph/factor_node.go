package graph

// AddFactorNode ensures name has a vertex, creating one plus its
// NumberFacts and child vertices (its syntactically detected factors) on
// first insertion. Mirrors original_source's add_factor_node: detected
// factors are added recursively (the expression tree is shallow and
// caller-bounded, so native recursion here is fine — only the
// propagation rules are required to be iterative), and an optional
// rootName gets a NotFactor back-edge to name, recording that a factor
// can never itself be a multiple of the number it was detected in.
//
// Returns the existing or newly created NumberFacts and whether this call
// created it.
func (g *Graph) AddFactorNode(name string, finder FactorFinder, rootName string) (*NumberFacts, bool) {
	g.mu.Lock()
	facts, existed := g.facts[name]
	if existed {
		g.mu.Unlock()
		if rootName != "" {
			g.UpsertEdge(rootName, name, NotFactor)
		}
		return facts, false
	}
	g.facts[name] = &NumberFacts{} // placeholder to break detection cycles
	g.mu.Unlock()

	lower, upper := finder.EstimateLog10(name)
	detected := finder.FindUniqueFactors(name)
	childNames := make([]string, 0, len(detected))
	for _, child := range detected {
		if child == name {
			continue
		}
		g.AddFactorNode(child, finder, rootName)
		childNames = append(childNames, child)
	}

	g.mu.Lock()
	g.facts[name] = &NumberFacts{
		LowerBoundLog10: lower,
		UpperBoundLog10: upper,
		DetectedFactors: childNames,
	}
	g.mu.Unlock()

	if rootName != "" {
		g.UpsertEdge(rootName, name, NotFactor)
	}
	return g.facts[name], true
}
