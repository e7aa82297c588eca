package graph

// Work items drive the propagation/rule-out rules from explicit stacks
// instead of Go call-stack recursion, per the requirement that the
// recursively-specified rules be implementable iteratively with a bounded
// worklist.
type propagateWork struct {
	factor, dest string
	transitive   bool
}

type ruleOutWork struct {
	nonfactor, dest string
}

// PropagateDivisibility records that factor divides dest (Direct if
// transitive is false, Transitive otherwise), then works outward: every
// vertex dest is known to divide in turn gets a Transitive edge from
// factor, and every such vertex's factor is ruled out as a multiple of
// factor. Mirrors original_source's mutually recursive
// propagate_divisibility / rule_out_divisibility pair, driven here by two
// worklists so neither rule recurses on the Go call stack.
func (g *Graph) PropagateDivisibility(factor, dest string, transitive bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	propagateStack := []propagateWork{{factor, dest, transitive}}
	var ruleOutStack []ruleOutWork

	for len(propagateStack) > 0 || len(ruleOutStack) > 0 {
		for len(propagateStack) > 0 {
			n := len(propagateStack) - 1
			w := propagateStack[n]
			propagateStack = propagateStack[:n]
			propagateStack, ruleOutStack = g.stepPropagate(w, propagateStack, ruleOutStack)
		}
		for len(ruleOutStack) > 0 {
			n := len(ruleOutStack) - 1
			w := ruleOutStack[n]
			ruleOutStack = ruleOutStack[:n]
			propagateStack, ruleOutStack = g.stepRuleOut(w, propagateStack, ruleOutStack)
		}
	}
}

// stepPropagate applies one propagateWork item, mutating the graph and
// returning the (possibly grown) worklists. Must be called with g.mu held.
func (g *Graph) stepPropagate(w propagateWork, propagateStack []propagateWork, ruleOutStack []ruleOutWork) ([]propagateWork, []ruleOutWork) {
	if w.transitive {
		g.upsertLocked(w.factor, w.dest, Transitive)
	} else {
		g.upsertLocked(w.factor, w.dest, Direct)
	}

	// A factor of the original vertex cannot also be a multiple of it.
	ruleOutStack = append(ruleOutStack, ruleOutWork{w.dest, w.factor})

	for _, n := range g.outNeighborsLocked(w.dest) {
		if n == w.factor {
			continue
		}
		if g.upsertLocked(w.factor, n, Transitive) {
			propagateStack = append(propagateStack, propagateWork{w.factor, n, true})
		}
		if g.upsertLocked(n, w.factor, NotFactor) {
			ruleOutStack = append(ruleOutStack, ruleOutWork{n, w.factor})
		}
	}
	return propagateStack, ruleOutStack
}

// RuleOutDivisibility records that nonfactor does not divide dest, then
// propagates the same conclusion to every incoming Direct/Transitive
// neighbor of dest: if nonfactor does not divide a multiple of p, it does
// not divide p either.
func (g *Graph) RuleOutDivisibility(nonfactor, dest string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	ruleOutStack := []ruleOutWork{{nonfactor, dest}}
	for len(ruleOutStack) > 0 {
		n := len(ruleOutStack) - 1
		w := ruleOutStack[n]
		ruleOutStack = ruleOutStack[:n]
		_, ruleOutStack = g.stepRuleOut(w, nil, ruleOutStack)
	}
}

// stepRuleOut applies one ruleOutWork item. Must be called with g.mu held.
func (g *Graph) stepRuleOut(w ruleOutWork, propagateStack []propagateWork, ruleOutStack []ruleOutWork) ([]propagateWork, []ruleOutWork) {
	if !g.upsertLocked(w.nonfactor, w.dest, NotFactor) {
		return propagateStack, ruleOutStack
	}
	for _, p := range g.inNeighborsLocked(w.dest) {
		if p == w.nonfactor {
			continue
		}
		ruleOutStack = append(ruleOutStack, ruleOutWork{w.nonfactor, p})
	}
	return propagateStack, ruleOutStack
}
