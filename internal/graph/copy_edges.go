package graph

// CopyEdgesOverridingWeaker bulk-copies a set of outgoing and incoming
// edges onto newVertex, keeping whichever label is higher in the lattice
// when newVertex already has an edge to/from that neighbor. Grounded on
// original_source/src/graph.rs's copy_edges_true_overrides_false, for
// merging edges when two distinct expressions turn out to name the same
// vertex. AddFactorNode does not call it.
func (g *Graph) CopyEdgesOverridingWeaker(newVertex string, outEdges, inEdges map[string]Divisibility) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for neighbor, candidate := range outEdges {
		existing, had := g.edgeLocked(newVertex, neighbor)
		var merged Divisibility
		if had {
			merged = mergeOverridingWeaker(&existing, candidate)
		} else {
			merged = mergeOverridingWeaker(nil, candidate)
		}
		g.upsertLocked(newVertex, neighbor, merged)
	}
	for neighbor, candidate := range inEdges {
		existing, had := g.edgeLocked(neighbor, newVertex)
		var merged Divisibility
		if had {
			merged = mergeOverridingWeaker(&existing, candidate)
		} else {
			merged = mergeOverridingWeaker(nil, candidate)
		}
		g.upsertLocked(neighbor, newVertex, merged)
	}
}
