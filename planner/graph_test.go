package planner

import "testing"

func TestGraph_NextLinear_SingleConsumerChain(t *testing.T) {
	// GIVEN a -> b -> c chain with single consumers throughout
	g := NewGraph()
	a := &Node{ID: "a"}
	b := &Node{ID: "b", Inputs: []Edge{{Source: a}}}
	c := &Node{ID: "c", Inputs: []Edge{{Source: b}}}
	g.AddNode(a)
	g.AddNode(b)
	g.AddNode(c)

	next, ok := g.NextLinear(a)
	if !ok || next != b {
		t.Fatalf("expected NextLinear(a) = b, got (%v, %v)", next, ok)
	}
	next, ok = g.NextLinear(b)
	if !ok || next != c {
		t.Fatalf("expected NextLinear(b) = c, got (%v, %v)", next, ok)
	}
}

func TestGraph_NextLinear_StopsAtFanOut(t *testing.T) {
	// GIVEN a node consumed by two different nodes
	g := NewGraph()
	a := &Node{ID: "a"}
	b := &Node{ID: "b", Inputs: []Edge{{Source: a}}}
	c := &Node{ID: "c", Inputs: []Edge{{Source: a}}}
	g.AddNode(a)
	g.AddNode(b)
	g.AddNode(c)

	// THEN the fan-out node reports no single next-linear node
	if _, ok := g.NextLinear(a); ok {
		t.Fatal("expected NextLinear to fail at a fan-out node")
	}
}

func TestGraph_NextLinear_StopsAtSink(t *testing.T) {
	g := NewGraph()
	a := &Node{ID: "a"}
	g.AddNode(a)

	if _, ok := g.NextLinear(a); ok {
		t.Fatal("expected NextLinear to fail at a node with no consumers")
	}
}

func TestGraph_DependencyCone_WalksBackwardsAndDedupes(t *testing.T) {
	// GIVEN a diamond: a -> b, a -> c, b -> d, c -> d
	g := NewGraph()
	a := &Node{ID: "a"}
	b := &Node{ID: "b", Inputs: []Edge{{Source: a}}}
	c := &Node{ID: "c", Inputs: []Edge{{Source: a}}}
	d := &Node{ID: "d", Inputs: []Edge{{Source: b}, {Source: c}}}
	for _, n := range []*Node{a, b, c, d} {
		g.AddNode(n)
	}

	cone := g.DependencyCone(d)

	// THEN every ancestor appears exactly once despite the diamond
	seen := map[string]int{}
	for _, n := range cone {
		seen[n.ID]++
	}
	for _, id := range []string{"a", "b", "c", "d"} {
		if seen[id] != 1 {
			t.Errorf("expected %s to appear exactly once in dependency cone, got %d", id, seen[id])
		}
	}
}
