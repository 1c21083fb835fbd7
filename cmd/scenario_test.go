package cmd

import (
	"testing"

	"github.com/ethosn-tools/fused-pass-planner/planner"
)

func TestLoadScenario_ParsesDemoScenario(t *testing.T) {
	s, err := loadScenario("testdata/demo_scenario.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.Nodes) != 2 {
		t.Fatalf("expected 2 nodes in the demo scenario, got %d", len(s.Nodes))
	}
	if s.Capabilities.NumberOfOfm != 16 {
		t.Errorf("expected NumberOfOfm=16, got %d", s.Capabilities.NumberOfOfm)
	}
}

func TestLoadScenario_MissingFileIsError(t *testing.T) {
	if _, err := loadScenario("testdata/does_not_exist.yaml"); err == nil {
		t.Fatal("expected an error for a missing scenario file")
	}
}

func TestBuildGraph_WiresLinearChain(t *testing.T) {
	s, err := loadScenario("testdata/demo_scenario.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	g, first, err := buildGraph(s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.ID != "conv0" {
		t.Errorf("expected the first node to be conv0, got %s", first.ID)
	}
	next, ok := g.NextLinear(first)
	if !ok || next.ID != "sigmoid0" {
		t.Fatalf("expected conv0's sole consumer to be sigmoid0, got (%v, %v)", next, ok)
	}
	if first.Mce == nil || first.Mce.Operation != planner.MceOpConvolution {
		t.Error("expected conv0 to carry MceData with Operation=Convolution")
	}
	if next.Ple == nil || next.Ple.Op != planner.PleSigmoid {
		t.Error("expected sigmoid0 to carry PleData with Op=Sigmoid")
	}
}

func TestBuildGraph_UnknownNodeKindIsError(t *testing.T) {
	s := &scenario{Nodes: []scenarioNode{{ID: "n0", Kind: "not_a_real_kind"}}}
	if _, _, err := buildGraph(s); err == nil {
		t.Fatal("expected an error for an unrecognised node kind")
	}
}

func TestBuildGraph_EmptyScenarioIsError(t *testing.T) {
	if _, _, err := buildGraph(&scenario{}); err == nil {
		t.Fatal("expected an error for a scenario with no nodes")
	}
}
