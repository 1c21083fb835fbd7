package cmd

import (
	"testing"

	"github.com/ethosn-tools/fused-pass-planner/planner"
)

func TestPlanCmd_DefaultLogLevel_IsInfo(t *testing.T) {
	// GIVEN the plan command with its registered flags
	flag := planCmd.Flags().Lookup("log")
	if flag == nil {
		t.Fatal("log flag must be registered")
	}
	if flag.DefValue != "info" {
		t.Errorf("expected default log level 'info', got %q", flag.DefValue)
	}
}

func TestPlanCmd_ScenarioFlag_HasDemoDefault(t *testing.T) {
	flag := planCmd.Flags().Lookup("scenario")
	if flag == nil {
		t.Fatal("scenario flag must be registered")
	}
	if flag.DefValue != "cmd/testdata/demo_scenario.yaml" {
		t.Errorf("unexpected default scenario path %q", flag.DefValue)
	}
}

func TestPlanScenario_DemoScenarioProducesAtLeastOnePass(t *testing.T) {
	s, err := loadScenario("testdata/demo_scenario.yaml")
	if err != nil {
		t.Fatalf("unexpected error loading scenario: %v", err)
	}

	passes, err := planScenario(s)
	if err != nil {
		t.Fatalf("unexpected planning error: %v", err)
	}
	if len(passes) == 0 {
		t.Fatal("expected the demo scenario to produce at least one pass")
	}
	// Both demo nodes (the MCE and its fused Sigmoid) should fuse into a
	// single pass: there is no fan-out or format mismatch between them.
	if len(passes[0].WorkingNodes) != 2 {
		t.Errorf("expected both demo nodes to fuse into one pass, got %d working node(s)", len(passes[0].WorkingNodes))
	}
}

func TestHintsUnchanged_DetectsDivergence(t *testing.T) {
	g, seed, err := buildGraph(&scenario{Nodes: []scenarioNode{
		{ID: "n0", Kind: "mce_operation", Mce: &scenarioMce{Operation: "convolution", WeightFormat: "hwio"}},
	}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := &scenario{Nodes: []scenarioNode{{ID: "n0"}}}

	before := snapshotHints(g, s)
	if !hintsUnchanged(before, snapshotHints(g, s)) {
		t.Fatal("expected two snapshots with no intervening mutation to compare equal")
	}

	seed.FixHint.Kind = planner.FixGraphHintForceLocationDram
	if hintsUnchanged(before, snapshotHints(g, s)) {
		t.Fatal("expected a changed hint to be detected")
	}
}
