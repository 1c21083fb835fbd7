// cmd/root.go
package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ethosn-tools/fused-pass-planner/planner"
)

var (
	scenarioPath string
	logLevel     string
)

var rootCmd = &cobra.Command{
	Use:   "fused-pass-planner",
	Short: "Fused pass planner for a fixed-function NN accelerator",
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Plan a scenario graph into a sequence of fused hardware passes",
	RunE: func(cmd *cobra.Command, args []string) error {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		s, err := loadScenario(scenarioPath)
		if err != nil {
			logrus.Fatalf("Failed to load scenario: %v", err)
		}

		passes, err := planScenario(s)
		if err != nil {
			logrus.Fatalf("Planning failed: %v", err)
		}

		logrus.Infof("Planning complete: %d pass(es) emitted", len(passes))
		for i, p := range passes {
			fmt.Printf("pass %d: strategy=%s algorithm=%s nodes=%d\n", i, p.Config.Strategy, p.Algorithm, len(p.WorkingNodes))
		}
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	planCmd.Flags().StringVar(&scenarioPath, "scenario", "cmd/testdata/demo_scenario.yaml", "Path to the scenario YAML file")
	planCmd.Flags().StringVar(&logLevel, "log", "info", "Log level (debug, info, warn, error)")
	rootCmd.AddCommand(planCmd)
}

// planScenario runs the compile-driver-stub loop: re-run the Linear
// Chain Fuser from the current seed node, commit a pass on success and
// advance the seed to its successor, or, on failure, retry the same
// seed after a hint was installed. Planning stops for good once a seed
// neither commits a pass nor changes any node's hint: that is steady
// state, a genuine planning failure a full compile driver would need to
// report.
func planScenario(s *scenario) ([]*planner.Pass, error) {
	g, seed, err := buildGraph(s)
	if err != nil {
		return nil, err
	}

	alloc := planner.NewSramAllocator(s.SramCapacity)
	in := planner.FuserInputs{
		Caps:                s.Capabilities,
		AllowedStrategies:   planner.DefaultStrategies(),
		AllowedBlockConfigs: s.BlockConfigs,
		WinogradEnabled:     s.WinogradEnabled,
	}

	var passes []*planner.Pass
	cur := seed
	for cur != nil {
		before := snapshotHints(g, s)

		pass, ok := planner.Attempt(g, cur, alloc, in, len(passes), s.IntermediateCompression)
		if ok {
			logrus.Debugf("plan: pass %d committed, %d working node(s)", len(passes), len(pass.WorkingNodes))
			passes = append(passes, pass)
			tail := pass.WorkingNodes[len(pass.WorkingNodes)-1]
			next, hasNext := g.NextLinear(tail)
			if !hasNext {
				break
			}
			cur = next
			continue
		}

		if hintsUnchanged(before, snapshotHints(g, s)) {
			return passes, fmt.Errorf("planning stalled at node %s: no pass committed and no hint installed", cur.ID)
		}
		// A hint was installed; retry the same seed once the external
		// graph-construction driver would have applied it. This stub has
		// no such driver, so it simply retries immediately. The planner
		// does not read FixHint itself, so the retry repeats the same
		// attempt and reinstalls the same hint; the next iteration then
		// sees no hint change and reports the stall.
	}

	return passes, nil
}

func snapshotHints(g *planner.Graph, s *scenario) map[string]planner.FixGraphHint {
	snap := make(map[string]planner.FixGraphHint, len(s.Nodes))
	for _, sn := range s.Nodes {
		if n, ok := g.Node(sn.ID); ok {
			snap[sn.ID] = n.FixHint
		}
	}
	return snap
}

func hintsUnchanged(before, after map[string]planner.FixGraphHint) bool {
	for id, h := range before {
		if after[id] != h {
			return false
		}
	}
	return true
}
