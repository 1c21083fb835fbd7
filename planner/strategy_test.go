package planner

import "testing"

type stubStrategy struct {
	tag     Strategy
	succeed bool
	calls   *int
}

func (s *stubStrategy) Strategy() Strategy { return s.tag }

func (s *stubStrategy) TrySetup(tc *TensorConfig, alloc *SramAllocator, inputShape, outputShape [4]uint32,
	weightFormat WeightFormat, weightShape [4]uint32, block BlockConfig, caps Capabilities,
	shapeMultiplier Shape2D, inputInSram bool, inputSramOffset uint32, algorithm Algorithm, depthMax uint32) bool {
	*s.calls++
	if s.succeed {
		tc.Strategy = s.tag
		tc.Block = block
		return true
	}
	return false
}

func TestSelectStrategy_FirstSuccessWins(t *testing.T) {
	calls := 0
	strategies := []StrategySetup{
		&stubStrategy{tag: StrategyS0, succeed: false, calls: &calls},
		&stubStrategy{tag: StrategyS1, succeed: true, calls: &calls},
		&stubStrategy{tag: StrategyS4, succeed: true, calls: &calls},
	}
	blocks := []BlockConfig{{W: 16, H: 16}}
	alloc := NewSramAllocator(1024)

	tc, ok := SelectStrategy(strategies, blocks, alloc, Capabilities{}, [4]uint32{}, [4]uint32{}, WeightFormatHWIO, [4]uint32{}, Shape2D{W: 1, H: 1}, false, 0, AlgorithmDirect, DepthMaxUnbounded)

	if !ok {
		t.Fatal("expected a strategy to succeed")
	}
	if tc.Strategy != StrategyS1 {
		t.Errorf("expected the first succeeding strategy S1 to win, got %v", tc.Strategy)
	}
	// S0 tried and failed, S1 tried and succeeded; S4 never attempted.
	if calls != 2 {
		t.Errorf("expected exactly 2 TrySetup calls before success, got %d", calls)
	}
}

func TestSelectStrategy_AllFailReportsFailure(t *testing.T) {
	calls := 0
	strategies := []StrategySetup{
		&stubStrategy{tag: StrategyS0, succeed: false, calls: &calls},
	}
	blocks := []BlockConfig{{W: 16, H: 16}, {W: 8, H: 8}}
	alloc := NewSramAllocator(1024)

	_, ok := SelectStrategy(strategies, blocks, alloc, Capabilities{}, [4]uint32{}, [4]uint32{}, WeightFormatHWIO, [4]uint32{}, Shape2D{W: 1, H: 1}, false, 0, AlgorithmDirect, DepthMaxUnbounded)
	if ok {
		t.Fatal("expected failure when no strategy/block-config pair succeeds")
	}
	if calls != len(blocks) {
		t.Errorf("expected every block config to be tried for the only strategy, got %d calls", calls)
	}
}

func TestComputeDepthMax_UnboundedWhenNoFusedMaxPool3x3(t *testing.T) {
	caps := Capabilities{NumberOfSrams: 8, NumberOfOfm: 16}
	if got := ComputeDepthMax(caps, true, nil); got != DepthMaxUnbounded {
		t.Errorf("expected unbounded depthMax with no fused PLE, got %d", got)
	}
	ple := &PleData{Op: PleMaxPool2x2S2}
	if got := ComputeDepthMax(caps, true, ple); got != DepthMaxUnbounded {
		t.Errorf("expected unbounded depthMax for a non-3x3 PLE, got %d", got)
	}
}

func TestComputeDepthMax_CapsOnMaxPool3x3(t *testing.T) {
	caps := Capabilities{NumberOfSrams: 8, NumberOfOfm: 16}
	ple := &PleData{Op: PleMaxPool3x3S2}

	if got := ComputeDepthMax(caps, true, ple); got != 8 {
		t.Errorf("expected depthwise cap NumberOfSrams=8, got %d", got)
	}
	if got := ComputeDepthMax(caps, false, ple); got != 16 {
		t.Errorf("expected non-depthwise cap NumberOfOfm=16, got %d", got)
	}
}
