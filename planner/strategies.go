package planner

import "github.com/ethosn-tools/fused-pass-planner/planner/internal/util"

// pleCodeSize is the nominal SRAM footprint of the loaded PLE kernel
// microcode. A pass always reserves a PLE-code tile even when no
// FuseOnlyPle node is present, since McePostProcess folds onto the same
// programmable stage.
const pleCodeSize uint32 = 4096

// splitStrategy is the shared TrySetup machinery the general-purpose and
// fully-connected strategy families both build on: strategies differ
// only in which tensor axes they stripe across and how many stripes are
// kept resident (buffering depth), not in the reservation/rollback
// mechanics.
type splitStrategy struct {
	tag                Strategy
	axes               []int // indices into [N,H,W,C] this strategy stripes
	buffering          uint32
	requireInputInSram bool
}

func (s *splitStrategy) Strategy() Strategy { return s.tag }

func (s *splitStrategy) stripe(shape [4]uint32, block BlockConfig, caps Capabilities) [4]uint32 {
	out := shape
	for _, axis := range s.axes {
		switch axis {
		case 0:
			out[0] = util.Min(out[0], 1)
		case 1:
			out[1] = util.Min(out[1], block.H)
		case 2:
			out[2] = util.Min(out[2], block.W)
		case 3:
			chunk := caps.OfmPerEngine * caps.NumberOfEngines
			if chunk == 0 {
				chunk = out[3]
			}
			out[3] = util.Min(out[3], chunk)
		}
	}
	return out
}

func (s *splitStrategy) stripesChannel() bool {
	for _, axis := range s.axes {
		if axis == 3 {
			return true
		}
	}
	return false
}

func (s *splitStrategy) TrySetup(
	tc *TensorConfig,
	alloc *SramAllocator,
	inputShape, outputShape [4]uint32,
	weightFormat WeightFormat,
	weightShape [4]uint32,
	block BlockConfig,
	caps Capabilities,
	shapeMultiplier Shape2D,
	inputInSram bool,
	inputSramOffset uint32,
	algorithm Algorithm,
	depthMax uint32,
) bool {
	if s.requireInputInSram && !inputInSram {
		return false
	}

	inStripe := s.stripe(inputShape, block, caps)
	outStripe := s.stripe(outputShape, block, caps)
	if s.stripesChannel() && outStripe[3] > depthMax {
		return false
	}

	var reserved []uint32
	rollback := func() {
		for _, off := range reserved {
			alloc.Free(off)
		}
	}

	var inOffset uint32
	if inputInSram {
		inOffset = inputSramOffset
	} else {
		sz := volume(inStripe) * s.buffering
		off, ok := alloc.Reserve(sz)
		if !ok {
			rollback()
			return false
		}
		reserved = append(reserved, off)
		inOffset = off
	}

	outSz := volume(outStripe) * s.buffering
	outOff, ok := alloc.Reserve(outSz)
	if !ok {
		rollback()
		return false
	}
	reserved = append(reserved, outOff)

	wSz := volume(weightShape)
	wOff, ok := alloc.Reserve(wSz)
	if !ok {
		rollback()
		return false
	}
	reserved = append(reserved, wOff)

	pOff, ok := alloc.Reserve(pleCodeSize)
	if !ok {
		rollback()
		return false
	}
	reserved = append(reserved, pOff)

	tc.Strategy = s.tag
	tc.Block = block
	tc.InputInSram = inputInSram
	tc.Input = Allocation{Offset: inOffset, StripeShape: inStripe, TileSize: volume(inStripe) * s.buffering}
	tc.Output = Allocation{Offset: outOff, StripeShape: outStripe, TileSize: outSz}
	tc.Weights = Allocation{Offset: wOff, StripeShape: weightShape, TileSize: wSz}
	tc.PleCode = Allocation{Offset: pOff, StripeShape: [4]uint32{}, TileSize: pleCodeSize}
	return true
}

func volume(s [4]uint32) uint32 {
	return s[0] * s[1] * s[2] * s[3]
}

// DefaultStrategies returns the general-purpose strategy family: S0
// monolithic, S1 H-stripe, S3 SRAM-to-SRAM, S4 W-stripe, S5 C-stripe, S6
// N-stripe, S7 H×C-stripe.
func DefaultStrategies() []StrategySetup {
	return []StrategySetup{
		&splitStrategy{tag: StrategyS0, axes: nil, buffering: 1},
		&splitStrategy{tag: StrategyS1, axes: []int{1}, buffering: 2},
		&splitStrategy{tag: StrategyS3, axes: nil, buffering: 1, requireInputInSram: true},
		&splitStrategy{tag: StrategyS4, axes: []int{2}, buffering: 2},
		&splitStrategy{tag: StrategyS5, axes: []int{3}, buffering: 2},
		&splitStrategy{tag: StrategyS6, axes: []int{0}, buffering: 2},
		&splitStrategy{tag: StrategyS7, axes: []int{1, 3}, buffering: 2},
	}
}

// FcStrategies returns the dedicated fully-connected strategy family:
// a fully-connected MCE replaces the caller's allowed strategy set with
// this one rather than filtering it.
func FcStrategies() []StrategySetup {
	return []StrategySetup{
		&splitStrategy{tag: StrategySFC, axes: nil, buffering: 1},
	}
}
