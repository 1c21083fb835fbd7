package planner

import "math"

// DepthMaxUnbounded stands in for UINT32_MAX: no depth cap applies.
const DepthMaxUnbounded uint32 = math.MaxUint32

// StrategySetup is the external collaborator interface each streaming
// strategy implements: TrySetup attempts to configure tc for the given
// strategy/block-config pair against alloc. It must be pure on failure —
// leave alloc completely unchanged — and on success must have fully
// populated tc and committed its reservations into alloc.
type StrategySetup interface {
	Strategy() Strategy
	TrySetup(
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
	) bool
}

// SelectStrategy tries, for each strategy in order, for each block
// config in order, a TrySetup call; the first success wins.
// Strategies are themselves responsible for leaving alloc unchanged on
// failure, so the selector does not need to snapshot between attempts.
func SelectStrategy(
	strategies []StrategySetup,
	blockConfigs []BlockConfig,
	alloc *SramAllocator,
	caps Capabilities,
	inputShape, outputShape [4]uint32,
	weightFormat WeightFormat,
	weightShape [4]uint32,
	shapeMultiplier Shape2D,
	inputInSram bool,
	inputSramOffset uint32,
	algorithm Algorithm,
	depthMax uint32,
) (TensorConfig, bool) {
	for _, strat := range strategies {
		for _, block := range blockConfigs {
			var tc TensorConfig
			if strat.TrySetup(&tc, alloc, inputShape, outputShape, weightFormat, weightShape, block, caps, shapeMultiplier, inputInSram, inputSramOffset, algorithm, depthMax) {
				return tc, true
			}
		}
	}
	return TensorConfig{}, false
}

// ComputeDepthMax derives the depthMax rule: the cap applies only
// when the fused PLE is MaxPool 3×3 s2, using NumberOfSrams for
// depthwise MCEs and NumberOfOfm otherwise; every other case is
// unbounded.
func ComputeDepthMax(caps Capabilities, isDepthwise bool, ple *PleData) uint32 {
	if ple == nil || ple.Op != PleMaxPool3x3S2 {
		return DepthMaxUnbounded
	}
	if isDepthwise {
		return caps.NumberOfSrams
	}
	return caps.NumberOfOfm
}
