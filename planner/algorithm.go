package planner

import "github.com/ethosn-tools/fused-pass-planner/planner/internal/util"

// MultiplicationCounts computes the per-output-patch multiply counts for
// direct and Winograd convolution. kernel is the (width, height) of the
// convolution kernel.
func MultiplicationCounts(kernel Shape2D, caps Capabilities) (direct, winograd uint64) {
	is1D := kernel.W == 1 || kernel.H == 1
	if is1D {
		direct = uint64(kernel.W) * uint64(kernel.H) * uint64(caps.OutputSizePerWinograd2D) * uint64(caps.OutputSizePerWinograd1D)
		steps := util.DivRoundUp(kernel.W*kernel.H, caps.WideKernelSize)
		winograd = uint64(caps.MacsPerWinograd1D) * uint64(steps)
		return
	}
	direct = uint64(kernel.W) * uint64(kernel.H) * uint64(caps.OutputSizePerWinograd2D) * uint64(caps.OutputSizePerWinograd2D)
	stepsW := util.DivRoundUp(kernel.W, caps.WideKernelSize)
	stepsH := util.DivRoundUp(kernel.H, caps.WideKernelSize)
	winograd = uint64(caps.MacsPerWinograd2D) * uint64(stepsW) * uint64(stepsH)
	return
}

// ChooseAlgorithm decides Direct vs. Winograd for a convolution
// MceOperation and returns the effective weight shape to use for
// strategy selection (rounded up to a multiple of 3 on any axis whose
// original extent is not 1, only when Winograd is chosen).
func ChooseAlgorithm(mce *MceData, caps Capabilities, winogradGloballyEnabled bool) (Algorithm, [4]uint32) {
	weights := mce.Weights.Shape
	if mce.AlgorithmHint == AlgorithmHintDirectOnly ||
		!winogradGloballyEnabled ||
		mce.Operation != MceOpConvolution ||
		mce.Stride != (Shape2D{W: 1, H: 1}) ||
		mce.Upscale != 1 {
		return AlgorithmDirect, weights
	}

	kernel := mce.KernelShape()
	direct, winograd := MultiplicationCounts(kernel, caps)
	if winograd < direct {
		return AlgorithmWinograd, effectiveWinogradWeightShape(weights)
	}
	return AlgorithmDirect, weights
}

// effectiveWinogradWeightShape rounds every axis whose original extent is
// not 1 up to the nearest multiple of 3.
func effectiveWinogradWeightShape(shape [4]uint32) [4]uint32 {
	var out [4]uint32
	for i, v := range shape {
		if v == 1 {
			out[i] = v
			continue
		}
		out[i] = util.RoundUpToMultiple(v, 3)
	}
	return out
}
