package planner

import (
	"sort"

	"github.com/ethosn-tools/fused-pass-planner/planner/internal/util"
)

// FilterBlockConfigs takes an MCE node, an optional fused PLE node, the
// chosen algorithm, and an allowed set of block configs, and filters and
// orders the candidates the strategy selector will try. Emptiness is
// reported by returning a nil/empty slice; the caller treats that as a
// planning failure with reason "no block config".
func FilterBlockConfigs(mce *MceData, ple *PleData, allowed []BlockConfig, caps Capabilities, outputShape [4]uint32, algorithm Algorithm) []BlockConfig {
	candidates := append([]BlockConfig(nil), allowed...)

	// Rule 1: Winograd accumulator cap.
	if algorithm == AlgorithmWinograd {
		kernel := mce.KernelShape()
		isWinograd2D := kernel.H > 1 && kernel.W > 1
		divisor := uint32(2)
		if isWinograd2D {
			divisor = 4
		}
		cap := util.Max(caps.TotalAccumulators()/divisor, 1)
		candidates = filterBlockConfigs(candidates, func(c BlockConfig) bool {
			return c.W*c.H <= cap
		})
	}

	// Rule 2: ranking.
	outH, outW := outputShape[1], outputShape[2]
	kernel := mce.KernelShape()
	longerAxisIsH := kernel.H > kernel.W
	sort.SliceStable(candidates, func(i, j int) bool {
		return blockConfigLess(candidates[i], candidates[j], outH, outW, longerAxisIsH)
	})

	// Rule 3: PLE constraints, intersected with the above.
	candidates = applyPleConstraint(mce, ple, candidates)

	return candidates
}

func filterBlockConfigs(in []BlockConfig, keep func(BlockConfig) bool) []BlockConfig {
	out := make([]BlockConfig, 0, len(in))
	for _, c := range in {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out
}

// tightFit reports whether the output tensor's H×W fits entirely inside
// a single block of this config.
func tightFit(c BlockConfig, outH, outW uint32) bool {
	return outH <= c.H && outW <= c.W
}

// remainderScore is the "edge partial-block size" to maximise for
// configs that do not tightly fit: H mod h + W mod w.
func remainderScore(c BlockConfig, outH, outW uint32) uint32 {
	return outH%c.H + outW%c.W
}

// blockConfigLess orders a before b: tight-fit configs first (smallest
// area wins among those), then by largest remainder on the next-best
// partial fit, with kernel-axis size breaking any remaining tie.
func blockConfigLess(a, b BlockConfig, outH, outW uint32, longerAxisIsH bool) bool {
	aFit, bFit := tightFit(a, outH, outW), tightFit(b, outH, outW)
	if aFit != bFit {
		return aFit // tight-fit configs sort first
	}
	if aFit && bFit {
		// smaller-block-first among tight fits (tightest fit wins)
		areaA, areaB := a.W*a.H, b.W*b.H
		if areaA != areaB {
			return areaA < areaB
		}
		return blockConfigLessOnKernelAxis(a, b, longerAxisIsH)
	}
	// neither fits: maximise remainder score
	scoreA, scoreB := remainderScore(a, outH, outW), remainderScore(b, outH, outW)
	if scoreA != scoreB {
		return scoreA > scoreB
	}
	return blockConfigLessOnKernelAxis(a, b, longerAxisIsH)
}

// blockConfigLessOnKernelAxis breaks ties by favouring the larger block
// dimension along the longer kernel axis.
func blockConfigLessOnKernelAxis(a, b BlockConfig, longerAxisIsH bool) bool {
	if longerAxisIsH {
		return a.H > b.H
	}
	return a.W > b.W
}

// applyPleConstraint intersects the ranked candidate list with the
// PLE- (or fully-connected-) specific allow-list.
func applyPleConstraint(mce *MceData, ple *PleData, candidates []BlockConfig) []BlockConfig {
	force := func(w, h uint32) []BlockConfig {
		return filterBlockConfigs(candidates, func(c BlockConfig) bool { return c.W == w && c.H == h })
	}
	keepOnly := func(allow ...BlockConfig) []BlockConfig {
		return filterBlockConfigs(candidates, func(c BlockConfig) bool {
			for _, a := range allow {
				if c == a {
					return true
				}
			}
			return false
		})
	}

	if mce.Operation == MceOpFullyConnected {
		return force(8, 8)
	}
	if ple == nil {
		return candidates
	}
	switch ple.Op {
	case PleInterleave2x2S2:
		return force(16, 16)
	case PleMaxPool2x2S2:
		return keepOnly(BlockConfig{W: 16, H: 16}, BlockConfig{W: 32, H: 8}, BlockConfig{W: 8, H: 8})
	case PleMeanXY8x8:
		return force(8, 8)
	case PleMaxPool3x3S2:
		return keepOnly(BlockConfig{W: 32, H: 8}, BlockConfig{W: 8, H: 8})
	default:
		return candidates
	}
}
