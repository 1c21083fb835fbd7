package planner

import "github.com/sirupsen/logrus"

// BuildPass takes a completed FuserRun and either commits a Pass or
// reports no pass, installing at most one fix-graph hint. No hint is
// installed when no MCE was captured, or when rule 4 finds no
// SRAM-resident node in the MCE's dependency cone.
// masterAllocator is replaced with the winning probe allocator on
// commit; it is left untouched on every non-committing exit.
//
// passIndex is the index this pass will occupy in the caller's pass
// list; it is stamped onto each working node's OwningPass on commit.
func BuildPass(g *Graph, run FuserRun, masterAllocator *SramAllocator, passIndex int, intermediateCompressionEnabled bool) (*Pass, bool) {
	// Rule 1: no MCE ever captured.
	if !run.MceSeen {
		return nil, false
	}

	best := run.Best

	// Rule 2: tail format mismatch.
	if best.Found {
		tail := best.WorkingNodes[len(best.WorkingNodes)-1]
		if tail.Format != best.RequiredOutputFormat {
			logrus.Debugf("plan: node %s: tail format %s != required %s, converting", tail.ID, tail.Format, best.RequiredOutputFormat)
			tail.SetFixGraphHint(FixGraphHint{Kind: FixGraphHintConvertOutputTo, ConvertTo: best.RequiredOutputFormat})
			return nil, false
		}
	}

	// Rules 3/4: strategy selection never succeeded.
	if !best.Found {
		if run.LastAlgorithm == AlgorithmWinograd {
			logrus.Debugf("plan: node %s: Winograd strategy search exhausted, forcing Direct", run.Mce.ID)
			run.Mce.SetFixGraphHint(FixGraphHint{Kind: FixGraphHintAlgorithmDirect})
			return nil, false
		}
		logrus.Warnf("plan: node %s: strategy search exhausted under Direct, forcing a dependency-cone node to DRAM", run.Mce.ID)
		if victim := findSramResidentAncestor(g, run.Mce); victim != nil {
			victim.SetFixGraphHint(FixGraphHint{Kind: FixGraphHintForceLocationDram})
		} else {
			logrus.Warnf("plan: node %s: no SRAM-resident ancestor found to force to DRAM", run.Mce.ID)
		}
		return nil, false
	}

	// Rule 5: input stripe narrower than tensor on C, format NHWC.
	if best.MceInputNode != nil {
		inputFormat := best.MceInputNode.Format
		if best.TensorConfig.Input.StripeShape[3] < best.MceInputShape[3] && inputFormat == FormatNHWC {
			logrus.Debugf("plan: node %s: input stripe narrower on C with NHWC input, converting producer %s", run.Mce.ID, best.MceInputNode.ID)
			best.MceInputNode.SetFixGraphHint(FixGraphHint{Kind: FixGraphHintConvertOutputTo, ConvertTo: FormatNHWCB})
			return nil, false
		}

		// Rule 6: input compressed, stripe smaller on W or C.
		stripeSmaller := best.TensorConfig.Input.StripeShape[2] < best.MceInputShape[2] ||
			best.TensorConfig.Input.StripeShape[3] < best.MceInputShape[3]
		if best.MceInputNode.Compressed && stripeSmaller {
			logrus.Debugf("plan: node %s: compressed input with smaller stripe, forcing producer %s uncompressed", run.Mce.ID, best.MceInputNode.ID)
			best.MceInputNode.SetFixGraphHint(FixGraphHint{Kind: FixGraphHintForceUncompressed})
			return nil, false
		}
	}

	return commitPass(best, masterAllocator, passIndex, intermediateCompressionEnabled), true
}

// findSramResidentAncestor searches mce's dependency cone for any node
// currently resident in SRAM.
func findSramResidentAncestor(g *Graph, mce *Node) *Node {
	for _, n := range g.DependencyCone(mce) {
		if n.Loc == LocationSram {
			return n
		}
	}
	return nil
}

// commitPass applies the winning allocator snapshot as the new master,
// frees the allocations that don't outlive the pass, computes
// intermediate-compression eligibility, and stamps the working nodes.
func commitPass(best FuserResult, masterAllocator *SramAllocator, passIndex int, intermediateCompressionEnabled bool) *Pass {
	*masterAllocator = *best.Allocator.Clone()

	masterAllocator.Free(best.TensorConfig.Weights.Offset)
	masterAllocator.Free(best.TensorConfig.PleCode.Offset)
	if !best.TensorConfig.InputInSram {
		masterAllocator.Free(best.TensorConfig.Input.Offset)
	}
	if best.OutputLocation == LocationDram {
		masterAllocator.Free(best.TensorConfig.Output.Offset)
	}

	tail := best.WorkingNodes[len(best.WorkingNodes)-1]
	outputShape := tail.OutputShape
	fullyCovered := best.TensorConfig.Output.StripeShape[2] >= outputShape[2] &&
		best.TensorConfig.Output.StripeShape[3] >= outputShape[3]
	useIntermediateCompression := intermediateCompressionEnabled &&
		tail.CompressionHint == CompressionHintPreferCompressed &&
		tail.Format == FormatNHWCB &&
		best.OutputLocation == LocationDram &&
		fullyCovered

	pass := &Pass{
		WorkingNodes:   best.WorkingNodes,
		Config:         best.TensorConfig,
		OutputLocation: best.OutputLocation,
		Algorithm:      best.Algorithm,
		OutputOffset:   best.TensorConfig.Output.Offset,
		Compressed:     useIntermediateCompression,
	}

	tail.Loc = best.OutputLocation
	if best.OutputLocation == LocationSram {
		tail.SramOffset = best.TensorConfig.Output.Offset
	}
	tail.Compressed = useIntermediateCompression
	tail.Format = best.RequiredOutputFormat

	idx := passIndex
	for _, n := range best.WorkingNodes {
		n.OwningPass = &idx
	}

	return pass
}
