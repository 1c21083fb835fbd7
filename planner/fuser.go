package planner

import "github.com/sirupsen/logrus"

// fuserState is the mutable admission state the Linear Chain Fuser
// threads through a walk.
type fuserState struct {
	nodes                []*Node
	extract              *Node
	mce                  *Node
	ple                  *Node
	foundPostProcess     bool
	foundRequantizes     bool
	requiredOutputFormat *DataFormat
}

// FuserResult is the running-best snapshot recorded on each successful
// extension of the chain. Found is false if no admitted prefix ever
// yielded a strategy.
type FuserResult struct {
	WorkingNodes         []*Node
	Allocator            *SramAllocator
	TensorConfig         TensorConfig
	ValidBlockConfigs    []BlockConfig
	Algorithm            Algorithm
	RequiredOutputFormat DataFormat
	OutputLocation       Location
	// MceInputNode is the node producing the captured MCE's input tensor,
	// i.e. the node a format/compression fix-graph hint targets.
	MceInputNode *Node
	MceInputShape [4]uint32
	Found         bool
}

// FuserRun is everything the Pass Builder needs: the running best
// (possibly not Found), plus diagnostics about the walk that exist even
// when no extension ever succeeded — whether an MCE was captured at all,
// and the algorithm most recently attempted for it.
type FuserRun struct {
	Best FuserResult

	MceSeen       bool
	Mce           *Node
	LastAlgorithm Algorithm
}

// FuserInputs bundles the planning-attempt parameters threaded through
// every extension of the chain.
type FuserInputs struct {
	Caps                Capabilities
	AllowedStrategies   []StrategySetup
	AllowedBlockConfigs []BlockConfig
	WinogradEnabled     bool
}

// RunLinearChainFuser walks forward from firstNode via g.NextLinear,
// admitting nodes under the node-kind admission table, and after each
// admission attempts algorithm selection, block-config filtering, and
// strategy selection. It returns the longest successful prefix — by
// design it does not overwrite the running best on a subsequent failed
// extension, only on a subsequent successful one. This greedy-maximal
// behaviour is intentional: a node further down the chain may admit even
// after planning has temporarily failed on a shorter prefix, and the
// fuser should not give up early just because an intermediate extension
// didn't pan out.
func RunLinearChainFuser(g *Graph, firstNode *Node, allocator *SramAllocator, in FuserInputs) FuserRun {
	state := &fuserState{}
	run := FuserRun{}

	cur := firstNode
	for {
		if !tryAdmit(cur, state) {
			break
		}
		state.nodes = append(state.nodes, cur)

		if state.mce != nil {
			run.MceSeen = true
			run.Mce = state.mce

			result, algorithm, ok := attemptPlan(state, allocator, in)
			run.LastAlgorithm = algorithm
			if ok {
				run.Best = result
				state.requiredOutputFormat = &result.RequiredOutputFormat
			}
		}

		next, ok := g.NextLinear(cur)
		if !ok {
			break
		}
		cur = next
	}

	return run
}

// tryAdmit applies the node-kind admission table to cur given state, mutating
// state's captured fields (extract/mce/ple/foundPostProcess/
// foundRequantizes) when cur is admitted.
func tryAdmit(cur *Node, state *fuserState) bool {
	switch cur.Kind {
	case NodeFormatConversion:
		if state.mce == nil {
			return true
		}
		if state.requiredOutputFormat != nil && *state.requiredOutputFormat != cur.Format {
			return false
		}
		return true

	case NodeExtractSubtensor:
		if state.mce == nil && state.extract == nil {
			state.extract = cur
			return true
		}
		return false

	case NodeMceOperation:
		if state.mce == nil {
			state.mce = cur
			return true
		}
		return false

	case NodeMcePostProcess:
		if state.mce != nil && state.ple == nil && !state.foundPostProcess && !state.foundRequantizes {
			state.foundPostProcess = true
			return true
		}
		return false

	case NodeFuseOnlyPle:
		if state.mce != nil && state.ple == nil && !state.foundPostProcess {
			state.ple = cur
			return true
		}
		return false

	case NodeRequantize:
		if state.mce != nil && (state.ple == nil || state.ple.Ple.AgnosticToRequant) {
			state.foundRequantizes = true
			return true
		}
		return false

	default:
		return false
	}
}

// attemptPlan runs algorithm choice, block-config filtering, and
// strategy selection on the current admitted set, against a fresh probe
// copy of allocator so a failed attempt never mutates the caller's
// allocator. It returns the algorithm it attempted even on failure,
// since the Pass Builder's Winograd-fallback hint needs to know that
// regardless of whether this particular extension succeeded.
func attemptPlan(state *fuserState, allocator *SramAllocator, in FuserInputs) (FuserResult, Algorithm, bool) {
	mceData := state.mce.Mce
	var pleData *PleData
	if state.ple != nil {
		pleData = state.ple.Ple
	}

	tail := state.nodes[len(state.nodes)-1]
	outputShape := tail.OutputShape

	algorithm, effectiveWeightShape := ChooseAlgorithm(mceData, in.Caps, in.WinogradEnabled)
	blockConfigs := FilterBlockConfigs(mceData, pleData, in.AllowedBlockConfigs, in.Caps, outputShape, algorithm)
	if len(blockConfigs) == 0 {
		logrus.Debugf("plan: node %s: no block config survives filtering", state.mce.ID)
		return FuserResult{}, algorithm, false
	}

	strategies := in.AllowedStrategies
	if mceData.Operation == MceOpFullyConnected {
		strategies = FcStrategies()
	}

	mceInput := state.mce.OutputShape
	var mceInputNode *Node
	if len(state.mce.Inputs) > 0 && state.mce.Inputs[0].Source != nil {
		mceInputNode = state.mce.Inputs[0].Source
		mceInput = mceInputNode.OutputShape
	}

	inputInSram := false
	var inputSramOffset uint32
	if mceInputNode != nil {
		inputInSram = mceInputNode.Loc == LocationSram
		inputSramOffset = mceInputNode.SramOffset
	}

	shapeMultiplier := Shape2D{W: 1, H: 1}
	if pleData != nil {
		shapeMultiplier = pleData.ShapeMultiplier
	}

	depthMax := ComputeDepthMax(in.Caps, mceData.Operation == MceOpDepthwise, pleData)

	alloc := allocator.Clone()
	tc, ok := SelectStrategy(strategies, blockConfigs, alloc, in.Caps, mceInput, outputShape,
		mceData.Weights.Format, effectiveWeightShape, shapeMultiplier, inputInSram, inputSramOffset, algorithm, depthMax)
	if !ok {
		logrus.Debugf("plan: node %s: no strategy/block-config pair succeeded", state.mce.ID)
		return FuserResult{}, algorithm, false
	}

	requiredFormat, outputLocation := deriveRequiredOutputFormat(tc, mceData, outputShape, tail.Format, tail.LocationHint)

	working := make([]*Node, len(state.nodes))
	copy(working, state.nodes)

	return FuserResult{
		WorkingNodes:         working,
		Allocator:            alloc,
		TensorConfig:         tc,
		ValidBlockConfigs:    blockConfigs,
		Algorithm:            algorithm,
		RequiredOutputFormat: requiredFormat,
		OutputLocation:       outputLocation,
		MceInputNode:         mceInputNode,
		MceInputShape:        mceInput,
		Found:                true,
	}, algorithm, true
}

// deriveRequiredOutputFormat derives the output format and location the
// committed pass must produce, given the tensor config the strategy
// search settled on and the tail node's own format/location hint.
func deriveRequiredOutputFormat(tc TensorConfig, mceData *MceData, outputShape [4]uint32, tailFormat DataFormat, tailLocationHint LocationHintKind) (DataFormat, Location) {
	nonContiguousOfm := tc.Output.StripeShape[2] < outputShape[2] || tc.Output.StripeShape[3] < outputShape[3]
	if mceData.Operation != MceOpFullyConnected && nonContiguousOfm {
		return FormatNHWCB, LocationDram
	}
	if mceData.Operation == MceOpFullyConnected {
		return FormatNHWC, LocationDram
	}
	if tc.Strategy == StrategyS3 && tailFormat == FormatNHWCB && tailLocationHint != LocationHintRequireDram {
		return FormatNHWCB, LocationSram
	}
	return tailFormat, LocationDram
}
