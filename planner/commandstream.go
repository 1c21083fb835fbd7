package planner

import "math"

// McePle is the per-pass record the command-stream emitter receives: a
// fused MCE+PLE hardware command.
type McePle struct {
	StrategyTag Strategy // SFC mapped to S1 at construction, see Strategy.CommandStreamTag
	Block       BlockConfig

	Input   Allocation
	Output  Allocation
	Weights Allocation

	InputZeroPoint, OutputZeroPoint int32
	InputLocation, OutputLocation   Location
	// SupertensorOffset is the DRAM offset of the (un-tiled) tensor this
	// pass reads/writes, as distinct from the SRAM tile offsets already
	// carried in Input/Output.
	SupertensorOffset uint32

	Algorithm Algorithm
	Ple       *PleOpKind // nil if no fused PLE kernel

	ActivationMin, ActivationMax int32
	RescaleMultiplier            int32
	RescaleShift                 int32
}

// CommandStream is the emission collaborator interface. A real
// implementation serialises McePle records into the hardware's command
// queue; out of scope here. CommandStreamRecorder below is an in-memory
// reference sink used for testing.
type CommandStream interface {
	Emit(record McePle)
}

// CommandStreamRecorder accumulates emitted records in order, the way a
// test double stands in for the real emission collaborator.
type CommandStreamRecorder struct {
	Records []McePle
}

func (r *CommandStreamRecorder) Emit(record McePle) {
	r.Records = append(r.Records, record)
}

// NewMcePleFromPass builds the McePle record for a committed pass,
// mapping SFC to S1 as the command stream has no notion of a fully
// connected strategy distinct from S1.
func NewMcePleFromPass(pass *Pass, inputZP, outputZP int32, supertensorOffset uint32) McePle {
	var ple *PleOpKind
	for _, n := range pass.WorkingNodes {
		if n.Kind == NodeFuseOnlyPle {
			op := n.Ple.Op
			ple = &op
		}
	}
	return McePle{
		StrategyTag:       pass.Config.Strategy.CommandStreamTag(),
		Block:             pass.Config.Block,
		Input:             pass.Config.Input,
		Output:            pass.Config.Output,
		Weights:           pass.Config.Weights,
		InputZeroPoint:    inputZP,
		OutputZeroPoint:   outputZP,
		InputLocation:     locationOf(pass.Config.InputInSram),
		OutputLocation:    pass.OutputLocation,
		SupertensorOffset: supertensorOffset,
		Algorithm:         pass.Algorithm,
		Ple:               ple,
	}
}

func locationOf(inSram bool) Location {
	if inSram {
		return LocationSram
	}
	return LocationDram
}

// int16Max is INT16_MAX, the Sigmoid rescale fallback multiplier.
const int16Max = math.MaxInt16

// quantizeMultiplier decomposes a positive rescale factor into an
// int16-range multiplier and a power-of-two shift such that
// mult / 2^shift approximates rescale, following the standard
// multiplier/shift quantization used by fixed-point NN inference
// pipelines. Returns (0, 0) for a non-positive rescale.
func quantizeMultiplier(rescale float64) (mult int32, shift int32) {
	if rescale <= 0 {
		return 0, 0
	}
	m := rescale
	for m < 16384 {
		m *= 2
		shift++
	}
	for m >= 32768 {
		m /= 2
		shift--
	}
	mult = int32(math.Round(m))
	if mult > math.MaxInt16 {
		mult /= 2
		shift--
	}
	return mult, shift
}

// ComputeSigmoidRescale derives the Sigmoid rescale multiplier, shift,
// and absMax in double precision, reproducing the hardware's
// absMax==0 fallback (mult=INT16_MAX, shift=0, absMax=1) bit-for-bit.
func ComputeSigmoidRescale(inputScale float64) (mult int32, shift int32, absMax int32) {
	rescale := inputScale * math.Log2(math.E) * 256
	mult, shift = quantizeMultiplier(rescale)
	if mult == 0 {
		return int16Max, 0, 1
	}
	val := math.Ceil(math.Pow(2, 15+float64(shift))/float64(mult)) - 1
	absMax = int32(val)
	if absMax <= 0 {
		return int16Max, 0, 1
	}
	return mult, shift, absMax
}

// SigmoidActivationBounds derives the clamped activation bounds for a
// Sigmoid PLE kernel: [zp-absMax, zp+absMax] intersected with
// [origMin, origMax].
func SigmoidActivationBounds(inputScale float64, zeroPoint, origMin, origMax int32) (mult, shift, absMax, lower, upper int32) {
	mult, shift, absMax = ComputeSigmoidRescale(inputScale)
	lower = zeroPoint - absMax
	upper = zeroPoint + absMax
	if lower < origMin {
		lower = origMin
	}
	if upper > origMax {
		upper = origMax
	}
	return
}
