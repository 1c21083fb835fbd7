package planner

import "fmt"

// EncodedWeights is the output of the Weight Encoder collaborator:
// opaque bit-packed weight data plus its decode metadata. Real
// bit-encoding is out of scope for this module; ReferenceWeightEncoder
// below returns deterministic placeholders so callers can assert on the
// derived stripe depth without depending on the real encoder.
type EncodedWeights struct {
	Data     []byte
	Metadata []byte
}

// WeightEncoder is the external collaborator interface invoked only at
// pass emission, once a pass's tensor config is final.
type WeightEncoder interface {
	Encode(mce *MceData, stripe [4]uint32, quant QuantInfo) (EncodedWeights, error)
}

// StripeDepth derives the weight stripe depth from the stripe shape: for
// depthwise (HWIM) weights it is stripe[2]*stripe[3]/(strideX*strideY);
// for dense (HWIO) weights it is taken directly from stripe[3].
func StripeDepth(format WeightFormat, stripe [4]uint32, stride Shape2D) uint32 {
	if format == WeightFormatHWIM {
		denom := stride.W * stride.H
		if denom == 0 {
			denom = 1
		}
		return (stripe[2] * stripe[3]) / denom
	}
	return stripe[3]
}

// ReferenceWeightEncoder is a reference WeightEncoder implementation. It
// does not bit-pack weights but does compute the documented stripe-depth
// derivation, and panics on an unrecognised weight format: a weight
// format other than HWIO/HWIM should never reach the encoder and is
// treated as a fatal assertion failure rather than a recoverable error.
type ReferenceWeightEncoder struct{}

func (ReferenceWeightEncoder) Encode(mce *MceData, stripe [4]uint32, quant QuantInfo) (EncodedWeights, error) {
	switch mce.Weights.Format {
	case WeightFormatHWIO, WeightFormatHWIM:
	default:
		panic(fmt.Sprintf("weight encoder: unknown weight format %v", mce.Weights.Format))
	}

	depth := StripeDepth(mce.Weights.Format, stripe, mce.Stride)
	metadata := []byte(fmt.Sprintf("stripeDepth=%d;zeroPoint=%d;scale=%g", depth, quant.ZeroPoint, quant.Scale))
	data := make([]byte, depth)
	return EncodedWeights{Data: data, Metadata: metadata}, nil
}
