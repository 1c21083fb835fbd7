package cmd

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ethosn-tools/fused-pass-planner/planner"
)

// scenarioMce mirrors planner.MceData's YAML-facing fields for the demo
// compile-driver-stub scenario file.
type scenarioMce struct {
	Operation     string          `yaml:"operation"`
	WeightShape   [4]uint32       `yaml:"weight_shape"`
	WeightFormat  string          `yaml:"weight_format"`
	Stride        planner.Shape2D `yaml:"stride"`
	Upscale       uint32          `yaml:"upscale"`
	AlgorithmHint string          `yaml:"algorithm_hint"`
}

type scenarioPle struct {
	Op                string          `yaml:"op"`
	AgnosticToRequant bool            `yaml:"agnostic_to_requant"`
	ShapeMultiplier   planner.Shape2D `yaml:"shape_multiplier"`
}

type scenarioNode struct {
	ID              string       `yaml:"id"`
	Kind            string       `yaml:"kind"`
	OutputShape     [4]uint32    `yaml:"output_shape"`
	Format          string       `yaml:"format"`
	CompressionHint string       `yaml:"compression_hint"`
	LocationHint    string       `yaml:"location_hint"`
	Mce             *scenarioMce `yaml:"mce"`
	Ple             *scenarioPle `yaml:"ple"`
}

// scenario is the demo compile-driver-stub's input document: a linear
// chain of nodes plus the capabilities/strategy parameters a real compile
// driver would otherwise derive from the target device and the graph
// under compilation.
type scenario struct {
	Capabilities            planner.Capabilities  `yaml:"capabilities"`
	SramCapacity            uint32                `yaml:"sram_capacity"`
	BlockConfigs            []planner.BlockConfig `yaml:"block_configs"`
	WinogradEnabled         bool                  `yaml:"winograd_enabled"`
	IntermediateCompression bool                  `yaml:"intermediate_compression"`
	Nodes                   []scenarioNode        `yaml:"nodes"`
}

func loadScenario(path string) (*scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	var s scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse scenario yaml: %w", err)
	}
	return &s, nil
}

func parseNodeKind(kind string) (planner.NodeKind, error) {
	switch kind {
	case "format_conversion":
		return planner.NodeFormatConversion, nil
	case "extract_subtensor":
		return planner.NodeExtractSubtensor, nil
	case "mce_operation":
		return planner.NodeMceOperation, nil
	case "mce_post_process":
		return planner.NodeMcePostProcess, nil
	case "fuse_only_ple":
		return planner.NodeFuseOnlyPle, nil
	case "requantize":
		return planner.NodeRequantize, nil
	default:
		return 0, fmt.Errorf("unknown node kind %q", kind)
	}
}

func parseFormat(format string) (planner.DataFormat, error) {
	switch format {
	case "", "NHWC":
		return planner.FormatNHWC, nil
	case "NHWCB":
		return planner.FormatNHWCB, nil
	default:
		return 0, fmt.Errorf("unknown data format %q", format)
	}
}

func parseCompressionHint(hint string) (planner.CompressionHint, error) {
	switch hint {
	case "":
		return planner.CompressionHintNone, nil
	case "prefer_compressed":
		return planner.CompressionHintPreferCompressed, nil
	case "required_uncompressed":
		return planner.CompressionHintRequiredUncompressed, nil
	default:
		return 0, fmt.Errorf("unknown compression hint %q", hint)
	}
}

func parseLocationHint(hint string) (planner.LocationHintKind, error) {
	switch hint {
	case "":
		return planner.LocationHintUnset, nil
	case "require_dram":
		return planner.LocationHintRequireDram, nil
	default:
		return 0, fmt.Errorf("unknown location hint %q", hint)
	}
}

func parseMceOperation(op string) (planner.MceOpKind, error) {
	switch op {
	case "convolution":
		return planner.MceOpConvolution, nil
	case "depthwise":
		return planner.MceOpDepthwise, nil
	case "fully_connected":
		return planner.MceOpFullyConnected, nil
	default:
		return 0, fmt.Errorf("unknown MCE operation %q", op)
	}
}

func parseWeightFormat(format string) (planner.WeightFormat, error) {
	switch format {
	case "hwio":
		return planner.WeightFormatHWIO, nil
	case "hwim":
		return planner.WeightFormatHWIM, nil
	default:
		return 0, fmt.Errorf("unknown weight format %q", format)
	}
}

func parseAlgorithmHint(hint string) (planner.AlgorithmHint, error) {
	switch hint {
	case "", "allow_winograd":
		return planner.AlgorithmHintAllowWinograd, nil
	case "direct_only":
		return planner.AlgorithmHintDirectOnly, nil
	default:
		return 0, fmt.Errorf("unknown algorithm hint %q", hint)
	}
}

func parsePleOp(op string) (planner.PleOpKind, error) {
	switch op {
	case "max_pool_2x2_s2":
		return planner.PleMaxPool2x2S2, nil
	case "interleave_2x2_s2":
		return planner.PleInterleave2x2S2, nil
	case "mean_xy_8x8":
		return planner.PleMeanXY8x8, nil
	case "max_pool_3x3_s2":
		return planner.PleMaxPool3x3S2, nil
	case "sigmoid":
		return planner.PleSigmoid, nil
	default:
		return 0, fmt.Errorf("unknown PLE op %q", op)
	}
}

// buildGraph turns the scenario's node list into a planner.Graph, wiring
// each node's Inputs to its predecessor so the whole document forms one
// single-consumer linear chain, consistent with the fuser's NextLinear
// relation. Returns the graph and its first node, the fuser's entry
// point.
func buildGraph(s *scenario) (*planner.Graph, *planner.Node, error) {
	if len(s.Nodes) == 0 {
		return nil, nil, fmt.Errorf("scenario has no nodes")
	}

	g := planner.NewGraph()
	var prev *planner.Node
	var first *planner.Node

	for _, sn := range s.Nodes {
		kind, err := parseNodeKind(sn.Kind)
		if err != nil {
			return nil, nil, fmt.Errorf("node %s: %w", sn.ID, err)
		}
		format, err := parseFormat(sn.Format)
		if err != nil {
			return nil, nil, fmt.Errorf("node %s: %w", sn.ID, err)
		}
		compressionHint, err := parseCompressionHint(sn.CompressionHint)
		if err != nil {
			return nil, nil, fmt.Errorf("node %s: %w", sn.ID, err)
		}
		locationHint, err := parseLocationHint(sn.LocationHint)
		if err != nil {
			return nil, nil, fmt.Errorf("node %s: %w", sn.ID, err)
		}

		n := &planner.Node{
			ID:              sn.ID,
			Kind:            kind,
			OutputShape:     sn.OutputShape,
			Format:          format,
			CompressionHint: compressionHint,
			LocationHint:    locationHint,
		}
		if prev != nil {
			n.Inputs = []planner.Edge{{Source: prev}}
		}

		if sn.Mce != nil {
			op, err := parseMceOperation(sn.Mce.Operation)
			if err != nil {
				return nil, nil, fmt.Errorf("node %s: %w", sn.ID, err)
			}
			weightFormat, err := parseWeightFormat(sn.Mce.WeightFormat)
			if err != nil {
				return nil, nil, fmt.Errorf("node %s: %w", sn.ID, err)
			}
			algoHint, err := parseAlgorithmHint(sn.Mce.AlgorithmHint)
			if err != nil {
				return nil, nil, fmt.Errorf("node %s: %w", sn.ID, err)
			}
			n.Mce = &planner.MceData{
				Operation:     op,
				Weights:       planner.WeightInfo{Shape: sn.Mce.WeightShape, Format: weightFormat},
				Stride:        sn.Mce.Stride,
				Upscale:       sn.Mce.Upscale,
				AlgorithmHint: algoHint,
			}
		}
		if sn.Ple != nil {
			op, err := parsePleOp(sn.Ple.Op)
			if err != nil {
				return nil, nil, fmt.Errorf("node %s: %w", sn.ID, err)
			}
			n.Ple = &planner.PleData{
				Op:                op,
				AgnosticToRequant: sn.Ple.AgnosticToRequant,
				ShapeMultiplier:   sn.Ple.ShapeMultiplier,
			}
		}

		g.AddNode(n)
		if first == nil {
			first = n
		}
		prev = n
	}

	return g, first, nil
}
