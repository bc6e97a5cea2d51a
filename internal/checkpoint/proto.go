package checkpoint

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// Wire layout, equivalent to:
//
//	message Checkpoint {
//	  string version = 1;
//	  uint64 input_size = 2;
//	  repeated Layer layers = 3;
//	}
//	message Layer {
//	  string kind = 1;
//	  uint64 size = 2;
//	  string activation = 3;
//	  double alpha = 4;
//	  uint64 rows = 5;
//	  uint64 cols = 6;
//	  repeated double params = 7 [packed = true];
//	}
const (
	fieldVersion   protowire.Number = 1
	fieldInputSize protowire.Number = 2
	fieldLayers    protowire.Number = 3

	fieldKind       protowire.Number = 1
	fieldSize       protowire.Number = 2
	fieldActivation protowire.Number = 3
	fieldAlpha      protowire.Number = 4
	fieldRows       protowire.Number = 5
	fieldCols       protowire.Number = 6
	fieldParams     protowire.Number = 7
)

func marshalProto(c *Checkpoint) []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldVersion, protowire.BytesType)
	b = protowire.AppendString(b, c.Version)
	b = protowire.AppendTag(b, fieldInputSize, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(c.InputSize))
	for i := range c.Layers {
		b = protowire.AppendTag(b, fieldLayers, protowire.BytesType)
		b = protowire.AppendBytes(b, marshalLayer(&c.Layers[i]))
	}
	return b
}

func marshalLayer(s *LayerState) []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldKind, protowire.BytesType)
	b = protowire.AppendString(b, s.Kind)
	b = protowire.AppendTag(b, fieldSize, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(s.Size))
	b = protowire.AppendTag(b, fieldActivation, protowire.BytesType)
	b = protowire.AppendString(b, s.Activation)
	b = protowire.AppendTag(b, fieldAlpha, protowire.Fixed64Type)
	b = protowire.AppendFixed64(b, math.Float64bits(s.Alpha))
	b = protowire.AppendTag(b, fieldRows, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(s.Rows))
	b = protowire.AppendTag(b, fieldCols, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(s.Cols))

	packed := make([]byte, 0, 8*len(s.Params))
	for _, v := range s.Params {
		packed = protowire.AppendFixed64(packed, math.Float64bits(v))
	}
	b = protowire.AppendTag(b, fieldParams, protowire.BytesType)
	b = protowire.AppendBytes(b, packed)
	return b
}

// fields walks b and calls fn for each field with its raw value.
// Varint and fixed64 values arrive in u; length-delimited values in v.
func fields(b []byte, fn func(num protowire.Number, typ protowire.Type, u uint64, v []byte) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		var (
			u uint64
			v []byte
		)
		switch typ {
		case protowire.VarintType:
			u, n = protowire.ConsumeVarint(b)
		case protowire.Fixed64Type:
			u, n = protowire.ConsumeFixed64(b)
		case protowire.BytesType:
			v, n = protowire.ConsumeBytes(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		if err := fn(num, typ, u, v); err != nil {
			return err
		}
	}
	return nil
}

func unmarshalProto(b []byte, c *Checkpoint) error {
	return fields(b, func(num protowire.Number, typ protowire.Type, u uint64, v []byte) error {
		switch {
		case num == fieldVersion && typ == protowire.BytesType:
			c.Version = string(v)
		case num == fieldInputSize && typ == protowire.VarintType:
			c.InputSize = int(u)
		case num == fieldLayers && typ == protowire.BytesType:
			var s LayerState
			if err := unmarshalLayer(v, &s); err != nil {
				return fmt.Errorf("layer %d: %w", len(c.Layers), err)
			}
			c.Layers = append(c.Layers, s)
		}
		return nil
	})
}

func unmarshalLayer(b []byte, s *LayerState) error {
	return fields(b, func(num protowire.Number, typ protowire.Type, u uint64, v []byte) error {
		switch {
		case num == fieldKind && typ == protowire.BytesType:
			s.Kind = string(v)
		case num == fieldSize && typ == protowire.VarintType:
			s.Size = int(u)
		case num == fieldActivation && typ == protowire.BytesType:
			s.Activation = string(v)
		case num == fieldAlpha && typ == protowire.Fixed64Type:
			s.Alpha = math.Float64frombits(u)
		case num == fieldRows && typ == protowire.VarintType:
			s.Rows = int(u)
		case num == fieldCols && typ == protowire.VarintType:
			s.Cols = int(u)
		case num == fieldParams && typ == protowire.BytesType:
			if len(v)%8 != 0 {
				return fmt.Errorf("packed params length %d is not a multiple of 8", len(v))
			}
			for len(v) > 0 {
				bits, n := protowire.ConsumeFixed64(v)
				if n < 0 {
					return protowire.ParseError(n)
				}
				s.Params = append(s.Params, math.Float64frombits(bits))
				v = v[n:]
			}
		}
		return nil
	})
}
