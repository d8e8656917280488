package output

import (
	"math"
	"strconv"

	"github.com/yndnr/meshkv/pkg/resp"
)

// Value converts a frame to plain Go values for structured output.
//
// Nulls become nil, errors become {"error": text}, maps become
// map[string]any keyed by the rendered key, and non-finite doubles
// become their RESP spelling.
func Value(f resp.Frame) any {
	if f.IsNull {
		return nil
	}
	switch f.Kind {
	case resp.KindSimpleString, resp.KindBigNumber:
		return f.Str
	case resp.KindSimpleError, resp.KindBulkError:
		return map[string]any{"error": f.Str}
	case resp.KindInteger:
		return f.Int
	case resp.KindBulkString:
		return string(f.Bulk)
	case resp.KindVerbatim:
		return f.Str
	case resp.KindBoolean:
		return f.Bool
	case resp.KindDouble:
		switch {
		case math.IsInf(f.Float, 1):
			return "inf"
		case math.IsInf(f.Float, -1):
			return "-inf"
		case math.IsNaN(f.Float):
			return "nan"
		}
		return f.Float
	case resp.KindNull:
		return nil
	case resp.KindArray, resp.KindSet:
		out := make([]any, len(f.Elems))
		for i, e := range f.Elems {
			out[i] = Value(e)
		}
		return out
	case resp.KindMap:
		out := make(map[string]any, len(f.Pairs))
		for _, p := range f.Pairs {
			out[keyString(p.Key)] = Value(p.Value)
		}
		return out
	default:
		return f.String()
	}
}

func keyString(f resp.Frame) string {
	if s, ok := f.Text(); ok {
		return s
	}
	if f.Kind == resp.KindInteger {
		return strconv.FormatInt(f.Int, 10)
	}
	return f.String()
}
