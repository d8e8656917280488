package output

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/yndnr/meshkv/pkg/resp"
)

// RawFormatter prints replies the way redis-cli does. Other values are
// printed with %v.
type RawFormatter struct{}

// Format writes data followed by a newline.
func (f *RawFormatter) Format(w io.Writer, data any) error {
	fr, ok := data.(resp.Frame)
	if !ok {
		_, err := fmt.Fprintf(w, "%v\n", data)
		return err
	}
	var b strings.Builder
	writeRaw(&b, fr, "")
	_, err := io.WriteString(w, b.String())
	return err
}

func writeRaw(b *strings.Builder, f resp.Frame, indent string) {
	if f.IsNull || f.Kind == resp.KindNull {
		b.WriteString("(nil)\n")
		return
	}
	switch f.Kind {
	case resp.KindSimpleString:
		b.WriteString(f.Str + "\n")
	case resp.KindSimpleError, resp.KindBulkError:
		b.WriteString("(error) " + f.Str + "\n")
	case resp.KindInteger:
		b.WriteString("(integer) " + strconv.FormatInt(f.Int, 10) + "\n")
	case resp.KindBulkString:
		b.WriteString(strconv.Quote(string(f.Bulk)) + "\n")
	case resp.KindVerbatim:
		b.WriteString(f.Str + "\n")
	case resp.KindBoolean:
		if f.Bool {
			b.WriteString("(true)\n")
		} else {
			b.WriteString("(false)\n")
		}
	case resp.KindDouble:
		b.WriteString("(double) " + formatDouble(f.Float) + "\n")
	case resp.KindBigNumber:
		b.WriteString("(big number) " + f.Str + "\n")
	case resp.KindArray, resp.KindSet:
		if len(f.Elems) == 0 {
			b.WriteString("(empty array)\n")
			return
		}
		width := len(strconv.Itoa(len(f.Elems)))
		for i, e := range f.Elems {
			if i > 0 {
				b.WriteString(indent)
			}
			label := fmt.Sprintf("%*d) ", width, i+1)
			b.WriteString(label)
			writeRaw(b, e, indent+strings.Repeat(" ", len(label)))
		}
	case resp.KindMap:
		if len(f.Pairs) == 0 {
			b.WriteString("(empty hash)\n")
			return
		}
		width := len(strconv.Itoa(len(f.Pairs)))
		for i, p := range f.Pairs {
			if i > 0 {
				b.WriteString(indent)
			}
			label := fmt.Sprintf("%*d# ", width, i+1)
			b.WriteString(label + keyString(p.Key) + " => ")
			writeRaw(b, p.Value, indent+strings.Repeat(" ", len(label)))
		}
	default:
		b.WriteString(f.String() + "\n")
	}
}

func formatDouble(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	case math.IsNaN(v):
		return "nan"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
