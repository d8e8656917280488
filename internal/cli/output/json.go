package output

import (
	"encoding/json"
	"io"

	"github.com/yndnr/meshkv/pkg/resp"
)

// JSONFormatter formats data as JSON.
type JSONFormatter struct{}

// Format formats data as indented JSON. Frames are converted with Value.
func (f *JSONFormatter) Format(w io.Writer, data any) error {
	if fr, ok := data.(resp.Frame); ok {
		data = Value(fr)
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
