package output

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/yndnr/meshkv/pkg/resp"
)

// YAMLFormatter formats data as YAML.
type YAMLFormatter struct{}

// Format formats data as YAML. Frames are converted with Value.
func (f *YAMLFormatter) Format(w io.Writer, data any) error {
	if fr, ok := data.(resp.Frame); ok {
		data = Value(fr)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return err
	}
	return enc.Close()
}
