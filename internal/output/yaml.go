package output

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/stargazerhq/stargazer/internal/model"
)

// YAMLFormatter formats output as a nested key-value YAML document.
// Timestamps serialize in RFC 3339 form, so a round trip through
// yaml.Unmarshal reproduces the result field for field.
type YAMLFormatter struct{}

// Format outputs an extraction result as YAML
func (f *YAMLFormatter) Format(result *model.ExtractionResult, w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	defer encoder.Close()
	encoder.SetIndent(2)
	return encoder.Encode(result)
}
