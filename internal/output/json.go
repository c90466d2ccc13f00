package output

import (
	"encoding/json"
	"io"

	"github.com/stargazerhq/stargazer/internal/model"
)

// JSONFormatter formats output as JSON
type JSONFormatter struct {
	Pretty bool
}

// Format outputs an extraction result as JSON
func (f *JSONFormatter) Format(result *model.ExtractionResult, w io.Writer) error {
	encoder := json.NewEncoder(w)
	if f.Pretty {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(result)
}
