// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

func LoadRegistry(path string) (*TemplateRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg TemplateRegistry
	err = json.Unmarshal(data, &reg)
	return &reg, err
}

// Find returns the template for a notification kind.
func (r *TemplateRegistry) Find(kind string) (*Template, error) {
	for i := range r.Templates {
		if r.Templates[i].Kind == kind {
			return &r.Templates[i], nil
		}
	}
	return nil, fmt.Errorf("template not found for kind: %s", kind)
}

// Render substitutes {{key}} placeholders from data.
func Render(text string, data map[string]string) string {
	for k, v := range data {
		text = strings.ReplaceAll(text, "{{"+k+"}}", v)
	}
	return text
}
