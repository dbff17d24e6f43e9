package countries

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed data/countries.yaml
var bundled []byte

// dataset mirrors the layout of data/countries.yaml.
type dataset struct {
	Countries []Record `yaml:"countries"`
}

// Load parses a YAML dataset and builds a Table from it.
func Load(data []byte) (*Table, error) {
	var ds dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("failed to parse country dataset: %w", err)
	}
	if len(ds.Countries) == 0 {
		return nil, fmt.Errorf("country dataset is empty")
	}
	t, err := NewTable(ds.Countries)
	if err != nil {
		return nil, fmt.Errorf("invalid country dataset: %w", err)
	}
	return t, nil
}

// Default returns the table built from the bundled dataset. The dataset is
// parsed on first use only.
var Default = sync.OnceValues(func() (*Table, error) {
	return Load(bundled)
})
