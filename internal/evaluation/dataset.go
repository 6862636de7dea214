package evaluation

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ricesearch/evalkit/internal/pkg/errors"
)

// LoadDataset reads a dataset from a YAML or JSON file.
func LoadDataset(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}
	return ParseDataset(data)
}

// ParseDataset decodes a dataset. JSON is accepted as a subset of YAML.
func ParseDataset(data []byte) (*Dataset, error) {
	var ds Dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, errors.Wrap(errors.CodeValidation, "failed to parse dataset", err)
	}

	for i, it := range ds.Iterations {
		if len(it.Actual) == 0 && len(ds.Actual) == 0 {
			return nil, errors.ValidationError(fmt.Sprintf("iteration %d has no actual values", i))
		}
	}
	return &ds, nil
}

// LabelsFor returns the labels of iteration i.
func (d *Dataset) LabelsFor(i int) []float64 {
	if len(d.Iterations[i].Actual) > 0 {
		return d.Iterations[i].Actual
	}
	return d.Actual
}
