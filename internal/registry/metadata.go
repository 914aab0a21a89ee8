// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package registry

import (
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/propagate/pkg/types"
)

const metadataDir = "metadata"

// MetadataStore reads and writes YAML sidecars holding each downloaded
// order's registry record, under <pdf_dir>/metadata/.
type MetadataStore struct {
	dir string
}

// NewMetadataStore returns the sidecar store for a PDF directory.
func NewMetadataStore(pdfDir string) *MetadataStore {
	return &MetadataStore{dir: filepath.Join(pdfDir, metadataDir)}
}

// Path returns the sidecar path for an order number.
func (m *MetadataStore) Path(number int) string {
	return filepath.Join(m.dir, fmt.Sprintf("EO-%d.yaml", number))
}

// Write stores the order's record.
func (m *MetadataStore) Write(order *types.ExecutiveOrder) error {
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", m.dir, err)
	}
	data, err := yaml.Marshal(order)
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}
	return os.WriteFile(m.Path(int(order.Number)), data, 0o644)
}

// Lookup reads the record of an order number back.
func (m *MetadataStore) Lookup(number int) (*types.ExecutiveOrder, error) {
	data, err := os.ReadFile(m.Path(number))
	if err != nil {
		return nil, err
	}
	var order types.ExecutiveOrder
	if err := yaml.Unmarshal(data, &order); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", m.Path(number), err)
	}
	return &order, nil
}
