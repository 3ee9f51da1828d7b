package catalog

import (
	"fmt"
	"strings"

	"github.com/Aranil/dbflow/internal/logger"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Parse decodes a YAML catalog document and normalizes column types
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	for i := range c.Tables {
		for j := range c.Tables[i].Columns {
			col := &c.Tables[i].Columns[j]
			if t, err := ParseColumnType(string(col.Type)); err == nil {
				col.Type = t
			}
		}
		for j := range c.Tables[i].Geometry {
			g := &c.Tables[i].Geometry[j]
			g.Type = strings.ToUpper(strings.TrimSpace(g.Type))
			if g.Type == "" {
				g.Type = "GEOMETRY"
			}
		}
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Load reads and validates the catalog file at path. An empty path yields an
// empty catalog.
func Load(fs afero.Fs, path string) (*Catalog, error) {
	if path == "" {
		logger.Schema().Warn("No catalog configured, no tables will be created")
		return New(), nil
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}

	if c.Len() == 0 {
		logger.Schema().Warn("No tables found in catalog", "path", path)
	}
	logger.Schema().Info("Loaded catalog", "path", path, "tables", c.Len())
	return c, nil
}
