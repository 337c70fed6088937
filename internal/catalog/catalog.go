// Package catalog holds the immutable set of models the service can serve.
package catalog

import (
	"errors"
	"fmt"
)

// Category groups models by modality.
type Category string

const (
	CategoryText       Category = "text"
	CategoryMultimodal Category = "multimodal"
	CategoryAudio      Category = "audio"
	CategoryVision     Category = "vision"
)

// Categories lists the known categories in display order.
var Categories = []Category{CategoryText, CategoryMultimodal, CategoryAudio, CategoryVision}

func (c Category) valid() bool {
	for _, k := range Categories {
		if c == k {
			return true
		}
	}
	return false
}

// ModelDescriptor is static metadata about one servable model.
type ModelDescriptor struct {
	ID string `json:"id" yaml:"id" toml:"id"`
	// BackendName is passed to the driver, e.g. a hub name or GGUF path.
	BackendName string `json:"name" yaml:"name" toml:"name"`
	// Driver selects the runtime; empty means the configured default.
	Driver         string   `json:"driver,omitempty" yaml:"driver" toml:"driver"`
	Description    string   `json:"description" yaml:"description" toml:"description"`
	Category       Category `json:"category" yaml:"category" toml:"category"`
	Tasks          []string `json:"tasks" yaml:"tasks" toml:"tasks"`
	MemoryRequired string   `json:"memory_required" yaml:"memory_required" toml:"memory_required"`
	Recommended    bool     `json:"recommended" yaml:"recommended" toml:"recommended"`
}

func (d ModelDescriptor) clone() ModelDescriptor {
	d.Tasks = append([]string(nil), d.Tasks...)
	return d
}

// Group is the descriptors of one category.
type Group struct {
	Category Category
	Models   []ModelDescriptor
}

// Catalog is an immutable, ordered set of descriptors. Accessors return
// copies; a Catalog is safe for concurrent use.
type Catalog struct {
	models []ModelDescriptor
	index  map[string]int
}

// New builds a catalog in the given order. IDs must be unique and
// non-empty; an empty category defaults to text.
func New(descs ...ModelDescriptor) (*Catalog, error) {
	c := &Catalog{
		models: make([]ModelDescriptor, 0, len(descs)),
		index:  make(map[string]int, len(descs)),
	}
	for _, d := range descs {
		if d.ID == "" {
			return nil, errors.New("catalog: model id is empty")
		}
		if _, dup := c.index[d.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate model id %q", d.ID)
		}
		if d.Category == "" {
			d.Category = CategoryText
		}
		if !d.Category.valid() {
			return nil, fmt.Errorf("catalog: model %q has unknown category %q", d.ID, d.Category)
		}
		if d.BackendName == "" {
			d.BackendName = d.ID
		}
		c.index[d.ID] = len(c.models)
		c.models = append(c.models, d.clone())
	}
	return c, nil
}

// Resolve returns the descriptor for id.
func (c *Catalog) Resolve(id string) (ModelDescriptor, bool) {
	i, ok := c.index[id]
	if !ok {
		return ModelDescriptor{}, false
	}
	return c.models[i].clone(), true
}

// Len returns the number of descriptors.
func (c *Catalog) Len() int { return len(c.models) }

// List returns every descriptor in definition order.
func (c *Catalog) List() []ModelDescriptor {
	out := make([]ModelDescriptor, len(c.models))
	for i, d := range c.models {
		out[i] = d.clone()
	}
	return out
}

// ListRecommended returns the IDs flagged recommended, in definition order.
func (c *Catalog) ListRecommended() []string {
	var out []string
	for _, d := range c.models {
		if d.Recommended {
			out = append(out, d.ID)
		}
	}
	return out
}

// ListAll groups descriptors by category. Empty categories are omitted.
func (c *Catalog) ListAll() []Group {
	var out []Group
	for _, cat := range Categories {
		var g Group
		for _, d := range c.models {
			if d.Category == cat {
				g.Models = append(g.Models, d.clone())
			}
		}
		if len(g.Models) > 0 {
			g.Category = cat
			out = append(out, g)
		}
	}
	return out
}
