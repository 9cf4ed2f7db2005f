package quota

import "fmt"

// Catalog owns the variable definitions of a frame. It keeps insertion order
// and indexes definitions by id. Frame nodes refer to definitions by id only.
type Catalog struct {
	order []ID
	byID  map[ID]*VariableDefinition
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{byID: make(map[ID]*VariableDefinition)}
}

// Add appends def. Adding a second definition with the same id is a
// programming error and returns ErrDuplicateID.
func (c *Catalog) Add(def *VariableDefinition) error {
	if c.byID == nil {
		c.byID = make(map[ID]*VariableDefinition)
	}
	if _, exists := c.byID[def.ID]; exists {
		return fmt.Errorf("variable definition %s (%q): %w", def.ID, def.Name, ErrDuplicateID)
	}
	c.byID[def.ID] = def
	c.order = append(c.order, def.ID)
	return nil
}

// Get returns the definition with the given id.
func (c *Catalog) Get(id ID) (*VariableDefinition, bool) {
	def, ok := c.byID[id]
	return def, ok
}

// ByName returns the first definition, in insertion order, with the given name.
func (c *Catalog) ByName(name string) (*VariableDefinition, error) {
	for _, id := range c.order {
		if def := c.byID[id]; def.Name == name {
			return def, nil
		}
	}
	return nil, notFound("variable definition %q", name)
}

// Level resolves a level definition id to the level and the variable
// definition that owns it.
func (c *Catalog) Level(id ID) (*VariableDefinition, LevelDefinition, bool) {
	for _, vid := range c.order {
		def := c.byID[vid]
		for _, l := range def.Levels {
			if l.ID == id {
				return def, l, true
			}
		}
	}
	return nil, LevelDefinition{}, false
}

// All returns the definitions in insertion order.
func (c *Catalog) All() []*VariableDefinition {
	defs := make([]*VariableDefinition, len(c.order))
	for i, id := range c.order {
		defs[i] = c.byID[id]
	}
	return defs
}

// Len returns the number of definitions.
func (c *Catalog) Len() int {
	return len(c.order)
}
