// Package quota holds the quota frame data model: the definition catalog,
// the nested tree of frame variables and levels built from it, the name-keyed
// lookups used to set targets, and the pre-order traversal shared by the
// validation rules.
//
// Frames are plain mutable object graphs without locking. A frame must not be
// mutated from more than one goroutine at a time.
package quota

import "strconv"

// Frame is the root of a quota plan.
type Frame struct {
	// Target is the minimum number of respondents overall. Nil means
	// unconstrained.
	Target *int

	// Definitions is the catalog the tree refers to.
	Definitions *Catalog

	// Variables are the roots of the nested plan.
	Variables []*FrameVariable
}

// NewFrame returns an empty frame with an empty catalog.
func NewFrame() *Frame {
	return &Frame{Definitions: NewCatalog()}
}

// Variable returns the root variable with the given name (frame[variable]).
func (f *Frame) Variable(name string) (*FrameVariable, error) {
	return findVariable(f.Variables, name, "frame")
}

// Level returns a level of a root variable (frame[variable, level]).
func (f *Frame) Level(variable, level string) (*FrameLevel, error) {
	v, err := f.Variable(variable)
	if err != nil {
		return nil, err
	}
	return v.Level(level)
}

// MustVariable is Variable for callers that treat a miss as a bug.
func (f *Frame) MustVariable(name string) *FrameVariable {
	v, err := f.Variable(name)
	if err != nil {
		panic(err)
	}
	return v
}

// MustLevel is Level for callers that treat a miss as a bug.
func (f *Frame) MustLevel(variable, level string) *FrameLevel {
	l, err := f.Level(variable, level)
	if err != nil {
		panic(err)
	}
	return l
}

// FrameVariable is a positioned instance of a variable definition.
type FrameVariable struct {
	ID           ID
	DefinitionID ID
	Name         string
	IsHidden     bool
	Levels       []*FrameLevel
}

// Level returns the level with the given name (variable[level]).
func (v *FrameVariable) Level(name string) (*FrameLevel, error) {
	for _, l := range v.Levels {
		if l.Name == name {
			return l, nil
		}
	}
	return nil, notFound("level %q in variable %q", name, v.Name)
}

// FrameLevel is a positioned instance of a level definition. A level without
// nested variables is a leaf.
type FrameLevel struct {
	ID           ID
	DefinitionID ID
	Name         string
	IsHidden     bool

	// Target is the minimum number of completes, MaxTarget the maximum.
	Target    *int
	MaxTarget *int

	// MaxOvershoot is the tolerated excess over MaxTarget. Leaf levels only.
	MaxOvershoot *int
	Variables    []*FrameVariable
}

// IsLeaf reports whether the level has no nested variables.
func (l *FrameLevel) IsLeaf() bool {
	return len(l.Variables) == 0
}

// Variable returns the nested variable with the given name (level[variable]).
func (l *FrameLevel) Variable(name string) (*FrameVariable, error) {
	return findVariable(l.Variables, name, "level "+strconv.Quote(l.Name))
}

// Level returns a level of a nested variable (level[variable, level]).
func (l *FrameLevel) Level(variable, level string) (*FrameLevel, error) {
	v, err := l.Variable(variable)
	if err != nil {
		return nil, err
	}
	return v.Level(level)
}

// MustLevel is Level for callers that treat a miss as a bug.
func (l *FrameLevel) MustLevel(variable, level string) *FrameLevel {
	nested, err := l.Level(variable, level)
	if err != nil {
		panic(err)
	}
	return nested
}

// Count returns a pointer to n, for assigning targets.
func Count(n int) *int {
	return &n
}

func findVariable(vars []*FrameVariable, name, scope string) (*FrameVariable, error) {
	for _, v := range vars {
		if v.Name == name {
			return v, nil
		}
	}
	return nil, notFound("variable %q in %s", name, scope)
}
