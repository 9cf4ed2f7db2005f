// Package builder constructs quota frames in two phases: variables are first
// registered in the catalog, then a nesting structure names which variables
// appear and which ones recurse under the levels of others.
package builder

import (
	"fmt"

	"github.com/agentic-research/quotaframe/internal/quota"
	"go.uber.org/zap"
)

// ErrUnknownVariable is returned when a structure names a variable that was
// never defined.
var ErrUnknownVariable = fmt.Errorf("unknown variable: %w", quota.ErrNotFound)

// Variable declares one catalog entry.
type Variable struct {
	Name      string
	OdinName  string
	Levels    []string
	Selection quota.Selection
	Multi     bool
}

// Node places a catalog variable in the tree. Children are instantiated under
// every level of the variable.
type Node struct {
	Variable string
	Children []Node
}

// Nest is shorthand for a Node literal.
func Nest(variable string, children ...Node) Node {
	return Node{Variable: variable, Children: children}
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(b *Builder) { b.logger = l }
}

// Builder accumulates a frame. It is not safe for concurrent use.
type Builder struct {
	frame  *quota.Frame
	logger *zap.Logger
}

// New returns a Builder around an empty frame.
func New(opts ...Option) *Builder {
	b := &Builder{frame: quota.NewFrame(), logger: zap.NewNop()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Define registers a variable and its levels in the catalog with fresh ids
// and returns the new definition.
func (b *Builder) Define(v Variable) *quota.VariableDefinition {
	def := &quota.VariableDefinition{
		ID:               quota.NewID(),
		Name:             v.Name,
		OdinVariableName: v.OdinName,
		Selection:        v.Selection,
		IsMulti:          v.Multi,
		Levels:           make([]quota.LevelDefinition, len(v.Levels)),
	}
	for i, name := range v.Levels {
		def.Levels[i] = quota.LevelDefinition{ID: quota.NewID(), Name: name}
	}
	// Ids are freshly generated, so a collision means the catalog is broken.
	if err := b.frame.Definitions.Add(def); err != nil {
		panic(err)
	}
	return def
}

// Build materializes the structure as the frame's root variables and returns
// the frame. Every name is resolved before anything is added, so a failed
// Build leaves the frame untouched. Build is meant to be called once.
func (b *Builder) Build(structure ...Node) (*quota.Frame, error) {
	if err := b.resolve(structure); err != nil {
		return nil, err
	}

	for _, n := range structure {
		b.frame.Variables = append(b.frame.Variables, b.materialize(n))
	}

	nodes := 0
	b.frame.Walk(func(*quota.FrameVariable) { nodes++ }, func(*quota.FrameLevel) { nodes++ })
	b.logger.Debug("frame built",
		zap.Int("definitions", b.frame.Definitions.Len()),
		zap.Int("roots", len(b.frame.Variables)),
		zap.Int("nodes", nodes),
	)
	return b.frame, nil
}

// Frame returns the frame under construction.
func (b *Builder) Frame() *quota.Frame {
	return b.frame
}

func (b *Builder) resolve(nodes []Node) error {
	for _, n := range nodes {
		if _, err := b.frame.Definitions.ByName(n.Variable); err != nil {
			return fmt.Errorf("structure references %q: %w", n.Variable, ErrUnknownVariable)
		}
		if err := b.resolve(n.Children); err != nil {
			return err
		}
	}
	return nil
}

// materialize instantiates n with fresh ids. Children are instantiated
// independently under each level, giving a balanced cross product.
func (b *Builder) materialize(n Node) *quota.FrameVariable {
	def, _ := b.frame.Definitions.ByName(n.Variable)

	v := &quota.FrameVariable{
		ID:           quota.NewID(),
		DefinitionID: def.ID,
		Name:         def.Name,
		Levels:       make([]*quota.FrameLevel, len(def.Levels)),
	}
	for i, ld := range def.Levels {
		level := &quota.FrameLevel{
			ID:           quota.NewID(),
			DefinitionID: ld.ID,
			Name:         ld.Name,
		}
		for _, child := range n.Children {
			level.Variables = append(level.Variables, b.materialize(child))
		}
		v.Levels[i] = level
	}
	return v
}
