// Package plan reads quota frames described in HCL.
//
// A plan declares the catalog with variable blocks, the nesting with a
// structure block, and then addresses individual levels by variable and level
// name to set targets and visibility:
//
//	target = 1000
//
//	variable "Gender" {
//	  odin_name = "gender"
//	  levels    = ["Male", "Female"]
//	  selection = "mandatory"
//	}
//
//	variable "Region" {
//	  odin_name = "region"
//	  levels    = ["North", "South"]
//	}
//
//	structure {
//	  nest "Gender" {
//	    nest "Region" {}
//	  }
//	}
//
//	level "Gender" "Male" {
//	  target     = 500
//	  max_target = 600
//
//	  level "Region" "North" {
//	    max_overshoot = 10
//	  }
//	}
//
// Level blocks nest the same way the frame does: a level block inside another
// one addresses a variable beneath that level.
package plan

import (
	"fmt"

	"github.com/agentic-research/quotaframe/internal/builder"
	"github.com/agentic-research/quotaframe/internal/quota"
	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/hashicorp/hcl/v2/hclsimple"
)

// Plan is a decoded plan file.
type Plan struct {
	Target          *int     `hcl:"target,optional"`
	HiddenVariables []string `hcl:"hidden_variables,optional"`

	Variables []Variable  `hcl:"variable,block"`
	Structure *Structure  `hcl:"structure,block"`
	Levels    []LevelSpec `hcl:"level,block"`
}

// Variable declares a catalog entry.
type Variable struct {
	Name      string   `hcl:"name,label"`
	OdinName  string   `hcl:"odin_name,optional"`
	Levels    []string `hcl:"levels,optional"`
	Selection string   `hcl:"selection,optional"`
	Multi     bool     `hcl:"multi,optional"`
}

// Structure holds the root nest blocks.
type Structure struct {
	Nest []Nest `hcl:"nest,block"`
}

// Nest places a variable in the tree, with the variables nested under each of
// its levels.
type Nest struct {
	Variable string `hcl:"variable,label"`
	Nest     []Nest `hcl:"nest,block"`
}

// LevelSpec sets the fields of one frame level.
type LevelSpec struct {
	Variable string `hcl:"variable,label"`
	Level    string `hcl:"level,label"`

	Target       *int `hcl:"target,optional"`
	MaxTarget    *int `hcl:"max_target,optional"`
	MaxOvershoot *int `hcl:"max_overshoot,optional"`
	Hidden       bool `hcl:"hidden,optional"`

	HiddenVariables []string    `hcl:"hidden_variables,optional"`
	Levels          []LevelSpec `hcl:"level,block"`
}

// Parse decodes src. The filename picks the syntax: ".hcl" for native syntax,
// ".json" for the JSON variant.
func Parse(filename string, src []byte) (*Plan, error) {
	var p Plan
	if err := hclsimple.Decode(filename, src, nil, &p); err != nil {
		return nil, fmt.Errorf("parse plan: %w", err)
	}
	return &p, nil
}

// Load reads and parses the plan at path in fsys.
func Load(fsys billy.Filesystem, path string) (*Plan, error) {
	src, err := util.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("read plan %s: %w", path, err)
	}
	return Parse(path, src)
}

// Build materializes the plan into a frame. Names that do not resolve are
// errors wrapping quota.ErrNotFound. The returned frame is not validated.
func (p *Plan) Build(opts ...builder.Option) (*quota.Frame, error) {
	b := builder.New(opts...)

	// 1. Catalog
	for _, v := range p.Variables {
		sel, ok := quota.ParseSelection(v.Selection)
		if !ok {
			return nil, fmt.Errorf("variable %q: invalid selection %q", v.Name, v.Selection)
		}
		b.Define(builder.Variable{
			Name:      v.Name,
			OdinName:  v.OdinName,
			Levels:    v.Levels,
			Selection: sel,
			Multi:     v.Multi,
		})
	}

	// 2. Structure
	var roots []builder.Node
	if p.Structure != nil {
		roots = nodes(p.Structure.Nest)
	}
	f, err := b.Build(roots...)
	if err != nil {
		return nil, err
	}

	// 3. Settings
	f.Target = p.Target
	for _, name := range p.HiddenVariables {
		v, err := f.Variable(name)
		if err != nil {
			return nil, fmt.Errorf("hidden_variables: %w", err)
		}
		v.IsHidden = true
	}
	for _, spec := range p.Levels {
		l, err := f.Level(spec.Variable, spec.Level)
		if err != nil {
			return nil, fmt.Errorf("level block: %w", err)
		}
		if err := spec.apply(l); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func (s LevelSpec) apply(l *quota.FrameLevel) error {
	l.Target = s.Target
	l.MaxTarget = s.MaxTarget
	l.MaxOvershoot = s.MaxOvershoot
	l.IsHidden = s.Hidden

	for _, name := range s.HiddenVariables {
		v, err := l.Variable(name)
		if err != nil {
			return fmt.Errorf("level %s/%s hidden_variables: %w", s.Variable, s.Level, err)
		}
		v.IsHidden = true
	}
	for _, child := range s.Levels {
		nested, err := l.Level(child.Variable, child.Level)
		if err != nil {
			return fmt.Errorf("level %s/%s: %w", s.Variable, s.Level, err)
		}
		if err := child.apply(nested); err != nil {
			return err
		}
	}
	return nil
}

func nodes(in []Nest) []builder.Node {
	out := make([]builder.Node, len(in))
	for i, n := range in {
		out[i] = builder.Nest(n.Variable, nodes(n.Nest)...)
	}
	return out
}
