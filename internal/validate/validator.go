// Package validate checks a quota frame for internal consistency.
//
// Rules are grouped into two independent chains, one over the definition
// catalog and one over the variable tree. Within a chain the groups run in a
// fixed order and the chain stops after the first group that reports an
// error, so one structural defect does not drown the caller in follow-up
// errors. Every rule inside a group walks the whole tree and reports one
// error per offending node.
package validate

import (
	"github.com/agentic-research/quotaframe/internal/quota"
	"go.uber.org/zap"
)

type rule func(c *checkContext) []Error

type group struct {
	name  string
	rules []rule
}

type chain struct {
	name   string
	groups []group
}

var chains = []chain{
	{
		name: "definitions",
		groups: []group{
			{name: "definition ids", rules: []rule{checkDefinitionIDs}},
			{name: "definition names", rules: []rule{checkDefinitionNames}},
			{name: "definition levels", rules: []rule{checkDefinitionLevels}},
			{name: "odin variable names", rules: []rule{checkOdinVariableNames}},
		},
	},
	{
		name: "tree",
		groups: []group{
			{name: "frame ids", rules: []rule{checkFrameIDs}},
			{name: "definition references", rules: []rule{checkDefinitionReferences}},
			{name: "level sets", rules: []rule{checkLevelSets}},
			{name: "node settings", rules: []rule{
				checkNonNegativeTargets,
				checkMaxOvershoot,
				checkVisibleLevels,
				checkMultiLevelsAreLeaves,
			}},
			{name: "level bounds", rules: []rule{checkLevelBounds}},
			{name: "nested targets", rules: []rule{
				checkNestedMinimums,
				checkNestedMaximums,
			}},
		},
	},
}

// Option configures a Validator.
type Option func(*Validator)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(v *Validator) { v.logger = l }
}

// Validator runs the rule chains. It holds no per-frame state and may be
// shared between goroutines validating different frames.
type Validator struct {
	logger *zap.Logger
}

// New returns a Validator.
func New(opts ...Option) *Validator {
	v := &Validator{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate checks f with a default Validator.
func Validate(f *quota.Frame) Result {
	return New().Validate(f)
}

// Validate checks f and returns every error found. It never modifies f.
func (v *Validator) Validate(f *quota.Frame) Result {
	c := newCheckContext(f)
	res := Result{Errors: []Error{}}

	for _, ch := range chains {
		for _, g := range ch.groups {
			var errs []Error
			for _, r := range g.rules {
				errs = append(errs, r(c)...)
			}
			v.logger.Debug("rule group checked",
				zap.String("chain", ch.name),
				zap.String("group", g.name),
				zap.Int("errors", len(errs)),
			)
			if len(errs) > 0 {
				res.Errors = append(res.Errors, errs...)
				break
			}
		}
	}

	res.IsValid = len(res.Errors) == 0
	return res
}

// checkContext is the shared, read-only view of one frame used by the rules.
type checkContext struct {
	frame   *quota.Frame
	catalog *quota.Catalog
	index   *idIndex

	parentLevel    map[*quota.FrameVariable]*quota.FrameLevel
	parentVariable map[*quota.FrameLevel]*quota.FrameVariable
}

func newCheckContext(f *quota.Frame) *checkContext {
	catalog := f.Definitions
	if catalog == nil {
		catalog = quota.NewCatalog()
	}
	c := &checkContext{
		frame:          f,
		catalog:        catalog,
		index:          newIDIndex(),
		parentLevel:    make(map[*quota.FrameVariable]*quota.FrameLevel),
		parentVariable: make(map[*quota.FrameLevel]*quota.FrameVariable),
	}
	for _, v := range f.Variables {
		c.linkParents(v, nil)
	}
	return c
}

func (c *checkContext) linkParents(v *quota.FrameVariable, parent *quota.FrameLevel) {
	c.parentLevel[v] = parent
	for _, l := range v.Levels {
		c.parentVariable[l] = v
		for _, nested := range l.Variables {
			c.linkParents(nested, l)
		}
	}
}

// walk runs the shared pre-order traversal over the frame.
func (c *checkContext) walk(onVariable func(*quota.FrameVariable), onLevel func(*quota.FrameLevel)) {
	c.frame.Walk(onVariable, onLevel)
}

// ancestors returns the levels above v, nearest first.
func (c *checkContext) ancestors(v *quota.FrameVariable) []*quota.FrameLevel {
	var out []*quota.FrameLevel
	for l := c.parentLevel[v]; l != nil; l = c.parentLevel[c.parentVariable[l]] {
		out = append(out, l)
	}
	return out
}

// definitionOf returns the catalog entry for a frame variable.
func (c *checkContext) definitionOf(v *quota.FrameVariable) (*quota.VariableDefinition, bool) {
	return c.catalog.Get(v.DefinitionID)
}
