package validate

import (
	"math"

	"github.com/agentic-research/quotaframe/internal/quota"
)

// bound is a number of completes that may be unbounded.
type bound struct {
	n      int
	finite bool
}

var unbounded = bound{}

func atMost(n int) bound {
	return bound{n: n, finite: true}
}

func (b bound) min(o bound) bound {
	switch {
	case !b.finite:
		return o
	case !o.finite:
		return b
	case o.n < b.n:
		return o
	default:
		return b
	}
}

func (b bound) max(o bound) bound {
	if !b.finite || !o.finite {
		return unbounded
	}
	if o.n > b.n {
		return o
	}
	return b
}

func (b bound) plus(o bound) bound {
	if !b.finite || !o.finite {
		return unbounded
	}
	return atMost(addCapped(b.n, o.n))
}

// addCapped adds two non-negative counts, capping the sum at math.MaxInt.
func addCapped(a, b int) int {
	if a > math.MaxInt-b {
		return math.MaxInt
	}
	return a + b
}

// minimumRequired is the number of completes a nested variable needs to meet
// the targets of its levels. Levels of a single-select variable are mutually
// exclusive, so their targets add up. Levels of a multi-select variable are
// filled in parallel, so the most demanding one decides.
func (c *checkContext) minimumRequired(v *quota.FrameVariable) int {
	multi := false
	if def, ok := c.definitionOf(v); ok {
		multi = def.IsMulti
	}
	total := 0
	for _, l := range v.Levels {
		if l.Target == nil {
			continue
		}
		if multi {
			total = max(total, *l.Target)
		} else {
			total = addCapped(total, *l.Target)
		}
	}
	return total
}

// maxAllowed is the largest number of completes a level can reach given the
// max targets on and beneath it. A leaf is bounded by its own max target.
// Otherwise each nested variable is bounded by its levels, the largest of
// those bounds is taken and then clamped by the level's own max target.
func (c *checkContext) maxAllowed(l *quota.FrameLevel) bound {
	own := unbounded
	if l.MaxTarget != nil {
		own = atMost(*l.MaxTarget)
	}
	if l.IsLeaf() {
		return own
	}

	var nested bound
	for i, v := range l.Variables {
		vb := c.variableMaxAllowed(v)
		if i == 0 {
			nested = vb
			continue
		}
		nested = nested.max(vb)
	}
	return nested.min(own)
}

// variableMaxAllowed adds up the level bounds of a single-select variable.
// Every respondent of a multi-select variable counts towards each of its
// levels, so the tightest level bound applies.
func (c *checkContext) variableMaxAllowed(v *quota.FrameVariable) bound {
	if len(v.Levels) == 0 {
		return unbounded
	}
	multi := false
	if def, ok := c.definitionOf(v); ok {
		multi = def.IsMulti
	}

	if multi {
		b := unbounded
		for _, l := range v.Levels {
			b = b.min(c.maxAllowed(l))
		}
		return b
	}
	b := atMost(0)
	for _, l := range v.Levels {
		b = b.plus(c.maxAllowed(l))
	}
	return b
}

// checkNestedMinimums compares the completes every nested variable requires
// with the max target of each level above it, up to the root.
func checkNestedMinimums(c *checkContext) []Error {
	var errs []Error
	c.walk(func(v *quota.FrameVariable) {
		ancestors := c.ancestors(v)
		if len(ancestors) == 0 {
			return
		}
		required := c.minimumRequired(v)
		for _, a := range ancestors {
			if a.MaxTarget == nil || required <= *a.MaxTarget {
				continue
			}
			errs = append(errs, newError(CodeNestedTargetsAboveMax,
				map[string]any{
					"variableId": v.ID.String(),
					"levelId":    a.ID.String(),
					"required":   required,
					"maxTarget":  *a.MaxTarget,
				},
				"targets of nested variable %q need more completes than the max target of level %q: expected at most %d, but was %d",
				v.Name, a.Name, required, *a.MaxTarget))
		}
	}, nil)
	return errs
}

// checkNestedMaximums compares the target of every level with the most
// completes its nested variables allow.
func checkNestedMaximums(c *checkContext) []Error {
	var errs []Error
	c.walk(nil, func(l *quota.FrameLevel) {
		if l.Target == nil {
			return
		}
		ceiling := c.maxAllowed(l)
		if !ceiling.finite || *l.Target <= ceiling.n {
			return
		}
		errs = append(errs, newError(CodeTargetAboveNestedMaximum,
			map[string]any{
				"levelId": l.ID.String(),
				"target":  *l.Target,
				"allowed": ceiling.n,
			},
			"target of level %q cannot be reached within the max targets beneath it: expected at most %d, but was %d",
			l.Name, ceiling.n, *l.Target))
	})
	return errs
}
