package validate

import (
	"github.com/RoaringBitmap/roaring"
	"github.com/agentic-research/quotaframe/internal/quota"
)

// checkFrameIDs rejects frame node ids that repeat or that reuse a
// definition id.
func checkFrameIDs(c *checkContext) []Error {
	seen := newUniqueSet(c.index)
	for _, def := range c.catalog.All() {
		seen.add(def.ID)
		for _, l := range def.Levels {
			seen.add(l.ID)
		}
	}

	var errs []Error
	report := func(id quota.ID, kind, name string) {
		errs = append(errs, newError(CodeDuplicateFrameID,
			map[string]any{"id": id.String(), "kind": kind, "name": name},
			"frame %s %q uses id %s, which is already taken", kind, name, id))
	}
	c.walk(
		func(v *quota.FrameVariable) {
			if !seen.add(v.ID) {
				report(v.ID, "variable", v.Name)
			}
		},
		func(l *quota.FrameLevel) {
			if !seen.add(l.ID) {
				report(l.ID, "level", l.Name)
			}
		},
	)
	return errs
}

// checkDefinitionReferences requires every definition id in the tree to
// resolve against the catalog.
func checkDefinitionReferences(c *checkContext) []Error {
	levelDefs := make(map[quota.ID]bool)
	for _, def := range c.catalog.All() {
		for _, l := range def.Levels {
			levelDefs[l.ID] = true
		}
	}

	var errs []Error
	c.walk(
		func(v *quota.FrameVariable) {
			if _, ok := c.definitionOf(v); !ok {
				errs = append(errs, newError(CodeUnknownVariableDef,
					map[string]any{"variableId": v.ID.String(), "definitionId": v.DefinitionID.String()},
					"variable %q refers to unknown variable definition %s", v.Name, v.DefinitionID))
			}
		},
		func(l *quota.FrameLevel) {
			if !levelDefs[l.DefinitionID] {
				errs = append(errs, newError(CodeUnknownLevelDef,
					map[string]any{"levelId": l.ID.String(), "definitionId": l.DefinitionID.String()},
					"level %q refers to unknown level definition %s", l.Name, l.DefinitionID))
			}
		},
	)
	return errs
}

// checkLevelSets requires the levels of every frame variable to cover
// exactly the levels of its definition. The comparison is on sets.
func checkLevelSets(c *checkContext) []Error {
	var errs []Error
	c.walk(func(v *quota.FrameVariable) {
		def, ok := c.definitionOf(v)
		if !ok {
			return
		}
		want := c.index.set(def.LevelIDs()...)
		got := roaring.New()
		for _, l := range v.Levels {
			got.Add(c.index.key(l.DefinitionID))
		}
		if want.Equals(got) {
			return
		}
		missing := c.index.resolve(roaring.AndNot(want, got))
		extra := c.index.resolve(roaring.AndNot(got, want))
		errs = append(errs, newError(CodeLevelSetMismatch,
			map[string]any{"variableId": v.ID.String(), "missing": missing, "extra": extra},
			"levels of variable %q do not match its definition: %d missing, %d unexpected",
			v.Name, len(missing), len(extra)))
	}, nil)
	return errs
}

func checkNonNegativeTargets(c *checkContext) []Error {
	var errs []Error
	if t := c.frame.Target; t != nil && *t < 0 {
		errs = append(errs, newError(CodeNegativeFrameTarget,
			map[string]any{"target": *t},
			"frame target must not be negative, but was %d", *t))
	}
	c.walk(nil, func(l *quota.FrameLevel) {
		if l.Target != nil && *l.Target < 0 {
			errs = append(errs, newError(CodeNegativeTarget,
				map[string]any{"levelId": l.ID.String(), "target": *l.Target},
				"target of level %q must not be negative, but was %d", l.Name, *l.Target))
		}
		if l.MaxTarget != nil && *l.MaxTarget < 0 {
			errs = append(errs, newError(CodeNegativeMaxTarget,
				map[string]any{"levelId": l.ID.String(), "maxTarget": *l.MaxTarget},
				"max target of level %q must not be negative, but was %d", l.Name, *l.MaxTarget))
		}
	})
	return errs
}

func checkMaxOvershoot(c *checkContext) []Error {
	var errs []Error
	c.walk(nil, func(l *quota.FrameLevel) {
		if l.MaxOvershoot == nil {
			return
		}
		if *l.MaxOvershoot < 0 {
			errs = append(errs, newError(CodeNegativeMaxOvershoot,
				map[string]any{"levelId": l.ID.String(), "maxOvershoot": *l.MaxOvershoot},
				"max overshoot of level %q must not be negative, but was %d", l.Name, *l.MaxOvershoot))
		}
		if !l.IsLeaf() {
			errs = append(errs, newError(CodeMaxOvershootOnNonLeaf,
				map[string]any{"levelId": l.ID.String()},
				"max overshoot can only be set on levels without nested variables, but level %q has %d",
				l.Name, len(l.Variables)))
		}
	})
	return errs
}

func checkVisibleLevels(c *checkContext) []Error {
	var errs []Error
	c.walk(func(v *quota.FrameVariable) {
		if v.IsHidden {
			return
		}
		for _, l := range v.Levels {
			if !l.IsHidden {
				return
			}
		}
		errs = append(errs, newError(CodeNoVisibleLevel,
			map[string]any{"variableId": v.ID.String()},
			"variable %q has no visible level; hide the variable instead", v.Name))
	}, nil)
	return errs
}

// checkMultiLevelsAreLeaves rejects nesting below a multi-select variable.
func checkMultiLevelsAreLeaves(c *checkContext) []Error {
	var errs []Error
	c.walk(func(v *quota.FrameVariable) {
		def, ok := c.definitionOf(v)
		if !ok || !def.IsMulti {
			return
		}
		for _, l := range v.Levels {
			if !l.IsLeaf() {
				errs = append(errs, newError(CodeMultiLevelHasVariables,
					map[string]any{"variableId": v.ID.String(), "levelId": l.ID.String()},
					"level %q of multi-select variable %q cannot have nested variables", l.Name, v.Name))
			}
		}
	}, nil)
	return errs
}

func checkLevelBounds(c *checkContext) []Error {
	var errs []Error
	c.walk(nil, func(l *quota.FrameLevel) {
		if l.Target != nil && l.MaxTarget != nil && *l.Target > *l.MaxTarget {
			errs = append(errs, newError(CodeTargetAboveMaxTarget,
				map[string]any{"levelId": l.ID.String(), "target": *l.Target, "maxTarget": *l.MaxTarget},
				"level %q has a minimum greater than the maximum for that level: target %d, max target %d",
				l.Name, *l.Target, *l.MaxTarget))
		}
	})
	return errs
}
