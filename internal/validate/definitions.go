package validate

import "regexp"

// odinNamePattern accepts a letter followed by letters, decimal digits and
// underscores. Letters are any Unicode letters; other word characters such as
// connector punctuation are rejected.
var odinNamePattern = regexp.MustCompile(`^\p{L}[\p{L}\p{Nd}_]*$`)

// ValidOdinVariableName reports whether name can be used as an export
// variable name.
func ValidOdinVariableName(name string) bool {
	return odinNamePattern.MatchString(name)
}

// checkDefinitionIDs rejects id collisions among variable definitions and
// their levels.
func checkDefinitionIDs(c *checkContext) []Error {
	var errs []Error
	seen := newUniqueSet(c.index)
	for _, def := range c.catalog.All() {
		// Catalog.Add rejects a repeated id, but the id of an added
		// definition can still be changed afterwards.
		if !seen.add(def.ID) {
			errs = append(errs, duplicateDefinitionID(def.ID.String(), def.Name))
		}
		for _, l := range def.Levels {
			if !seen.add(l.ID) {
				errs = append(errs, duplicateDefinitionID(l.ID.String(), l.Name))
			}
		}
	}
	return errs
}

func duplicateDefinitionID(id, name string) Error {
	return newError(CodeDuplicateDefinitionID,
		map[string]any{"id": id, "name": name},
		"definition id %s (%q) is used more than once", id, name)
}

// checkDefinitionNames requires unique variable names across the catalog and
// unique level names within each variable.
func checkDefinitionNames(c *checkContext) []Error {
	var errs []Error
	variables := make(map[string]bool)
	for _, def := range c.catalog.All() {
		if variables[def.Name] {
			errs = append(errs, newError(CodeDuplicateVariableName,
				map[string]any{"variableId": def.ID.String(), "name": def.Name},
				"variable name %q is used by more than one definition", def.Name))
		}
		variables[def.Name] = true

		levels := make(map[string]bool, len(def.Levels))
		for _, l := range def.Levels {
			if levels[l.Name] {
				errs = append(errs, newError(CodeDuplicateLevelName,
					map[string]any{"variableId": def.ID.String(), "levelId": l.ID.String(), "name": l.Name},
					"level name %q is used more than once in variable %q", l.Name, def.Name))
			}
			levels[l.Name] = true
		}
	}
	return errs
}

func checkDefinitionLevels(c *checkContext) []Error {
	var errs []Error
	for _, def := range c.catalog.All() {
		if len(def.Levels) == 0 {
			errs = append(errs, newError(CodeDefinitionWithoutLevels,
				map[string]any{"variableId": def.ID.String(), "name": def.Name},
				"variable %q has no levels", def.Name))
		}
	}
	return errs
}

func checkOdinVariableNames(c *checkContext) []Error {
	var errs []Error
	for _, def := range c.catalog.All() {
		if !ValidOdinVariableName(def.OdinVariableName) {
			errs = append(errs, newError(CodeInvalidOdinVariableName,
				map[string]any{"variableId": def.ID.String(), "odinVariableName": def.OdinVariableName},
				"variable %q has invalid odin variable name %q: it must start with a letter and contain only letters, digits and underscores",
				def.Name, def.OdinVariableName))
		}
	}
	return errs
}
