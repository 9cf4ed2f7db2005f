// Package api defines the JSON document a quota frame is exchanged as.
//
// Ids are 32-character lowercase hex strings without dashes. Target fields
// are pointers so that "unset" and zero stay distinct, and so that an
// encoder can drop them entirely.
package api

// Frame is the root document.
type Frame struct {
	// Target is the overall minimum number of respondents.
	Target *int `json:"target,omitempty"`

	VariableDefinitions []VariableDefinition `json:"variableDefinitions"`
	Variables           []Variable           `json:"variables"`
}

// VariableDefinition is a catalog entry.
type VariableDefinition struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	OdinVariableName string `json:"odinVariableName"`

	// IsSelectionOptional is null when selection does not apply.
	IsSelectionOptional *bool             `json:"isSelectionOptional"`
	IsMulti             bool              `json:"isMulti"`
	Levels              []LevelDefinition `json:"levels"`
}

// LevelDefinition is one level of a catalog entry.
type LevelDefinition struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Variable is a node of the frame tree.
type Variable struct {
	ID           string  `json:"id"`
	DefinitionID string  `json:"definitionId"`
	Name         string  `json:"name"`
	IsHidden     bool    `json:"isHidden"`
	Levels       []Level `json:"levels"`
}

// Level is a node of the frame tree. Variables nest further variables.
type Level struct {
	ID           string     `json:"id"`
	DefinitionID string     `json:"definitionId"`
	Name         string     `json:"name"`
	IsHidden     bool       `json:"isHidden"`
	Target       *int       `json:"target,omitempty"`
	MaxTarget    *int       `json:"maxTarget,omitempty"`
	MaxOvershoot *int       `json:"maxOvershoot,omitempty"`
	Variables    []Variable `json:"variables,omitempty"`
}
