package quota

// Selection says whether a respondent has to pick a level of a variable.
// The zero value means the question does not apply.
type Selection uint8

const (
	SelectionNotApplicable Selection = iota
	SelectionOptional
	SelectionMandatory
)

func (s Selection) String() string {
	switch s {
	case SelectionOptional:
		return "optional"
	case SelectionMandatory:
		return "mandatory"
	default:
		return "not_applicable"
	}
}

// ParseSelection is the inverse of Selection.String. The empty string maps to
// SelectionNotApplicable.
func ParseSelection(s string) (Selection, bool) {
	switch s {
	case "", "not_applicable":
		return SelectionNotApplicable, true
	case "optional":
		return SelectionOptional, true
	case "mandatory":
		return SelectionMandatory, true
	default:
		return SelectionNotApplicable, false
	}
}

// LevelDefinition is one value of a variable in the catalog.
type LevelDefinition struct {
	ID   ID
	Name string
}

// VariableDefinition is a catalog entry: a dimension respondents are
// stratified by, with its ordered levels.
type VariableDefinition struct {
	ID   ID
	Name string

	// OdinVariableName is the identifier used by the export system. It does
	// not have to be unique.
	OdinVariableName string
	Selection        Selection

	// IsMulti marks variables whose levels can be selected simultaneously.
	IsMulti bool
	Levels  []LevelDefinition
}

// Level returns the level definition with the given name.
func (d *VariableDefinition) Level(name string) (LevelDefinition, error) {
	for _, l := range d.Levels {
		if l.Name == name {
			return l, nil
		}
	}
	return LevelDefinition{}, notFound("level %q in variable definition %q", name, d.Name)
}

// LevelIDs returns the ids of the definition's levels in declaration order.
func (d *VariableDefinition) LevelIDs() []ID {
	ids := make([]ID, len(d.Levels))
	for i, l := range d.Levels {
		ids[i] = l.ID
	}
	return ids
}
