package quota

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sampleFrame builds Gender(Male, Female) with Region(North, South) under Male.
func sampleFrame(t *testing.T) *Frame {
	t.Helper()
	f := NewFrame()
	gender := &VariableDefinition{
		ID: NewID(), Name: "Gender", OdinVariableName: "gender",
		Levels: []LevelDefinition{{ID: NewID(), Name: "Male"}, {ID: NewID(), Name: "Female"}},
	}
	region := &VariableDefinition{
		ID: NewID(), Name: "Region", OdinVariableName: "region",
		Levels: []LevelDefinition{{ID: NewID(), Name: "North"}, {ID: NewID(), Name: "South"}},
	}
	require.NoError(t, f.Definitions.Add(gender))
	require.NoError(t, f.Definitions.Add(region))

	nested := &FrameVariable{ID: NewID(), DefinitionID: region.ID, Name: "Region"}
	for _, l := range region.Levels {
		nested.Levels = append(nested.Levels, &FrameLevel{ID: NewID(), DefinitionID: l.ID, Name: l.Name})
	}
	root := &FrameVariable{ID: NewID(), DefinitionID: gender.ID, Name: "Gender"}
	root.Levels = []*FrameLevel{
		{ID: NewID(), DefinitionID: gender.Levels[0].ID, Name: "Male", Variables: []*FrameVariable{nested}},
		{ID: NewID(), DefinitionID: gender.Levels[1].ID, Name: "Female"},
	}
	f.Variables = []*FrameVariable{root}
	return f
}

func TestID_StringIsHexWithoutDashes(t *testing.T) {
	id := NewID()
	s := id.String()
	assert.Len(t, s, 32)
	assert.NotContains(t, s, "-")
	assert.Equal(t, strings.ToLower(s), s)

	parsed, err := ParseID(s)
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestParseID_AcceptsDashedForm(t *testing.T) {
	id, err := ParseID("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	require.NoError(t, err)
	assert.Equal(t, "6ba7b8109dad11d180b400c04fd430c8", id.String())
}

func TestParseID_Invalid(t *testing.T) {
	_, err := ParseID("not-an-id")
	assert.Error(t, err)
}

func TestCatalog_AddRejectsDuplicateID(t *testing.T) {
	c := NewCatalog()
	def := &VariableDefinition{ID: NewID(), Name: "Gender"}
	require.NoError(t, c.Add(def))

	err := c.Add(&VariableDefinition{ID: def.ID, Name: "Other"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateID))
	assert.Equal(t, 1, c.Len())
}

func TestCatalog_LookupsKeepInsertionOrder(t *testing.T) {
	c := NewCatalog()
	a := &VariableDefinition{ID: NewID(), Name: "A", Levels: []LevelDefinition{{ID: NewID(), Name: "a1"}}}
	b := &VariableDefinition{ID: NewID(), Name: "B"}
	require.NoError(t, c.Add(a))
	require.NoError(t, c.Add(b))

	all := c.All()
	require.Len(t, all, 2)
	assert.Same(t, a, all[0])
	assert.Same(t, b, all[1])

	got, ok := c.Get(b.ID)
	require.True(t, ok)
	assert.Same(t, b, got)

	byName, err := c.ByName("A")
	require.NoError(t, err)
	assert.Same(t, a, byName)

	owner, level, ok := c.Level(a.Levels[0].ID)
	require.True(t, ok)
	assert.Same(t, a, owner)
	assert.Equal(t, "a1", level.Name)

	_, err = c.ByName("C")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFrame_Indexers(t *testing.T) {
	f := sampleFrame(t)

	male, err := f.Level("Gender", "Male")
	require.NoError(t, err)
	assert.False(t, male.IsLeaf())

	north, err := male.Level("Region", "North")
	require.NoError(t, err)
	assert.True(t, north.IsLeaf())

	north.Target = Count(3)
	assert.Equal(t, 3, *f.MustLevel("Gender", "Male").MustLevel("Region", "North").Target)
}

func TestFrame_IndexerMissesAreNotFound(t *testing.T) {
	f := sampleFrame(t)

	tests := []struct {
		name string
		call func() error
	}{
		{"unknown root variable", func() error { _, err := f.Variable("Age"); return err }},
		{"unknown root level", func() error { _, err := f.Level("Gender", "Other"); return err }},
		{"unknown nested variable", func() error {
			_, err := f.MustLevel("Gender", "Female").Variable("Region")
			return err
		}},
		{"unknown nested level", func() error {
			_, err := f.MustLevel("Gender", "Male").Level("Region", "East")
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.call(), ErrNotFound)
		})
	}

	assert.Panics(t, func() { f.MustVariable("Age") })
}

func TestWalk_PreOrderWholeTree(t *testing.T) {
	f := sampleFrame(t)

	var order []string
	f.Walk(
		func(v *FrameVariable) { order = append(order, "v:"+v.Name) },
		func(l *FrameLevel) { order = append(order, "l:"+l.Name) },
	)
	assert.Equal(t, []string{
		"v:Gender", "l:Male", "v:Region", "l:North", "l:South", "l:Female",
	}, order)
}

func TestWalk_NilCallbacks(t *testing.T) {
	f := sampleFrame(t)

	levels := 0
	f.Walk(nil, func(*FrameLevel) { levels++ })
	assert.Equal(t, 4, levels)

	variables := 0
	f.Walk(func(*FrameVariable) { variables++ }, nil)
	assert.Equal(t, 2, variables)

	assert.NotPanics(t, func() { f.Walk(nil, nil) })
}

func TestVariableDefinition_EqualIgnoresLevelOrder(t *testing.T) {
	l1 := LevelDefinition{ID: NewID(), Name: "Male"}
	l2 := LevelDefinition{ID: NewID(), Name: "Female"}
	id := NewID()

	a := &VariableDefinition{ID: id, Name: "Gender", OdinVariableName: "g", Levels: []LevelDefinition{l1, l2}}
	b := &VariableDefinition{ID: id, Name: "Gender", OdinVariableName: "g", Levels: []LevelDefinition{l2, l1}}
	assert.True(t, a.Equal(b))

	b.Selection = SelectionMandatory
	assert.False(t, a.Equal(b))

	b.Selection = a.Selection
	b.OdinVariableName = "gender"
	assert.False(t, a.Equal(b))
}

func TestScrambledEqual_CountsMultiplicity(t *testing.T) {
	assert.True(t, ScrambledEqual([]int{1, 2, 3}, []int{3, 1, 2}))
	assert.False(t, ScrambledEqual([]int{1, 2}, []int{1, 2, 3}))
	// Containment alone would accept these.
	assert.False(t, ScrambledEqual([]int{1, 1, 2}, []int{1, 2, 2}))
	assert.True(t, ScrambledEqual[int](nil, []int{}))
}

func TestCatalog_EqualIgnoresOrder(t *testing.T) {
	a := &VariableDefinition{ID: NewID(), Name: "A"}
	b := &VariableDefinition{ID: NewID(), Name: "B"}

	left := NewCatalog()
	require.NoError(t, left.Add(a))
	require.NoError(t, left.Add(b))

	right := NewCatalog()
	require.NoError(t, right.Add(&VariableDefinition{ID: b.ID, Name: "B"}))
	require.NoError(t, right.Add(&VariableDefinition{ID: a.ID, Name: "A"}))

	assert.True(t, left.Equal(right))

	other := NewCatalog()
	require.NoError(t, other.Add(a))
	assert.False(t, left.Equal(other))
}

func TestParseSelection(t *testing.T) {
	for _, s := range []Selection{SelectionNotApplicable, SelectionOptional, SelectionMandatory} {
		got, ok := ParseSelection(s.String())
		assert.True(t, ok)
		assert.Equal(t, s, got)
	}
	_, ok := ParseSelection("sometimes")
	assert.False(t, ok)
}
