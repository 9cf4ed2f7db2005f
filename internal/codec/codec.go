// Package codec converts quota frames to and from the api JSON document.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/agentic-research/quotaframe/api"
	"github.com/agentic-research/quotaframe/internal/quota"
	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// Options controls which fields cross the wire.
type Options struct {
	// SuppressTargets drops target, maxTarget and maxOvershoot on encode and
	// ignores them on decode.
	SuppressTargets bool
}

// ToDocument converts f into its wire form.
func ToDocument(f *quota.Frame, opts Options) *api.Frame {
	doc := &api.Frame{
		VariableDefinitions: []api.VariableDefinition{},
		Variables:           encodeVariables(f.Variables, opts),
	}
	if !opts.SuppressTargets {
		doc.Target = f.Target
	}
	if f.Definitions != nil {
		for _, def := range f.Definitions.All() {
			doc.VariableDefinitions = append(doc.VariableDefinitions, encodeDefinition(def))
		}
	}
	return doc
}

func encodeDefinition(def *quota.VariableDefinition) api.VariableDefinition {
	out := api.VariableDefinition{
		ID:                  def.ID.String(),
		Name:                def.Name,
		OdinVariableName:    def.OdinVariableName,
		IsSelectionOptional: encodeSelection(def.Selection),
		IsMulti:             def.IsMulti,
		Levels:              make([]api.LevelDefinition, len(def.Levels)),
	}
	for i, l := range def.Levels {
		out.Levels[i] = api.LevelDefinition{ID: l.ID.String(), Name: l.Name}
	}
	return out
}

func encodeVariables(vars []*quota.FrameVariable, opts Options) []api.Variable {
	out := make([]api.Variable, len(vars))
	for i, v := range vars {
		out[i] = api.Variable{
			ID:           v.ID.String(),
			DefinitionID: v.DefinitionID.String(),
			Name:         v.Name,
			IsHidden:     v.IsHidden,
			Levels:       make([]api.Level, len(v.Levels)),
		}
		for j, l := range v.Levels {
			level := api.Level{
				ID:           l.ID.String(),
				DefinitionID: l.DefinitionID.String(),
				Name:         l.Name,
				IsHidden:     l.IsHidden,
			}
			if !opts.SuppressTargets {
				level.Target = l.Target
				level.MaxTarget = l.MaxTarget
				level.MaxOvershoot = l.MaxOvershoot
			}
			if len(l.Variables) > 0 {
				level.Variables = encodeVariables(l.Variables, opts)
			}
			out[i].Levels[j] = level
		}
	}
	return out
}

func encodeSelection(s quota.Selection) *bool {
	switch s {
	case quota.SelectionOptional:
		optional := true
		return &optional
	case quota.SelectionMandatory:
		optional := false
		return &optional
	default:
		return nil
	}
}

func decodeSelection(b *bool) quota.Selection {
	switch {
	case b == nil:
		return quota.SelectionNotApplicable
	case *b:
		return quota.SelectionOptional
	default:
		return quota.SelectionMandatory
	}
}

// FromDocument converts a wire document into a frame. Malformed ids and
// duplicate definition ids are errors; everything else is left to the
// validator.
func FromDocument(doc *api.Frame, opts Options) (*quota.Frame, error) {
	f := quota.NewFrame()
	if !opts.SuppressTargets {
		f.Target = doc.Target
	}

	for i, d := range doc.VariableDefinitions {
		def, err := decodeDefinition(d)
		if err != nil {
			return nil, fmt.Errorf("variableDefinitions[%d]: %w", i, err)
		}
		if err := f.Definitions.Add(def); err != nil {
			return nil, fmt.Errorf("variableDefinitions[%d]: %w", i, err)
		}
	}

	vars, err := decodeVariables(doc.Variables, opts, "variables")
	if err != nil {
		return nil, err
	}
	f.Variables = vars
	return f, nil
}

func decodeDefinition(d api.VariableDefinition) (*quota.VariableDefinition, error) {
	id, err := quota.ParseID(d.ID)
	if err != nil {
		return nil, err
	}
	def := &quota.VariableDefinition{
		ID:               id,
		Name:             d.Name,
		OdinVariableName: d.OdinVariableName,
		Selection:        decodeSelection(d.IsSelectionOptional),
		IsMulti:          d.IsMulti,
		Levels:           make([]quota.LevelDefinition, len(d.Levels)),
	}
	for i, l := range d.Levels {
		lid, err := quota.ParseID(l.ID)
		if err != nil {
			return nil, fmt.Errorf("levels[%d]: %w", i, err)
		}
		def.Levels[i] = quota.LevelDefinition{ID: lid, Name: l.Name}
	}
	return def, nil
}

func decodeVariables(in []api.Variable, opts Options, path string) ([]*quota.FrameVariable, error) {
	out := make([]*quota.FrameVariable, len(in))
	for i, v := range in {
		at := fmt.Sprintf("%s[%d]", path, i)
		id, err := quota.ParseID(v.ID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", at, err)
		}
		defID, err := quota.ParseID(v.DefinitionID)
		if err != nil {
			return nil, fmt.Errorf("%s.definitionId: %w", at, err)
		}
		fv := &quota.FrameVariable{
			ID:           id,
			DefinitionID: defID,
			Name:         v.Name,
			IsHidden:     v.IsHidden,
			Levels:       make([]*quota.FrameLevel, len(v.Levels)),
		}
		for j, l := range v.Levels {
			lat := fmt.Sprintf("%s.levels[%d]", at, j)
			level, err := decodeLevel(l, opts, lat)
			if err != nil {
				return nil, err
			}
			fv.Levels[j] = level
		}
		out[i] = fv
	}
	return out, nil
}

func decodeLevel(l api.Level, opts Options, at string) (*quota.FrameLevel, error) {
	id, err := quota.ParseID(l.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", at, err)
	}
	defID, err := quota.ParseID(l.DefinitionID)
	if err != nil {
		return nil, fmt.Errorf("%s.definitionId: %w", at, err)
	}
	level := &quota.FrameLevel{
		ID:           id,
		DefinitionID: defID,
		Name:         l.Name,
		IsHidden:     l.IsHidden,
	}
	if !opts.SuppressTargets {
		level.Target = l.Target
		level.MaxTarget = l.MaxTarget
		level.MaxOvershoot = l.MaxOvershoot
	}
	if len(l.Variables) > 0 {
		nested, err := decodeVariables(l.Variables, opts, at+".variables")
		if err != nil {
			return nil, err
		}
		level.Variables = nested
	}
	return level, nil
}

// Encode writes f as indented JSON.
func Encode(w io.Writer, f *quota.Frame, opts Options) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ToDocument(f, opts)); err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	return nil
}

// Decode reads one JSON document and converts it into a frame. Unknown
// fields are rejected.
func Decode(r io.Reader, opts Options) (*quota.Frame, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var doc api.Frame
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	return FromDocument(&doc, opts)
}

// Marshal is Encode into a byte slice.
func Marshal(f *quota.Frame, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, f, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal is Decode from a byte slice.
func Unmarshal(data []byte, opts Options) (*quota.Frame, error) {
	return Decode(bytes.NewReader(data), opts)
}

// ReadFile decodes the frame stored at path in fsys.
func ReadFile(fsys billy.Filesystem, path string, opts Options) (*quota.Frame, error) {
	data, err := util.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	f, err := Unmarshal(data, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// WriteFile encodes f to path in fsys, replacing any existing file.
func WriteFile(fsys billy.Filesystem, path string, f *quota.Frame, opts Options) error {
	data, err := Marshal(f, opts)
	if err != nil {
		return err
	}
	if err := util.WriteFile(fsys, path, data, os.FileMode(0o644)); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
