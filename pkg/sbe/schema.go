// Package sbe implements the schema-driven SBE wire codec: loading a
// compiled SBE XML schema into an offset-resolved layout (§4.F), encoding
// an ordered FIX descriptor against it (§4.G), and decoding the resulting
// bytes back (§4.H).
package sbe

import (
	"encoding/xml"
	"fmt"

	"github.com/NethermindEth/fix-descriptor/pkg/ferrors"
)

// FixedField is one fixed-offset occurrence in a message's or group's root
// block.
type FixedField struct {
	Tag       int
	Name      string
	Offset    int
	SBEType   string
	Size      int
	Presence  string
	NullValue string
	Scale     int
}

// DataField is one variable-length string field, in declared order after
// the fixed block.
type DataField struct {
	Tag  int
	Name string
}

// GroupLayout is a repeating group's schema: its own block-length/count
// encoding pair, fixed fields, data fields, and any nested groups.
type GroupLayout struct {
	CountTag    int
	Name        string
	BlockLength int
	Fields      []FixedField
	DataFields  []DataField
	Nested      []*GroupLayout
}

// MessageLayout is one message's resolved schema.
type MessageLayout struct {
	TemplateID  int
	Name        string
	BlockLength int
	Fields      []FixedField
	DataFields  []DataField
	Groups      []*GroupLayout
}

// Schema is every message layout in a loaded SBE XML document, indexed by
// numeric template id and by name.
type Schema struct {
	SchemaID int
	Version  int
	byID     map[int]*MessageLayout
	byName   map[string]*MessageLayout
}

// MessageByID looks up a message layout by its SBE template id.
func (s *Schema) MessageByID(id int) (*MessageLayout, bool) {
	m, ok := s.byID[id]
	return m, ok
}

// MessageByName looks up a message layout by name.
func (s *Schema) MessageByName(name string) (*MessageLayout, bool) {
	m, ok := s.byName[name]
	return m, ok
}

// MessageNames returns every message name this schema declares, in no
// particular order — callers needing a stable order should sort it.
func (s *Schema) MessageNames() []string {
	out := make([]string, 0, len(s.byName))
	for name := range s.byName {
		out = append(out, name)
	}
	return out
}

// primitiveSizes is the fixed byte width of every SBE primitive type this
// module emits or accepts.
var primitiveSizes = map[string]int{
	"char":   1,
	"int8":   1,
	"uint8":  1,
	"int16":  2,
	"uint16": 2,
	"int32":  4,
	"uint32": 4,
	"float":  4,
	"int64":  8,
	"uint64": 8,
	"double": 8,
}

func sizeOf(sbeType string) (int, bool) {
	n, ok := primitiveSizes[sbeType]
	return n, ok
}

// --- XML parse-side structs, matching package sbegen's render-side structs
// field for field so the two agree on the wire shape without importing one
// another. ---

type xmlFieldIn struct {
	Name      string `xml:"name,attr"`
	ID        int    `xml:"id,attr"`
	Type      string `xml:"type,attr"`
	Offset    int    `xml:"offset,attr"`
	Presence  string `xml:"presence,attr"`
	NullValue string `xml:"nullValue,attr"`
	Scale     int    `xml:"scale,attr"`
}

type xmlDataIn struct {
	Name string `xml:"name,attr"`
	ID   int    `xml:"id,attr"`
	Type string `xml:"type,attr"`
}

type xmlGroupIn struct {
	Name          string       `xml:"name,attr"`
	ID            int          `xml:"id,attr"`
	DimensionType string       `xml:"dimensionType,attr"`
	BlockLength   int          `xml:"blockLength,attr"`
	Fields        []xmlFieldIn `xml:"field"`
	DataFields    []xmlDataIn  `xml:"data"`
	Groups        []xmlGroupIn `xml:"group"`
}

type xmlMessageIn struct {
	Name        string       `xml:"name,attr"`
	ID          int          `xml:"id,attr"`
	BlockLength int          `xml:"blockLength,attr"`
	Fields      []xmlFieldIn `xml:"field"`
	DataFields  []xmlDataIn  `xml:"data"`
	Groups      []xmlGroupIn `xml:"group"`
}

type xmlSchemaIn struct {
	XMLName  xml.Name       `xml:"messageSchema"`
	ID       int            `xml:"id,attr"`
	Version  int            `xml:"version,attr"`
	Messages []xmlMessageIn `xml:"message"`
}

func convertFields(in []xmlFieldIn) ([]FixedField, error) {
	out := make([]FixedField, 0, len(in))
	offset := 0
	for _, f := range in {
		size, ok := sizeOf(f.Type)
		if !ok {
			return nil, &ferrors.SchemaSemanticError{Reason: fmt.Sprintf("field %q (tag %d): unknown SBE primitive type %q", f.Name, f.ID, f.Type)}
		}
		out = append(out, FixedField{
			Tag:       f.ID,
			Name:      f.Name,
			Offset:    offset,
			SBEType:   f.Type,
			Size:      size,
			Presence:  f.Presence,
			NullValue: f.NullValue,
			Scale:     f.Scale,
		})
		offset += size
	}
	return out, nil
}

func convertData(in []xmlDataIn) []DataField {
	out := make([]DataField, 0, len(in))
	for _, d := range in {
		out = append(out, DataField{Tag: d.ID, Name: d.Name})
	}
	return out
}

func convertGroups(in []xmlGroupIn) ([]*GroupLayout, error) {
	out := make([]*GroupLayout, 0, len(in))
	for _, g := range in {
		fields, err := convertFields(g.Fields)
		if err != nil {
			return nil, err
		}
		nested, err := convertGroups(g.Groups)
		if err != nil {
			return nil, err
		}
		computed := sumSizes(fields)
		if computed != g.BlockLength {
			return nil, &ferrors.SchemaSemanticError{Reason: fmt.Sprintf("group %q (count tag %d): declared blockLength %d does not match sum of field sizes %d", g.Name, g.ID, g.BlockLength, computed)}
		}
		out = append(out, &GroupLayout{
			CountTag:    g.ID,
			Name:        g.Name,
			BlockLength: g.BlockLength,
			Fields:      fields,
			DataFields:  convertData(g.DataFields),
			Nested:      nested,
		})
	}
	return out, nil
}

func sumSizes(fields []FixedField) int {
	total := 0
	for _, f := range fields {
		total += f.Size
	}
	return total
}

// ApplyScaleOverrides returns a copy of schema where every int64 field whose
// tag appears in overrides carries the given scale instead of the one the
// schema declared for it (§6's "ScalingOverrides" configuration option).
// Offsets and block lengths depend only on a field's byte width, never its
// scale, so they — and every field not named in overrides — pass through
// unchanged. A nil or empty overrides map returns schema itself.
func ApplyScaleOverrides(schema *Schema, overrides map[int]int) *Schema {
	if len(overrides) == 0 {
		return schema
	}
	out := &Schema{
		SchemaID: schema.SchemaID,
		Version:  schema.Version,
		byID:     make(map[int]*MessageLayout, len(schema.byID)),
		byName:   make(map[string]*MessageLayout, len(schema.byName)),
	}
	for id, layout := range schema.byID {
		overridden := overrideLayout(layout, overrides)
		out.byID[id] = overridden
		out.byName[overridden.Name] = overridden
	}
	return out
}

func overrideLayout(layout *MessageLayout, overrides map[int]int) *MessageLayout {
	return &MessageLayout{
		TemplateID:  layout.TemplateID,
		Name:        layout.Name,
		BlockLength: layout.BlockLength,
		Fields:      overrideFields(layout.Fields, overrides),
		DataFields:  layout.DataFields,
		Groups:      overrideGroups(layout.Groups, overrides),
	}
}

func overrideFields(fields []FixedField, overrides map[int]int) []FixedField {
	out := make([]FixedField, len(fields))
	copy(out, fields)
	for i, f := range out {
		if f.SBEType != "int64" {
			continue
		}
		if scale, ok := overrides[f.Tag]; ok {
			out[i].Scale = scale
		}
	}
	return out
}

func overrideGroups(groups []*GroupLayout, overrides map[int]int) []*GroupLayout {
	out := make([]*GroupLayout, len(groups))
	for i, g := range groups {
		out[i] = &GroupLayout{
			CountTag:    g.CountTag,
			Name:        g.Name,
			BlockLength: g.BlockLength,
			Fields:      overrideFields(g.Fields, overrides),
			DataFields:  g.DataFields,
			Nested:      overrideGroups(g.Nested, overrides),
		}
	}
	return out
}

// LoadSchema parses an SBE XML schema (one produced by package sbegen, or
// any schema conforming to the same field/data/group element shape) into an
// offset-resolved Schema, validating that block_length equals the sum of
// fixed-field sizes for every message and group.
func LoadSchema(data []byte) (*Schema, error) {
	var doc xmlSchemaIn
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, &ferrors.SchemaParseError{Source: "sbe", Cause: err}
	}
	if len(doc.Messages) == 0 {
		return nil, &ferrors.SchemaSemanticError{Reason: "sbe schema declares zero messages"}
	}

	schema := &Schema{
		SchemaID: doc.ID,
		Version:  doc.Version,
		byID:     make(map[int]*MessageLayout, len(doc.Messages)),
		byName:   make(map[string]*MessageLayout, len(doc.Messages)),
	}

	for _, m := range doc.Messages {
		fields, err := convertFields(m.Fields)
		if err != nil {
			return nil, err
		}
		groups, err := convertGroups(m.Groups)
		if err != nil {
			return nil, err
		}
		computed := sumSizes(fields)
		if computed != m.BlockLength {
			return nil, &ferrors.SchemaSemanticError{Reason: fmt.Sprintf("message %q (template %d): declared blockLength %d does not match sum of field sizes %d", m.Name, m.ID, m.BlockLength, computed)}
		}
		layout := &MessageLayout{
			TemplateID:  m.ID,
			Name:        m.Name,
			BlockLength: m.BlockLength,
			Fields:      fields,
			DataFields:  convertData(m.DataFields),
			Groups:      groups,
		}
		schema.byID[m.ID] = layout
		schema.byName[m.Name] = layout
	}

	return schema, nil
}
