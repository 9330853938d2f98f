package sbegen

import "encoding/xml"

// These structs mirror package sbe's parse-side structs field for field;
// the two packages agree on the wire shape of the schema document without
// either importing the other.

type xmlFieldOut struct {
	XMLName   xml.Name `xml:"field"`
	Name      string   `xml:"name,attr"`
	ID        int      `xml:"id,attr"`
	Type      string   `xml:"type,attr"`
	Offset    int      `xml:"offset,attr"`
	Presence  string   `xml:"presence,attr,omitempty"`
	NullValue string   `xml:"nullValue,attr,omitempty"`
	Scale     int      `xml:"scale,attr,omitempty"`
}

type xmlDataOut struct {
	XMLName xml.Name `xml:"data"`
	Name    string   `xml:"name,attr"`
	ID      int      `xml:"id,attr"`
	Type    string   `xml:"type,attr"`
}

type xmlGroupOut struct {
	XMLName       xml.Name      `xml:"group"`
	Name          string        `xml:"name,attr"`
	ID            int           `xml:"id,attr"`
	DimensionType string        `xml:"dimensionType,attr"`
	BlockLength   int           `xml:"blockLength,attr"`
	Fields        []xmlFieldOut `xml:"field"`
	DataFields    []xmlDataOut  `xml:"data"`
	Groups        []xmlGroupOut `xml:"group"`
}

type xmlMessageOut struct {
	XMLName     xml.Name      `xml:"sbe:message"`
	Name        string        `xml:"name,attr"`
	ID          int           `xml:"id,attr"`
	BlockLength int           `xml:"blockLength,attr"`
	Fields      []xmlFieldOut `xml:"field"`
	DataFields  []xmlDataOut  `xml:"data"`
	Groups      []xmlGroupOut `xml:"group"`
}

type xmlTypeOut struct {
	XMLName           xml.Name `xml:"type"`
	Name              string   `xml:"name,attr"`
	PrimitiveType     string   `xml:"primitiveType,attr"`
	Length            string   `xml:"length,attr,omitempty"`
	CharacterEncoding string   `xml:"characterEncoding,attr,omitempty"`
}

type xmlCompositeOut struct {
	XMLName xml.Name     `xml:"composite"`
	Name    string       `xml:"name,attr"`
	Types   []xmlTypeOut `xml:"type"`
}

type xmlTypesOut struct {
	XMLName    xml.Name          `xml:"types"`
	Composites []xmlCompositeOut `xml:"composite"`
}

type xmlSchemaOut struct {
	XMLName  xml.Name        `xml:"sbe:messageSchema"`
	XMLNSSbe string          `xml:"xmlns:sbe,attr"`
	Package  string          `xml:"package,attr"`
	ID       int             `xml:"id,attr"`
	Version  int             `xml:"version,attr"`
	Types    xmlTypesOut     `xml:"types"`
	Messages []xmlMessageOut `xml:"sbe:message"`
}

const sbeNamespace = "http://fixprotocol.io/2016/sbe"

func builtinTypes() xmlTypesOut {
	return xmlTypesOut{
		Composites: []xmlCompositeOut{
			{
				Name: "groupSizeEncoding",
				Types: []xmlTypeOut{
					{Name: "blockLength", PrimitiveType: "uint16"},
					{Name: "numInGroup", PrimitiveType: "uint16"},
				},
			},
			{
				Name: "varStringEncoding",
				Types: []xmlTypeOut{
					{Name: "length", PrimitiveType: "uint16"},
					{Name: "varData", PrimitiveType: "uint8", Length: "0", CharacterEncoding: "UTF-8"},
				},
			},
		},
	}
}

func renderFields(fields []expandedField) []xmlFieldOut {
	out := make([]xmlFieldOut, 0, len(fields))
	for _, f := range fields {
		out = append(out, xmlFieldOut{
			Name:      f.Name,
			ID:        f.Tag,
			Type:      f.Decision.SBEType,
			Offset:    f.Offset,
			Presence:  string(f.Presence),
			NullValue: f.Decision.NullValue,
			Scale:     f.Decision.Scale,
		})
	}
	return out
}

func renderData(fields []expandedField) []xmlDataOut {
	out := make([]xmlDataOut, 0, len(fields))
	for _, f := range fields {
		out = append(out, xmlDataOut{Name: f.Name, ID: f.Tag, Type: "varStringEncoding"})
	}
	return out
}

func renderGroups(groups []*expandedGroup) []xmlGroupOut {
	out := make([]xmlGroupOut, 0, len(groups))
	for _, g := range groups {
		out = append(out, xmlGroupOut{
			Name:          g.Name,
			ID:            g.CountTag,
			DimensionType: "groupSizeEncoding",
			BlockLength:   g.BlockLength,
			Fields:        renderFields(g.Fixed),
			DataFields:    renderData(g.Data),
			Groups:        renderGroups(g.Groups),
		})
	}
	return out
}

func renderSchema(opts CompileOptions, compiled []*compiledMessage) xmlSchemaOut {
	doc := xmlSchemaOut{
		XMLNSSbe: sbeNamespace,
		Package:  opts.Package,
		ID:       opts.SchemaID,
		Version:  opts.Version,
		Types:    builtinTypes(),
	}
	for _, cm := range compiled {
		doc.Messages = append(doc.Messages, xmlMessageOut{
			Name:        cm.Name,
			ID:          cm.ID,
			BlockLength: cm.BlockLength,
			Fields:      renderFields(cm.Fixed),
			DataFields:  renderData(cm.Data),
			Groups:      renderGroups(cm.Groups),
		})
	}
	return doc
}
