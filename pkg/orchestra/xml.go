package orchestra

import (
	"encoding/xml"

	"github.com/NethermindEth/fix-descriptor/pkg/ferrors"
)

// xmlRef captures any child element of a component/group/message body
// without committing to which kind of reference it is ahead of time;
// XMLName.Local decides that once parsed. This is what lets unrecognized
// elements be ignored per the wire contract: anything that isn't
// fieldRef/componentRef/groupRef/numInGroup is simply never matched below.
type xmlRef struct {
	XMLName  xml.Name
	ID       int    `xml:"id,attr"`
	Presence string `xml:"presence,attr"`
}

type xmlCode struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

type xmlField struct {
	ID   int    `xml:"id,attr"`
	Name string `xml:"name,attr"`
	Type string `xml:"type,attr"`
}

type xmlCodeSet struct {
	ID    int       `xml:"id,attr"`
	Name  string    `xml:"name,attr"`
	Type  string    `xml:"type,attr"`
	Codes []xmlCode `xml:"code"`
}

type xmlComponent struct {
	ID   int      `xml:"id,attr"`
	Name string   `xml:"name,attr"`
	Refs []xmlRef `xml:",any"`
}

type xmlGroup struct {
	ID   int      `xml:"id,attr"`
	Name string   `xml:"name,attr"`
	Refs []xmlRef `xml:",any"`
}

type xmlMessage struct {
	ID      int      `xml:"id,attr"`
	Name    string   `xml:"name,attr"`
	MsgType string   `xml:"msgType,attr"`
	Refs    []xmlRef `xml:",any"`
}

type xmlRepository struct {
	XMLName    xml.Name       `xml:"repository"`
	Fields     []xmlField     `xml:"fields>field"`
	CodeSets   []xmlCodeSet   `xml:"codeSets>codeSet"`
	Components []xmlComponent `xml:"components>component"`
	Groups     []xmlGroup     `xml:"groups>group"`
	Messages   []xmlMessage   `xml:"messages>message"`
}

func presenceOf(s string) Presence {
	if s == string(Optional) {
		return Optional
	}
	return Required
}

// refsOf splits a mixed any-element slice into ordered Refs, and — for
// groups — the numInGroup field id. Elements whose local name isn't one of
// fieldRef/componentRef/groupRef/numInGroup are silently ignored, per the
// Orchestra input contract ("unrecognized elements are ignored").
func refsOf(raw []xmlRef) (refs []Ref, numInGroupFieldID int) {
	for _, r := range raw {
		switch r.XMLName.Local {
		case "fieldRef":
			refs = append(refs, Ref{Kind: FieldRefKind, ID: r.ID, Presence: presenceOf(r.Presence)})
		case "componentRef":
			refs = append(refs, Ref{Kind: ComponentRefKind, ID: r.ID, Presence: presenceOf(r.Presence)})
		case "groupRef":
			refs = append(refs, Ref{Kind: GroupRefKind, ID: r.ID, Presence: presenceOf(r.Presence)})
		case "numInGroup":
			numInGroupFieldID = r.ID
		}
	}
	return refs, numInGroupFieldID
}

// Parse parses Orchestra repository XML (the fixr: namespace; the prefix
// itself is irrelevant here since matching is done on local element names)
// into an in-memory Repository.
func Parse(data []byte) (*Repository, error) {
	var doc xmlRepository
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, &ferrors.SchemaParseError{Source: "orchestra", Cause: err}
	}

	repo := &Repository{
		Fields:         make(map[int]Field, len(doc.Fields)),
		FieldsByName:   make(map[string]Field, len(doc.Fields)),
		CodeSets:       make(map[string]CodeSet, len(doc.CodeSets)),
		Components:     make(map[int]Component, len(doc.Components)),
		Groups:         make(map[int]Group, len(doc.Groups)),
		Messages:       make(map[int]Message, len(doc.Messages)),
		MessagesByName: make(map[string]Message, len(doc.Messages)),
	}

	for _, f := range doc.Fields {
		field := Field{ID: f.ID, Name: f.Name, Type: f.Type}
		repo.Fields[f.ID] = field
		repo.FieldsByName[f.Name] = field
	}

	for _, cs := range doc.CodeSets {
		codes := make([]Code, 0, len(cs.Codes))
		for _, c := range cs.Codes {
			codes = append(codes, Code{Name: c.Name, Value: c.Value})
		}
		repo.CodeSets[cs.Name] = CodeSet{ID: cs.ID, Name: cs.Name, Type: cs.Type, Codes: codes}
	}

	for _, c := range doc.Components {
		refs, _ := refsOf(c.Refs)
		repo.Components[c.ID] = Component{ID: c.ID, Name: c.Name, Refs: refs}
	}

	for _, g := range doc.Groups {
		refs, numInGroupID := refsOf(g.Refs)
		repo.Groups[g.ID] = Group{ID: g.ID, Name: g.Name, NumInGroupFieldID: numInGroupID, Refs: refs}
	}

	for _, m := range doc.Messages {
		refs, _ := refsOf(m.Refs)
		msg := Message{ID: m.ID, Name: m.Name, MsgType: m.MsgType, Refs: refs}
		repo.Messages[m.ID] = msg
		repo.MessagesByName[m.Name] = msg
	}

	return repo, nil
}
