// Package orchestra models the FIX Orchestra XML repository format: fields,
// code sets, components, groups, and messages. It is the input model the
// Orchestra→SBE compiler (package sbegen) lowers into an SBE schema.
package orchestra

// Presence states whether a reference must be populated.
type Presence string

const (
	Required Presence = "required"
	Optional Presence = "optional"
)

// RefKind discriminates the three reference shapes a Component, Group, or
// Message body can contain.
type RefKind int

const (
	FieldRefKind RefKind = iota
	ComponentRefKind
	GroupRefKind
)

// Ref points at a Field, Component, or Group by id, with the presence the
// referencing context declares for it.
type Ref struct {
	Kind     RefKind
	ID       int
	Presence Presence
}

// Field is a leaf FIX data element: a FIX tag with a name and a datatype
// name. Type either names a primitive FIX datatype (String, Qty, Price,
// UTCTimestamp, NumInGroup, ...) or the name of a CodeSet.
type Field struct {
	ID   int
	Name string
	Type string
}

// Code is one named value of a CodeSet.
type Code struct {
	Name  string
	Value string
}

// CodeSet is an enumerated FIX datatype: a set of named values sharing an
// underlying primitive encoding (Type).
type CodeSet struct {
	ID    int
	Name  string
	Type  string
	Codes []Code
}

// Component is a reusable bundle of field/component/group references.
type Component struct {
	ID   int
	Name string
	Refs []Ref
}

// Group is a repeating block: num_in_group_field_id is the FIX NoXxx count
// tag whose numeric value is the number of repeats; Refs are the fields
// (and nested components/groups) repeated in each occurrence.
type Group struct {
	ID                int
	Name              string
	NumInGroupFieldID int
	Refs              []Ref
}

// Message is a top-level FIX message definition.
type Message struct {
	ID      int
	Name    string
	MsgType string
	Refs    []Ref
}

// Repository is the fully parsed, in-memory Orchestra model: every field,
// code set, component, group, and message declared in the source XML,
// indexed for the lookups the compiler needs.
type Repository struct {
	Fields         map[int]Field
	FieldsByName   map[string]Field
	CodeSets       map[string]CodeSet
	Components     map[int]Component
	Groups         map[int]Group
	Messages       map[int]Message
	MessagesByName map[string]Message
}

// FieldByID looks up a field, reporting whether it exists.
func (r *Repository) FieldByID(id int) (Field, bool) {
	f, ok := r.Fields[id]
	return f, ok
}

// MessageByName looks up a message by its declared name.
func (r *Repository) MessageByName(name string) (Message, bool) {
	m, ok := r.MessagesByName[name]
	return m, ok
}

// ResolvedType returns the field's own Type if it already names a
// primitive, or the underlying Type of the CodeSet it names. Package sbegen
// does not use it to pick a wire encoding: it classifies a field by its
// declared Type and compiles every CodeSet-typed field to a string.
func (r *Repository) ResolvedType(f Field) string {
	if cs, ok := r.CodeSets[f.Type]; ok {
		return cs.Type
	}
	return f.Type
}
