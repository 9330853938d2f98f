package fixcore

import (
	"fmt"
	"strconv"

	"github.com/NethermindEth/fix-descriptor/pkg/ferrors"
	"github.com/NethermindEth/fix-descriptor/pkg/fixmsg"
	"github.com/NethermindEth/fix-descriptor/pkg/sbe"
)

// Structure imposes a message layout's group structure onto a flat tag=value
// list, turning it into the recursive Descriptor the SBE encoder and the
// Merkle leaf enumerator both expect. Tags the layout doesn't recognize at
// the current nesting level are dropped silently, mirroring the encoder's
// own forward-compat leniency.
func Structure(flats []fixmsg.FlatField, layout *sbe.MessageLayout) (*fixmsg.Descriptor, error) {
	fields, data, groups := tagSets(layout.Fields, layout.DataFields, layout.Groups)
	pos := 0
	desc := fixmsg.NewDescriptor()
	if err := consumeLevel(flats, &pos, desc, fields, data, groups, -1); err != nil {
		return nil, err
	}
	return desc, nil
}

func tagSets(fields []sbe.FixedField, data []sbe.DataField, groups []*sbe.GroupLayout) (map[int]bool, map[int]bool, map[int]*sbe.GroupLayout) {
	fieldSet := make(map[int]bool, len(fields))
	for _, f := range fields {
		fieldSet[f.Tag] = true
	}
	dataSet := make(map[int]bool, len(data))
	for _, d := range data {
		dataSet[d.Tag] = true
	}
	groupSet := make(map[int]*sbe.GroupLayout, len(groups))
	for _, g := range groups {
		groupSet[g.CountTag] = g
	}
	return fieldSet, dataSet, groupSet
}

// delimiterTag is the tag that opens every occurrence of a repeating group:
// conventionally its first declared fixed field, falling back to its first
// data field for a group with no fixed fields.
func delimiterTag(g *sbe.GroupLayout) (int, error) {
	if len(g.Fields) > 0 {
		return g.Fields[0].Tag, nil
	}
	if len(g.DataFields) > 0 {
		return g.DataFields[0].Tag, nil
	}
	return 0, &ferrors.InputParseError{Reason: fmt.Sprintf("group %q has neither a fixed nor a data field to delimit its entries", g.Name)}
}

// consumeLevel consumes flats starting at *pos into desc until it sees a tag
// that belongs to an enclosing level (delimiterTag, when inside a group
// entry) or runs out of input. stopTag is -1 at the message root, where
// there is no enclosing delimiter to watch for.
func consumeLevel(flats []fixmsg.FlatField, pos *int, desc *fixmsg.Descriptor, fields, data map[int]bool, groups map[int]*sbe.GroupLayout, stopTag int) error {
	seenOwnDelimiter := false
	for *pos < len(flats) {
		tag := flats[*pos].Tag

		if tag == stopTag && seenOwnDelimiter {
			return nil
		}

		switch {
		case fields[tag] || data[tag]:
			if tag == stopTag {
				seenOwnDelimiter = true
			}
			if err := desc.Set(tag, fixmsg.Scalar([]byte(flats[*pos].Value))); err != nil {
				return err
			}
			*pos++

		case groups[tag] != nil:
			g := groups[tag]
			count, err := strconv.Atoi(flats[*pos].Value)
			if err != nil {
				return &ferrors.InputParseError{Reason: fmt.Sprintf("group %q: count tag %d has non-numeric value %q", g.Name, tag, flats[*pos].Value)}
			}
			*pos++
			entries, err := structureGroup(flats, pos, g, count)
			if err != nil {
				return err
			}
			if err := desc.Set(tag, fixmsg.GroupOf(entries...)); err != nil {
				return err
			}

		default:
			if stopTag == -1 {
				// At the message root an unrecognized tag is simply not
				// part of this schema version; skip it.
				*pos++
				continue
			}
			// Inside a group entry, an unrecognized tag belongs to
			// whatever encloses this group; stop consuming here.
			return nil
		}
	}
	return nil
}

func structureGroup(flats []fixmsg.FlatField, pos *int, g *sbe.GroupLayout, count int) ([]*fixmsg.Descriptor, error) {
	delim, err := delimiterTag(g)
	if err != nil {
		return nil, err
	}
	fields, data, groups := tagSets(g.Fields, g.DataFields, g.Nested)

	entries := make([]*fixmsg.Descriptor, 0, count)
	for i := 0; i < count; i++ {
		if *pos >= len(flats) || flats[*pos].Tag != delim {
			return nil, &ferrors.InputParseError{Reason: fmt.Sprintf("group %q: entry %d does not start with delimiter tag %d", g.Name, i, delim)}
		}
		entry := fixmsg.NewDescriptor()
		if err := consumeLevel(flats, pos, entry, fields, data, groups, delim); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
