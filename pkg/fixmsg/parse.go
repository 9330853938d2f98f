package fixmsg

import (
	"strconv"
	"strings"

	"github.com/NethermindEth/fix-descriptor/pkg/ferrors"
)

// SeparatorHint names the wire separator a raw FIX string uses. "auto"
// accepts any of SOH, '|', or a newline as a field boundary; the specific
// hints restrict splitting to exactly one separator, which matters when a
// field value could otherwise legitimately contain one of the other
// candidate characters.
type SeparatorHint string

const (
	SepAuto    SeparatorHint = "auto"
	SepSOH     SeparatorHint = "soh"
	SepPipe    SeparatorHint = "pipe"
	SepNewline SeparatorHint = "newline"
)

// FlatField is one tag=value pair from a raw FIX string, in declared order,
// before any repeating-group structure has been imposed on it.
type FlatField struct {
	Tag   int
	Value string
}

// ParseFlat splits a raw FIX string into an ordered list of tag=value
// pairs. Segments are separated by SOH (0x01), '|', or a newline ("\n" or
// "\r\n") depending on hint; empty segments and segments without '=' are
// skipped silently. Session tags (SessionTags) are filtered out. Duplicate
// tags are NOT rejected here — a flat list legitimately repeats tags across
// group occurrences; detecting an illegal duplicate requires group
// structure and is the job of whatever builds that structure from this flat
// list.
func ParseFlat(raw string, hint SeparatorHint) ([]FlatField, error) {
	isDelim, err := delimiterFor(hint)
	if err != nil {
		return nil, err
	}

	var out []FlatField
	for _, seg := range splitSegments(raw, isDelim) {
		seg = strings.TrimSuffix(seg, "\r")
		if seg == "" {
			continue
		}
		eq := strings.IndexByte(seg, '=')
		if eq < 0 {
			continue
		}
		tagStr, valStr := seg[:eq], seg[eq+1:]
		tag, err := strconv.Atoi(tagStr)
		if err != nil {
			continue
		}
		if IsSessionTag(tag) {
			continue
		}
		out = append(out, FlatField{Tag: tag, Value: valStr})
	}
	return out, nil
}

func delimiterFor(hint SeparatorHint) (func(rune) bool, error) {
	switch hint {
	case "", SepAuto:
		return func(r rune) bool { return r == '\x01' || r == '|' || r == '\n' }, nil
	case SepSOH:
		return func(r rune) bool { return r == '\x01' }, nil
	case SepPipe:
		return func(r rune) bool { return r == '|' }, nil
	case SepNewline:
		return func(r rune) bool { return r == '\n' }, nil
	default:
		return nil, &ferrors.InputParseError{Reason: "unrecognized separator hint " + string(hint)}
	}
}

func splitSegments(raw string, isDelim func(rune) bool) []string {
	return strings.FieldsFunc(raw, isDelim)
}
