package sbe

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/luxfi/log"
	"github.com/shopspring/decimal"

	"github.com/NethermindEth/fix-descriptor/pkg/ferrors"
	"github.com/NethermindEth/fix-descriptor/pkg/fixmsg"
)

func noOpLogger() log.Logger {
	level, _ := log.ToLevel("off")
	return log.NewTestLogger(level)
}

// headerSize is the 4-field SBE message header: blockLength, templateId,
// schemaId, version, each a little-endian uint16.
const headerSize = 8

var timestamp17Pattern = regexp.MustCompile(`^\d{17}$`)

// fixTimestampLayout is FIX's UTCTimestamp wire format, e.g.
// "20240102-15:04:05.123".
const fixTimestampLayout = "20060102-15:04:05.000"

// digits17Layout is fixTimestampLayout with the '-' and ':' separators
// removed; it keeps the '.' before milliseconds, which parseTimestamp17
// strips after formatting to get the literal 17-digit concatenation
// YYYYMMDDHHMMSSmmm the wire form stores (§9's "timestamps
// must match ^\d{17}$ or YYYYMMDD-HH:MM:SS.mmm, the latter re-serialized to
// the 17-digit form") — not a Unix timestamp of any width.
const digits17Layout = "20060102150405.000"

func parseTimestamp17(raw string) (int64, error) {
	if timestamp17Pattern.MatchString(raw) {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return 0, err
		}
		return n, nil
	}
	t, err := time.Parse(fixTimestampLayout, raw)
	if err != nil {
		return 0, fmt.Errorf("timestamp %q matches neither the 17-digit form nor %q: %w", raw, fixTimestampLayout, err)
	}
	digits := strings.Replace(t.Format(digits17Layout), ".", "", 1)
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("timestamp %q reformatted to non-numeric %q: %w", raw, digits, err)
	}
	return n, nil
}

func formatTimestamp17(n int64) string {
	return fmt.Sprintf("%017d", n)
}

func parseBoolean(raw string) (bool, error) {
	switch raw {
	case "Y", "y", "true", "1":
		return true, nil
	case "N", "n", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("unrecognized boolean literal %q", raw)
	}
}

// parseScaledInt64 converts a decimal string into its fixed-point integer
// representation at the given scale (e.g. "12.34" at scale 4 -> 123400).
// It goes through shopspring/decimal's arbitrary-precision arithmetic
// rather than strconv.ParseFloat so the result never passes through a
// binary float and can never drift from the digits actually on the wire.
func parseScaledInt64(raw string, scale int) (int64, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, fmt.Errorf("value %q is not a valid decimal: %w", raw, err)
	}
	shifted := d.Shift(int32(scale))
	if !shifted.IsInteger() {
		return 0, fmt.Errorf("value %q has more than %d fractional digits", raw, scale)
	}
	if !shifted.BigInt().IsInt64() {
		return 0, fmt.Errorf("value %q overflows a scaled int64 at scale %d", raw, scale)
	}
	return shifted.IntPart(), nil
}

// FormatScaledDecimal is the inverse of the encoder's scaling step, exposed
// for callers presenting a decoded scaled field (CouponRate, Price, ...) to
// a human rather than re-feeding it through the codec. The decoder itself
// returns the raw integer as a plain digit string, not this representation,
// to keep decode free of any ambiguity about what was actually on the wire.
func FormatScaledDecimal(v int64, scale int) string {
	return decimal.New(v, -int32(scale)).String()
}

func putUint(buf []byte, size int, v uint64) {
	for i := 0; i < size; i++ {
		buf[i] = byte(v >> (8 * i))
	}
}

func getUint(buf []byte) uint64 {
	var v uint64
	for i, b := range buf {
		v |= uint64(b) << (8 * i)
	}
	return v
}

// nullValueFor returns the sentinel a FixedField's NullValue attribute
// parses to, defaulting to the all-bits sentinel SBE convention uses (max
// unsigned value for the field's width) when none was declared.
func nullValueFor(f FixedField) uint64 {
	if f.NullValue != "" {
		if n, err := strconv.ParseUint(f.NullValue, 10, 64); err == nil {
			return n
		}
		if n, err := strconv.ParseInt(f.NullValue, 10, 64); err == nil {
			return uint64(n)
		}
	}
	switch f.Size {
	case 1:
		return 0xFF
	case 2:
		return 0xFFFF
	case 4:
		return 0xFFFFFFFF
	default:
		return 0xFFFFFFFFFFFFFFFF
	}
}

func encodeScalarField(buf []byte, f FixedField, raw string, present bool) error {
	if !present {
		putUint(buf, f.Size, nullValueFor(f))
		return nil
	}
	switch f.SBEType {
	case "char":
		var b byte
		if len(raw) > 0 {
			b = raw[0]
		}
		buf[0] = b
		return nil
	case "uint8":
		// The only field this module emits at uint8 is a Boolean (§4.E);
		// everything else at 1 byte uses "char" instead.
		b, err := parseBoolean(raw)
		if err != nil {
			return &ferrors.EncodeError{Tag: f.Tag, Reason: err.Error()}
		}
		if b {
			buf[0] = 1
		} else {
			buf[0] = 0
		}
		return nil
	case "uint64":
		// Likewise the only uint64 field is a timestamp; a generic unsigned
		// 64-bit integer type isn't in the decision table.
		digits17, err := parseTimestamp17(raw)
		if err != nil {
			return &ferrors.EncodeError{Tag: f.Tag, Reason: err.Error()}
		}
		putUint(buf, f.Size, uint64(digits17))
		return nil
	case "uint16", "uint32":
		v, err := strconv.ParseUint(raw, 10, f.Size*8)
		if err != nil {
			return &ferrors.EncodeError{Tag: f.Tag, Reason: err.Error()}
		}
		putUint(buf, f.Size, v)
		return nil
	case "int8", "int16", "int32":
		v, err := strconv.ParseInt(raw, 10, f.Size*8)
		if err != nil {
			return &ferrors.EncodeError{Tag: f.Tag, Reason: err.Error()}
		}
		putUint(buf, f.Size, uint64(v))
		return nil
	case "int64":
		var v int64
		var err error
		if f.Scale > 0 {
			v, err = parseScaledInt64(raw, f.Scale)
		} else {
			v, err = strconv.ParseInt(raw, 10, 64)
		}
		if err != nil {
			return &ferrors.EncodeError{Tag: f.Tag, Reason: err.Error()}
		}
		putUint(buf, f.Size, uint64(v))
		return nil
	case "double":
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return &ferrors.EncodeError{Tag: f.Tag, Reason: err.Error()}
		}
		putUint(buf, f.Size, math.Float64bits(v))
		return nil
	default:
		return &ferrors.EncodeError{Tag: f.Tag, Reason: "unsupported SBE primitive type " + f.SBEType}
	}
}

func decodeScalarField(buf []byte, f FixedField) (string, bool) {
	raw := getUint(buf)
	if raw == nullValueFor(f) && f.Presence == "optional" {
		return "", false
	}
	switch f.SBEType {
	case "char":
		if buf[0] == 0 {
			return "", false
		}
		return string(buf[0]), true
	case "uint8":
		if raw == 0 {
			return "N", true
		}
		return "Y", true
	case "uint64":
		return formatTimestamp17(int64(raw)), true
	case "int64":
		return strconv.FormatInt(int64(raw), 10), true
	case "double":
		return strconv.FormatFloat(math.Float64frombits(raw), 'g', -1, 64), true
	case "int8", "int16", "int32":
		width := f.Size * 8
		signed := int64(raw)
		signed = (signed << (64 - width)) >> (64 - width)
		return strconv.FormatInt(signed, 10), true
	default:
		return strconv.FormatUint(raw, 10), true
	}
}

// Encode serializes desc against the named message in schema, producing the
// header, fixed root block, variable-length data section, and any repeating
// groups, in that order (§4.G). Tags in desc with no corresponding field in
// the schema are dropped, each reported as a Warn-level log line naming the
// offending tag. A nil logger is replaced by a silent one.
func Encode(schema *Schema, messageName string, desc *fixmsg.Descriptor, logger log.Logger) ([]byte, error) {
	if logger == nil {
		logger = noOpLogger()
	}
	layout, ok := schema.MessageByName(messageName)
	if !ok {
		return nil, &ferrors.EncodeError{Reason: fmt.Sprintf("message %q not present in schema", messageName)}
	}

	warnUnknownTags(logger, messageName, desc, layout.Fields, layout.DataFields, layout.Groups)

	out := make([]byte, headerSize)
	putUint(out[0:2], 2, uint64(layout.BlockLength))
	putUint(out[2:4], 2, uint64(layout.TemplateID))
	putUint(out[4:6], 2, uint64(schema.SchemaID))
	putUint(out[6:8], 2, uint64(schema.Version))

	body, err := encodeBody(desc, layout.Fields, layout.DataFields, layout.Groups, layout.BlockLength)
	if err != nil {
		return nil, err
	}
	return append(out, body...), nil
}

// warnUnknownTags logs every tag in desc that encodeBody will silently skip
// because no field, data field, or group at this level declares it, then
// recurses into each known group's entries to do the same at that level.
func warnUnknownTags(logger log.Logger, messageName string, desc *fixmsg.Descriptor, fields []FixedField, dataFields []DataField, groups []*GroupLayout) {
	known := make(map[int]bool, len(fields)+len(dataFields)+len(groups))
	for _, f := range fields {
		known[f.Tag] = true
	}
	for _, d := range dataFields {
		known[d.Tag] = true
	}
	for _, g := range groups {
		known[g.CountTag] = true
	}
	for _, tag := range desc.Tags() {
		if !known[tag] {
			logger.Warn("sbe: encode dropped tag absent from schema", "message", messageName, "tag", tag)
		}
	}
	for _, g := range groups {
		node, present := desc.Get(g.CountTag)
		if !present || node.Kind != fixmsg.KindGroup {
			continue
		}
		for _, child := range node.Group {
			warnUnknownTags(logger, messageName, child, g.Fields, g.DataFields, g.Nested)
		}
	}
}

func encodeBody(desc *fixmsg.Descriptor, fields []FixedField, dataFields []DataField, groups []*GroupLayout, blockLength int) ([]byte, error) {
	block := make([]byte, blockLength)
	for _, f := range fields {
		node, present := desc.Get(f.Tag)
		raw := ""
		if present {
			if node.Kind != fixmsg.KindScalar {
				return nil, &ferrors.EncodeError{Tag: f.Tag, Reason: "expected scalar, found group"}
			}
			raw = string(node.Value)
		} else if f.Presence != "optional" {
			return nil, &ferrors.EncodeError{Tag: f.Tag, Reason: "required field missing"}
		}
		if err := encodeScalarField(block[f.Offset:f.Offset+f.Size], f, raw, present); err != nil {
			return nil, err
		}
	}

	var tail []byte
	for _, d := range dataFields {
		var b []byte
		if node, present := desc.Get(d.Tag); present {
			if node.Kind != fixmsg.KindScalar {
				return nil, &ferrors.EncodeError{Tag: d.Tag, Reason: "expected scalar, found group"}
			}
			b = node.Value
		}
		lenBuf := make([]byte, 2)
		putUint(lenBuf, 2, uint64(len(b)))
		tail = append(tail, lenBuf...)
		tail = append(tail, b...)
	}

	for _, g := range groups {
		node, present := desc.Get(g.CountTag)
		var children []*fixmsg.Descriptor
		if present {
			if node.Kind != fixmsg.KindGroup {
				return nil, &ferrors.EncodeError{Tag: g.CountTag, Reason: "expected group, found scalar"}
			}
			children = node.Group
		}
		dimBuf := make([]byte, 4)
		putUint(dimBuf[0:2], 2, uint64(g.BlockLength))
		putUint(dimBuf[2:4], 2, uint64(len(children)))
		tail = append(tail, dimBuf...)

		for _, child := range children {
			entryBody, err := encodeBody(child, g.Fields, g.DataFields, g.Nested, g.BlockLength)
			if err != nil {
				return nil, err
			}
			tail = append(tail, entryBody...)
		}
	}

	return append(block, tail...), nil
}

// Decode parses raw SBE bytes against schema, returning the message name
// and an ordered descriptor of every non-null, non-empty field it found
// (§4.H). Scaled decimals are returned as the raw scaled integer's digit
// string, timestamps as the 17-digit YYYYMMDDHHMMSSmmm string, and booleans
// as "Y" or "N", never as divided floats. Trailing bytes left over after the schema's known
// fields, data, and groups are consumed — e.g. a wire message produced
// against a newer schema version with extra fields this one doesn't
// declare — are skipped and reported through logger rather than treated as
// an error. A nil logger is replaced by a silent one.
func Decode(schema *Schema, raw []byte, logger log.Logger) (string, *fixmsg.Descriptor, error) {
	if logger == nil {
		logger = noOpLogger()
	}
	if len(raw) < headerSize {
		return "", nil, &ferrors.DecodeError{Reason: "truncated: shorter than the 8-byte header"}
	}
	blockLength := int(getUint(raw[0:2]))
	templateID := int(getUint(raw[2:4]))
	schemaID := int(getUint(raw[4:6]))
	version := int(getUint(raw[6:8]))

	if schemaID != schema.SchemaID {
		return "", nil, &ferrors.DecodeError{Reason: fmt.Sprintf("schema id mismatch: wire %d, loaded %d", schemaID, schema.SchemaID)}
	}
	if version != schema.Version {
		return "", nil, &ferrors.DecodeError{Reason: fmt.Sprintf("schema version mismatch: wire %d, loaded %d", version, schema.Version)}
	}

	layout, ok := schema.MessageByID(templateID)
	if !ok {
		return "", nil, &ferrors.DecodeError{Reason: fmt.Sprintf("unknown template id %d", templateID)}
	}
	if blockLength != layout.BlockLength {
		return "", nil, &ferrors.DecodeError{Tag: 0, Reason: fmt.Sprintf("message %q: wire blockLength %d does not match schema blockLength %d", layout.Name, blockLength, layout.BlockLength)}
	}

	body := raw[headerSize:]
	desc, consumed, err := decodeBody(body, layout.Fields, layout.DataFields, layout.Groups, layout.BlockLength)
	if err != nil {
		return "", nil, err
	}
	if trailing := len(body) - consumed; trailing > 0 {
		logger.Warn("sbe: decode skipped trailing bytes beyond known schema", "message", layout.Name, "bytes", trailing)
	}
	return layout.Name, desc, nil
}

func decodeBody(buf []byte, fields []FixedField, dataFields []DataField, groups []*GroupLayout, blockLength int) (*fixmsg.Descriptor, int, error) {
	if len(buf) < blockLength {
		return nil, 0, &ferrors.DecodeError{Reason: "truncated: shorter than declared block length"}
	}
	desc := fixmsg.NewDescriptor()
	for _, f := range fields {
		raw, present := decodeScalarField(buf[f.Offset:f.Offset+f.Size], f)
		if present {
			if err := desc.Set(f.Tag, fixmsg.Scalar([]byte(raw))); err != nil {
				return nil, 0, err
			}
		}
	}
	pos := blockLength

	for _, d := range dataFields {
		if pos+2 > len(buf) {
			return nil, 0, &ferrors.DecodeError{Tag: d.Tag, Reason: "overrun: truncated data-field length prefix"}
		}
		n := int(getUint(buf[pos : pos+2]))
		pos += 2
		if pos+n > len(buf) {
			return nil, 0, &ferrors.DecodeError{Tag: d.Tag, Reason: "overrun: truncated data-field payload"}
		}
		if n > 0 {
			if err := desc.Set(d.Tag, fixmsg.Scalar(buf[pos:pos+n])); err != nil {
				return nil, 0, err
			}
		}
		pos += n
	}

	for _, g := range groups {
		if pos+4 > len(buf) {
			return nil, 0, &ferrors.DecodeError{Tag: g.CountTag, Reason: "overrun: truncated group dimension header"}
		}
		entryBlockLength := int(getUint(buf[pos : pos+2]))
		numInGroup := int(getUint(buf[pos+2 : pos+4]))
		pos += 4
		if entryBlockLength != g.BlockLength {
			return nil, 0, &ferrors.DecodeError{Tag: g.CountTag, Reason: fmt.Sprintf("group %q: wire blockLength %d does not match schema blockLength %d", g.Name, entryBlockLength, g.BlockLength)}
		}

		var children []*fixmsg.Descriptor
		for i := 0; i < numInGroup; i++ {
			if pos > len(buf) {
				return nil, 0, &ferrors.DecodeError{Tag: g.CountTag, Reason: "overrun: group entry beyond buffer"}
			}
			child, consumed, err := decodeBody(buf[pos:], g.Fields, g.DataFields, g.Nested, g.BlockLength)
			if err != nil {
				return nil, 0, err
			}
			children = append(children, child)
			pos += consumed
		}
		if numInGroup > 0 {
			if err := desc.Set(g.CountTag, fixmsg.GroupOf(children...)); err != nil {
				return nil, 0, err
			}
		}
	}

	return desc, pos, nil
}
