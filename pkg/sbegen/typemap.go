package sbegen

import "github.com/NethermindEth/fix-descriptor/pkg/orchestra"

// EncKind is the wire-encoding family §4.E's decision table assigns to a
// resolved FIX datatype.
type EncKind int

const (
	EncString EncKind = iota
	EncChar
	EncUint32
	EncNumInGroup
	EncScaledInt64
	EncFloat
	EncTimestamp
	EncBoolean
)

// TypeDecision is the output of classifying one FIX datatype name: which
// SBE primitive represents it, its fixed size in bytes (0 for EncString,
// which is variable-length), its decimal scale (0 unless EncScaledInt64),
// and the SBE nullValue literal to emit (empty when the type has none).
type TypeDecision struct {
	Kind      EncKind
	SBEType   string
	Size      int
	Scale     int
	NullValue string
}

var stringDatatypes = map[string]bool{
	"String":              true,
	"MultipleValueString": true,
	"MultipleStringValue": true,
	"MultipleCharValue":   true,
	"Country":             true,
	"Currency":            true,
	"Exchange":            true,
	"LocalMktDate":        true,
	"MonthYear":           true,
	"UTCDateOnly":         true,
	"UTCTimeOnly":         true,
}

var uint32Datatypes = map[string]bool{
	"int":        true,
	"Length":     true,
	"SeqNum":     true,
	"TagNum":     true,
	"DayOfMonth": true,
}

// scaledDatatypes maps a FIX decimal datatype to the power-of-10 scale its
// int64 wire representation is multiplied by.
var scaledDatatypes = map[string]int{
	"Qty":         4,
	"Price":       4,
	"PriceOffset": 4,
	"Amt":         4,
	"Percentage":  8,
}

var timestampDatatypes = map[string]bool{
	"UTCTimestamp": true,
	"TZTimestamp":  true,
}

func endsWithCodeSet(fixType string) bool {
	const suffix = "CodeSet"
	n := len(fixType)
	m := len(suffix)
	return n >= m && fixType[n-m:] == suffix
}

// classify implements §4.E's decision table. repo is consulted so that a
// field typed after a <codeSet> that doesn't follow the "*CodeSet" naming
// convention is still recognized as a string field, not misclassified by
// name alone.
func classify(repo *orchestra.Repository, fixType string) TypeDecision {
	if stringDatatypes[fixType] || endsWithCodeSet(fixType) {
		return TypeDecision{Kind: EncString}
	}
	if _, isCodeSet := repo.CodeSets[fixType]; isCodeSet {
		return TypeDecision{Kind: EncString}
	}
	switch {
	case fixType == "char":
		return TypeDecision{Kind: EncChar, SBEType: "char", Size: 1, NullValue: "0"}
	case uint32Datatypes[fixType]:
		return TypeDecision{Kind: EncUint32, SBEType: "uint32", Size: 4, NullValue: "4294967295"}
	case fixType == "NumInGroup":
		return TypeDecision{Kind: EncNumInGroup, SBEType: "uint16", Size: 2, NullValue: "65535"}
	case scaledDatatypes[fixType] != 0:
		return TypeDecision{Kind: EncScaledInt64, SBEType: "int64", Size: 8, Scale: scaledDatatypes[fixType], NullValue: "-9223372036854775808"}
	case fixType == "float":
		return TypeDecision{Kind: EncFloat, SBEType: "double", Size: 8}
	case timestampDatatypes[fixType]:
		return TypeDecision{Kind: EncTimestamp, SBEType: "uint64", Size: 8, NullValue: "0"}
	case fixType == "Boolean":
		return TypeDecision{Kind: EncBoolean, SBEType: "uint8", Size: 1, NullValue: "255"}
	default:
		// Forward-compat default: an unrecognized FIX datatype is carried
		// as an opaque string rather than rejected, mirroring the encoder's
		// leniency toward tags absent from the schema (dropped, not rejected).
		return TypeDecision{Kind: EncString}
	}
}
