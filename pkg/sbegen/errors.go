package sbegen

import (
	"fmt"

	"github.com/NethermindEth/fix-descriptor/pkg/ferrors"
)

// The fatal compiler failure modes in §4.E — zero messages, a targeted
// message name absent, a message resolving to zero valid fields after
// expansion — all surface as *ferrors.SchemaSemanticError. Malformed XML
// (failure mode (a)) is caught earlier, by package orchestra's own parse
// step, as *ferrors.SchemaParseError.

func noMessagesError() error {
	return &ferrors.SchemaSemanticError{Reason: "repository declares zero messages"}
}

func messageNotFoundError(name string) error {
	return &ferrors.SchemaSemanticError{Reason: fmt.Sprintf("message %q not found in repository", name)}
}

func noValidFieldsError(name string) error {
	return &ferrors.SchemaSemanticError{Reason: fmt.Sprintf("message %q resolves to zero valid fields after component expansion", name)}
}

// Diagnostic is a non-fatal compiler finding: a dangling fieldRef/groupRef/
// componentRef dropped during expansion. §4.E is explicit that this is
// "not fatal, but logged" — Diagnostic is the structured form of that log.
type Diagnostic struct {
	MessageName string
	Tag         int
	Reason      string
}
