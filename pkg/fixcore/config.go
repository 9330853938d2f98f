package fixcore

import (
	"flag"
	"os"
	"strconv"
	"strings"

	"github.com/luxfi/database"
	"github.com/luxfi/log"

	"github.com/NethermindEth/fix-descriptor/internal/schemacache"
	"github.com/NethermindEth/fix-descriptor/pkg/fixmsg"
)

// Config is the contract a CLI or service binds to when standing up a
// Pipeline: the schema to load, the message it targets, how to split a raw
// FIX string into tag=value pairs, any per-tag scale overrides, and the
// store backing the schema cache. NewPipeline itself takes already-loaded
// schema bytes; Config is the layer above that resolves those bytes from a
// path, flags/env, and an optional persistent cache backend.
type Config struct {
	SchemaPath       string
	MessageIDOrName  string
	SeparatorHint    fixmsg.SeparatorHint
	ScalingOverrides map[int]int
	CacheBackend     database.Database
}

// Cache builds a schemacache.Cache over c.CacheBackend, or an in-memory
// cache if none was set.
func (c Config) Cache(logger log.Logger) *schemacache.Cache {
	if c.CacheBackend == nil {
		return schemacache.NewMemory(logger)
	}
	return schemacache.New(c.CacheBackend, logger)
}

// NewPipeline builds a Pipeline from schemaXML using this Config's cache
// backend and, per §6, applies ScalingOverrides to the loaded schema before
// returning it.
func (c Config) NewPipeline(schemaXML []byte, logger log.Logger) (*Pipeline, error) {
	p, err := NewPipeline(schemaXML, logger, c.Cache(logger))
	if err != nil {
		return nil, err
	}
	return p.WithScaleOverrides(c.ScalingOverrides), nil
}

// ParseFlags populates a Config from command-line flags, following the
// teacher's flag.String/flag.Int style (cmd/dex-qzmq, cmd/e2e-fix-zmq).
// Recognized flags: -schema, -message, -separator, -scale-override
// (repeatable "tag:scale" pairs, e.g. -scale-override=223:8).
func ParseFlags(args []string) (Config, error) {
	fs := flag.NewFlagSet("fixdescriptor", flag.ContinueOnError)
	schemaPath := fs.String("schema", os.Getenv("FIXDESCRIPTOR_SCHEMA"), "path to the SBE schema XML")
	message := fs.String("message", os.Getenv("FIXDESCRIPTOR_MESSAGE"), "message id or name to target")
	separator := fs.String("separator", envOr("FIXDESCRIPTOR_SEPARATOR", "auto"), "separator hint: auto, soh, pipe, newline")

	var overrides multiFlag
	fs.Var(&overrides, "scale-override", "tag:scale override, repeatable")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg := Config{
		SchemaPath:      *schemaPath,
		MessageIDOrName: *message,
		SeparatorHint:   fixmsg.SeparatorHint(*separator),
	}
	if len(overrides) > 0 {
		cfg.ScalingOverrides = make(map[int]int, len(overrides))
		for _, raw := range overrides {
			tag, scale, err := parseTagScale(raw)
			if err != nil {
				return Config{}, err
			}
			cfg.ScalingOverrides[tag] = scale
		}
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseTagScale(raw string) (tag int, scale int, err error) {
	parts := strings.SplitN(raw, ":", 2)
	if len(parts) != 2 {
		return 0, 0, &strconv.NumError{Func: "parseTagScale", Num: raw, Err: strconv.ErrSyntax}
	}
	tag, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, err
	}
	scale, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, err
	}
	return tag, scale, nil
}

// multiFlag collects a repeatable -scale-override=tag:scale flag into a
// slice, the same pattern the standard library's flag package documents
// for accumulating flags.
type multiFlag []string

func (m *multiFlag) String() string { return strings.Join(*m, ",") }
func (m *multiFlag) Set(v string) error {
	*m = append(*m, v)
	return nil
}
