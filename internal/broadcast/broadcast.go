// Package broadcast publishes computed Merkle roots over NATS so other
// services can watch commitments land without polling. It is optional and
// non-blocking with respect to the CORE pipeline: a publish failure is
// logged, never propagated back into an encode/commit call.
package broadcast

import (
	"encoding/json"
	"fmt"

	"github.com/luxfi/log"
	"github.com/nats-io/nats.go"
)

// RootAnnouncement is the payload published on a root's subject.
type RootAnnouncement struct {
	MessageName string `json:"message_name"`
	Root        string `json:"root"`
	LeafCount   int    `json:"leaf_count"`
}

// Publisher owns one NATS connection and the subject roots are announced
// on.
type Publisher struct {
	conn    *nats.Conn
	subject string
	logger  log.Logger
}

// Connect dials url (nats.DefaultURL if empty) and returns a Publisher that
// announces roots on subject.
func Connect(url, subject string, logger log.Logger) (*Publisher, error) {
	if url == "" {
		url = nats.DefaultURL
	}
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("broadcast: connect to %s: %w", url, err)
	}
	return &Publisher{conn: conn, subject: subject, logger: logger}, nil
}

// Announce publishes a root computation. Marshal and publish errors are
// logged and swallowed — callers that just finished building a proof set
// should never fail because a sidecar announcement could not go out.
func (p *Publisher) Announce(a RootAnnouncement) {
	data, err := json.Marshal(a)
	if err != nil {
		p.logger.Warn("broadcast: marshal root announcement failed", "error", err)
		return
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		p.logger.Warn("broadcast: publish root announcement failed", "subject", p.subject, "error", err)
	}
}

// Close closes the underlying NATS connection without draining it first.
func (p *Publisher) Close() {
	p.conn.Close()
}
