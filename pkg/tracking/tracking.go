// Package tracking generates human-readable parcel tracking codes such as PRCL-20240521-A1B2C3.
package tracking

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"time"
)

const (
	Prefix     = "PRCL"
	tokenBytes = 3 // six hex characters
)

// Generator is safe for concurrent use when its random source is.
type Generator struct {
	random io.Reader
	now    func() time.Time
}

type Option func(*Generator)

// WithRandom replaces the crypto/rand source.
func WithRandom(r io.Reader) Option {
	return func(g *Generator) { g.random = r }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

func NewGenerator(opts ...Option) *Generator {
	g := &Generator{random: rand.Reader, now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Next returns a new tracking id. Uniqueness is not checked against issued ids.
func (g *Generator) Next() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := io.ReadFull(g.random, buf); err != nil {
		return "", fmt.Errorf("tracking: read random token: %w", err)
	}
	date := g.now().UTC().Format("20060102")
	return Prefix + "-" + date + "-" + strings.ToUpper(hex.EncodeToString(buf)), nil
}
