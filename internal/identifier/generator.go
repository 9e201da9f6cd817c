package identifier

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/perpexbistro/ride-hailing/pkg/logger"
)

// Alphabet is A-Z and 0-9 without the look-alike characters 0, O, 1 and I.
const Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const (
	DefaultLength      = 8
	DefaultMaxAttempts = 10
)

var (
	ErrGenerationExhausted = errors.New("unable to generate a unique identifier")
	ErrInvalidLength       = errors.New("identifier length must be positive")
)

// Checker reports whether a candidate identifier is already taken.
// An error is treated the same as a collision and consumes an attempt.
type Checker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// CheckerFunc adapts a function to Checker
type CheckerFunc func(ctx context.Context, id string) (bool, error)

// Exists calls f
func (f CheckerFunc) Exists(ctx context.Context, id string) (bool, error) {
	return f(ctx, id)
}

// Config holds generator options
type Config struct {
	Length      int
	MaxAttempts int
}

// Generator produces short human-readable identifiers
type Generator struct {
	source      io.Reader
	checker     Checker
	length      int
	maxAttempts int
	logger      *logger.Logger
}

// Option customizes a Generator
type Option func(*Generator)

// WithSource replaces the cryptographic random source, mainly for tests.
func WithSource(r io.Reader) Option {
	return func(g *Generator) {
		g.source = r
	}
}

// WithLogger attaches a logger for failed attempts
func WithLogger(log *logger.Logger) Option {
	return func(g *Generator) {
		g.logger = log
	}
}

// NewGenerator creates a generator. A nil checker means every candidate is unique.
func NewGenerator(cfg Config, checker Checker, opts ...Option) *Generator {
	if cfg.Length <= 0 {
		cfg.Length = DefaultLength
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	g := &Generator{
		source:      rand.Reader,
		checker:     checker,
		length:      cfg.Length,
		maxAttempts: cfg.MaxAttempts,
		logger:      logger.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns prefix followed by random alphabet characters, retrying on
// collisions until MaxAttempts candidates have been rejected.
func (g *Generator) Generate(ctx context.Context, prefix string) (string, error) {
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		body, err := Random(g.source, g.length)
		if err != nil {
			return "", err
		}
		candidate := prefix + body

		if g.checker == nil {
			return candidate, nil
		}

		taken, err := g.checker.Exists(ctx, candidate)
		if err != nil {
			g.logger.Warn("Identifier uniqueness check failed",
				logger.Int("attempt", attempt),
				logger.Err(err),
			)
			continue
		}
		if !taken {
			return candidate, nil
		}

		g.logger.Debug("Identifier collision",
			logger.String("candidate", candidate),
			logger.Int("attempt", attempt),
		)
	}

	return "", fmt.Errorf("%w after %d attempts", ErrGenerationExhausted, g.maxAttempts)
}

// Random draws length characters uniformly from Alphabet. Bytes that would
// bias the modulo are discarded.
func Random(source io.Reader, length int) (string, error) {
	if length <= 0 {
		return "", ErrInvalidLength
	}

	n := len(Alphabet)
	limit := 256 - 256%n
	out := make([]byte, 0, length)
	buf := make([]byte, length)
	for len(out) < length {
		if _, err := io.ReadFull(source, buf[:length-len(out)]); err != nil {
			return "", fmt.Errorf("read random source: %w", err)
		}
		for _, b := range buf[:length-len(out)] {
			if int(b) >= limit {
				continue
			}
			out = append(out, Alphabet[int(b)%n])
		}
	}
	return string(out), nil
}

// Valid reports whether id is prefix followed by exactly length alphabet characters.
func Valid(id, prefix string, length int) bool {
	if !strings.HasPrefix(id, prefix) {
		return false
	}
	body := id[len(prefix):]
	if len(body) != length {
		return false
	}
	for i := 0; i < len(body); i++ {
		if strings.IndexByte(Alphabet, body[i]) < 0 {
			return false
		}
	}
	return true
}
