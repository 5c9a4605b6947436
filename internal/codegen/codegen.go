// Package codegen provides short code generators for the shortener.
package codegen

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/jaevor/go-nanoid"
	"github.com/jxskiss/base62"
	"github.com/serroba/shortlink/internal/shortener"
)

// Kind names a code generation scheme.
type Kind string

const (
	// KindNanoID generates random URL-safe codes of a fixed length.
	KindNanoID Kind = "nanoid"
	// KindSnowflake generates time-ordered codes from a snowflake ID encoded in base62.
	KindSnowflake Kind = "snowflake"
)

// New creates the generator for kind.
func New(kind Kind, length int, nodeID int64) (shortener.CodeGenerator, error) {
	switch kind {
	case KindNanoID, "":
		return NewNanoID(length)
	case KindSnowflake:
		return NewSnowflake(nodeID)
	default:
		return nil, fmt.Errorf("unknown code generator %q", kind)
	}
}

// NewNanoID creates a generator of random codes with the given length.
func NewNanoID(length int) (shortener.CodeGenerator, error) {
	generate, err := nanoid.Standard(length)
	if err != nil {
		return nil, fmt.Errorf("nanoid generator: %w", err)
	}

	return generate, nil
}

// NewSnowflake creates a generator of base62-encoded snowflake IDs. Codes are unique per
// node as long as every running instance uses a distinct nodeID.
func NewSnowflake(nodeID int64) (shortener.CodeGenerator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("snowflake node %d: %w", nodeID, err)
	}

	return func() string {
		return string(base62.FormatInt(node.Generate().Int64()))
	}, nil
}
