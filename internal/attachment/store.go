// Package attachment stores the visual proof of seizure that evidence
// logging requires. The custody core persists only the returned reference.
package attachment

import (
	"context"
	"io"
)

// Ref is a stable reference path to a stored attachment.
type Ref string

// Store accepts uploads and serves them back by reference.
type Store interface {
	Save(ctx context.Context, name, contentType string, r io.Reader) (Ref, error)
	Open(ctx context.Context, ref Ref) (io.ReadCloser, error)
}
