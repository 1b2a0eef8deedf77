package object

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/gabriel-vasile/mimetype"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"compliance-backend/internal/shared/util"
)

// ErrStorageUnavailable wraps every backing-store failure surfaced by the Gateway.
var ErrStorageUnavailable = errors.New("storage unavailable")

// Stored describes an object written by the Gateway.
type Stored struct {
	Name        string
	URL         string
	ContentType string
	Size        int64
}

// Gateway names, stores and retrieves uploaded documents. Stored names are
// random and never derived from the user-supplied file name.
type Gateway struct {
	Backend ObjectStore
	// NewID generates the random part of stored names; defaults to a 21-char nanoid.
	NewID func() (string, error)
}

// NewGateway wraps store.
func NewGateway(store ObjectStore) *Gateway {
	return &Gateway{Backend: store}
}

// Store writes r under a fresh stored name in the owner's namespace and
// returns its locator.
func (g *Gateway) Store(ctx context.Context, ownerID, contentType string, r io.Reader) (Stored, error) {
	name, err := g.storedName(ownerID, contentType)
	if err != nil {
		return Stored{}, fmt.Errorf("%w: generate name: %v", ErrStorageUnavailable, err)
	}
	size, err := g.Backend.Save(ctx, name, contentType, r)
	if err != nil {
		return Stored{}, fmt.Errorf("%w: save %s: %w", ErrStorageUnavailable, name, err)
	}
	url, err := g.Locate(ctx, name)
	if err != nil {
		return Stored{}, err
	}
	return Stored{Name: name, URL: url, ContentType: contentType, Size: size}, nil
}

// Locate returns a URL from which the stored object can be fetched.
func (g *Gateway) Locate(ctx context.Context, storedName string) (string, error) {
	url, err := g.Backend.URL(ctx, storedName)
	if err != nil {
		return "", fmt.Errorf("%w: locate %s: %w", ErrStorageUnavailable, storedName, err)
	}
	return url, nil
}

// FetchBytes reads the whole stored object.
func (g *Gateway) FetchBytes(ctx context.Context, storedName string) ([]byte, error) {
	rc, err := g.Backend.Open(ctx, storedName)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrStorageUnavailable, storedName, err)
	}
	defer rc.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, rc); err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrStorageUnavailable, storedName, err)
	}
	return buf.Bytes(), nil
}

func (g *Gateway) storedName(ownerID, contentType string) (string, error) {
	newID := g.NewID
	if newID == nil {
		newID = func() (string, error) { return gonanoid.New(21) }
	}
	id, err := newID()
	if err != nil {
		return "", err
	}
	ext := ""
	if m := mimetype.Lookup(contentType); m != nil {
		ext = m.Extension()
	}
	return path.Join("documents", util.HashUserKey(ownerID)[:16], id+ext), nil
}
