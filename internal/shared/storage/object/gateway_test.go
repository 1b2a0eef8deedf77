package object

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
)

type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	failErr error
}

func (m *memStore) Save(ctx context.Context, name, contentType string, r io.Reader) (int64, error) {
	if m.failErr != nil {
		return 0, m.failErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.objects == nil {
		m.objects = map[string][]byte{}
	}
	m.objects[name] = data
	return int64(len(data)), nil
}

func (m *memStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[name]
	if !ok {
		return nil, ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memStore) URL(ctx context.Context, name string) (string, error) {
	return "mem://" + name, nil
}

func TestGatewayStoreAndFetch(t *testing.T) {
	store := &memStore{}
	gw := NewGateway(store)

	stored, err := gw.Store(context.Background(), "user-1", "application/pdf", strings.NewReader("%PDF-1.7 body"))
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if !strings.HasPrefix(stored.Name, "documents/") || !strings.HasSuffix(stored.Name, ".pdf") {
		t.Fatalf("unexpected stored name %q", stored.Name)
	}
	if stored.Size != int64(len("%PDF-1.7 body")) {
		t.Fatalf("unexpected size %d", stored.Size)
	}
	if stored.URL != "mem://"+stored.Name {
		t.Fatalf("unexpected url %q", stored.URL)
	}

	data, err := gw.FetchBytes(context.Background(), stored.Name)
	if err != nil {
		t.Fatalf("FetchBytes: %v", err)
	}
	if string(data) != "%PDF-1.7 body" {
		t.Fatalf("unexpected bytes %q", data)
	}
}

func TestGatewayNamesAreUniqueAndIgnoreOriginalName(t *testing.T) {
	gw := NewGateway(&memStore{})
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		stored, err := gw.Store(context.Background(), "user-1", "text/plain", strings.NewReader("x"))
		if err != nil {
			t.Fatalf("Store: %v", err)
		}
		if seen[stored.Name] {
			t.Fatalf("duplicate stored name %q", stored.Name)
		}
		seen[stored.Name] = true
	}
}

func TestGatewayWrapsFailuresAsStorageUnavailable(t *testing.T) {
	gw := NewGateway(&memStore{failErr: errors.New("disk full")})
	if _, err := gw.Store(context.Background(), "u", "application/pdf", strings.NewReader("x")); !errors.Is(err, ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}

	gw = NewGateway(&memStore{})
	_, err := gw.FetchBytes(context.Background(), "documents/missing.pdf")
	if !errors.Is(err, ErrStorageUnavailable) || !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected wrapped ErrNotFound, got %v", err)
	}
}

func TestGatewayNameGeneratorFailure(t *testing.T) {
	gw := &Gateway{Backend: &memStore{}, NewID: func() (string, error) { return "", errors.New("no entropy") }}
	if _, err := gw.Store(context.Background(), "u", "application/pdf", strings.NewReader("x")); !errors.Is(err, ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
}
