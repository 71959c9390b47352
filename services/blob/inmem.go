package blobsvc

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/aulavirtual/aula/core"
)

// InMemStore keeps objects in a map. It backs development mode and tests.
type InMemStore struct {
	mu          sync.Mutex
	objects     map[string][]byte
	failDeletes map[string]int
}

var _ core.BlobStore = (*InMemStore)(nil)

func NewInMemStore() *InMemStore {
	return &InMemStore{
		objects:     make(map[string][]byte),
		failDeletes: make(map[string]int),
	}
}

func (s *InMemStore) Upload(ctx context.Context, path string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	s.objects[path] = cp
	return s.urlFor(path), nil
}

func (s *InMemStore) List(ctx context.Context, prefix string) ([]core.ObjectRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var refs []core.ObjectRef
	for path := range s.objects {
		if strings.HasPrefix(path, prefix) {
			refs = append(refs, core.ObjectRef{Path: path, URL: s.urlFor(path)})
		}
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Path < refs[j].Path })
	return refs, nil
}

func (s *InMemStore) Delete(ctx context.Context, ref core.ObjectRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n := s.failDeletes[ref.Path]; n > 0 {
		s.failDeletes[ref.Path] = n - 1
		return core.NewTransientError("Delete", ref.Path, errors.New("injected delete failure"))
	}
	// deleting an absent object is a no-op so retries converge
	delete(s.objects, ref.Path)
	return nil
}

// FailDeletes makes the next n Delete calls for path fail. Test hook.
func (s *InMemStore) FailDeletes(path string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failDeletes[path] = n
}

// Exists reports whether an object is currently stored under path.
func (s *InMemStore) Exists(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[path]
	return ok
}

func (s *InMemStore) urlFor(path string) string {
	return fmt.Sprintf("mem://blobs/%s", path)
}
