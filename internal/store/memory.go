package store

import (
	"context"
	"sort"
	"sync"

	"github.com/example/playlist-platform/internal/media"
)

// InMemoryRepo is a development and test implementation of Repo. Update is
// linearized by the repo mutex, which stands in for the remote store's
// transactional conflict-retry.
type InMemoryRepo struct {
	mu    sync.RWMutex
	docs  map[string]map[string]Document    // owner -> name -> doc
	watch map[string]map[string]WatchRecord // owner -> encoded url -> record
}

func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		docs:  make(map[string]map[string]Document),
		watch: make(map[string]map[string]WatchRecord),
	}
}

func (r *InMemoryRepo) Get(_ context.Context, owner, name string) (Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, ok := r.docs[owner][name]
	if !ok {
		return Document{}, ErrNotFound
	}
	return cloneDoc(doc), nil
}

func (r *InMemoryRepo) Create(_ context.Context, owner string, doc Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.docs[owner] == nil {
		r.docs[owner] = make(map[string]Document)
	}
	if _, exists := r.docs[owner][doc.Name]; exists {
		return ErrDuplicateName
	}
	r.docs[owner][doc.Name] = cloneDoc(doc)
	return nil
}

func (r *InMemoryRepo) Put(_ context.Context, owner string, doc Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.docs[owner] == nil {
		r.docs[owner] = make(map[string]Document)
	}
	r.docs[owner][doc.Name] = cloneDoc(doc)
	return nil
}

func (r *InMemoryRepo) Delete(_ context.Context, owner, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.docs[owner], name)
	return nil
}

func (r *InMemoryRepo) List(_ context.Context, owner string) ([]Summary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Summary, 0, len(r.docs[owner]))
	for name, doc := range r.docs[owner] {
		out = append(out, Summary{
			ID:          name,
			Name:        name,
			Description: doc.Description,
			VideoCount:  len(doc.Videos),
			CreatedAt:   doc.CreatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *InMemoryRepo) Update(_ context.Context, owner, name string, fn func(doc *Document) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.docs[owner][name]
	if !ok {
		return ErrNotFound
	}
	next := cloneDoc(doc)
	if err := fn(&next); err != nil {
		return err
	}
	r.docs[owner][name] = next
	return nil
}

func (r *InMemoryRepo) GetWatch(_ context.Context, owner, url string) (WatchRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.watch[owner][media.EncodeURLKey(url)]
	if !ok {
		return WatchRecord{}, ErrNotFound
	}
	return rec, nil
}

func (r *InMemoryRepo) PutWatch(_ context.Context, owner string, rec WatchRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.watch[owner] == nil {
		r.watch[owner] = make(map[string]WatchRecord)
	}
	r.watch[owner][media.EncodeURLKey(rec.URL)] = rec
	return nil
}

func cloneDoc(doc Document) Document {
	out := doc
	out.Videos = make([]Video, len(doc.Videos))
	copy(out.Videos, doc.Videos)
	out.Views = make(map[string]int64, len(doc.Views))
	for k, v := range doc.Views {
		out.Views[k] = v
	}
	return out
}
