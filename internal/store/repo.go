package store

import "context"

// Repo defines the remote document-store contract: point reads, create-only
// inserts, full replaces, idempotent deletes, collection listing, and a
// transactional read-modify-write primitive. Implementations must make
// Update atomic with respect to concurrent writers on the same playlist.
type Repo interface {
	// Get returns the full playlist document, or ErrNotFound.
	Get(ctx context.Context, owner, name string) (Document, error)
	// Create inserts a new document; ErrDuplicateName if the name is taken.
	Create(ctx context.Context, owner string, doc Document) error
	// Put fully replaces the document, creating it if absent.
	Put(ctx context.Context, owner string, doc Document) error
	// Delete removes the document. Deleting a nonexistent playlist is not an
	// error.
	Delete(ctx context.Context, owner, name string) error
	// List returns summaries for every playlist under owner.
	List(ctx context.Context, owner string) ([]Summary, error)
	// Update runs fn against the current document inside a transaction and
	// commits the mutated result. fn returning an error aborts the update.
	// ErrNotFound if the document does not exist.
	Update(ctx context.Context, owner, name string, fn func(doc *Document) error) error

	// GetWatch returns the persisted watch record for a video URL, or
	// ErrNotFound.
	GetWatch(ctx context.Context, owner, url string) (WatchRecord, error)
	// PutWatch upserts the watch record for a video URL.
	PutWatch(ctx context.Context, owner string, rec WatchRecord) error
}
