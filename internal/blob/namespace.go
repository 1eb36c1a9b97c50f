package blob

import "context"

// Key prefixes used to keep notes and attachments apart in one Store.
const (
	NotesPrefix       = "notes/"
	AttachmentsPrefix = "attachments/"
)

type namespaced struct {
	base   Store
	prefix string
}

// Namespace returns a view of base that prefixes every key. DeleteAll is
// passed through unchanged and clears the whole user space.
func Namespace(base Store, prefix string) Store {
	return &namespaced{base: base, prefix: prefix}
}

func (n *namespaced) Save(ctx context.Context, userID, key string, data []byte) (string, error) {
	return n.base.Save(ctx, userID, n.prefix+key, data)
}

func (n *namespaced) Read(ctx context.Context, userID, key string) ([]byte, error) {
	return n.base.Read(ctx, userID, n.prefix+key)
}

func (n *namespaced) Delete(ctx context.Context, userID, key string) (bool, error) {
	return n.base.Delete(ctx, userID, n.prefix+key)
}

func (n *namespaced) Size(ctx context.Context, userID, key string) (int64, error) {
	return n.base.Size(ctx, userID, n.prefix+key)
}

func (n *namespaced) DeleteAll(ctx context.Context, userID string) error {
	return n.base.DeleteAll(ctx, userID)
}
