package ports

import "context"

// ContentCache stores file contents fetched from other branches, keyed by
// the git blob hash of the content
type ContentCache interface {
	Get(ctx context.Context, blob string) (string, bool, error)
	Put(ctx context.Context, blob, content string) error
}
