package media

//go:generate mockgen -destination=../auth/mocks/mock_media_store.go -package=mocks github.com/vidstream/identity-service/internal/media Store

import (
	"context"
	"io"
)

// Store is the external asset host: it takes a file and hands back a public
// URL for it.
type Store interface {
	Upload(ctx context.Context, key string, contentType string, body io.Reader) (string, error)
}
