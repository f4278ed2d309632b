package media

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStorageKey(t *testing.T) {
	key := StorageKey("avatars")

	assert.True(t, strings.HasPrefix(key, "avatars/"))
	assert.NotEqual(t, key, StorageKey("avatars"))
}
