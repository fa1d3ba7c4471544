package catalog

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestCoverObjectKey(t *testing.T) {
	albumID := uuid.New()

	key := coverObjectKey(albumID, "Front Cover.JPG")
	assert.True(t, strings.HasPrefix(key, fmt.Sprintf("albums/%s/", albumID)))
	assert.True(t, strings.HasSuffix(key, ".jpg"))
	assert.NotContains(t, key, "Front", "original name must not leak into the key")

	// Two uploads of the same file never collide.
	other := coverObjectKey(albumID, "Front Cover.JPG")
	assert.NotEqual(t, key, other)
}

func TestFileExtension(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"cover.png", ".png"},
		{"cover.JPEG", ".jpeg"},
		{"archive.tar.gz", ".gz"},
		{"noext", ".jpg"},
		{"", ".jpg"},
		{"trailing.", ".jpg"},
		{"../../../etc/passwd", ".jpg"},
		{"dir/nested.webp", ".webp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fileExtension(tt.name))
		})
	}
}
