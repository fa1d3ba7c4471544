package catalog

import (
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
)

// coverObjectKey generates the storage key for a new cover blob. Keys
// are namespaced under the album so cross-album collisions are
// impossible and bulk cleanup on album deletion stays a prefix walk.
// The blob name is a random UUID plus the original extension: the raw
// file name never reaches the store, which rules out traversal and
// collision attacks through attacker-chosen names.
func coverObjectKey(albumID uuid.UUID, originalFileName string) string {
	return fmt.Sprintf("albums/%s/%s%s", albumID, uuid.New(), fileExtension(originalFileName))
}

// fileExtension returns a sanitized extension from the original name,
// defaulting to ".jpg" when none is recognizable.
func fileExtension(name string) string {
	ext := strings.ToLower(path.Ext(path.Base(name)))
	if ext == "" || ext == "." || strings.ContainsAny(ext, "/\\") {
		return ".jpg"
	}
	return ext
}
