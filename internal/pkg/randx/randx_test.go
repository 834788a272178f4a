package randx

import (
	"regexp"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestSessionID_UniqueAndParseable(t *testing.T) {
	req := require.New(t)

	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		id := SessionID()

		_, err := uuid.Parse(id)
		req.NoError(err)

		_, dup := seen[id]
		req.False(dup, "duplicate session id %s", id)
		seen[id] = struct{}{}
	}
}

func TestBlobName_Format(t *testing.T) {
	req := require.New(t)

	name, err := BlobName(".wav")
	req.NoError(err)

	pattern := regexp.MustCompile(`^\d+-[0-9A-Za-z]{8}\.wav$`)
	req.Regexp(pattern, name)

	// Names must be safe as single-segment storage keys.
	req.NotContains(name, "/")
	req.NotContains(name, "..")
}

func TestBlobName_EmptyExtension(t *testing.T) {
	req := require.New(t)

	name, err := BlobName("")
	req.NoError(err)
	req.False(strings.Contains(name, "."))
}

func TestBlobName_Unique(t *testing.T) {
	req := require.New(t)

	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		name, err := BlobName(".ogg")
		req.NoError(err)

		_, dup := seen[name]
		req.False(dup, "duplicate blob name %s", name)
		seen[name] = struct{}{}
	}
}
