/*
Package randx generates unique identifiers and blob names.

Session and event identifiers are standard UUIDs. Voice blob names are
time-prefixed with a cryptographically random Base62 suffix, so a directory
listing sorts by upload time while names stay unguessable.
*/
package randx

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
)

const (
	// Base62Chars defines the character set used for Base62 encoding (0-9, A-Z, a-z).
	Base62Chars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// Base62Len is the total number of characters in the Base62 character set.
	Base62Len = int64(len(Base62Chars))

	// BlobSuffixLength is the length of the random part of a blob name.
	BlobSuffixLength = 8
)

// SessionID generates a UUID v4 string identifying one live connection.
func SessionID() string {
	return uuid.New().String()
}

// EventID generates a UUID v4 string identifying one broadcast event.
func EventID() string {
	return uuid.New().String()
}

// base62String returns n cryptographically random Base62 characters.
func base62String(n int) (string, error) {
	result := make([]byte, n)

	for i := 0; i < n; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(Base62Len))
		if err != nil {
			return "", fmt.Errorf("failed to generate random base62 character: %w", err)
		}
		result[i] = Base62Chars[num.Int64()]
	}

	return string(result), nil
}

// BlobName generates a storage key of the form
// <unix-millis>-<random base62 suffix><ext>. The extension must include its
// leading dot, or be empty.
func BlobName(ext string) (string, error) {
	suffix, err := base62String(BlobSuffixLength)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), suffix, ext), nil
}
