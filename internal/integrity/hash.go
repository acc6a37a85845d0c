package integrity

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrFileUnavailable marks a missing or unreadable evidence file. Callers
// surface it as a degraded status instead of a crash.
var ErrFileUnavailable = errors.New("evidence file unavailable")

// hashChunkSize keeps hashing memory-bounded regardless of file size.
const hashChunkSize = 4096

// ComputeHash streams the file through SHA-256 in fixed-size chunks and
// returns the hex digest.
func ComputeHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrFileUnavailable, path)
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, hashChunkSize)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: %s", ErrFileUnavailable, path)
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
