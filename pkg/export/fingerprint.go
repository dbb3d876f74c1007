package export

import (
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"lukechampine.com/blake3"
)

// Fingerprint is a cheap identity proxy for a source file, used as the
// cache key component tied to the file itself.
type Fingerprint string

// WeakFingerprint derives an identity from file metadata only. Two distinct
// files with identical name, size and modification time collide; this is an
// accepted tradeoff because hashing multi-gigabyte media on every export
// request is too slow. Use ContentFingerprint when correctness matters more
// than speed.
func WeakFingerprint(name string, size int64, modTime time.Time) Fingerprint {
	sum := blake3.Sum256([]byte(fmt.Sprintf("%s|%d|%d", name, size, modTime.UnixNano())))
	return Fingerprint(hex.EncodeToString(sum[:16]))
}

// ContentFingerprint hashes the actual media bytes. Opt-in alternative to
// WeakFingerprint.
func ContentFingerprint(name string, data []byte) Fingerprint {
	hasher := blake3.New(32, nil)
	hasher.Write([]byte(name))
	hasher.Write([]byte{0})
	hasher.Write(data)
	sum := hasher.Sum(nil)
	return Fingerprint(hex.EncodeToString(sum[:16]))
}

// FingerprintFile stats path and returns its weak fingerprint.
func FingerprintFile(path string) (Fingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("unable to stat %q: %w", path, err)
	}
	return WeakFingerprint(info.Name(), info.Size(), info.ModTime()), nil
}
