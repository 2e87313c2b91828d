package checksum

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
)

const bufferSize = 64 * 1024 // 64KB buffer

// Opener opens a file for reading. fsys.FileSystem satisfies it.
type Opener interface {
	Open(path string) (io.ReadCloser, error)
}

// CalculateFileMD5 calculates the MD5 digest of the file at path
func CalculateFileMD5(o Opener, path string) ([]byte, error) {
	file, err := o.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	return CalculateMD5(file)
}

// CalculateMD5 calculates the MD5 digest of everything read from r
func CalculateMD5(r io.Reader) ([]byte, error) {
	hash := md5.New()
	buffer := make([]byte, bufferSize)

	for {
		n, err := r.Read(buffer)
		if n > 0 {
			if _, err := hash.Write(buffer[:n]); err != nil {
				return nil, fmt.Errorf("write to hash: %w", err)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read: %w", err)
		}
	}

	return hash.Sum(nil), nil
}

// CompareChecksums compares two digests byte for byte
func CompareChecksums(checksum1, checksum2 []byte) bool {
	return bytes.Equal(checksum1, checksum2)
}

// Hex renders a digest the way md5sum prints it
func Hex(checksum []byte) string {
	return hex.EncodeToString(checksum)
}
