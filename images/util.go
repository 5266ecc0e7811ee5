package images

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"gocv.io/x/gocv"
)

// ComputeMatChecksum generates a deterministic checksum for a Mat to verify that repeated
// runs over identical input produce identical frames.
//
// The frame geometry is hashed along with the pixel data, so two empty or differently shaped
// frames with the same bytes never collide.
//
// Arguments:
// - mat: The Mat to compute checksum for.
//
// Returns:
// - A hex-encoded SHA-256 checksum string, or "empty" for an empty Mat.
func ComputeMatChecksum(mat gocv.Mat) string {
	if mat.Empty() {
		return "empty"
	}

	hash := sha256.New()
	var header [12]byte
	binary.LittleEndian.PutUint32(header[0:], uint32(mat.Rows()))
	binary.LittleEndian.PutUint32(header[4:], uint32(mat.Cols()))
	binary.LittleEndian.PutUint32(header[8:], uint32(mat.Channels()))
	hash.Write(header[:])

	data := mat.ToBytes()
	hash.Write(data)
	return fmt.Sprintf("%x", hash.Sum(nil))
}
