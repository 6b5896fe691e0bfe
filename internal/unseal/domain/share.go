package domain

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
)

// ShareOverhead is the number of framing bytes a share adds on top of the
// secret length: one x-coordinate byte plus a four byte checksum.
const ShareOverhead = 5

// Share is the wire form of a single Shamir share.
//
// Layout: [1 byte x-coordinate][len(secret) bytes y-values][4 bytes
// big-endian CRC-32 (IEEE) over x||y]. The checksum detects transcription
// damage before reconstruction is attempted; it is an integrity aid, not an
// authenticity guarantee.
type Share []byte

// NewShare frames the x-coordinate and y-values into a checksummed share.
func NewShare(x byte, ys []byte) Share {
	share := make([]byte, 0, 1+len(ys)+4)
	share = append(share, x)
	share = append(share, ys...)

	checksum := crc32.ChecksumIEEE(share)
	share = binary.BigEndian.AppendUint32(share, checksum)

	return share
}

// Parse validates the share framing and returns the x-coordinate and y-values.
// Returns ErrCorruptShare when the share is too short, has a zero
// x-coordinate, or fails its checksum.
func (s Share) Parse() (byte, []byte, error) {
	if len(s) < ShareOverhead+1 {
		return 0, nil, fmt.Errorf("%w: share too short (%d bytes)", ErrCorruptShare, len(s))
	}

	body := s[:len(s)-4]
	want := binary.BigEndian.Uint32(s[len(s)-4:])
	if crc32.ChecksumIEEE(body) != want {
		return 0, nil, fmt.Errorf("%w: checksum mismatch", ErrCorruptShare)
	}

	x := body[0]
	if x == 0 {
		// x=0 is the secret itself in Lagrange interpolation and must
		// never appear as a share coordinate.
		return 0, nil, fmt.Errorf("%w: zero x-coordinate", ErrCorruptShare)
	}

	return x, body[1:], nil
}
