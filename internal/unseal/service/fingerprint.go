package service

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"

	"golang.org/x/crypto/hkdf"

	unsealDomain "github.com/allisson/barrier/internal/unseal/domain"
)

// fingerprintInfo versions the derivation so a future scheme change cannot
// silently produce the same material from the same attributes.
const fingerprintInfo = "unseal-fingerprint-v1"

// fingerprintProvider derives unseal material from stable host attributes.
//
// The same host with the same configured attributes always derives identical
// material, which makes this mode suitable for single-node deployments where
// no external secret store exists. It protects data at rest against media
// theft, not against an attacker with code execution on the host.
type fingerprintProvider struct {
	attrs []string
}

// NewFingerprintProvider creates a Provider that derives material from the
// hostname, OS, architecture, and any caller-supplied stable attributes
// (e.g., a machine ID). Attributes are sorted so ordering does not change
// the derived material.
func NewFingerprintProvider(attrs ...string) Provider {
	own := make([]string, len(attrs))
	copy(own, attrs)
	sort.Strings(own)
	return &fingerprintProvider{attrs: own}
}

// Obtain canonicalizes the host attributes and expands them to 32 bytes of
// material with HKDF-SHA256.
func (p *fingerprintProvider) Obtain(_ context.Context) (unsealDomain.Material, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("%w: read hostname: %v", unsealDomain.ErrUnsealFailed, err)
	}

	canonical := p.canonicalize(hostname)

	hkdf := hkdf.New(sha256.New, canonical, nil, []byte(fingerprintInfo))
	material := make(unsealDomain.Material, unsealDomain.MinMaterialLen)
	if _, err := io.ReadFull(hkdf, material); err != nil {
		return nil, fmt.Errorf("%w: derive material: %v", unsealDomain.ErrUnsealFailed, err)
	}

	return material, nil
}

// canonicalize builds the deterministic byte representation of the host
// attributes. Uses length-prefixed encoding for variable-length fields to
// prevent ambiguity.
func (p *fingerprintProvider) canonicalize(hostname string) []byte {
	buf := make([]byte, 0, 256)

	buf = appendLengthPrefixed(buf, []byte(hostname))
	buf = appendLengthPrefixed(buf, []byte(runtime.GOOS))
	buf = appendLengthPrefixed(buf, []byte(runtime.GOARCH))
	for _, attr := range p.attrs {
		buf = appendLengthPrefixed(buf, []byte(attr))
	}

	return buf
}

// appendLengthPrefixed adds a 4-byte big-endian length prefix followed by data.
// Format: [length (4 bytes)] + [data (length bytes)]
func appendLengthPrefixed(buf []byte, data []byte) []byte {
	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))
	buf = append(buf, length...)
	buf = append(buf, data...)
	return buf
}
