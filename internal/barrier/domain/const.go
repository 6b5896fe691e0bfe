package domain

// Layer identifies a level of the key hierarchy.
//
// Layers form a strict wrapping chain: root records are wrapped by the
// root-unwrap key derived from unseal material, intermediate records by the
// active root key, and content records by the active intermediate key.
type Layer string

const (
	// LayerRoot is the top of the hierarchy. Root records carry
	// WrappingKeyRefUnseal instead of a parent record ID.
	LayerRoot Layer = "root"

	// LayerIntermediate sits between the root and content layers.
	LayerIntermediate Layer = "intermediate"

	// LayerContent is the bottom of the hierarchy. Content keys encrypt
	// caller plaintext and pepper envelopes.
	LayerContent Layer = "content"
)

// Parent returns the layer whose active key wraps new records of this layer.
// The root layer has no parent layer; its records are wrapped by the
// root-unwrap key, so Parent reports false for it.
func (l Layer) Parent() (Layer, bool) {
	switch l {
	case LayerIntermediate:
		return LayerRoot, true
	case LayerContent:
		return LayerIntermediate, true
	default:
		return "", false
	}
}

// Algorithm represents the AEAD cipher used to protect wrapped keys and data.
//
// All supported algorithms provide Authenticated Encryption with Associated
// Data (AEAD), ensuring both confidentiality and authenticity. The GCM family
// covers general encryption at three key sizes; GCM-SIV is nonce-misuse
// resistant and is the only algorithm permitted for deterministic peppering,
// where a fixed nonce is reused by construction.
type Algorithm string

const (
	// AESGCM represents AES-256-GCM, the default algorithm.
	//
	// Key features:
	//   - 32-byte key (256 bits)
	//   - 12-byte nonce (96 bits)
	//   - 16-byte authentication tag
	//   - Hardware acceleration on CPUs with AES-NI
	AESGCM Algorithm = "aes-gcm"

	// AES128GCM represents AES-128-GCM with a 16-byte key.
	AES128GCM Algorithm = "aes-128-gcm"

	// AES192GCM represents AES-192-GCM with a 24-byte key.
	AES192GCM Algorithm = "aes-192-gcm"

	// AESGCMSIV represents AES-256-GCM-SIV (RFC 8452).
	//
	// GCM-SIV is nonce-misuse resistant: reusing a nonce with the same key
	// leaks only whether two plaintexts are equal, never the key stream.
	// This is the property deterministic peppering depends on, and the
	// reason plain GCM is rejected for that path.
	AESGCMSIV Algorithm = "aes-gcm-siv"
)

// NonceSize is the nonce length in bytes shared by every supported algorithm.
const NonceSize = 12

// KeySize returns the key length in bytes the algorithm requires.
// Returns ErrUnsupportedAlgorithm for unknown algorithm names.
func (a Algorithm) KeySize() (int, error) {
	switch a {
	case AESGCM, AESGCMSIV:
		return 32, nil
	case AES128GCM:
		return 16, nil
	case AES192GCM:
		return 24, nil
	default:
		return 0, ErrUnsupportedAlgorithm
	}
}
