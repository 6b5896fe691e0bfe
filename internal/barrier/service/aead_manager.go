package service

import (
	barrierDomain "github.com/allisson/barrier/internal/barrier/domain"
)

// AEADManagerService implements the AEADManager interface for creating AEAD cipher instances.
type AEADManagerService struct{}

// NewAEADManager creates a new AEADManagerService.
func NewAEADManager() *AEADManagerService {
	return &AEADManagerService{}
}

// CreateCipher creates an AEAD cipher instance for the specified algorithm.
// The key length must match the algorithm (16/24/32 bytes for the GCM family,
// 32 bytes for GCM-SIV); ErrInvalidKeySize is returned otherwise, and
// ErrUnsupportedAlgorithm for algorithms outside the allow list.
func (am *AEADManagerService) CreateCipher(key []byte, alg barrierDomain.Algorithm) (AEAD, error) {
	size, err := alg.KeySize()
	if err != nil {
		return nil, err
	}
	if len(key) != size {
		return nil, barrierDomain.ErrInvalidKeySize
	}

	switch alg {
	case barrierDomain.AESGCM, barrierDomain.AES128GCM, barrierDomain.AES192GCM:
		return NewAESGCM(key)
	case barrierDomain.AESGCMSIV:
		return NewAESGCMSIV(key)
	default:
		return nil, barrierDomain.ErrUnsupportedAlgorithm
	}
}
