package service

import (
	"context"
	"crypto/rand"
	"fmt"

	"github.com/allisson/barrier/internal/errors"
	unsealDomain "github.com/allisson/barrier/internal/unseal/domain"
)

// GF(2^8) log/exp tables over the AES polynomial x^8 + x^4 + x^3 + x + 1,
// generated from the primitive element 3 at package init.
var (
	gfExp [256]byte
	gfLog [256]byte
)

func init() {
	x := byte(1)
	for i := 0; i < 255; i++ {
		gfExp[i] = x
		gfLog[x] = byte(i)

		// Multiply x by the generator 3 (x*2 xor x).
		double := x << 1
		if x&0x80 != 0 {
			double ^= 0x1b
		}
		x = double ^ x
	}
	gfExp[255] = gfExp[0]
}

// gfMul multiplies two field elements.
func gfMul(a, b byte) byte {
	if a == 0 || b == 0 {
		return 0
	}
	return gfExp[(int(gfLog[a])+int(gfLog[b]))%255]
}

// gfDiv divides a by b. The divisor must not be zero; interpolation only
// divides by differences of distinct x-coordinates.
func gfDiv(a, b byte) byte {
	if b == 0 {
		panic("unseal: division by zero in GF(2^8)")
	}
	if a == 0 {
		return 0
	}
	return gfExp[(int(gfLog[a])-int(gfLog[b])+255)%255]
}

// evalPoly evaluates a polynomial at x using Horner's method.
// coefficients[0] is the constant term.
func evalPoly(coefficients []byte, x byte) byte {
	var out byte
	for i := len(coefficients) - 1; i >= 0; i-- {
		out = gfMul(out, x) ^ coefficients[i]
	}
	return out
}

// interpolateAtZero recovers f(0) from threshold points by Lagrange
// interpolation. Subtraction is xor in GF(2^8), so the basis terms reduce
// to products of xk/(xi xor xk).
func interpolateAtZero(xs, ys []byte) byte {
	var result byte
	for i, xi := range xs {
		basis := byte(1)
		for k, xk := range xs {
			if k == i {
				continue
			}
			basis = gfMul(basis, gfDiv(xk, xi^xk))
		}
		result ^= gfMul(ys[i], basis)
	}
	return result
}

// SplitSecret splits a secret into parts shares such that any threshold of
// them reconstruct it and fewer reveal nothing. Each secret byte gets its
// own random polynomial of degree threshold-1 with the byte as constant
// term; share i carries the evaluations at x=i+1, framed and checksummed by
// domain.NewShare.
func SplitSecret(secret []byte, parts, threshold int) ([]unsealDomain.Share, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("%w: cannot split an empty secret", errors.ErrInvalidInput)
	}
	if parts < 2 || parts > 255 {
		return nil, fmt.Errorf(
			"%w: parts must be between 2 and 255, got %d",
			errors.ErrInvalidInput, parts,
		)
	}
	if threshold < 2 || threshold > parts {
		return nil, fmt.Errorf(
			"%w: threshold must be between 2 and parts, got %d",
			errors.ErrInvalidInput, threshold,
		)
	}

	ys := make([][]byte, parts)
	for i := range ys {
		ys[i] = make([]byte, len(secret))
	}

	coefficients := make([]byte, threshold)
	defer unsealDomain.Zero(coefficients)

	for j, b := range secret {
		coefficients[0] = b
		if _, err := rand.Read(coefficients[1:]); err != nil {
			return nil, fmt.Errorf("failed to generate polynomial coefficients: %w", err)
		}

		for i := 0; i < parts; i++ {
			ys[i][j] = evalPoly(coefficients, byte(i+1))
		}
	}

	shares := make([]unsealDomain.Share, parts)
	for i := 0; i < parts; i++ {
		shares[i] = unsealDomain.NewShare(byte(i+1), ys[i])
		unsealDomain.Zero(ys[i])
	}

	return shares, nil
}

// Combine reconstructs the secret from at least threshold shares.
//
// Every supplied share is validated before interpolation: a failed checksum,
// a length mismatch, or a duplicate x-coordinate aborts with ErrCorruptShare.
// Fewer than threshold shares abort with ErrInsufficientShares. The first
// threshold valid shares feed the interpolation; any valid subset of that
// size yields identical output.
func Combine(shares []unsealDomain.Share, threshold int) ([]byte, error) {
	if threshold < 2 {
		return nil, fmt.Errorf(
			"%w: threshold must be at least 2, got %d",
			errors.ErrInvalidInput, threshold,
		)
	}
	if len(shares) < threshold {
		return nil, fmt.Errorf(
			"%w: need %d shares, got %d",
			unsealDomain.ErrInsufficientShares, threshold, len(shares),
		)
	}

	xs := make([]byte, 0, len(shares))
	yss := make([][]byte, 0, len(shares))
	seen := make(map[byte]bool, len(shares))
	secretLen := -1

	for _, share := range shares {
		x, ys, err := share.Parse()
		if err != nil {
			return nil, err
		}
		if seen[x] {
			return nil, fmt.Errorf(
				"%w: duplicate x-coordinate %d",
				unsealDomain.ErrCorruptShare, x,
			)
		}
		seen[x] = true

		if secretLen == -1 {
			secretLen = len(ys)
		} else if len(ys) != secretLen {
			return nil, fmt.Errorf("%w: share length mismatch", unsealDomain.ErrCorruptShare)
		}

		xs = append(xs, x)
		yss = append(yss, ys)
	}

	xs = xs[:threshold]
	secret := make([]byte, secretLen)
	points := make([]byte, threshold)

	for j := 0; j < secretLen; j++ {
		for i := 0; i < threshold; i++ {
			points[i] = yss[i][j]
		}
		secret[j] = interpolateAtZero(xs, points)
	}

	return secret, nil
}

// sharedSecretsProvider reconstructs unseal material from Shamir shares.
type sharedSecretsProvider struct {
	shares    []unsealDomain.Share
	threshold int
}

// NewSharedSecretsProvider creates a Provider that combines the given shares
// on Obtain. The shares are copied; threshold is the number required for
// reconstruction.
func NewSharedSecretsProvider(shares [][]byte, threshold int) Provider {
	own := make([]unsealDomain.Share, len(shares))
	for i, s := range shares {
		c := make(unsealDomain.Share, len(s))
		copy(c, s)
		own[i] = c
	}
	return &sharedSecretsProvider{shares: own, threshold: threshold}
}

// Obtain reconstructs the unseal material from the configured shares.
func (p *sharedSecretsProvider) Obtain(_ context.Context) (unsealDomain.Material, error) {
	secret, err := Combine(p.shares, p.threshold)
	if err != nil {
		return nil, err
	}

	if len(secret) < unsealDomain.MinMaterialLen {
		unsealDomain.Zero(secret)
		return nil, fmt.Errorf(
			"%w: reconstructed material must be at least %d bytes, got %d",
			unsealDomain.ErrUnsealFailed,
			unsealDomain.MinMaterialLen,
			len(secret),
		)
	}

	return secret, nil
}
