package commands

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"strings"

	unsealDomain "github.com/allisson/barrier/internal/unseal/domain"
	unsealService "github.com/allisson/barrier/internal/unseal/service"
	customValidation "github.com/allisson/barrier/internal/validation"
)

// RunGenerateUnsealShares generates a fresh 32-byte unseal secret and splits
// it into checksummed Shamir shares. The secret itself is never printed: only
// the shares leave this function, and the clear secret is zeroed before
// returning.
//
// Output format:
//   - One "Share N:" line per share, for distribution to custodians
//   - An environment block for the host performing unseal
//
// Security: distribute each share to a different custodian. Storing the full
// share list in one place defeats the split; any threshold of shares
// reconstructs the secret.
func RunGenerateUnsealShares(logger *slog.Logger, writer io.Writer, parts, threshold int) error {
	params := customValidation.ShareParams{Threshold: threshold, Total: parts}
	if err := params.Validate(nil); err != nil {
		return customValidation.WrapValidationError(err)
	}

	logger.Info("generating unseal shares",
		slog.Int("parts", parts),
		slog.Int("threshold", threshold),
	)

	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return fmt.Errorf("failed to generate unseal secret: %w", err)
	}
	defer unsealDomain.Zero(secret)

	shares, err := unsealService.SplitSecret(secret, parts, threshold)
	if err != nil {
		return fmt.Errorf("failed to split unseal secret: %w", err)
	}

	encoded := make([]string, len(shares))
	for i, share := range shares {
		encoded[i] = base64.StdEncoding.EncodeToString(share)
	}

	_, _ = fmt.Fprintln(writer, "# Unseal Share Configuration")
	_, _ = fmt.Fprintf(writer,
		"# %d shares generated; any %d of them reconstruct the unseal secret.\n",
		parts, threshold,
	)
	_, _ = fmt.Fprintln(writer, "# Distribute each share to a different custodian.")
	_, _ = fmt.Fprintln(writer)

	for i, share := range encoded {
		_, _ = fmt.Fprintf(writer, "Share %d: %s\n", i+1, share)
	}

	_, _ = fmt.Fprintln(writer)
	_, _ = fmt.Fprintln(writer, "# On the host performing unseal, set (any threshold of shares works):")
	_, _ = fmt.Fprintln(writer, "UNSEAL_MODE=\"shares\"")
	_, _ = fmt.Fprintf(writer, "UNSEAL_SHARE_THRESHOLD=\"%d\"\n", threshold)
	_, _ = fmt.Fprintf(writer, "UNSEAL_SHARES=\"%s\"\n", strings.Join(encoded[:threshold], ","))

	logger.Info("unseal shares generated successfully",
		slog.Int("parts", parts),
		slog.Int("threshold", threshold),
	)

	return nil
}
