package commands

import (
	"context"
	"fmt"
	"time"

	apperrors "github.com/pathshala/dataguard/internal/errors"
	"github.com/pathshala/dataguard/internal/masking"
)

// RunKeyStatus prints the current key's age and rotation status. The key
// itself is printed masked.
func RunKeyStatus(ctx context.Context, io IOTuple) error {
	container := newContainer()
	defer closeContainer(container, container.Logger())

	vault := container.Vault()
	secret, err := vault.Info(ctx)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			fmt.Fprintln(io.Writer, "No encryption key present")
			return nil
		}
		return fmt.Errorf("failed to read key: %w", err)
	}

	fmt.Fprintf(io.Writer, "Key:            %s\n", masking.MaskToken(secret.Value))
	if secret.CreatedAt.IsZero() {
		fmt.Fprintln(io.Writer, "Created:        unknown")
	} else {
		fmt.Fprintf(io.Writer, "Created:        %s\n", secret.CreatedAt.Format("2006-01-02 15:04:05 MST"))
		fmt.Fprintf(io.Writer, "Age:            %s\n", secret.Age(time.Now()).Round(time.Second))
	}
	fmt.Fprintf(io.Writer, "Needs rotation: %t\n", vault.NeedsRotation(ctx))
	return nil
}

// RunRotateKey replaces the encryption key. Ciphertext produced under the
// old key becomes unreadable.
func RunRotateKey(ctx context.Context, io IOTuple) error {
	container := newContainer()
	defer closeContainer(container, container.Logger())

	if err := container.Vault().Rotate(ctx); err != nil {
		return fmt.Errorf("failed to rotate key: %w", err)
	}
	fmt.Fprintln(io.Writer, "Encryption key rotated. Data encrypted under the old key is no longer readable.")
	return nil
}
