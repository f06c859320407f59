package accounts

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/fernhill/portal-core/internal/infrastructure/config"
	"github.com/fernhill/portal-core/internal/rbac"
)

// seedPasswordBytes is the number of random bytes for a generated
// superadmin password.
const seedPasswordBytes = 16

// SeedSuperAdmin creates the initial superadmin account on first boot
// if no accounts exist. The password comes from the bootstrap config
// (environment only); when absent, one is generated and logged once.
// Returns the generated password, or an empty string when seeding was
// skipped or the password came from the environment.
func SeedSuperAdmin(ctx context.Context, repo Repository, cfg config.BootstrapConfig, logger *slog.Logger) (string, error) {
	count, err := repo.Count(ctx)
	if err != nil {
		return "", fmt.Errorf("checking account count: %w", err)
	}

	if count > 0 {
		logger.Info("accounts exist, skipping superadmin seed")
		return "", nil
	}

	username := cfg.Username
	if username == "" {
		username = "root"
	}

	password := cfg.Password
	generated := ""
	if password == "" {
		passwordBytes := make([]byte, seedPasswordBytes)
		if _, err := rand.Read(passwordBytes); err != nil { //nolint:govet // shadow: err re-declared in nested scope
			return "", fmt.Errorf("generating seed password: %w", err)
		}
		password = hex.EncodeToString(passwordBytes)
		generated = password
	}

	hash, err := HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hashing seed password: %w", err)
	}

	admin := &UserAccount{
		Username:     username,
		DisplayName:  "System Administrator",
		PasswordHash: hash,
		Role:         rbac.RoleSuperAdmin,
		IsActive:     true,
	}

	if err := repo.Create(ctx, admin); err != nil {
		return "", fmt.Errorf("creating seed superadmin: %w", err)
	}

	if generated != "" {
		logger.Warn("seed superadmin account created",
			"username", username,
			"password", generated,
			"action_required", "change this password immediately",
		)
	} else {
		logger.Info("seed superadmin account created", "username", username)
	}

	return generated, nil
}
