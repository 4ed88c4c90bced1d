package middleware

import (
	"context"

	"github.com/commerceplatform/wallet/internal/apperr"
	"github.com/commerceplatform/wallet/internal/store"
	"go.uber.org/zap"
)

// RoleResolver determines the role a caller acts with. The token claim wins;
// otherwise the user directory is consulted.
type RoleResolver struct {
	directory store.Directory
	logger    *zap.Logger
}

func NewRoleResolver(directory store.Directory, logger *zap.Logger) *RoleResolver {
	return &RoleResolver{directory: directory, logger: logger.Named("roles")}
}

// Resolve returns fallback when neither the token nor the directory has a role.
func (rr *RoleResolver) Resolve(ctx context.Context, userID, fallback string) string {
	if role := RoleFromContext(ctx); role != "" {
		return role
	}

	profile, err := rr.directory.GetProfile(ctx, userID)
	if err != nil {
		if !apperr.Is(err, apperr.KindNotFound) {
			rr.logger.Warn("role lookup failed, using default",
				zap.String("user_id", userID),
				zap.String("default", fallback),
				zap.Error(err),
			)
		}
		return fallback
	}
	if profile.Role == "" {
		return fallback
	}
	return profile.Role
}
