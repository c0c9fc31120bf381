package rest

import (
	"context"

	"github.com/eludris-go/eludris/internal/apierror"
	"github.com/eludris-go/eludris/internal/models"
)

// resolveUser resolves the `{id|@me|username}` identifier shape used by
// user and member routes (§6.1).
func (s *Server) resolveUser(ctx context.Context, ident string) (models.User, error) {
	if ident == "@me" {
		user, ok := userFromContext(ctx)
		if !ok {
			return models.User{}, apierror.Unauthorizedf("@me requires authentication")
		}
		return user, nil
	}
	if id, err := parseUintParam(ident); err == nil {
		return s.store.GetUser(ctx, id)
	}
	return s.store.GetUserByUsername(ctx, ident)
}

// resolveSphere resolves the `{id|slug}` identifier shape used by sphere
// routes.
func (s *Server) resolveSphere(ctx context.Context, ident string) (models.Sphere, error) {
	if id, err := parseUintParam(ident); err == nil {
		return s.store.GetSphere(ctx, id)
	}
	return s.store.GetSphereBySlug(ctx, ident)
}
