package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/josh-kwaku/wallet-ledger/internal/auth"
)

func principal(r *http.Request) (auth.Principal, *AppError) {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		return auth.Principal{}, ErrMissingToken
	}
	return p, nil
}

func requireOperator(r *http.Request) *AppError {
	p, appErr := principal(r)
	if appErr != nil {
		return appErr
	}
	if p.Role != auth.RoleOperator {
		return ErrForbidden
	}
	return nil
}

func requireActor(r *http.Request, userID uuid.UUID) *AppError {
	p, appErr := principal(r)
	if appErr != nil {
		return appErr
	}
	if !p.CanActFor(userID) {
		return ErrForbidden
	}
	return nil
}

// userFromPath parses the {userId} segment and checks the caller may act
// on that wallet.
func userFromPath(r *http.Request) (uuid.UUID, *AppError) {
	userID, err := uuid.Parse(r.PathValue("userId"))
	if err != nil {
		return uuid.Nil, ErrResourceNotFound
	}
	if appErr := requireActor(r, userID); appErr != nil {
		return uuid.Nil, appErr
	}
	return userID, nil
}
