package handler

import (
	"context"
	"net/http"

	"github.com/josh-kwaku/wallet-ledger/internal/domain"
	"github.com/josh-kwaku/wallet-ledger/internal/logging"
)

type userLister interface {
	List(ctx context.Context) ([]domain.User, error)
}

type UserHandler struct {
	users userLister
}

func NewUserHandler(users userLister) *UserHandler {
	return &UserHandler{users: users}
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	if appErr := requireOperator(r); appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	users, err := h.users.List(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to list users", "error", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]userDTO, 0, len(users))
	for _, u := range users {
		dtos = append(dtos, userDTO{
			ID:        u.ID,
			Email:     u.Email,
			Name:      u.Name,
			Role:      string(u.Role),
			CreatedAt: u.CreatedAt,
		})
	}
	RespondSuccess(w, http.StatusOK, dtos)
}
