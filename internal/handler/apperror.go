package handler

import "net/http"

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrMissingToken     = &AppError{http.StatusUnauthorized, "MISSING_TOKEN", "Authorization header required"}
	ErrInvalidToken     = &AppError{http.StatusUnauthorized, "INVALID_TOKEN", "Token is invalid or expired"}
	ErrForbidden        = &AppError{http.StatusForbidden, "FORBIDDEN", "Not allowed to act on this wallet"}
	ErrInvalidRequest   = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body"}
	ErrValidationFailed = &AppError{http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed"}
	ErrResourceNotFound = &AppError{http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found"}
	ErrInternalError    = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}

	ErrUserNotFound         = &AppError{http.StatusNotFound, "USER_NOT_FOUND", "User not found"}
	ErrAssetNotFound        = &AppError{http.StatusNotFound, "ASSET_NOT_FOUND", "Asset not found"}
	ErrBalanceNotFound      = &AppError{http.StatusNotFound, "BALANCE_NOT_FOUND", "Balance not found"}
	ErrTransactionNotFound  = &AppError{http.StatusNotFound, "TRANSACTION_NOT_FOUND", "Transaction not found"}
	ErrInsufficientFunds    = &AppError{http.StatusUnprocessableEntity, "INSUFFICIENT_FUNDS", "Insufficient funds"}
	ErrAssetInactive        = &AppError{http.StatusUnprocessableEntity, "ASSET_INACTIVE", "Asset is not active"}
	ErrInvalidAmount        = &AppError{http.StatusBadRequest, "INVALID_AMOUNT", "Amount must be greater than zero"}
	ErrBalanceOverflow      = &AppError{http.StatusUnprocessableEntity, "BALANCE_OVERFLOW", "Credit would exceed the maximum balance"}
	ErrIdempotencyConflict  = &AppError{http.StatusConflict, "IDEMPOTENCY_CONFLICT", "Idempotency key already used with a different request"}
	ErrSystemAccountMissing = &AppError{http.StatusServiceUnavailable, "SYSTEM_ACCOUNT_MISSING", "System account is not configured"}
)
