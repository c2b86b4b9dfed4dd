package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/yungbote/trailhead-backend/internal/platform/apierr"
)

const (
	CodeValidation   = "validation_failed"
	CodeNotFound     = "not_found"
	CodeConflict     = "conflict"
	CodeInsertFailed = "insert_failed"
	CodeUnauthorized = "unauthorized"
	CodeForbidden    = "forbidden"
	CodeTimeout      = "timeout"
	CodeInternal     = "internal"
)

func ValidationError(format string, args ...any) *apierr.Error {
	return apierr.Newf(http.StatusBadRequest, CodeValidation, format, args...)
}

func NotFoundError(what string) *apierr.Error {
	return apierr.Newf(http.StatusNotFound, CodeNotFound, "%s not found", what)
}

func ConflictError(code string, format string, args ...any) *apierr.Error {
	if code == "" {
		code = CodeConflict
	}
	return apierr.Newf(http.StatusConflict, code, format, args...)
}

func UnauthorizedError(format string, args ...any) *apierr.Error {
	return apierr.Newf(http.StatusUnauthorized, CodeUnauthorized, format, args...)
}

func ForbiddenError(format string, args ...any) *apierr.Error {
	return apierr.Newf(http.StatusForbidden, CodeForbidden, format, args...)
}

// Postgres SQLSTATE codes gorm does not translate.
const (
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	pgQueryCanceled       = "57014"
)

// storeError classifies a repo error: missing rows become 404, unique and foreign key
// violations 409, check violations 400, deadline overruns 504 and anything else an
// insert/transport failure (500).
func storeError(what string, err error) error {
	if err == nil {
		return nil
	}
	var ae *apierr.Error
	if errors.As(err, &ae) {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apierr.New(http.StatusNotFound, CodeNotFound, fmt.Errorf("%s not found: %w", what, err))
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apierr.New(http.StatusConflict, CodeConflict, fmt.Errorf("%s already exists: %w", what, err))
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return apierr.New(http.StatusConflict, CodeConflict, fmt.Errorf("%s still referenced: %w", what, err))
	case errors.Is(err, context.DeadlineExceeded):
		return apierr.New(http.StatusGatewayTimeout, CodeTimeout, fmt.Errorf("%s: %w", what, err))
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgForeignKeyViolation:
			return apierr.New(http.StatusConflict, CodeConflict, fmt.Errorf("%s still referenced: %w", what, err))
		case pgCheckViolation:
			return apierr.New(http.StatusBadRequest, CodeValidation, fmt.Errorf("%s: %w", what, err))
		case pgQueryCanceled:
			return apierr.New(http.StatusGatewayTimeout, CodeTimeout, fmt.Errorf("%s: %w", what, err))
		}
	}
	return apierr.New(http.StatusInternalServerError, CodeInsertFailed, fmt.Errorf("%s: %w", what, err))
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
