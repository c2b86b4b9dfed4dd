package middleware

import "errors"

var (
	errMissingToken = errors.New("missing or invalid token")
	errForbidden    = errors.New("forbidden")
	errAdminOnly    = errors.New("admin access required")
)
