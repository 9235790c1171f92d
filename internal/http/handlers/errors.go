// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Codes are stable, lowercase snake_case strings returned in the error
// envelope (see fail in response.go). Clients branch on them; messages are
// for humans only.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "not_enough_garments",
//	  "message": "cannot build an outfit for this occasion and weather"
//	}
package handlers

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeForbidden    = "forbidden"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeRateLimited  = "too_many_requests"
	ErrCodeInternal     = "internal_error"

	// Domain-specific:
	ErrCodeValidation         = "validation_failed"
	ErrCodeInvalidOccasion    = "invalid_occasion"
	ErrCodeInvalidWeather     = "invalid_weather"
	ErrCodeUnknownCategory    = "unknown_category"
	ErrCodeNotEnoughGarments  = "not_enough_garments"
	ErrCodeGarmentNotInOutfit = "garment_not_in_outfit"
	ErrCodeGenerateFailed     = "generate_failed"
	ErrCodeRateFailed         = "rate_failed"
	ErrCodeCreateFailed       = "create_failed"
	ErrCodeListFailed         = "list_failed"
	ErrCodeMethodNotAllowed   = "method_not_allowed"
)
