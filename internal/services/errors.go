// Package services defines the business logic for outfit recommendations,
// ratings, preference learning, and the closet itself. This file centralizes
// common service-level error values so that they can be consistently
// returned by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and translation
// into user-facing messages or HTTP status codes should be performed at the
// handler/controller layer.
package services

import "errors"

// Recommendation errors.
var (
	// ErrNoCategories is returned when a generation request names no category.
	ErrNoCategories = errors.New("at least one category is required")

	// ErrUnknownCategory is returned when a requested category does not exist.
	ErrUnknownCategory = errors.New("unknown category")

	// ErrInvalidOccasion is returned for an occasion outside the known set.
	ErrInvalidOccasion = errors.New("invalid occasion")

	// ErrInvalidWeather is returned for a weather outside the known set.
	ErrInvalidWeather = errors.New("invalid weather")

	// ErrRecommendationNotFound indicates that the recommendation does not
	// exist or belongs to another user.
	ErrRecommendationNotFound = errors.New("recommendation not found")

	// ErrGarmentNotInOutfit is returned when a rating names a garment that
	// was not part of the rated outfit.
	ErrGarmentNotInOutfit = errors.New("garment is not part of the outfit")
)

// Closet errors.
var (
	// ErrGarmentNotFound indicates that the garment does not exist or belongs
	// to another user.
	ErrGarmentNotFound = errors.New("garment not found")

	// ErrEmptyName is returned when a garment is created without a name.
	ErrEmptyName = errors.New("name is empty")

	// ErrTooLong is returned when a free-text field exceeds its limit.
	ErrTooLong = errors.New("field too long")

	// ErrTooManyTags is returned when a garment carries more distinct tags
	// than allowed.
	ErrTooManyTags = errors.New("too many tags")
)
