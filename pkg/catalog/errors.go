package catalog

import "errors"

var (
	ErrMovieNotFound  = errors.New("catalog: movie not found")
	ErrGenreNotFound  = errors.New("catalog: genre not found")
	ErrReviewNotFound = errors.New("catalog: review not found")
	ErrInvalidEvent   = errors.New("catalog: invalid analytics event")
	ErrSettingMissing = errors.New("catalog: setting not found")
)
