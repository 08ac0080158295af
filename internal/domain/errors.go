package domain

import "errors"

var (
	ErrSurveyNotFound   = errors.New("survey not found")
	ErrInvalidQuestion  = errors.New("question must not be empty")
	ErrInvalidChoice    = errors.New("unrecognized vote choice")
	ErrInvalidSurveyID  = errors.New("survey id must be a positive integer")
	ErrStoreUnavailable = errors.New("store unavailable")
)
