package service

import "errors"

var (
	ErrMissingFields    = errors.New("missing required fields")
	ErrEmptyAnswer      = errors.New("answer must not be empty")
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionClosed    = errors.New("session is no longer accepting input")
	ErrConcurrentUpdate = errors.New("session was modified by another request")
	ErrSurveyNotFound   = errors.New("survey not found")
	ErrSurveyClosed     = errors.New("survey is closed")
	ErrInvalidSurvey    = errors.New("survey needs a title and at least one question")
	ErrForbidden        = errors.New("not allowed to access this resource")
	ErrNoResponses      = errors.New("no responses found for this session")
)
