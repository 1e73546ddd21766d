package domain

import "errors"

var (
	ErrUnknownLabel     = errors.New("unknown sentiment label")
	ErrInvalidScore     = errors.New("confidence score outside [0, 1]")
	ErrEmptyPrediction  = errors.New("classifier returned no predictions")
	ErrClassifierClosed = errors.New("classifier is closed")
)
