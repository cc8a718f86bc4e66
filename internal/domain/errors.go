package domain

import "errors"

var (
	// ErrConfiguration: a required upstream credential is missing or rejected.
	ErrConfiguration = errors.New("configuration error")
	// ErrValidation: missing/invalid request parameters or an invalid deck.
	ErrValidation = errors.New("validation error")
	// ErrUpstream: network or upstream service failure.
	ErrUpstream = errors.New("upstream failure")
	// ErrStorageCorruption: a persisted record could not be decoded. Recovered locally.
	ErrStorageCorruption = errors.New("storage corruption")
	// ErrStorage: the durable backend could not be read or written.
	ErrStorage                = errors.New("storage failure")
	ErrGeolocationUnavailable = errors.New("geolocation unavailable")
	ErrNotFound               = errors.New("not found")
)
