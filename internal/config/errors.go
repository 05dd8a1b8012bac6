package config

import "errors"

var (
	ErrNoAPIURL            = errors.New("invalid config: api_url must be set")
	ErrInvalidLengthBounds = errors.New("invalid config: scan length bounds must be positive with min_length < max_length")
	ErrNegativeDuration    = errors.New("invalid config: durations must be non-negative")
	ErrInvalidDispatchMode = errors.New("invalid config: dispatch.mode must be handshake or delay")
	ErrInvalidProfile      = errors.New("invalid config: each profile needs hosts, a valid container selector and a known kind")
)
