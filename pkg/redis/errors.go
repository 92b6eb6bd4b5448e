package redis

import "errors"

var (
	ErrFailedToParseRedisConnString = errors.New("failed to parse redis connection string")
	ErrRedisNotReady                = errors.New("redis did not become ready within the given time period")
	ErrEmptyConnectionURL           = errors.New("empty redis connection URL")
	ErrHealthcheckFailed            = errors.New("redis healthcheck failed")
	ErrEmptyKey                     = errors.New("empty redis snapshot key")
	ErrLoadSnapshot                 = errors.New("failed to load snapshot from redis")
	ErrSaveSnapshot                 = errors.New("failed to save snapshot to redis")
)
