package mongo

import "errors"

var (
	ErrFailedToConnectToMongo = errors.New("failed to connect to mongo")
	ErrEmptyConnectionURL     = errors.New("empty mongo connection URL")
	ErrHealthcheckFailed      = errors.New("mongo healthcheck failed")
	ErrEmptyKey               = errors.New("empty snapshot key")
	ErrLoadSnapshot           = errors.New("failed to load snapshot from mongo")
	ErrSaveSnapshot           = errors.New("failed to save snapshot to mongo")
)
