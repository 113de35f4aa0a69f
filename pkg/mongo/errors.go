package mongo

import "errors"

var (
	ErrNotConfigured          = errors.New("mongo connection URL is not configured")
	ErrFailedToConnectToMongo = errors.New("failed to connect to mongo")
	ErrHealthcheckFailed      = errors.New("mongo healthcheck failed")
)
