package graphstore

import (
	"github.com/cenkalti/backoff/v4"
	"github.com/memgraph/memgraph/logger"
)

// RetryTransient runs op, retrying it once after an exponential-backoff
// delay if op's error is classified transient by memerr.IsTransient. Backends that already serialize all access (memstore)
// never need this; it exists for drivers whose serializable-isolation
// transactions can return a transient conflict under contention.
func RetryTransient(op func() error, isTransient func(error) bool) error {
	b := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 1)
	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		err := op()
		if err == nil {
			return nil
		}
		if isTransient(err) {
			logger.TraceIf("store", "transient error on attempt %d: %v", attempt, err)
			return err
		}
		return backoff.Permanent(err)
	}, b)
}
