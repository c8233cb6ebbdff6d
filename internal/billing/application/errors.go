package application

import (
	"errors"
	"fmt"
)

// ErrDependencyUnavailable marks failures caused by an unreachable
// collaborator (contract store, ledger, cache). Aggregations fail atomically:
// no partial summary is ever returned alongside this error.
var ErrDependencyUnavailable = errors.New("dependency unavailable")

func dependencyError(resource string, err error) error {
	return fmt.Errorf("%s: %w: %w", resource, ErrDependencyUnavailable, err)
}
