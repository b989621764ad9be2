// Package health aggregates dependency checks for the readiness probe.
package health

import (
	"context"
	"reflect"

	"github.com/servicekit/go-service-template/domain/interfaces"
	"github.com/servicekit/go-service-template/errors"
)

// CheckReadiness runs every configured checker in order and returns the
// first failure wrapped in ErrServiceUnavailable. Nil checkers are optional
// dependencies that are switched off and are skipped.
func CheckReadiness(ctx context.Context, checkers ...interfaces.HealthChecker) error {
	for _, checker := range checkers {
		if isNil(checker) {
			continue
		}
		if err := checker.HealthCheck(ctx); err != nil {
			return errors.WithSecondaryError(errors.Wrap(errors.ErrServiceUnavailable, err.Error()), err)
		}
	}
	return nil
}

func isNil(checker interfaces.HealthChecker) bool {
	if checker == nil {
		return true
	}
	v := reflect.ValueOf(checker)
	return v.Kind() == reflect.Ptr && v.IsNil()
}
