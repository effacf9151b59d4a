package fuelroute

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingInput is returned when the start or end location is absent,
	// or both name the same place.
	ErrMissingInput = errors.New("start and end locations are required")

	// ErrProviderFailure matches any *ProviderError.
	ErrProviderFailure = errors.New("route provider failure")
)

// ProviderError reports a non-OK status from the mapping provider.
type ProviderError struct {
	Status  string
	Message string
}

func (e *ProviderError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("route provider returned status %s", e.Status)
	}
	return fmt.Sprintf("route provider returned status %s: %s", e.Status, e.Message)
}

func (e *ProviderError) Is(target error) bool {
	return target == ErrProviderFailure
}
