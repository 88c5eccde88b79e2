package notify

import (
	"context"
	"errors"
)

var ErrDisabled = errors.New("telegram notifier disabled")

// Disabled stands in when no bot token is configured. Sends and file
// lookups fail with ErrDisabled; the pipeline treats that like any
// other notify failure.
type Disabled struct{}

func NewDisabled() *Disabled {
	return &Disabled{}
}

func (Disabled) Send(_ context.Context, _, _ string) (int, error) {
	return 0, ErrDisabled
}

func (Disabled) FileURL(_ string) (string, error) {
	return "", ErrDisabled
}
