package adapter

import (
	"context"
	"errors"
	"log/slog"
)

// WithConnection runs fn inside a single connection scope: it creates the
// adapter for cfg, connects, invokes fn, and closes the connection whether
// fn succeeds or fails. fn's error propagates to the caller unchanged; a
// close failure is joined onto it so neither is lost.
func WithConnection(ctx context.Context, cfg Config, logger *slog.Logger, fn func(Adapter) error) error {
	a, err := New(cfg, logger)
	if err != nil {
		return err
	}

	if err := a.Connect(ctx, cfg); err != nil {
		return err
	}

	fnErr := fn(a)
	if closeErr := a.Close(); closeErr != nil {
		return errors.Join(fnErr, closeErr)
	}
	return fnErr
}
