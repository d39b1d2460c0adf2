//go:build !linux

package main

import (
	"context"
	"errors"
)

// Run is a stub on non-Linux platforms; the lirc chardev is Linux-only.
func (s *LIRCSource) Run(ctx context.Context) error {
	return errors.New("lirc device source: not supported on this platform")
}
