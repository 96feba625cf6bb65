//go:build !linux

package hotkey

import "context"

type EvdevSource struct{}

func NewEvdevSource(devicePath string) *EvdevSource { return &EvdevSource{} }

func (s *EvdevSource) Start(ctx context.Context, h Handler) error { return ErrUnsupported }

func (s *EvdevSource) Close() error { return nil }
