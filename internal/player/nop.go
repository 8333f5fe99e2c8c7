package player

import "context"

// Nop is an [Element] that accepts everything and plays nothing.
type Nop struct{}

func (Nop) Load(context.Context, string) error { return nil }
func (Nop) Play(context.Context) error { return nil }
func (Nop) Pause(context.Context) error { return nil }
func (Nop) Close() error { return nil }
