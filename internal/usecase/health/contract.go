package health

import "context"

// Checker probes one component.
type Checker interface {
	Name() string
	Check(ctx context.Context) error
}

// CheckerFunc adapts a function to the Checker interface.
type CheckerFunc struct {
	ComponentName string
	Fn            func(ctx context.Context) error
}

// Name returns the component name.
func (c CheckerFunc) Name() string { return c.ComponentName }

// Check runs the probe.
func (c CheckerFunc) Check(ctx context.Context) error { return c.Fn(ctx) }
