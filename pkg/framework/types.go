package framework

import "context"

// Named is an abstraction for things with a name.
type Named interface {
	Name() string
}

// Runnable defines a generic interface for background runners.
type Runnable interface {
	Run(context.Context) error
}

// RunFunc is the func form of Runnable.
type RunFunc func(context.Context) error

// Run implements Runnable.
func (f RunFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// Controller is a task executed periodically by Loop.
type Controller interface {
	Control(context.Context) error
}

// ControlFunc defines the func form of Controller.
type ControlFunc func(context.Context) error

// Control implements Controller.
func (f ControlFunc) Control(ctx context.Context) error {
	return f(ctx)
}

// PriorityLevels is the total levels of priorities.
const PriorityLevels int = 16

// Predefine priority levels, lower runs first in an iteration.
const (
	PrLvTop    int = 0
	PrLvHigh   int = 4
	PrLvNormal int = 8
	PrLvLow    int = 12
	PrLvIdle   int = PriorityLevels - 1

	// PrLvSense is the alias of priority level for sensing the brick.
	PrLvSense = PrLvHigh
	// PrLvControl is the alias of priority level for commanding the brick.
	PrLvControl = PrLvNormal
	// PrLvPostProc is the alias of priority level for post-processing.
	PrLvPostProc = PrLvIdle - 1
)
