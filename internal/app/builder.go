package app

import (
	"go.trai.ch/lockforge/internal/core/ports"
)

// Components contains all the initialized application components.
// This struct provides controlled access to components needed by the CLI layer.
type Components struct {
	App    *App
	Logger ports.Logger
}

// NewComponents creates a new Components struct from dependencies.
func NewComponents(app *App, logger ports.Logger) *Components {
	return &Components{
		App:    app,
		Logger: logger,
	}
}

// outputConfigurer is implemented by loggers whose format can change after construction.
type outputConfigurer interface {
	SetJSON(enable bool)
	SetVerbose(enable bool)
}

// ConfigureLogging switches the logger to JSON or verbose output when it supports it.
func (c *Components) ConfigureLogging(json, verbose bool) {
	l, ok := c.Logger.(outputConfigurer)
	if !ok {
		return
	}
	if json {
		l.SetJSON(true)
	}
	if verbose {
		l.SetVerbose(true)
	}
}
