// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/lockforge/internal/adapters/conda"
	_ "go.trai.ch/lockforge/internal/adapters/config"
	_ "go.trai.ch/lockforge/internal/adapters/lockfile"
	_ "go.trai.ch/lockforge/internal/adapters/logger"
	_ "go.trai.ch/lockforge/internal/adapters/pypi"
	_ "go.trai.ch/lockforge/internal/adapters/specfile"
	_ "go.trai.ch/lockforge/internal/adapters/telemetry"
	_ "go.trai.ch/lockforge/internal/adapters/virtual"
	// Register app and engine nodes.
	_ "go.trai.ch/lockforge/internal/app"
	_ "go.trai.ch/lockforge/internal/engine/locker"
)
