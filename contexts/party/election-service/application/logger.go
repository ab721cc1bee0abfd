package application

import "log/slog"

const ModuleName = "party/election-service"

// ResolveLogger returns a logger scoped to this module and the given layer,
// falling back to the process default when none was wired.
func ResolveLogger(logger *slog.Logger, layer string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With("module", ModuleName, "layer", layer)
}
