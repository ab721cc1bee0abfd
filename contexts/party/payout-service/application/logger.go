package application

import "log/slog"

const ModuleName = "party/payout-service"

func ResolveLogger(logger *slog.Logger, layer string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With("module", ModuleName, "layer", layer)
}
