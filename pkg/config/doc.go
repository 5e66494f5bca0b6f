// Package config loads dental-idm configuration from the environment.
//
// Every section is a plain struct with cleanenv tags, so the full
// configuration is read in one call:
//
//	cfg, err := config.Load(".env")
//	if err != nil {
//		slog.Error("Failed to read configuration", "error", err)
//		os.Exit(1)
//	}
//
// Load tolerates a missing .env file. Values cleanenv can not check by
// itself (URLs, enum values, positive durations) are checked by
// Config.Validate and reported together as ValidationErrors.
//
// The GetEnv* helpers remain for code that reads a single variable outside
// of the Config struct, for example in tests and small tools.
package config
