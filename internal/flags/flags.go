package flags

// Centralized definitions for CLI flags used across the application

const (
	// Force flags bypass the interactive confirmation prompt for the release;
	// orchestrated (non-interactive) runs always pass it
	Force      = "force"
	ForceShort = "f"

	// Debug flags are used to enable verbose logging
	Debug      = "debug"
	DebugShort = "d"

	// Workers overrides the configured size of the migration worker pool
	Workers = "workers"

	// Deadline overrides the configured overall run deadline
	Deadline = "deadline"
)
