package main

// Exit codes used by all cs commands.
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (unreadable config file)
	ExitAPIError    = 3 // Both source APIs failed
)
