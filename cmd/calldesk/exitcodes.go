package main

// Exit codes for all calldesk commands.
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (unreadable config, unknown key)
	ExitDataError   = 3 // Data error (validation failure, unreadable data file)
	ExitNotFound    = 4 // No call with the requested id
)
