package main

// GlobalFlags holds the persistent flags shared by every command.
type GlobalFlags struct {
	ConfigPath string // optional TOML config file
	Verbose    bool   // debug-level logging
	JSON       bool   // machine-readable status/health output
}

// defaultLogLines is how many lines `logs` prints when no count is given.
const defaultLogLines = 50
