package api

// Health is implemented by modules that own a helper process.
type Health interface {
	// ProcessAlive reports whether the tracked helper process is running.
	ProcessAlive() bool
}
