package api

// Lifecycle is the enable/disable part of the host contract. The host calls
// these serially from its own dispatch context; none of them reports an error.
type Lifecycle interface {
	Enable()
	Disable()
	IsEnabled() bool
	// Destroy tears the module down. The host drops its reference afterwards.
	Destroy()
}
