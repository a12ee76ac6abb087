// Package elevation reports whether the current process runs with
// administrative privileges.
package elevation
