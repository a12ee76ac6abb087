package main

import (
	"errors"
	"sort"

	cmap "github.com/orcaman/concurrent-map/v2"

	"github.com/srediag/quicklaunch/api"
)

var errDuplicateModule = errors.New("module key already registered")

// registry holds the loaded modules by key.
type registry struct {
	modules cmap.ConcurrentMap[string, api.Module]
}

func newRegistry() *registry {
	return &registry{modules: cmap.New[api.Module]()}
}

func (r *registry) add(m api.Module) error {
	if !r.modules.SetIfAbsent(m.Key(), m) {
		return errDuplicateModule
	}
	return nil
}

func (r *registry) get(key string) (api.Module, bool) {
	return r.modules.Get(key)
}

func (r *registry) remove(key string) {
	r.modules.Remove(key)
}

// keys returns the registered keys in order.
func (r *registry) keys() []string {
	keys := r.modules.Keys()
	sort.Strings(keys)
	return keys
}
