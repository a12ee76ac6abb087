package settings

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidAction is returned for a custom action document without an
// action entry.
var ErrInvalidAction = errors.New("invalid custom action")

// CustomAction is a request from the settings editor, shaped as
// {"action": {"<module>": {"action_name": ..., "value": ...}}}.
type CustomAction struct {
	Module string `json:"-"`
	Name   string `json:"action_name"`
	Value  string `json:"value"`
}

// ParseCustomAction decodes a custom action document.
func ParseCustomAction(doc []byte) (CustomAction, error) {
	var d struct {
		Action map[string]CustomAction `json:"action"`
	}
	if err := json.Unmarshal(doc, &d); err != nil {
		return CustomAction{}, fmt.Errorf("parse action: %w", err)
	}
	for module, a := range d.Action {
		if a.Name == "" {
			break
		}
		a.Module = module
		return a, nil
	}
	return CustomAction{}, ErrInvalidAction
}
