package settings

import (
	"encoding/json"
	"errors"
	"fmt"
)

const defaultVersion = "1.0"

// ErrNotObject is returned for a settings document that is not a JSON object.
var ErrNotObject = errors.New("settings document is not a JSON object")

// Values is a module's persisted settings values document.
type Values struct {
	Name       string          `json:"name"`
	Version    string          `json:"version"`
	Properties json.RawMessage `json:"properties,omitempty"`
}

// ValuesFromJSON parses a values document sent by the settings editor and
// binds it to moduleKey.
func ValuesFromJSON(doc []byte, moduleKey string) (*Values, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(doc, &raw); err != nil {
		return nil, fmt.Errorf("parse values: %w", err)
	}
	if raw == nil {
		return nil, ErrNotObject
	}
	v := &Values{Name: moduleKey, Version: defaultVersion}
	if ver, ok := raw["version"]; ok {
		if err := json.Unmarshal(ver, &v.Version); err != nil {
			return nil, fmt.Errorf("parse version: %w", err)
		}
	}
	if props, ok := raw["properties"]; ok {
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(props, &probe); err != nil {
			return nil, fmt.Errorf("parse properties: %w", err)
		}
		v.Properties = props
	}
	return v, nil
}

// JSON returns the document form used by ParseHotkey and the store.
func (v *Values) JSON() ([]byte, error) {
	return json.Marshal(v)
}
