package settings

import (
	"encoding/json"
	"fmt"

	"github.com/valyala/bytebufferpool"
)

// Page is the settings page document a module returns from Config.
type Page struct {
	Name         string                     `json:"name"`
	Version      string                     `json:"version"`
	Description  string                     `json:"description,omitempty"`
	OverviewLink string                     `json:"overview_link,omitempty"`
	Properties   map[string]json.RawMessage `json:"properties"`
}

// NewPage returns an empty page for the named module.
func NewPage(name string) *Page {
	return &Page{
		Name:       name,
		Version:    defaultVersion,
		Properties: map[string]json.RawMessage{},
	}
}

// AddHotkey adds a hotkey property with a display label.
func (p *Page) AddHotkey(key, label string, value any) error {
	doc, err := json.Marshal(struct {
		Value        any    `json:"value"`
		EditorType   string `json:"editor_type"`
		DisplayLabel string `json:"display_name"`
	}{value, "hotkey", label})
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	p.Properties[key] = doc
	return nil
}

// Serialize encodes the page.
func (p *Page) Serialize() ([]byte, error) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	if err := json.NewEncoder(buf).Encode(p); err != nil {
		return nil, fmt.Errorf("encode settings page: %w", err)
	}
	out := make([]byte, buf.Len())
	copy(out, buf.B)
	return out, nil
}
