// Package response turns raw model output into a structured answer and
// hands its side effects to an action runner.
package response

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DefaultSpeech is spoken when a structured reply carries no speech field.
const DefaultSpeech = "I've processed your request but don't have anything specific to say."

// Note is the "notes" field of a reply.
type Note struct {
	Title   string `json:"title,omitempty"`
	Content string `json:"content"`
}

// Macro is the "macro" field of a reply.
type Macro struct {
	Keys        string `json:"keys"`
	Description string `json:"description,omitempty"`
}

// Parsed is the typed view of a structured reply. Fields with the wrong
// shape are left empty rather than failing the whole reply.
type Parsed struct {
	Speech    string         `json:"speech"`
	Clipboard string         `json:"clipboard,omitempty"`
	Notes     *Note          `json:"notes,omitempty"`
	Macro     *Macro         `json:"macro,omitempty"`
	Plugins   []string       `json:"plugins,omitempty"`
	Fields    map[string]any `json:"-"`

	// HasSpeech is false when the reply omitted speech and DefaultSpeech
	// was substituted.
	HasSpeech bool `json:"-"`
}

// Parse validates an extracted JSON object into a Parsed reply.
func Parse(obj map[string]any) *Parsed {
	p := &Parsed{Fields: obj}

	if s, ok := obj["speech"]; ok && s != nil {
		p.Speech = stringify(s)
		p.HasSpeech = true
	} else {
		p.Speech = DefaultSpeech
	}

	if s, ok := obj["clipboard"].(string); ok {
		p.Clipboard = s
	}

	if m, ok := obj["notes"].(map[string]any); ok {
		n := &Note{}
		n.Title, _ = m["title"].(string)
		n.Content, _ = m["content"].(string)
		if n.Content != "" {
			p.Notes = n
		}
	}

	if m, ok := obj["macro"].(map[string]any); ok {
		mc := &Macro{}
		mc.Keys, _ = m["keys"].(string)
		mc.Description, _ = m["description"].(string)
		if strings.TrimSpace(mc.Keys) != "" {
			p.Macro = mc
		}
	}

	switch v := obj["plugins"].(type) {
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				p.Plugins = append(p.Plugins, s)
			}
		}
	case string:
		if v != "" {
			p.Plugins = []string{v}
		}
	}
	return p
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

// Action records a side effect that was carried out.
type Action struct {
	Type        string `json:"type"`
	Content     string `json:"content,omitempty"`
	Title       string `json:"title,omitempty"`
	Keys        string `json:"keys,omitempty"`
	Description string `json:"description,omitempty"`
}

// Action types.
const (
	ActionClipboard = "clipboard"
	ActionNotes     = "notes"
	ActionMacro     = "macro"
)

// Result is the processed reply.
type Result struct {
	Speech     string   `json:"speech"`
	Raw        string   `json:"raw_response"`
	Structured bool     `json:"structured"`
	Actions    []Action `json:"actions_performed"`
	Parsed     *Parsed  `json:"parsed,omitempty"`

	// PluginResults is filled by the caller after plugin dispatch.
	PluginResults map[string]any `json:"plugin_results,omitempty"`
}

// Map returns a detached copy of r for handing to plugins. It holds only
// plain values, so storing plugin output back on r cannot make r refer to
// itself.
func (r *Result) Map() map[string]any {
	actions := make([]any, 0, len(r.Actions))
	for _, a := range r.Actions {
		m := map[string]any{"type": a.Type}
		for k, v := range map[string]string{
			"content":     a.Content,
			"title":       a.Title,
			"keys":        a.Keys,
			"description": a.Description,
		} {
			if v != "" {
				m[k] = v
			}
		}
		actions = append(actions, m)
	}

	out := map[string]any{
		"speech":            r.Speech,
		"raw_response":      r.Raw,
		"structured":        r.Structured,
		"actions_performed": actions,
	}
	if r.Parsed != nil {
		fields := make(map[string]any, len(r.Parsed.Fields))
		for k, v := range r.Parsed.Fields {
			fields[k] = v
		}
		out["parsed"] = fields
	}
	return out
}
