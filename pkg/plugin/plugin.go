// Package plugin runs named extensions requested by model responses.
//
// Builtin plugins are compiled in. Script plugins are Go source files in
// the plugins directory, interpreted with yaegi. A script declares
// package main and
//
//	func Execute(ctx map[string]interface{}) (map[string]interface{}, error)
//
// and may also declare func Initialize() error and const Description.
// Scripts should carry a "//go:build deskpilot" line so the Go toolchain
// skips them; the interpreter loads them with that tag set.
package plugin

import (
	"context"
	"errors"
)

// ErrDuplicate is returned when two plugins share a name.
var ErrDuplicate = errors.New("plugin: duplicate name")

// Context is the input passed to a plugin.
type Context map[string]any

// Plugin is an executable extension.
type Plugin interface {
	Name() string
	Description() string
	Initialize() error
	Execute(ctx context.Context, in Context) (map[string]any, error)
}

// Info describes a loaded plugin.
type Info struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Source      string `json:"source"`
}

// Sources reported in Info.
const (
	SourceBuiltin = "builtin"
	SourceScript  = "script"
)

// builtins maps names to constructors.
var builtins = map[string]func() Plugin{
	"example": func() Plugin { return &Example{} },
}

// Example echoes its input with a status and message.
type Example struct{}

func (*Example) Name() string        { return "example" }
func (*Example) Description() string { return "Example plugin that demonstrates the plugin architecture." }
func (*Example) Initialize() error   { return nil }

func (*Example) Execute(ctx context.Context, in Context) (map[string]any, error) {
	return map[string]any{
		"status":        "success",
		"message":       "Example plugin executed successfully",
		"input_context": map[string]any(in),
	}, nil
}
