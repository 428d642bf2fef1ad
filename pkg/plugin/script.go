package plugin

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// BuildTag is set when interpreting script plugins.
const BuildTag = "deskpilot"

type executeFunc = func(map[string]interface{}) (map[string]interface{}, error)

// script is a plugin interpreted from a Go source file.
type script struct {
	name        string
	description string
	initialize  func() error
	execute     executeFunc
}

// loadScript interprets the file at path.
func loadScript(path string) (*script, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plugin: %w", err)
	}

	i := interp.New(interp.Options{BuildTags: []string{BuildTag}})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("load stdlib: %w", err)
	}
	if _, err := i.Eval(string(src)); err != nil {
		return nil, fmt.Errorf("evaluate %s: %w", filepath.Base(path), err)
	}

	v, err := i.Eval("main.Execute")
	if err != nil {
		return nil, fmt.Errorf("Execute not found: %w", err)
	}
	exec, ok := v.Interface().(executeFunc)
	if !ok {
		return nil, fmt.Errorf("Execute has signature %s, want func(map[string]interface{}) (map[string]interface{}, error)", v.Type())
	}

	s := &script{
		name:        strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		description: "No description available",
		execute:     exec,
	}
	if v, err := i.Eval("main.Initialize"); err == nil {
		if fn, ok := v.Interface().(func() error); ok {
			s.initialize = fn
		}
	}
	if v, err := i.Eval("main.Description"); err == nil && v.Kind() == reflect.String {
		s.description = v.String()
	}
	return s, nil
}

func (s *script) Name() string        { return s.name }
func (s *script) Description() string { return s.description }

func (s *script) Initialize() error {
	if s.initialize == nil {
		return nil
	}
	return s.initialize()
}

func (s *script) Execute(ctx context.Context, in Context) (map[string]any, error) {
	return s.execute(map[string]interface{}(in))
}
