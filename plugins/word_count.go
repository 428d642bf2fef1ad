//go:build deskpilot

// word_count is a script plugin: enable it with
//
//	plugins:
//	  enabled: true
//	  enabled_plugins: [word_count]
//
// and ask the model to include "plugins": ["word_count"] in its reply.
package main

import (
	"strings"
	"unicode/utf8"
)

const Description = "Counts the words and characters of the spoken question."

func Execute(ctx map[string]interface{}) (map[string]interface{}, error) {
	q, _ := ctx["question"].(string)
	return map[string]interface{}{
		"words":      len(strings.Fields(q)),
		"characters": utf8.RuneCountInString(q),
	}, nil
}
