package tts

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownVoice is returned for an OpenAI voice name the API does not offer.
var ErrUnknownVoice = errors.New("tts: unknown voice")

const (
	defaultOpenAIVoice     = "alloy"
	defaultElevenLabsVoice = "rachel"
)

// openAIVoices are the voices of the OpenAI speech endpoint.
var openAIVoices = map[string]bool{
	"alloy": true, "ash": true, "coral": true, "echo": true, "fable": true,
	"nova": true, "onyx": true, "sage": true, "shimmer": true,
}

// elevenLabsVoices maps the premade ElevenLabs voices to their IDs.
// speech.tts.voice may also carry any other voice ID verbatim.
var elevenLabsVoices = map[string]string{
	"rachel":    "21m00Tcm4TlvDq8ikWAM",
	"domi":      "AZnzlk1XvdvUeBnXmlld",
	"sarah":     "EXAVITQu4vr4xnSDxMaL",
	"elli":      "MF3mGyEYCl7XYWbV9V6O",
	"josh":      "TxGEqnHWrfWFTfGW9XjX",
	"adam":      "pNInz6obpgDQGcFmaJgB",
	"sam":       "yoZ06aMxZJJ28mfd3POQ",
	"charlotte": "XB0fDUnXU5powFXDhCwa",
	"lily":      "pFZP5JQG7iQjIQuC4Bku",
}

// resolveVoice maps speech.tts.voice to what engine expects. An empty name,
// or a name that belongs to the other engine, selects the engine's default
// so a fallback engine can share one voice setting.
func resolveVoice(engine, name string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(name))

	switch engine {
	case providerOpenAI:
		switch {
		case key == "":
			return defaultOpenAIVoice, nil
		case openAIVoices[key]:
			return key, nil
		case elevenLabsVoices[key] != "":
			return defaultOpenAIVoice, nil
		}
		return "", fmt.Errorf("%w: %q (have %s)", ErrUnknownVoice, name, strings.Join(Voices(providerOpenAI), ", "))

	case providerElevenLabs:
		if key == "" || openAIVoices[key] {
			key = defaultElevenLabsVoice
		}
		if id, ok := elevenLabsVoices[key]; ok {
			return id, nil
		}
		return strings.TrimSpace(name), nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedEngine, engine)
}

// Voices lists the named voices of engine, sorted.
func Voices(engine string) []string {
	var names []string
	switch strings.ToLower(engine) {
	case providerOpenAI:
		for n := range openAIVoices {
			names = append(names, n)
		}
	case providerElevenLabs:
		for n := range elevenLabsVoices {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	return names
}
