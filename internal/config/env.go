package config

import "os"

// applyEnv fills secrets from the environment when the file leaves them
// empty. The raw mapping is kept in sync so Get sees the same values.
func (c *Config) applyEnv() {
	for _, name := range []string{"gemini", "openai"} {
		p := c.Models.Providers[name]
		if p.APIKey != "" {
			continue
		}
		var key string
		switch name {
		case "gemini":
			key = firstEnv("GEMINI_API_KEY", "GOOGLE_API_KEY")
			if key == "" {
				key = c.AI.APIKey
			}
		case "openai":
			key = os.Getenv("OPENAI_API_KEY")
		}
		if key == "" {
			continue
		}
		p.APIKey = key
		c.Models.Providers[name] = p
		c.set(key, "models", "providers", name, "api_key")
	}

	if c.Speech.STT.APIKey == "" {
		var key string
		switch c.Speech.STT.Engine {
		case "openai":
			key = os.Getenv("OPENAI_API_KEY")
		default:
			key = os.Getenv("GROQ_API_KEY")
		}
		if key != "" {
			c.Speech.STT.APIKey = key
			c.set(key, "speech", "stt", "api_key")
		}
	}

	if c.Speech.TTS.APIKey == "" {
		if key := ttsEnvKey(c.Speech.TTS.Engine); key != "" {
			c.Speech.TTS.APIKey = key
			c.set(key, "speech", "tts", "api_key")
		}
	}
	if c.Speech.TTS.Fallback != "" && c.Speech.TTS.FallbackAPIKey == "" {
		if key := ttsEnvKey(c.Speech.TTS.Fallback); key != "" {
			c.Speech.TTS.FallbackAPIKey = key
			c.set(key, "speech", "tts", "fallback_api_key")
		}
	}

	if v := os.Getenv("GOOGLE_CLIENT_ID"); v != "" && c.Google.ClientID == "" {
		c.Google.ClientID = v
	}
	if v := os.Getenv("GOOGLE_CLIENT_SECRET"); v != "" && c.Google.ClientSecret == "" {
		c.Google.ClientSecret = v
	}
}

func ttsEnvKey(engine string) string {
	if engine == "elevenlabs" {
		return os.Getenv("ELEVENLABS_API_KEY")
	}
	return os.Getenv("OPENAI_API_KEY")
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
