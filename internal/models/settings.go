package models

// BotSettings is the bot's operational configuration: a set of known
// fields plus whatever extra keys the dashboard decides to store. It is
// an open record replaced wholesale on write, so it stays a plain map
// rather than a struct that would silently drop unknown keys.
type BotSettings map[string]any

// Well-known settings keys.
const (
	SettingSystemPrompt        = "systemPrompt"
	SettingConfidenceThreshold = "confidenceThreshold"
	SettingSupportChannelID    = "supportChannelId"
	SettingSolvedTagID         = "solvedTagId"
	SettingAutoRespondEnabled  = "autoRespondEnabled"
)

// String returns the string value for key, or fallback when the key is
// absent or holds a non-string value.
func (s BotSettings) String(key, fallback string) string {
	if v, ok := s[key].(string); ok {
		return v
	}
	return fallback
}

// Float returns the numeric value for key, or fallback. JSON numbers
// decode as float64, so that is the only numeric type checked.
func (s BotSettings) Float(key string, fallback float64) float64 {
	if v, ok := s[key].(float64); ok {
		return v
	}
	return fallback
}

// Bool returns the boolean value for key, or fallback.
func (s BotSettings) Bool(key string, fallback bool) bool {
	if v, ok := s[key].(bool); ok {
		return v
	}
	return fallback
}

// Clone returns a shallow copy so callers can mutate without aliasing
// the snapshot held by the store.
func (s BotSettings) Clone() BotSettings {
	out := make(BotSettings, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}
