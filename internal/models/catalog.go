package models

// Language is one entry of the supported response-language catalog.
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Languages lists the natural languages the AI service can respond in.
var Languages = []Language{
	{Code: "English", Name: "English"},
	{Code: "Telugu", Name: "తెలుగు (Telugu)"},
	{Code: "Spanish", Name: "Español"},
	{Code: "French", Name: "Français"},
	{Code: "German", Name: "Deutsch"},
	{Code: "Chinese", Name: "中文"},
	{Code: "Japanese", Name: "日本語"},
	{Code: "Hindi", Name: "हिन्दी"},
	{Code: "Portuguese", Name: "Português"},
	{Code: "Arabic", Name: "العربية"},
}

// BaseVoice describes one synthesizer voice identity for selection UIs.
type BaseVoice struct {
	ID          VoiceID `json:"id"`
	Label       string  `json:"label"`
	Description string  `json:"description"`
}

// BaseVoices lists the fixed voice enumeration with display metadata.
var BaseVoices = []BaseVoice{
	{ID: VoiceKore, Label: "Female Soft", Description: "Calm and steady narrator"},
	{ID: VoiceCharon, Label: "Male Deep", Description: "Authoritative teacher tone"},
	{ID: VoicePuck, Label: "Youthful", Description: "Energetic and friendly"},
	{ID: VoiceZephyr, Label: "Neutral Professional", Description: "Clear and concise delivery"},
	{ID: VoiceFenrir, Label: "Warm", Description: "Comforting storytelling voice"},
}
