package models

import "time"

// VoiceID is one of the fixed set of synthesizer voice identities.
type VoiceID string

const (
	VoiceKore   VoiceID = "Kore"
	VoiceCharon VoiceID = "Charon"
	VoicePuck   VoiceID = "Puck"
	VoiceFenrir VoiceID = "Fenrir"
	VoiceZephyr VoiceID = "Zephyr"
)

// DefaultVoice is used whenever a persona references an unknown identity.
const DefaultVoice = VoiceKore

// KnownVoice reports whether id belongs to the fixed voice enumeration.
func KnownVoice(id VoiceID) bool {
	switch id {
	case VoiceKore, VoiceCharon, VoicePuck, VoiceFenrir, VoiceZephyr:
		return true
	}
	return false
}

// VoicePersona is a user-named alias for a synthesizer voice identity.
type VoicePersona struct {
	VoiceID    VoiceID `json:"voiceId"`
	CustomName string  `json:"customName"`
}

// UserProfile is the process-wide persisted user identity.
// The first persona in VoicePersonas is the default narrator.
type UserProfile struct {
	Name          string         `json:"name"`
	Photo         string         `json:"photo,omitempty"`
	TotalAnalyses int            `json:"totalAnalyses"`
	JoinedDate    time.Time      `json:"joinedDate"`
	VoicePersonas []VoicePersona `json:"voicePersonas"`
}

// NewDefaultProfile returns the profile seeded on first run.
func NewDefaultProfile() *UserProfile {
	return &UserProfile{
		Name:       "Explorer",
		JoinedDate: time.Now(),
		VoicePersonas: []VoicePersona{
			{VoiceID: VoiceKore, CustomName: "Main Narrator"},
			{VoiceID: VoiceCharon, CustomName: "Head Mentor"},
		},
	}
}
