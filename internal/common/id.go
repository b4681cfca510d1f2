package common

import (
	"github.com/google/uuid"
)

// NewSessionID generates a unique document session ID with the "ses_" prefix.
// Format: ses_<uuid>
func NewSessionID() string {
	return "ses_" + uuid.New().String()
}
