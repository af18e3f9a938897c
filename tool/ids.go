package tool

import (
	"github.com/google/uuid"
)

func GenerateRandomUUID() string {
	return uuid.New().String()
}

// GenerateRequestID returns a short id used to correlate a fetch request
// with its log lines.
func GenerateRequestID() string {
	return GenerateRandomUUID()[:8]
}
