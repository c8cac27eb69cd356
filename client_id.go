package mqttc

import (
	"strings"

	"github.com/google/uuid"
)

// generateClientID produces a random client identifier when the caller
// leaves WithClientID unset. MQTT brokers commonly cap client identifiers
// at 23 bytes (the MQTT 3.1.1 minimum-support length), so a UUIDv4 has its
// hyphens stripped and is truncated to MaxClientIDLength.
func generateClientID() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	if len(id) > MaxClientIDLength {
		id = id[:MaxClientIDLength]
	}
	return id
}
