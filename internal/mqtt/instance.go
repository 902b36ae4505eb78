package mqtt

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const instanceIDFile = "instance_id"

// LoadOrCreateInstanceID returns the device's stable identifier, reading
// it from dataDir or generating and persisting a new UUIDv7. It names the
// MQTT client and keys mirrored status messages. If the ID cannot be
// persisted the generated ID is still returned alongside the error.
func LoadOrCreateInstanceID(dataDir string) (string, error) {
	path := filepath.Join(dataDir, instanceIDFile)

	data, err := os.ReadFile(path)
	if err == nil {
		id := strings.TrimSpace(string(data))
		if id != "" {
			return id, nil
		}
	}

	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate instance ID: %w", err)
	}

	idStr := id.String()
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return idStr, fmt.Errorf("create data dir %s: %w", dataDir, err)
	}

	if err := os.WriteFile(path, []byte(idStr+"\n"), 0644); err != nil {
		return idStr, fmt.Errorf("persist instance ID to %s: %w", path, err)
	}

	return idStr, nil
}
