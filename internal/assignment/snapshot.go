package assignment

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/weathernow-service/internal/domain"
	"github.com/google/uuid"
)

// The snapshot format is a flat JSON object from canonical category name to
// photo id string, e.g. {"Clear":"6f1c...","Rain":"0b9e..."}.

func encodeSnapshot(m map[domain.WeatherCategory]uuid.UUID) ([]byte, error) {
	raw := make(map[string]string, len(m))
	for c, id := range m {
		raw[string(c)] = id.String()
	}
	blob, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("encode assignment snapshot: %w", err)
	}
	return blob, nil
}

// decodeSnapshot never fails: an undecodable blob is treated as empty, and
// entries with an unknown category or a malformed id are dropped.
func decodeSnapshot(blob []byte, logger *slog.Logger) map[domain.WeatherCategory]uuid.UUID {
	out := make(map[domain.WeatherCategory]uuid.UUID)

	var raw map[string]string
	if err := json.Unmarshal(blob, &raw); err != nil {
		logger.Warn("assignment snapshot is corrupt, starting empty", "error", err, "bytes", len(blob))
		return out
	}

	for name, value := range raw {
		c := domain.WeatherCategory(name)
		if !c.Valid() {
			logger.Warn("dropping assignment for unknown category", "category", name)
			continue
		}
		id, err := uuid.Parse(value)
		if err != nil {
			logger.Warn("dropping assignment with invalid photo id", "category", name, "photo_id", value)
			continue
		}
		out[c] = id
	}
	return out
}
