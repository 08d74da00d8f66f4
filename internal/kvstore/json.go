package kvstore

import (
	"encoding/json"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// Save JSON-encodes value and stores it under key without expiry.
func Save(s fiber.Storage, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("kvstore: encode %s: %w", key, err)
	}

	if err = s.Set(key, data, 0); err != nil {
		return fmt.Errorf("kvstore: write %s: %w", key, err)
	}

	return nil
}

// Load decodes the value stored under key, or returns fallback when the key is
// absent, unreadable or holds something that does not decode into T.
func Load[T any](s fiber.Storage, key string, fallback T) T {
	data, err := s.Get(key)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("kvstore: read failed, using fallback")

		return fallback
	}

	if len(data) == 0 {
		return fallback
	}

	var out T
	if err = json.Unmarshal(data, &out); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("kvstore: corrupt value, using fallback")

		return fallback
	}

	return out
}
