// Package kvstore implements the key-value port the portal persists its state through.
//
// The port is fiber.Storage, so every gofiber/storage driver plugs in. Table
// adds a gorm-backed implementation, Save and Load add JSON encoding on top
// of any implementation:
//
//	_ = kvstore.Save(kv, KeyMessages, messages)
//	messages = kvstore.Load(kv, KeyMessages, []models.Message{})
//
// Load never fails. An absent key, a storage error or a value that does not
// decode all yield the fallback.
package kvstore
