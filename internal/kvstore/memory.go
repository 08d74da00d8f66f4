package kvstore

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/storage/memory/v2"
)

// NewMemory returns a process local storage. Its content is lost on restart.
func NewMemory() fiber.Storage {
	return memory.New()
}
