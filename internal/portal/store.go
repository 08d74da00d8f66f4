// Package portal holds the messages, resources and announcements of the
// portal and keeps them in sync with the state storage.
package portal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/studentrep/portal/internal/blob"
	"github.com/studentrep/portal/internal/db/models"
	"github.com/studentrep/portal/internal/kvstore"
	"github.com/studentrep/portal/internal/metrics"
	"github.com/studentrep/portal/internal/uniuri"
)

// Keys of the collections in the state storage.
const (
	KeyMessages  = "sr_messages"
	KeyResources = "sr_resources"
	KeyInfos     = "sr_infos"
)

// Order selects how a collection is listed.
type Order int

const (
	// OldestFirst is insertion order.
	OldestFirst Order = iota
	// NewestFirst is reverse insertion order.
	NewestFirst
)

// Store keeps the three collections in memory and writes a collection back
// as a whole on every mutation.
type Store struct {
	mu        sync.RWMutex
	messages  []models.Message
	resources []models.Resource
	infos     []models.Info

	// gc is held shared from blob write to record commit and exclusively while
	// unreferenced blobs are removed.
	gc sync.RWMutex

	kv       fiber.Storage
	blobs    blob.Store
	validate *validator.Validate
	now      func() time.Time
	newID    func(prefix string) string
}

// New returns a store backed by kv and blobs, loaded with the persisted state.
func New(kv fiber.Storage, blobs blob.Store) *Store {
	s := &Store{
		kv:       kv,
		blobs:    blobs,
		validate: validator.New(),
		now:      time.Now,
		newID:    uniuri.NewID,
	}
	s.Reload()

	return s
}

// Reload replaces the in-memory collections with the persisted ones.
// Missing or corrupt collections load as empty.
func (s *Store) Reload() {
	messages := kvstore.Load(s.kv, KeyMessages, []models.Message{})
	resources := kvstore.Load(s.kv, KeyResources, []models.Resource{})
	infos := kvstore.Load(s.kv, KeyInfos, []models.Info{})

	s.mu.Lock()
	s.messages = nonNil(messages)
	s.resources = nonNil(resources)
	s.infos = nonNil(infos)
	s.mu.Unlock()

	log.Debug().
		Int("messages", len(messages)).
		Int("resources", len(resources)).
		Int("infos", len(infos)).
		Msg("portal state loaded")
}

// Messages lists the contact messages.
func (s *Store) Messages(order Order) []models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return ordered(s.messages, order)
}

// Resources lists the published files.
func (s *Store) Resources(order Order) []models.Resource {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return ordered(s.resources, order)
}

// Infos lists the announcements.
func (s *Store) Infos(order Order) []models.Info {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return ordered(s.infos, order)
}

// Message returns the message with id.
func (s *Store) Message(id string) (models.Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := slices.IndexFunc(s.messages, func(m models.Message) bool { return m.ID == id })
	if i < 0 {
		return models.Message{}, false
	}

	return s.messages[i], true
}

// Resource returns the resource with id.
func (s *Store) Resource(id string) (models.Resource, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := slices.IndexFunc(s.resources, func(r models.Resource) bool { return r.ID == id })
	if i < 0 {
		return models.Resource{}, false
	}

	return s.resources[i], true
}

// OpenBlob streams the content of an attachment.
func (s *Store) OpenBlob(ctx context.Context, digest string) (io.ReadCloser, blob.Ref, error) {
	rc, ref, err := s.blobs.Open(ctx, digest)
	if errors.Is(err, blob.ErrNotFound) || errors.Is(err, blob.ErrInvalidDigest) {
		return nil, blob.Ref{}, ErrNotFound
	}

	return rc, ref, err
}

func (s *Store) persist(key, collection string, value any) error {
	if err := kvstore.Save(s.kv, key, value); err != nil {
		metrics.PersistFailures.WithLabelValues(collection).Inc()
		log.Error().Err(err).Str("collection", collection).Msg("could not persist collection")

		return fmt.Errorf("%w %s: %w", ErrPersist, collection, err)
	}

	return nil
}

// referenced reports whether any record still points at digest. Callers hold mu.
func (s *Store) referenced(digest string) bool {
	for _, m := range s.messages {
		if m.File != nil && m.File.Digest == digest {
			return true
		}
	}

	for _, r := range s.resources {
		if r.Digest == digest {
			return true
		}
	}

	return false
}

// releaseBlob removes the blob unless a record still uses it.
func (s *Store) releaseBlob(ctx context.Context, digest string) {
	if digest == "" {
		return
	}

	s.gc.Lock()
	defer s.gc.Unlock()

	s.mu.RLock()
	inUse := s.referenced(digest)
	s.mu.RUnlock()

	if inUse {
		return
	}

	if err := s.blobs.Delete(ctx, digest); err != nil {
		log.Warn().Err(err).Str("digest", digest).Msg("could not remove unreferenced blob")
	}
}

func ordered[T any](items []T, order Order) []T {
	out := slices.Clone(items)
	if out == nil {
		out = []T{}
	}

	if order == NewestFirst {
		slices.Reverse(out)
	}

	return out
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}

	return items
}

// without returns a copy of items minus the first element matching id.
func without[T any](items []T, match func(T) bool) ([]T, T, bool) {
	var zero T

	i := slices.IndexFunc(items, match)
	if i < 0 {
		return items, zero, false
	}

	out := make([]T, 0, len(items)-1)
	out = append(out, items[:i]...)
	out = append(out, items[i+1:]...)

	return out, items[i], true
}
