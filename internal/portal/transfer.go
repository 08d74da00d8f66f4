package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	"github.com/studentrep/portal/internal/db/models"
	"github.com/studentrep/portal/internal/fileenc"
	"github.com/studentrep/portal/internal/kvstore"
	"github.com/studentrep/portal/internal/metrics"
)

// Keys of an export bundle.
const (
	BundleMessages  = "messages"
	BundleResources = "resources"
	BundleInfos     = "infos"
)

// Bundle is the export file. Attachments carry their content as data URIs.
type Bundle struct {
	Messages  []models.Message  `json:"messages"`
	Resources []models.Resource `json:"resources"`
	Infos     []models.Info     `json:"infos"`
}

// Export snapshots all collections and embeds the attachment content.
func (s *Store) Export(ctx context.Context) (*Bundle, error) {
	s.mu.RLock()
	b := &Bundle{
		Messages:  ordered(s.messages, OldestFirst),
		Resources: ordered(s.resources, OldestFirst),
		Infos:     ordered(s.infos, OldestFirst),
	}
	s.mu.RUnlock()

	for i := range b.Messages {
		if b.Messages[i].File == nil {
			continue
		}

		att := *b.Messages[i].File
		if err := s.embed(ctx, &att); err != nil {
			return nil, err
		}

		b.Messages[i].File = &att
	}

	for i := range b.Resources {
		if err := s.embed(ctx, &b.Resources[i].Attachment); err != nil {
			return nil, err
		}
	}

	return b, nil
}

// WriteExport writes the export bundle as JSON to w.
func (s *Store) WriteExport(ctx context.Context, w io.Writer) error {
	b, err := s.Export(ctx)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if err = enc.Encode(b); err != nil {
		return fmt.Errorf("portal: write export: %w", err)
	}

	return nil
}

func (s *Store) embed(ctx context.Context, att *models.Attachment) error {
	if att.Digest == "" {
		return nil
	}

	rc, ref, err := s.OpenBlob(ctx, att.Digest)
	if errors.Is(err, ErrNotFound) {
		log.Warn().Str("digest", att.Digest).Str("name", att.Name).Msg("attachment content missing, exported without data")

		return nil
	}

	if err != nil {
		return fmt.Errorf("portal: open %s: %w", att.Digest, err)
	}

	defer func() { _ = rc.Close() }()

	mimeType := att.MimeType
	if mimeType == "" {
		mimeType = ref.MimeType
	}

	att.Data, err = fileenc.Encode(rc, mimeType)
	if err != nil {
		return fmt.Errorf("portal: encode %s: %w", att.Digest, err)
	}

	return nil
}

// Import overwrites every collection that raw carries as a JSON array.
// Other keys and non-array values are ignored. Embedded attachment content is
// moved into the blob store before anything is persisted.
func (s *Store) Import(ctx context.Context, raw []byte) error {
	err := s.importBundle(ctx, raw)

	switch {
	case err == nil:
		metrics.Imports.WithLabelValues(metrics.ImportOK).Inc()
	case errors.Is(err, ErrInvalidFile):
		metrics.Imports.WithLabelValues(metrics.ImportInvalid).Inc()
	default:
		metrics.Imports.WithLabelValues(metrics.ImportFailed).Inc()
	}

	return err
}

func (s *Store) importBundle(ctx context.Context, raw []byte) error {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}

	messages, hasMessages, err := decodeArray[models.Message](top, BundleMessages)
	if err != nil {
		return err
	}

	resources, hasResources, err := decodeArray[models.Resource](top, BundleResources)
	if err != nil {
		return err
	}

	infos, hasInfos, err := decodeArray[models.Info](top, BundleInfos)
	if err != nil {
		return err
	}

	s.gc.RLock()
	defer s.gc.RUnlock()

	for i := range messages {
		if messages[i].File == nil {
			continue
		}

		att := *messages[i].File
		if err = s.materialise(ctx, &att); err != nil {
			return err
		}

		messages[i].File = &att
	}

	for i := range resources {
		if err = s.materialise(ctx, &resources[i].Attachment); err != nil {
			return err
		}
	}

	if err = s.commitImport(messages, resources, infos, hasMessages, hasResources, hasInfos); err != nil {
		return err
	}

	log.Info().
		Bool(BundleMessages, hasMessages).
		Bool(BundleResources, hasResources).
		Bool(BundleInfos, hasInfos).
		Msg("portal state imported")

	return nil
}

// commitStep replaces one collection during an import.
type commitStep struct {
	key        string
	collection string
	next       any
	prev       any
	apply      func() // sets the in-memory collection to next
}

// commitImport persists the imported collections and swaps them in under mu.
// When a write fails, the collections written before it are restored, so
// storage and memory keep the pre-import state.
func (s *Store) commitImport(
	messages []models.Message, resources []models.Resource, infos []models.Info,
	hasMessages, hasResources, hasInfos bool,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var steps []commitStep

	if hasMessages {
		steps = append(steps, commitStep{
			key: KeyMessages, collection: metrics.CollectionMessages,
			next: messages, prev: s.messages,
			apply: func() { s.messages = messages },
		})
	}

	if hasResources {
		steps = append(steps, commitStep{
			key: KeyResources, collection: metrics.CollectionResources,
			next: resources, prev: s.resources,
			apply: func() { s.resources = resources },
		})
	}

	if hasInfos {
		steps = append(steps, commitStep{
			key: KeyInfos, collection: metrics.CollectionInfos,
			next: infos, prev: s.infos,
			apply: func() { s.infos = infos },
		})
	}

	for i, st := range steps {
		if err := s.persist(st.key, st.collection, st.next); err != nil {
			s.restore(steps[:i])

			return err
		}
	}

	for _, st := range steps {
		st.apply()
	}

	return nil
}

// restore writes back the previous value of collections an import already
// replaced. A collection that can not be restored keeps the imported value in
// memory too, so memory always matches storage. Callers hold mu.
func (s *Store) restore(written []commitStep) {
	for _, st := range written {
		if err := kvstore.Save(s.kv, st.key, st.prev); err != nil {
			metrics.PersistFailures.WithLabelValues(st.collection).Inc()
			log.Error().Err(err).Str("collection", st.collection).
				Msg("could not restore collection after failed import, keeping imported data")

			st.apply()
		}
	}
}

// materialise moves an embedded data URI into the blob store.
func (s *Store) materialise(ctx context.Context, att *models.Attachment) error {
	if att.Data == "" {
		return nil
	}

	mimeType, data, err := fileenc.Decode(att.Data)
	if err != nil {
		return fmt.Errorf("%w: attachment %q: %w", ErrInvalidFile, att.Name, err)
	}

	ref, err := s.blobs.Put(ctx, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("portal: store attachment %q: %w", att.Name, err)
	}

	metrics.BlobBytesWritten.Add(float64(ref.Size))

	att.Data = ""
	att.Digest = ref.Digest
	att.Bytes = ref.Size

	if att.MimeType == "" {
		att.MimeType = mimeType
	}

	if att.Size == "" {
		att.Size = fileenc.HumanSize(ref.Size)
	}

	return nil
}

// decodeArray decodes top[key] when it holds a JSON array.
func decodeArray[T any](top map[string]json.RawMessage, key string) ([]T, bool, error) {
	raw, ok := top[key]
	if !ok {
		return nil, false, nil
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, false, nil
	}

	out := []T{}
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return nil, false, fmt.Errorf("%w: %s: %w", ErrInvalidFile, key, err)
	}

	return out, true, nil
}
