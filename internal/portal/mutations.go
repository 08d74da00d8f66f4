package portal

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/studentrep/portal/internal/db/models"
	"github.com/studentrep/portal/internal/fileenc"
	"github.com/studentrep/portal/internal/metrics"
)

// Defaults applied to contact messages with blank fields.
const (
	DefaultName    = "Anonymous"
	DefaultSubject = "General"
)

const defaultFileName = "file"

// ContactForm is what a visitor submits on the contact page.
type ContactForm struct {
	Name    string `form:"name"    validate:"max=200"`
	Email   string `form:"email"   validate:"omitempty,email,max=254"`
	Subject string `form:"subject" validate:"max=200"`
	Message string `form:"message" validate:"required,max=10000"`
}

// InfoForm is an announcement posted by the admin.
type InfoForm struct {
	Title string `form:"title" validate:"required,max=200"`
	Body  string `form:"body"  validate:"required,max=10000"`
}

// Upload is a file handed in through a form.
type Upload struct {
	Name    string
	Content io.Reader
}

// AddMessage appends msg as is and persists the messages.
func (s *Store) AddMessage(msg models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := append(s.messages[:len(s.messages):len(s.messages)], msg)
	if err := s.persist(KeyMessages, metrics.CollectionMessages, next); err != nil {
		return err
	}

	s.messages = next

	return nil
}

// Submit validates a contact form, stores the optional attachment and adds the message.
func (s *Store) Submit(ctx context.Context, form ContactForm, up *Upload) (models.Message, error) {
	form.Name = strings.TrimSpace(form.Name)
	form.Email = strings.TrimSpace(form.Email)
	form.Subject = strings.TrimSpace(form.Subject)
	form.Message = strings.TrimSpace(form.Message)

	if err := s.validate.Struct(form); err != nil {
		return models.Message{}, err
	}

	msg := models.Message{
		ID:        s.newID(models.MessageIDPrefix),
		Name:      valueOr(form.Name, DefaultName),
		Email:     form.Email,
		Subject:   valueOr(form.Subject, DefaultSubject),
		Message:   form.Message,
		CreatedAt: s.now().UTC(),
		Status:    models.StatusUnread,
	}

	err := s.withUpload(ctx, up, func(att *models.Attachment) error {
		msg.File = att

		return s.AddMessage(msg)
	})
	if err != nil {
		return models.Message{}, err
	}

	metrics.MessagesSubmitted.Inc()
	log.Info().Str("id", msg.ID).Bool("attachment", msg.File != nil).Msg("contact message received")

	return msg, nil
}

// DeleteMessage removes the message with id. Unknown ids are a no-op.
func (s *Store) DeleteMessage(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()

	next, removed, ok := without(s.messages, func(m models.Message) bool { return m.ID == id })
	if !ok {
		s.mu.Unlock()

		return false, nil
	}

	if err := s.persist(KeyMessages, metrics.CollectionMessages, next); err != nil {
		s.mu.Unlock()

		return false, err
	}

	s.messages = next
	s.mu.Unlock()

	metrics.RecordsDeleted.WithLabelValues(metrics.CollectionMessages).Inc()

	if removed.File != nil {
		s.releaseBlob(ctx, removed.File.Digest)
	}

	return true, nil
}

// AddResource stores an admin upload and publishes it on the files page.
func (s *Store) AddResource(ctx context.Context, up Upload) (models.Resource, error) {
	var res models.Resource

	err := s.withUpload(ctx, &up, func(att *models.Attachment) error {
		res = models.Resource{
			ID:         s.newID(models.ResourceIDPrefix),
			Attachment: *att,
			CreatedAt:  s.now().UTC(),
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		next := append(s.resources[:len(s.resources):len(s.resources)], res)
		if err := s.persist(KeyResources, metrics.CollectionResources, next); err != nil {
			return err
		}

		s.resources = next

		return nil
	})
	if err != nil {
		return models.Resource{}, err
	}

	metrics.ResourcesUploaded.Inc()
	log.Info().Str("id", res.ID).Str("name", res.Name).Msg("resource published")

	return res, nil
}

// DeleteResource removes the resource with id. Unknown ids are a no-op.
func (s *Store) DeleteResource(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()

	next, removed, ok := without(s.resources, func(r models.Resource) bool { return r.ID == id })
	if !ok {
		s.mu.Unlock()

		return false, nil
	}

	if err := s.persist(KeyResources, metrics.CollectionResources, next); err != nil {
		s.mu.Unlock()

		return false, err
	}

	s.resources = next
	s.mu.Unlock()

	metrics.RecordsDeleted.WithLabelValues(metrics.CollectionResources).Inc()
	s.releaseBlob(ctx, removed.Digest)

	return true, nil
}

// AddInfo posts an announcement.
func (s *Store) AddInfo(title, body string) (models.Info, error) {
	form := InfoForm{Title: strings.TrimSpace(title), Body: strings.TrimSpace(body)}
	if err := s.validate.Struct(form); err != nil {
		return models.Info{}, err
	}

	info := models.Info{
		ID:        s.newID(models.InfoIDPrefix),
		Title:     form.Title,
		Body:      form.Body,
		CreatedAt: s.now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := append(s.infos[:len(s.infos):len(s.infos)], info)
	if err := s.persist(KeyInfos, metrics.CollectionInfos, next); err != nil {
		return models.Info{}, err
	}

	s.infos = next
	metrics.InfosPosted.Inc()

	return info, nil
}

// DeleteInfo removes the announcement with id. Unknown ids are a no-op.
func (s *Store) DeleteInfo(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, _, ok := without(s.infos, func(i models.Info) bool { return i.ID == id })
	if !ok {
		return false, nil
	}

	if err := s.persist(KeyInfos, metrics.CollectionInfos, next); err != nil {
		return false, err
	}

	s.infos = next
	metrics.RecordsDeleted.WithLabelValues(metrics.CollectionInfos).Inc()

	return true, nil
}

// withUpload stores up (when set) and runs commit with the resulting
// attachment. The blob is released again when commit fails.
func (s *Store) withUpload(ctx context.Context, up *Upload, commit func(*models.Attachment) error) error {
	s.gc.RLock()

	var att *models.Attachment

	if up != nil {
		a, err := s.storeUpload(ctx, *up)
		if err != nil {
			s.gc.RUnlock()

			return err
		}

		att = &a
	}

	err := commit(att)
	s.gc.RUnlock()

	if err != nil && att != nil {
		s.releaseBlob(ctx, att.Digest)
	}

	return err
}

func (s *Store) storeUpload(ctx context.Context, up Upload) (models.Attachment, error) {
	if up.Content == nil {
		return models.Attachment{}, fmt.Errorf("%w: no content", ErrReadFailed)
	}

	ref, err := s.blobs.Put(ctx, up.Content)
	if err != nil {
		log.Warn().Err(err).Str("name", up.Name).Msg("could not store upload")

		return models.Attachment{}, fmt.Errorf("%w: %w", ErrReadFailed, err)
	}

	metrics.BlobBytesWritten.Add(float64(ref.Size))

	return models.Attachment{
		Name:     fileName(up.Name),
		Size:     fileenc.HumanSize(ref.Size),
		Bytes:    ref.Size,
		MimeType: ref.MimeType,
		Digest:   ref.Digest,
	}, nil
}

// fileName drops any client side directory from an upload name.
func fileName(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), `\`, "/"))
	if name == "." || name == "/" || name == "" {
		return defaultFileName
	}

	return name
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}

	return v
}
