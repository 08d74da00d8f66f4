package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studentrep/portal/internal/db/models"
	"github.com/studentrep/portal/internal/kvstore"
)

func seed(t *testing.T, s *Store) {
	t.Helper()

	ctx := context.Background()

	_, err := s.Submit(ctx, ContactForm{Message: "no file"}, nil)
	require.NoError(t, err)

	_, err = s.Submit(ctx, ContactForm{Name: "Ben", Subject: "Trip", Message: "permission slip"},
		&Upload{Name: "slip.txt", Content: strings.NewReader("signed by parent")})
	require.NoError(t, err)

	_, err = s.AddResource(ctx, Upload{Name: "rules.txt", Content: strings.NewReader("be kind")})
	require.NoError(t, err)

	_, err = s.AddInfo("Welcome", "New term starts Monday")
	require.NoError(t, err)
}

func TestExport_EmbedsContent(t *testing.T) {
	env := newTestEnv(t)
	seed(t, env.store)

	b, err := env.store.Export(context.Background())
	require.NoError(t, err)

	require.Len(t, b.Messages, 2)
	assert.Nil(t, b.Messages[0].File)
	require.NotNil(t, b.Messages[1].File)
	assert.True(t, strings.HasPrefix(b.Messages[1].File.Data, "data:text/plain"), b.Messages[1].File.Data)

	require.Len(t, b.Resources, 1)
	assert.NotEmpty(t, b.Resources[0].Data)
	assert.Len(t, b.Infos, 1)

	// the store itself never holds data uris
	assert.Empty(t, env.store.Messages(OldestFirst)[1].File.Data)
}

func TestExportImport_RoundTrip(t *testing.T) {
	src := newTestEnv(t)
	seed(t, src.store)

	var buf bytes.Buffer
	require.NoError(t, src.store.WriteExport(context.Background(), &buf))

	dst := newTestEnv(t)
	_, err := dst.store.AddInfo("Overwritten", "gone after import")
	require.NoError(t, err)

	require.NoError(t, dst.store.Import(context.Background(), buf.Bytes()))

	assert.Equal(t, src.store.Messages(OldestFirst), dst.store.Messages(OldestFirst))
	assert.Equal(t, src.store.Resources(OldestFirst), dst.store.Resources(OldestFirst))
	assert.Equal(t, src.store.Infos(OldestFirst), dst.store.Infos(OldestFirst))

	msg := dst.store.Messages(OldestFirst)[1]
	assert.Equal(t, "signed by parent", readBlob(t, dst.store, msg.File.Digest))

	res := dst.store.Resources(OldestFirst)[0]
	assert.Equal(t, "be kind", readBlob(t, dst.store, res.Digest))

	// imported state is persisted
	assert.Equal(t, dst.store.Messages(OldestFirst), New(dst.kv, dst.blobs).Messages(OldestFirst))
}

func TestImport_Subset(t *testing.T) {
	env := newTestEnv(t)
	seed(t, env.store)

	before := env.store.Messages(OldestFirst)

	raw := `{
		"infos": [{"id":"info_x","title":"Only infos","body":"b","createdAt":"2024-01-02T03:04:05Z"}],
		"resources": {"not": "an array"},
		"extra": [1, 2, 3]
	}`
	require.NoError(t, env.store.Import(context.Background(), []byte(raw)))

	infos := env.store.Infos(OldestFirst)
	require.Len(t, infos, 1)
	assert.Equal(t, "info_x", infos[0].ID)

	assert.Equal(t, before, env.store.Messages(OldestFirst), "absent key leaves messages alone")
	assert.Len(t, env.store.Resources(OldestFirst), 1, "non-array value is ignored")
}

func TestImport_EmptyArrayClears(t *testing.T) {
	env := newTestEnv(t)
	seed(t, env.store)

	require.NoError(t, env.store.Import(context.Background(), []byte(`{"messages": []}`)))

	assert.Empty(t, env.store.Messages(OldestFirst))
	assert.Len(t, env.store.Infos(OldestFirst), 1)
}

func TestImport_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "not json", raw: "hello"},
		{name: "truncated", raw: `{"messages": [`},
		{name: "top level array", raw: `[]`},
		{name: "wrong element shape", raw: `{"infos": [1, 2]}`},
		{name: "bad data uri", raw: `{"resources": [{"id":"res_1","name":"a","size":"1 B","data":"data:text/plain;base64"}]}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t)
			seed(t, env.store)

			before := env.store.Infos(OldestFirst)

			err := env.store.Import(context.Background(), []byte(tc.raw))
			require.ErrorIs(t, err, ErrInvalidFile)
			assert.Equal(t, before, env.store.Infos(OldestFirst))
		})
	}
}

func TestImport_PlainReferenceKept(t *testing.T) {
	env := newTestEnv(t)

	want := models.Resource{
		ID:         "res_ref",
		Attachment: models.Attachment{Name: "old.pdf", Size: "1.0 kB", Digest: strings.Repeat("a", 64)},
	}

	raw, err := json.Marshal(map[string]any{BundleResources: []models.Resource{want}})
	require.NoError(t, err)

	require.NoError(t, env.store.Import(context.Background(), raw))

	got, ok := env.store.Resource("res_ref")
	require.True(t, ok)
	assert.Equal(t, want.Attachment, got.Attachment)
}

func importedBundle(t *testing.T) []byte {
	t.Helper()

	raw, err := json.Marshal(map[string]any{
		BundleMessages: []models.Message{{ID: "msg_imported", Name: "Ana", Subject: "Bus", Message: "late again",
			CreatedAt: testNow, Status: models.StatusUnread}},
		BundleInfos: []models.Info{{ID: "info_imported", Title: "Fair", Body: "Friday", CreatedAt: testNow}},
	})
	require.NoError(t, err)

	return raw
}

func persistedMessages(t *testing.T, env *testEnv) []models.Message {
	t.Helper()

	return kvstore.Load(env.kv, KeyMessages, []models.Message(nil))
}

func TestImport_PersistFailureRestores(t *testing.T) {
	env := newTestEnv(t)
	seed(t, env.store)

	beforeMessages := env.store.Messages(OldestFirst)
	beforeInfos := env.store.Infos(OldestFirst)

	env.kv.failKey = KeyInfos

	err := env.store.Import(context.Background(), importedBundle(t))
	require.ErrorIs(t, err, ErrPersist)

	assert.Equal(t, beforeMessages, env.store.Messages(OldestFirst))
	assert.Equal(t, beforeInfos, env.store.Infos(OldestFirst))
	assert.Equal(t, beforeMessages, persistedMessages(t, env))

	// a restart shows what the running store shows
	reopened := New(env.kv, env.blobs)
	assert.Equal(t, beforeMessages, reopened.Messages(OldestFirst))
}

func TestImport_RestoreFailureKeepsMemoryInSync(t *testing.T) {
	env := newTestEnv(t)
	seed(t, env.store)

	beforeInfos := env.store.Infos(OldestFirst)

	// the infos write and every write after it fail, including the restore of messages
	env.kv.onSet = func(key string) {
		if key == KeyInfos {
			env.kv.fail.Store(true)
		}
	}

	err := env.store.Import(context.Background(), importedBundle(t))
	require.ErrorIs(t, err, ErrPersist)

	persisted := persistedMessages(t, env)
	require.Len(t, persisted, 1)
	assert.Equal(t, "msg_imported", persisted[0].ID)
	assert.Equal(t, persisted, env.store.Messages(OldestFirst))
	assert.Equal(t, beforeInfos, env.store.Infos(OldestFirst))
}

func TestImport_ConcurrentMutationKeepsImport(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.store.AddMessage(models.Message{ID: "msg_old", Message: "old"}))

	var (
		once sync.Once
		wg   sync.WaitGroup
	)

	// a visitor submits while the import commits
	env.kv.onSet = func(key string) {
		if key != KeyMessages {
			return
		}

		once.Do(func() {
			wg.Add(1)

			go func() {
				defer wg.Done()
				assert.NoError(t, env.store.AddMessage(models.Message{ID: "msg_concurrent", Message: "hi"}))
			}()
		})
	}

	require.NoError(t, env.store.Import(context.Background(), importedBundle(t)))
	wg.Wait()

	var ids []string
	for _, m := range env.store.Messages(OldestFirst) {
		ids = append(ids, m.ID)
	}

	assert.Equal(t, []string{"msg_imported", "msg_concurrent"}, ids)
	assert.Equal(t, env.store.Messages(OldestFirst), persistedMessages(t, env))
}

func TestExport_Snapshot(t *testing.T) {
	env := newTestEnv(t)
	seed(t, env.store)

	b, err := env.store.Export(context.Background())
	require.NoError(t, err)

	_, err = env.store.DeleteInfo(b.Infos[0].ID)
	require.NoError(t, err)

	// the bundle is a copy, later mutations do not reach it
	assert.Len(t, b.Infos, 1)
	assert.Len(t, b.Messages, 2)
}
