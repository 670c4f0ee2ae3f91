package settings_test

import (
	"testing"

	"github.com/raphaelgruber/cognee-viewer/internal/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storages returns a fresh instance of every backend, each reopenable at the same location.
func storages(t *testing.T) map[string]func() settings.Storage {
	t.Helper()

	mem := settings.NewMemoryStorage()
	fileDir := t.TempDir()
	badgerDir := t.TempDir()

	return map[string]func() settings.Storage{
		"memory": func() settings.Storage { return mem },
		"file": func() settings.Storage {
			s, err := settings.NewFileStorage(fileDir)
			require.NoError(t, err)
			return s
		},
		"badger": func() settings.Storage {
			s, err := settings.OpenBadgerStorage(badgerDir)
			require.NoError(t, err)
			t.Cleanup(func() { _ = s.Close() })
			return s
		},
	}
}

func TestLoadWithoutRecordReturnsDefaults(t *testing.T) {
	for name, open := range storages(t) {
		t.Run(name, func(t *testing.T) {
			store := settings.NewStore(open(), nil)
			assert.Equal(t, settings.Defaults(), store.Load())
		})
	}
}

func TestSaveThenReload(t *testing.T) {
	for name, open := range storages(t) {
		t.Run(name, func(t *testing.T) {
			s := open()
			store := settings.NewStore(s, nil)

			cfg := store.Load()
			cfg.Dataset = "d1"
			require.NoError(t, store.Save(cfg))

			if closer, ok := s.(interface{ Close() error }); ok {
				require.NoError(t, closer.Close())
			}

			// New session over the same location.
			reloaded := settings.NewStore(open(), nil).Load()
			assert.Equal(t, "d1", reloaded.Dataset)
			assert.Equal(t, cfg, reloaded)
		})
	}
}

func TestSaveOverwritesWholeRecord(t *testing.T) {
	store := settings.NewStore(settings.NewMemoryStorage(), nil)

	require.NoError(t, store.Save(settings.Configuration{
		ServerURL:    "http://a",
		Dataset:      "d1",
		DatasetName:  "one",
		SystemPrompt: "p",
	}))
	require.NoError(t, store.Save(settings.Configuration{ServerURL: "http://b"}))

	got := store.Load()
	assert.Equal(t, settings.Configuration{ServerURL: "http://b"}, got)
	assert.False(t, got.HasDataset())
}

func TestUnparsableRecordFallsBackToDefaults(t *testing.T) {
	mem := settings.NewMemoryStorage()
	require.NoError(t, mem.Set(settings.Key, []byte("{not json")))

	store := settings.NewStore(mem, nil)
	assert.Equal(t, settings.Defaults(), store.Load())
}

func TestNonObjectRecordFallsBackToDefaults(t *testing.T) {
	for _, raw := range []string{"null", " null\n", `"text"`, "42", "[]", ""} {
		mem := settings.NewMemoryStorage()
		require.NoError(t, mem.Set(settings.Key, []byte(raw)))

		assert.Equal(t, settings.Defaults(), settings.NewStore(mem, nil).Load(), "record %q", raw)
	}
}

func TestNullDatasetDecodesAsUnset(t *testing.T) {
	mem := settings.NewMemoryStorage()
	record := `{"serverUrl":"http://localhost:8000","dataset":null,"datasetName":null,"systemPrompt":"hi"}`
	require.NoError(t, mem.Set(settings.Key, []byte(record)))

	cfg := settings.NewStore(mem, nil).Load()
	assert.False(t, cfg.HasDataset())
	assert.Equal(t, "hi", cfg.SystemPrompt)
}

func TestSaveDoesNotValidate(t *testing.T) {
	store := settings.NewStore(settings.NewMemoryStorage(), nil)
	bad := settings.Configuration{ServerURL: "::not a url::", Dataset: "unknown"}

	require.NoError(t, store.Save(bad))
	assert.Equal(t, bad, store.Load())
}

func TestWithDataset(t *testing.T) {
	cfg := settings.Defaults().WithDataset("d2", "two")
	assert.Equal(t, "d2", cfg.Dataset)
	assert.Equal(t, "two", cfg.DatasetName)
	assert.Equal(t, settings.Defaults().SystemPrompt, cfg.SystemPrompt)
}

func TestOpen(t *testing.T) {
	for _, kind := range []string{"file", "badger", "memory"} {
		t.Run(kind, func(t *testing.T) {
			s, closeFn, err := settings.Open(kind, t.TempDir())
			require.NoError(t, err)
			require.NoError(t, s.Set("k", []byte("v")))
			v, err := s.Get("k")
			require.NoError(t, err)
			assert.Equal(t, []byte("v"), v)
			require.NoError(t, closeFn())
		})
	}

	_, _, err := settings.Open("etcd", t.TempDir())
	assert.Error(t, err)
}

func TestGetMissingKey(t *testing.T) {
	for name, open := range storages(t) {
		t.Run(name, func(t *testing.T) {
			_, err := open().Get("missing")
			assert.ErrorIs(t, err, settings.ErrNotFound)
		})
	}
}
