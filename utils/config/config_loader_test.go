package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestLoadDefaultsWhenMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 1000, cfg.Chunk.MaxWords)
	assert.Equal(t, "data/reports", cfg.Paths.ReportDir)
	assert.Equal(t, filepath.Join("data/processed", "metadata.csv"), cfg.Paths.MetadataCSV())
	assert.Len(t, cfg.Download.Reports, 5)
	assert.Equal(t, 0.05, cfg.Sentiment.PositiveThreshold)
}

func TestLoadOverridesAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
chunk:
  max_words: 250
analysis:
  num_topics: 3
db:
  dialect: mysql
  dsn: "user:pass@tcp(localhost:3306)/consultai"
dashboard:
  refresh_interval: 5s
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))
	t.Setenv(EnvRedisAddr, "localhost:6379")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 250, cfg.Chunk.MaxWords)
	assert.Equal(t, 3, cfg.Analysis.NumTopics)
	assert.Equal(t, 1000, cfg.Analysis.MaxFeatures)
	assert.Equal(t, "mysql", cfg.DB.Dialect)
	assert.Equal(t, 5*time.Second, cfg.Dashboard.RefreshInterval)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("db:\n  dialect: postgres\n"), 0644))
	_, err := Load(path)
	assert.ErrorIs(t, err, ErrInvalidDialect)

	require.NoError(t, os.WriteFile(path, []byte("chunk:\n  max_words: 0\n"), 0644))
	_, err = Load(path)
	assert.ErrorIs(t, err, ErrInvalidChunkSize)
}

func TestHandleEvents(t *testing.T) {
	// new config loader, and start to watch the config file
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, writeMaxWords(path, 1000))

	loader, err := NewConfigLoader(path)
	require.NoError(t, err)
	defer loader.Close()

	reloaded := make(chan Config, 4)
	loader.Subscribe(func(c Config) {
		select {
		case reloaded <- c:
		default:
		}
	})

	// write the config file
	require.NoError(t, writeMaxWords(path, 400))

	// a truncating write can surface as more than one event
	timeout := time.After(5 * time.Second)
	for seen := false; !seen; {
		select {
		case c := <-reloaded:
			seen = c.Chunk.MaxWords == 400
		case <-timeout:
			t.Fatal("config was not reloaded")
		}
	}

	// the version should be at least 1
	assert.GreaterOrEqual(t, loader.Version(), int64(1))
	assert.Equal(t, 400, loader.Config().Chunk.MaxWords)
}

type chunkOnly struct {
	Chunk ChunkConfig `yaml:"chunk"`
}

func writeMaxWords(path string, n int) error {
	d, err := yaml.Marshal(&chunkOnly{Chunk: ChunkConfig{MaxWords: n}})
	if err != nil {
		return err
	}
	return os.WriteFile(path, d, 0644)
}
