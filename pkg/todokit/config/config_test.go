package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/randalmurphal/todokit/pkg/todokit/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_String(t *testing.T) {
	cfg := config.New(map[string]any{
		"name": "todokit",
		"port": 8080,
	})

	assert.Equal(t, "todokit", cfg.String("name", "fallback"))
	assert.Equal(t, "fallback", cfg.String("missing", "fallback"))
	assert.Equal(t, "fallback", cfg.String("port", "fallback"), "wrong type falls back")
}

func TestConfig_Bool(t *testing.T) {
	cfg := config.New(map[string]any{
		"enabled": true,
		"name":    "x",
	})

	assert.True(t, cfg.Bool("enabled", false))
	assert.True(t, cfg.Bool("missing", true))
	assert.False(t, cfg.Bool("name", false))
}

func TestConfig_Int(t *testing.T) {
	cfg := config.New(map[string]any{
		"direct":     42,
		"wide":       int64(43),
		"fromJSON":   float64(44),
		"fractional": 44.5,
		"name":       "x",
	})

	assert.Equal(t, 42, cfg.Int("direct", 0))
	assert.Equal(t, 43, cfg.Int("wide", 0))
	assert.Equal(t, 44, cfg.Int("fromJSON", 0))
	assert.Equal(t, 7, cfg.Int("fractional", 7), "fractional value falls back")
	assert.Equal(t, 7, cfg.Int("missing", 7))
	assert.Equal(t, 7, cfg.Int("name", 7))
}

func TestConfig_Duration(t *testing.T) {
	cfg := config.New(map[string]any{
		"parsed":  "2s",
		"seconds": 3,
		"typed":   500 * time.Millisecond,
		"garbage": "not a duration",
	})

	assert.Equal(t, 2*time.Second, cfg.Duration("parsed", 0))
	assert.Equal(t, 3*time.Second, cfg.Duration("seconds", 0))
	assert.Equal(t, 500*time.Millisecond, cfg.Duration("typed", 0))
	assert.Equal(t, time.Minute, cfg.Duration("garbage", time.Minute))
	assert.Equal(t, time.Minute, cfg.Duration("missing", time.Minute))
}

func TestConfig_StringSlice(t *testing.T) {
	cfg := config.New(map[string]any{
		"direct":  []string{"a", "b"},
		"decoded": []any{"c", "d"},
		"mixed":   []any{"e", 1},
	})

	assert.Equal(t, []string{"a", "b"}, cfg.StringSlice("direct", nil))
	assert.Equal(t, []string{"c", "d"}, cfg.StringSlice("decoded", nil))
	assert.Equal(t, []string{"z"}, cfg.StringSlice("mixed", []string{"z"}), "non-string element falls back")
	assert.Equal(t, []string{"z"}, cfg.StringSlice("missing", []string{"z"}))
}

func TestConfig_Sub(t *testing.T) {
	cfg := config.New(map[string]any{
		"validation": map[string]any{
			"minLength": 3,
		},
		"name": "x",
	})

	sub := cfg.Sub("validation")
	assert.Equal(t, 3, sub.Int("minLength", 0))

	assert.False(t, cfg.Sub("missing").Has("anything"))
	assert.False(t, cfg.Sub("name").Has("anything"))
}

func TestConfig_Has(t *testing.T) {
	cfg := config.New(map[string]any{"present": nil})
	assert.True(t, cfg.Has("present"))
	assert.False(t, cfg.Has("absent"))
}

func TestFromYAML(t *testing.T) {
	cfg, err := config.FromYAML([]byte(`
store:
  driver: sqlite
  path: /tmp/todos.db
validation:
  minLength: 3
  forbiddenWords:
    - spam
    - delete
`))
	require.NoError(t, err)

	store := cfg.Sub("store")
	assert.Equal(t, "sqlite", store.String("driver", ""))

	validation := cfg.Sub("validation")
	assert.Equal(t, 3, validation.Int("minLength", 0))
	assert.Equal(t, []string{"spam", "delete"}, validation.StringSlice("forbiddenWords", nil))
}

func TestFromYAML_Invalid(t *testing.T) {
	_, err := config.FromYAML([]byte("{not yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse yaml")
}

func TestFromJSON(t *testing.T) {
	cfg, err := config.FromJSON([]byte(`{"timeout": "5s", "retries": 3}`))
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.Duration("timeout", 0))
	assert.Equal(t, 3, cfg.Int("retries", 0), "json numbers decode as float64")
}

func TestFromFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("name: from-yaml\n"), 0o644))

	jsonPath := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"name": "from-json"}`), 0o644))

	cfg, err := config.FromFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "from-yaml", cfg.String("name", ""))

	cfg, err = config.FromFile(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, "from-json", cfg.String("name", ""))
}

func TestFromFile_Errors(t *testing.T) {
	_, err := config.FromFile("/no/such/path.yaml")
	require.Error(t, err)

	dir := t.TempDir()
	tomlPath := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(tomlPath, []byte("name = \"x\"\n"), 0o644))

	_, err = config.FromFile(tomlPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported config file extension")
}
