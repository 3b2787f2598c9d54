package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckConfigValidityValid(t *testing.T) {
	v := viper.New()
	applyDefaults(v)
	v.Set("data_dir", "/tmp/restaurant")

	if err := CheckConfigValidity(v); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestCheckConfigValidityInvalid(t *testing.T) {
	v := viper.New()
	v.Set("data_dir", "")
	v.Set("http_addr", "")
	v.Set("http.max_body_mb", 0)
	v.Set("http.tls_domains", []string{"shop.example.com"})
	v.Set("auth.session_hours", 0)
	v.Set("gpt.base_url", "not a url")
	v.Set("gpt.timeout_seconds", 0)
	v.Set("log.level", "loud")
	v.Set("log.format", "xml")

	err := CheckConfigValidity(v)
	if err == nil {
		t.Fatalf("expected error for invalid config")
	}

	msg := err.Error()
	expected := []string{
		"data_dir is required",
		"http_addr is required",
		"http.max_body_mb must be greater than 0",
		"http.tls_email is required",
		"auth.session_hours must be greater than 0",
		"gpt.base_url is not a valid url",
		"gpt.timeout_seconds must be greater than 0",
		"log.level must be one of",
		"log.format must be text or json",
	}
	for _, want := range expected {
		if !strings.Contains(msg, want) {
			t.Fatalf("expected error to contain %q, got %q", want, msg)
		}
	}
}

func TestCheckServeConfigNeedsSecret(t *testing.T) {
	v := viper.New()
	applyDefaults(v)
	err := CheckServeConfig(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth.secret")

	v.Set("auth.secret", "0123456789abcdef")
	assert.NoError(t, CheckServeConfig(v))
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(file, []byte("http_addr = \":7000\"\n[gpt]\nmodel = \"from-file\"\n"), 0o600))
	t.Setenv("RESTAURANT_GPT_MODEL", "from-env")

	v := viper.New()
	v.SetConfigFile(file)
	require.NoError(t, Load(context.Background(), v))

	cfg := FromViper(v)
	assert.Equal(t, ":7000", cfg.HTTPAddr)
	assert.Equal(t, "from-env", cfg.GPTModel)
	assert.Equal(t, 30*time.Second, cfg.GPTTimeout)
	assert.Equal(t, int64(10<<20), cfg.MaxBodyBytes)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
}

func TestLoadMissingFileIsFine(t *testing.T) {
	v := viper.New()
	v.SetConfigFile(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, Load(context.Background(), v))
	assert.Equal(t, ":5001", v.GetString("http_addr"))
}

func TestResolvePaths(t *testing.T) {
	v := viper.New()
	v.Set("data_dir", "/srv/restaurant")
	assert.Equal(t, "/srv/restaurant/restaurant.db", ResolveDBPath(v))
	assert.Equal(t, "/srv/restaurant/static", ResolveUploadDir(v))

	v.Set("db_path", "/var/lib/r.db")
	v.Set("upload_dir", "/var/www")
	assert.Equal(t, "/var/lib/r.db", ResolveDBPath(v))
	assert.Equal(t, "/var/www", ResolveUploadDir(v))
}

func TestRenderDefaultTOMLCoversEveryOption(t *testing.T) {
	out := RenderDefaultTOML()
	assert.Contains(t, out, "[gpt]\n")
	assert.Contains(t, out, `model = "gpt-5"`)
	assert.Contains(t, out, "max_body_mb = 10")
	assert.Contains(t, out, "tls_domains = []")

	v := viper.New()
	v.SetConfigType("toml")
	require.NoError(t, v.ReadConfig(strings.NewReader(out)))
	for _, o := range GetConfigOptions() {
		assert.True(t, v.IsSet(o.Key), o.Key)
	}
}

func TestUpdateTOML(t *testing.T) {
	existing := "http_addr = \":9000\"\nlegacy = true\n[gpt]\nmodel = \"x\"\n"
	out, changed := UpdateTOML(existing)
	require.True(t, changed)
	assert.Contains(t, out, "http_addr = \":9000\"")
	assert.Contains(t, out, "# OUTDATED: option removed from config schema\n# legacy = true")
	assert.Contains(t, out, "# Added by config update")
	assert.Equal(t, 1, strings.Count(out, "model ="))

	again, changed := UpdateTOML(out)
	assert.False(t, changed)
	assert.Equal(t, out, again)
}
