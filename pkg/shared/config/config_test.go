package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matryer/is"
)

func TestDefaults(t *testing.T) {
	is := is.New(t)
	t.Setenv("LUMEN_CONFIG", "")

	c, err := Load("")
	is.NoErr(err)
	is.Equal(c.Addr, ":8081")
	is.Equal(c.TickInterval.Duration, 33*time.Millisecond)
	is.Equal(c.Storage, StorageFile)
	is.Equal(c.RegenHp, int32(2))
}

func TestEnvironment(t *testing.T) {
	is := is.New(t)
	t.Setenv("LUMEN_CONFIG", "")
	t.Setenv("LUMEN_ADDR", ":9000")
	t.Setenv("LUMEN_TICK_INTERVAL", "50ms")
	t.Setenv("LUMEN_STORAGE", StoragePostgres)
	t.Setenv("LUMEN_DATABASE_URL", "postgres://localhost/lumen")
	t.Setenv("LUMEN_REGEN_SP", "4")

	c, err := Load("")
	is.NoErr(err)
	is.Equal(c.Addr, ":9000")
	is.Equal(c.TickInterval.Duration, 50*time.Millisecond)
	is.Equal(c.DatabaseURL, "postgres://localhost/lumen")
	is.Equal(c.RegenSp, int32(4))
}

func TestFileOverridesEnvironment(t *testing.T) {
	is := is.New(t)
	t.Setenv("LUMEN_ADDR", ":9000")

	path := filepath.Join(t.TempDir(), "lumen.toml")
	is.NoErr(os.WriteFile(path, []byte(`
addr = ":7000"
tick_interval = "100ms"
log_level = "debug"
storage = "s3"
s3_bucket = "saves"
`), 0o600))
	t.Setenv("LUMEN_CONFIG", path)

	c, err := Load("")
	is.NoErr(err)
	is.Equal(c.Addr, ":7000")
	is.Equal(c.TickInterval.Duration, 100*time.Millisecond)
	is.Equal(c.S3Bucket, "saves")
	is.Equal(c.S3Region, "us-east-1") // untouched by the file
}

func TestInvalid(t *testing.T) {
	t.Setenv("LUMEN_CONFIG", "")
	for name, env := range map[string]map[string]string{
		"MissingDatabaseURL": {"LUMEN_STORAGE": StoragePostgres},
		"MissingBucket":      {"LUMEN_STORAGE": StorageS3},
		"UnknownStorage":     {"LUMEN_STORAGE": "floppy"},
		"BadTick":            {"LUMEN_TICK_INTERVAL": "soon"},
		"NegativeTick":       {"LUMEN_TICK_INTERVAL": "-1s"},
		"BadLevel":           {"LUMEN_LOG_LEVEL": "loud"},
		"BadRegen":           {"LUMEN_REGEN_HP": "lots"},
	} {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			if _, err := Load(""); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}
