package server_test

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opst/tabserve/pkg/configs/server"
)

func TestLoad(t *testing.T) {
	t.Run("defaults are used without file", func(t *testing.T) {
		v := viper.New()
		server.SetDefaults(v)

		cfg, err := server.Load(v)
		require.NoError(t, err)
		assert.Equal(t, server.Default(), cfg)
	})

	t.Run("file overrides defaults", func(t *testing.T) {
		v := viper.New()
		server.SetDefaults(v)
		require.NoError(t, server.ReadFile(v, "./testdata/tabserve.yaml"))

		cfg, err := server.Load(v)
		require.NoError(t, err)

		want := server.Default()
		want.Port = 9090
		want.LogLevel = "debug"
		want.Tasks.Dir = "/etc/tabserve/tasks"
		want.Tasks.Redis.Addr = "localhost:6379"
		want.Models.PostgresURI = "postgres://tabserve@localhost:5432/models"
		want.Auth.HMACKey = "secret"
		want.SampleFile = "/etc/tabserve/sample.json"
		want.Warmup = []string{"iris", "house"}
		want.ShutdownGrace = 30 * time.Second
		assert.Equal(t, want, cfg)
	})

	t.Run("environment variables override file", func(t *testing.T) {
		t.Setenv("TABSERVE_PORT", "7070")
		t.Setenv("TABSERVE_TASKS_REDIS_ADDR", "redis:6379")

		v := viper.New()
		server.SetDefaults(v)
		require.NoError(t, server.ReadFile(v, "./testdata/tabserve.yaml"))

		cfg, err := server.Load(v)
		require.NoError(t, err)
		assert.Equal(t, 7070, cfg.Port)
		assert.Equal(t, "redis:6379", cfg.Tasks.Redis.Addr)
	})

	t.Run("missing file is an error", func(t *testing.T) {
		v := viper.New()
		assert.Error(t, server.ReadFile(v, "./testdata/nothing.yaml"))
	})
}

func TestValidate(t *testing.T) {
	cfg := server.Default()
	cfg.Port = 0
	cfg.LogLevel = "verbose"
	cfg.Tasks.Dir = ""
	cfg.Models.Dir = ""

	err := cfg.Validate()
	assert.ErrorIs(t, err, server.ErrInvalidConfig)
	for _, s := range []string{"port", "loglevel", "tasks.dir", "models.dir"} {
		assert.ErrorContains(t, err, s)
	}
}
