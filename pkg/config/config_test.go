package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-ledger/pkg/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "minimarket", cfg.Ledger.Tier)
	assert.Equal(t, 30*time.Minute, cfg.Rates.RefreshInterval)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
}

func TestLoad_Listas(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("RATES_PROVIDERS", "http://a/tasa, ,http://b/tasa")
	t.Setenv("MIRROR_ENABLED", "true")
	t.Setenv("MIRROR_BROKERS", "kafka:9092")
	t.Setenv("RATES_REFRESH_INTERVAL", "90s")
	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"http://a/tasa", "http://b/tasa"}, cfg.Rates.Providers)
	assert.Equal(t, []string{"kafka:9092"}, cfg.Mirror.Brokers)
	assert.Equal(t, 90*time.Second, cfg.Rates.RefreshInterval)
}

func TestLoad_Invalido(t *testing.T) {
	t.Setenv("STORE_DRIVER", "sqlite")
	_, err := config.Load()
	assert.Error(t, err)

	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("MIRROR_ENABLED", "true")
	t.Setenv("MIRROR_BROKERS", "")
	_, err = config.Load()
	assert.Error(t, err)
}

func TestDSN_EscapaPassword(t *testing.T) {
	c := config.DBConfig{Host: "db", Port: 5432, User: "pos", Password: "p@ss:w/rd", DBName: "ledger", SSLMode: "disable"}
	assert.Equal(t, "postgres://pos:p%40ss%3Aw%2Frd@db:5432/ledger?sslmode=disable", c.DSN())
	c.DatabaseURL = "postgres://x"
	assert.Equal(t, "postgres://x", c.ConnectionString())
}
