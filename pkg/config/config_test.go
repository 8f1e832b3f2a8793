package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleConfig struct {
	HTTPPort int      `env:"LOADER_TEST_PORT" envDefault:"8010"`
	Host     string   `env:"LOADER_TEST_HOST" envDefault:"localhost"`
	Secure   bool     `env:"LOADER_TEST_SECURE" envDefault:"false"`
	Brokers  []string `env:"LOADER_TEST_BROKERS" envDefault:"localhost:9092" envSeparator:","`
}

func TestLoad_Defaults(t *testing.T) {
	var cfg sampleConfig
	require.NoError(t, Load(&cfg))

	assert.Equal(t, 8010, cfg.HTTPPort)
	assert.Equal(t, "localhost", cfg.Host)
	assert.False(t, cfg.Secure)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Brokers)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("LOADER_TEST_PORT", "9191")
	t.Setenv("LOADER_TEST_HOST", "0.0.0.0")
	t.Setenv("LOADER_TEST_SECURE", "true")
	t.Setenv("LOADER_TEST_BROKERS", "k1:9092,k2:9092")

	var cfg sampleConfig
	require.NoError(t, Load(&cfg))

	assert.Equal(t, 9191, cfg.HTTPPort)
	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.True(t, cfg.Secure)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Brokers)
}

type requiredConfig struct {
	ClientSecret string `env:"LOADER_TEST_CLIENT_SECRET,required"`
}

func TestLoad_RequiredField(t *testing.T) {
	var cfg requiredConfig
	err := Load(&cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")

	t.Setenv("LOADER_TEST_CLIENT_SECRET", "s3cret")
	require.NoError(t, Load(&cfg))
	assert.Equal(t, "s3cret", cfg.ClientSecret)
}

func TestLoad_InvalidValue(t *testing.T) {
	t.Setenv("LOADER_TEST_PORT", "not-a-number")

	var cfg sampleConfig
	err := Load(&cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}
