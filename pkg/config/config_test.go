package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/ideabox/pkg/config"
)

type defaultsConfig struct {
	Name  string `env:"CFG_TEST_DEFAULT_NAME" envDefault:"ideabox"`
	Quota int64  `env:"CFG_TEST_DEFAULT_QUOTA" envDefault:"5"`
}

type overrideConfig struct {
	Name string `env:"CFG_TEST_OVERRIDE_NAME" envDefault:"ideabox"`
}

type cachedConfig struct {
	Value string `env:"CFG_TEST_CACHED_VALUE"`
}

type requiredConfig struct {
	Secret string `env:"CFG_TEST_REQUIRED_SECRET,required"`
}

func TestLoad_Defaults(t *testing.T) {
	var cfg defaultsConfig
	require.NoError(t, config.Load(&cfg))

	assert.Equal(t, "ideabox", cfg.Name)
	assert.Equal(t, int64(5), cfg.Quota)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("CFG_TEST_OVERRIDE_NAME", "custom")

	var cfg overrideConfig
	require.NoError(t, config.Load(&cfg))

	assert.Equal(t, "custom", cfg.Name)
}

func TestLoad_CachesPerType(t *testing.T) {
	t.Setenv("CFG_TEST_CACHED_VALUE", "first")

	var first cachedConfig
	require.NoError(t, config.Load(&first))

	t.Setenv("CFG_TEST_CACHED_VALUE", "second")

	var second cachedConfig
	require.NoError(t, config.Load(&second))

	assert.Equal(t, "first", second.Value)
}

func TestLoad_MissingRequired(t *testing.T) {
	var cfg requiredConfig
	err := config.Load(&cfg)

	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrParsingConfig)
	assert.Panics(t, func() { config.MustLoad(&requiredConfig{}) })
}

func TestLoad_NilPointer(t *testing.T) {
	assert.ErrorIs(t, config.Load[defaultsConfig](nil), config.ErrNilPointer)
}
