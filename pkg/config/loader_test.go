package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/repclub/mfakit/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type issuerConfig struct {
	Issuer string `env:"CFGTEST_ISSUER" envDefault:"RepClub"`
	Digits int    `env:"CFGTEST_DIGITS" envDefault:"6"`
	Strict bool   `env:"CFGTEST_STRICT" envDefault:"true"`
}

type overriddenConfig struct {
	Issuer string `env:"CFGTEST_OVERRIDE_ISSUER" envDefault:"RepClub"`
	Digits int    `env:"CFGTEST_OVERRIDE_DIGITS" envDefault:"6"`
}

type singletonConfig struct {
	Value string `env:"CFGTEST_SINGLETON" envDefault:"default"`
}

type otherConfig struct {
	Value string `env:"CFGTEST_OTHER" envDefault:"other"`
}

type requiredConfig struct {
	Key string `env:"CFGTEST_REQUIRED_KEY,required"`
}

type validatedConfig struct {
	Digits int `env:"CFGTEST_VALIDATED_DIGITS" envDefault:"6"`
}

var errBadDigits = errors.New("digits must be 6 or 8")

func (c *validatedConfig) Validate() error {
	if c.Digits != 6 && c.Digits != 8 {
		return errBadDigits
	}
	return nil
}

type fileConfig struct {
	Issuer string `env:"CFGTEST_FILE_ISSUER"`
	Period int    `env:"CFGTEST_FILE_PERIOD"`
}

func TestLoad_Defaults(t *testing.T) {
	os.Unsetenv("CFGTEST_ISSUER")
	os.Unsetenv("CFGTEST_DIGITS")
	os.Unsetenv("CFGTEST_STRICT")

	var cfg issuerConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "RepClub", cfg.Issuer)
	assert.Equal(t, 6, cfg.Digits)
	assert.True(t, cfg.Strict)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("CFGTEST_OVERRIDE_ISSUER", "Iron Temple")
	t.Setenv("CFGTEST_OVERRIDE_DIGITS", "8")

	var cfg overriddenConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "Iron Temple", cfg.Issuer)
	assert.Equal(t, 8, cfg.Digits)
}

func TestLoad_MissingRequired(t *testing.T) {
	os.Unsetenv("CFGTEST_REQUIRED_KEY")

	var cfg requiredConfig
	err := config.Load(&cfg)
	assert.ErrorIs(t, err, config.ErrParsingConfig)

	// A failed load is not cached.
	t.Setenv("CFGTEST_REQUIRED_KEY", "present")
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "present", cfg.Key)
}

func TestLoad_Validator(t *testing.T) {
	t.Setenv("CFGTEST_VALIDATED_DIGITS", "7")

	var cfg validatedConfig
	err := config.Load(&cfg)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
	assert.ErrorIs(t, err, errBadDigits)

	t.Setenv("CFGTEST_VALIDATED_DIGITS", "8")
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, 8, cfg.Digits)
}

func TestLoad_Cached(t *testing.T) {
	t.Setenv("CFGTEST_SINGLETON", "first")

	var first singletonConfig
	require.NoError(t, config.Load(&first))

	t.Setenv("CFGTEST_SINGLETON", "second")

	var second singletonConfig
	require.NoError(t, config.Load(&second))
	assert.Equal(t, "first", second.Value)

	var other otherConfig
	require.NoError(t, config.Load(&other))
	assert.Equal(t, "other", other.Value)
}

func TestLoad_NilPointer(t *testing.T) {
	var cfg *issuerConfig
	assert.ErrorIs(t, config.Load(cfg), config.ErrNilPointer)
}

func TestMustLoad_Panics(t *testing.T) {
	os.Unsetenv("CFGTEST_REQUIRED_KEY")
	config.ResetCache()

	assert.Panics(t, func() {
		var cfg requiredConfig
		config.MustLoad(&cfg)
	})
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mfa.env")
	require.NoError(t, os.WriteFile(path, []byte("CFGTEST_FILE_ISSUER=\"Studio North\"\nCFGTEST_FILE_PERIOD=60\n"), 0o600))

	t.Setenv("CFGTEST_FILE_PERIOD", "30")
	os.Unsetenv("CFGTEST_FILE_ISSUER")
	t.Cleanup(func() { os.Unsetenv("CFGTEST_FILE_ISSUER") })

	require.NoError(t, config.LoadEnv(path))

	var cfg fileConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "Studio North", cfg.Issuer)
	// Already-set variables win over the file.
	assert.Equal(t, 30, cfg.Period)

	err := config.LoadEnv(filepath.Join(dir, "missing.env"))
	assert.ErrorIs(t, err, config.ErrLoadingEnvFile)
}
