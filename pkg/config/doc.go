// Package config loads typed configuration from environment variables.
//
// It combines github.com/joho/godotenv (optional .env files) with
// github.com/caarlos0/env/v11 (struct tags). Each configuration type is
// parsed once and cached by type, so packages can call Load for their own
// struct without coordinating.
//
// # Usage
//
//	type Config struct {
//	    Issuer        string `env:"MFA_ISSUER" envDefault:"RepClub"`
//	    EncryptionKey string `env:"MFA_ENCRYPTION_KEY,required"`
//	}
//
//	func (c *Config) Validate() error { ... }
//
//	var cfg Config
//	if err := config.Load(&cfg); err != nil {
//	    log.Fatalf("config: %v", err)
//	}
//
// Structs implementing Validator are checked after parsing; a failed parse or
// validation is never cached.
//
// # Error Handling
//
// ErrParsingConfig, ErrInvalidConfig, ErrLoadingEnvFile, ErrNilPointer and
// ErrConfigNotLoaded are sentinels for errors.Is.
//
// ResetCache clears cached values between tests.
package config
