// Package pg bootstraps PostgreSQL access with pgx/v5: a pooled connection
// with retry, a readiness check, goose migrations from an embedded
// filesystem, a transaction helper and predicates for common driver errors.
//
// # Usage
//
//	var cfg pg.Config
//	config.MustLoad(&cfg)
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	//go:embed migrations/*.sql
//	var migrations embed.FS
//
//	if err := pg.Migrate(ctx, pool, cfg, migrations, "migrations", log); err != nil {
//	    return err
//	}
//
// Healthcheck returns a closure suitable for readiness probes.
//
// # Error Handling
//
// Failures wrap sentinels such as ErrFailedToOpenDBConnection and
// ErrFailedToApplyMigrations. IsNotFoundError and IsDuplicateKeyError
// classify driver errors.
package pg
