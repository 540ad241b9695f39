// Package pg opens a pgx connection pool with retries and applies embedded
// goose migrations.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	if err := pg.Migrate(ctx, pool, datastore.Migrations, datastore.MigrationsDir, cfg, log); err != nil {
//		return err
//	}
//
// IsNotFoundError and IsDuplicateKeyError classify pgx errors.
package pg
