// Package database provides SQLite storage for the AV routing service.
//
// It manages the connection (WAL mode, busy timeout, foreign keys, a single
// writer connection) and forward/backward schema migrations. Migration files
// are registered by the migrations package through Migrations.
//
//	db, err := database.Open(cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// The database file is created with 0600 permissions. All queries use
// parameterised statements.
package database
