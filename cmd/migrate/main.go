// Command migrate applies or rolls back the embedded schema migrations.
//
//	migrate -cmd up
//	migrate -cmd down -steps 1
//	migrate -cmd force -version 3
//	migrate -cmd version
package main

import (
	"errors"
	"flag"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/travel-agency-booking/internal/database"
	"github.com/iliyamo/travel-agency-booking/internal/logger"
)

func main() {
	_ = godotenv.Load()
	logger.Setup(os.Getenv("LOG_LEVEL"), true)

	cmd := flag.String("cmd", "up", "up | down | force | version")
	steps := flag.Int("steps", 0, "number of migrations to roll back with -cmd down (0 = all)")
	version := flag.Int("version", -1, "schema version for -cmd force")
	flag.Parse()

	dsn := database.DSN(os.Getenv("DB_USER"), os.Getenv("DB_PASS"), os.Getenv("DB_HOST"),
		os.Getenv("DB_PORT"), os.Getenv("DB_NAME"), "multiStatements=true")
	db, err := database.OpenDSN(dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer db.Close()

	m, err := database.NewMigrator(db)
	if err != nil {
		log.Fatal().Err(err).Msg("migrator setup failed")
	}

	switch *cmd {
	case "up":
		err = m.Up()
	case "down":
		if *steps > 0 {
			err = m.Steps(-*steps)
		} else {
			err = m.Down()
		}
	case "force":
		if *version < 0 {
			log.Fatal().Msg("-version is required with -cmd force")
		}
		err = m.Force(*version)
	case "version":
	default:
		log.Fatal().Str("cmd", *cmd).Msg("unknown command")
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatal().Err(err).Str("cmd", *cmd).Msg("migration failed")
	}

	v, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		log.Fatal().Err(err).Msg("read schema version")
	}
	log.Info().Uint("version", v).Bool("dirty", dirty).Msg("done")
}
