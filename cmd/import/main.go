/*
main.go - Copies a JSON dataset into SQLite

PURPOSE:
  Reads the nine collection files from a directory, runs the loader's
  reference checks and replaces the contents of a SQLite database with
  them. The server can then run with DATA_SOURCE=sqlite.

COMMAND-LINE FLAGS:
  -data    Directory holding clients.json, jobs.json, ... (default: ./data)
  -db      SQLite database path (default: ./data/hvac.db)
  -strict  Refuse datasets with dangling references or invalid fields

EXAMPLES:
  ./import -data=./data -db=./data/hvac.db
*/
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/warp/hvac-insights/factory"
	"github.com/warp/hvac-insights/store/sqlite"
)

func main() {
	dataDir := flag.String("data", "./data", "directory with the JSON collection files")
	dbPath := flag.String("db", "./data/hvac.db", "SQLite database path")
	strict := flag.Bool("strict", false, "fail on dataset problems instead of logging them")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Timestamp().Str("service", "hvac-import").Logger()
	log.Logger = logger

	ds, err := factory.NewLoader(factory.WithLogger(logger), factory.WithStrict(*strict)).LoadDir(*dataDir)
	if err != nil {
		logger.Fatal().Err(err).Str("dir", *dataDir).Msg("failed to load dataset")
	}

	store, err := sqlite.New(*dbPath)
	if err != nil {
		logger.Fatal().Err(err).Str("db", *dbPath).Msg("failed to open database")
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := store.SaveDataset(ctx, ds); err != nil {
		logger.Fatal().Err(err).Msg("failed to save dataset")
	}
	counts, err := store.Counts(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to count rows")
	}
	logger.Info().Str("db", *dbPath).Interface("counts", counts).Msg("import complete")
}
