package main

import (
	"fmt"
	"os"
	"runtime"

	"guarded/soak"
	"guarded/utils/config"

	log "github.com/sirupsen/logrus"
)

func run() error {
	if err := config.LoadEnv(".env"); err != nil {
		return err
	}

	cfg, err := config.LoadSoak()
	if err != nil {
		return fmt.Errorf("invalid soak config: %w", err)
	}

	log.SetLevel(cfg.LogLevel)
	fmt.Printf("Loaded ENV. Running soak with %d workers on %d threads.\n", cfg.Workers, runtime.GOMAXPROCS(-1))

	report, err := soak.Run(cfg)
	if err != nil {
		return err
	}

	fmt.Printf("Offered %d keys, inserted %d, rejected %d duplicates in %s.\n",
		report.Offered, report.Inserted, report.Duplicates, report.Elapsed)

	return nil
}

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	if err := run(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
