package main

import (
	"os"
	"strings"

	"github.com/nimasrn/invite-gateway/internal/config"
	"github.com/nimasrn/invite-gateway/pkg/logger"
	"github.com/nimasrn/invite-gateway/pkg/pg"
)

// main.go --env=.env --dir=./migrations --cmd=up|down|status
func main() {
	err := config.Load(getEnvPath())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}

	pgConf := pg.Config{
		User:     config.Get().PostgresWriteUser,
		Host:     config.Get().PostgresWriteHost,
		Port:     config.Get().PostgresWritePort,
		Password: config.Get().PostgresWritePassword,
		Database: config.Get().PostgresWriteDatabase,
		SSLMode:  config.Get().PostgresSSLMode,
	}
	command := getArg("--cmd=", pg.MigrateUp)
	err = pg.Migrate(pgConf, getMigrationPath(), command)
	if err != nil {
		logger.Error("migration: error running migrations", "command", command, "error", err)
		os.Exit(1)
	}
}

func getArg(prefix, fallback string) string {
	for _, v := range os.Args {
		if strings.HasPrefix(v, prefix) {
			return strings.TrimPrefix(v, prefix)
		}
	}
	return fallback
}

func getEnvPath() string {
	path := getArg("--env=", ".env")
	if _, err := os.Stat(path); err != nil {
		logger.Warn("env file not found, using environment only", "path", path)
		return ""
	}
	return path
}

func getMigrationPath() string {
	path := getArg("--dir=", "./migrations")
	if _, err := os.Stat(path); err != nil {
		logger.Error("failed to open the migrations dir, got error" + err.Error())
		return ""
	}
	return path
}
