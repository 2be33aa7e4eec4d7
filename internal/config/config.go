// Package config reads server settings from the environment, with an
// optional .env file for development.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/XYWINGS/GuessTheMafia/internal/game"
)

type Config struct {
	Addr string
	Game game.Rules
}

func Load() Config {
	// A missing .env is fine; real deployments set the environment.
	_ = godotenv.Load()

	rules := game.DefaultRules()
	rules.MinPlayers = envInt("MIN_PLAYERS", rules.MinPlayers)
	rules.MaxPlayers = envInt("MAX_PLAYERS", rules.MaxPlayers)
	rules.DayTimerSec = envInt("DAY_SECONDS", rules.DayTimerSec)
	rules.DemonsTimerSec = envInt("DEMONS_SECONDS", rules.DemonsTimerSec)
	rules.DoctorTimerSec = envInt("DOCTOR_SECONDS", rules.DoctorTimerSec)
	rules.InspectorTimerSec = envInt("INSPECTOR_SECONDS", rules.InspectorTimerSec)
	rules.AttachTimeoutSec = envInt("ATTACH_SECONDS", rules.AttachTimeoutSec)
	rules.SoleDemonIsLeader = envBool("SOLE_DEMON_LEADER", rules.SoleDemonIsLeader)

	return Config{
		Addr: envStr("ADDR", ":8080"),
		Game: rules,
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
