package main

import (
	"os"

	"github.com/rs/zerolog/log"

	"github.com/tanpawarit/inventory-sms-agent/cmd"
	_ "github.com/tanpawarit/inventory-sms-agent/pkg/logger/autoload"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
