package main

import (
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/venue-router/internal/common"
	"github.com/hxuan190/venue-router/internal/config"
	"github.com/hxuan190/venue-router/internal/engine"
	"github.com/hxuan190/venue-router/internal/http"
	"github.com/hxuan190/venue-router/internal/services/registry"
)

// @title Venue Router API
// @version 1.0
// @description Routes a single token swap across a pool-custody venue and a
// @description direct-transfer venue, optionally splitting one logical trade
// @description between both to maximize output.
// @description
// @description ## Features
// @description - **Funding plans**: sources a trade from deposited, undeposited and wallet balances, cheapest first, with dust absorption
// @description - **Split optimization**: bounded ternary search over the venue split ratio against live quotes
// @description - **Resumable execution**: per-step pipelines with skip/error states and a shared custody-movement barrier for split trades
// @description
// @description Amounts are always smallest token units. A plan with
// @description adjustedAmount 0 means the trade cannot clear its own fees.
// @BasePath /
// @schemes http
// @tag.name plan
// @tag.description Compute funding and withdrawal plans against live balances
// @tag.name split
// @tag.description Find the output-maximizing split ratio between the venues
// @tag.name execute
// @tag.description Settle an optimized plan as step pipelines

func main() {
	common.InitRuntime()

	// load env
	err := godotenv.Load()
	if err != nil {
		log.Error().Err(err).Msg("failed to load env")
		return
	}

	// di container config
	conf := container.NewConf(
		&config.GeneralConfig{},
		&config.EngineConfig{},
		&config.VenueConfig{},
	)

	// di container
	dic, err := container.New(
		conf,

		&registry.Service{},
		&engine.Service{},

		&http.HTTPService{},
	)
	if err != nil {
		log.Error().Err(err).Msg("failed to create di container")
		return
	}

	if err := dic.Run(); err != nil {
		log.Error().Err(err).Msg("failed to run di container")
		return
	}

	log.Info().Msg("Shutting down services...")
	if err := dic.Stop(); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
	log.Info().Msg("Shutdown complete")
}
