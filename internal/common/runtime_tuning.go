package common

import (
	"os"
	"runtime"
	"runtime/debug"

	"github.com/rs/zerolog/log"
)

const (
	defaultGOGC     = 400
	defaultMemLimit = 2 * 1024 * 1024 * 1024 // 2GB
)

// InitRuntime applies conservative runtime defaults for a latency-sensitive
// service whose hot path is fan-out quote calls, not CPU. Environment
// variables GOGC, GOMAXPROCS and GOMEMLIMIT always win.
func InitRuntime() {
	if os.Getenv("GOGC") == "" {
		debug.SetGCPercent(defaultGOGC)
		log.Info().Int("GOGC", defaultGOGC).Msg("[runtime] set GOGC")
	}

	if os.Getenv("GOMEMLIMIT") == "" {
		debug.SetMemoryLimit(defaultMemLimit)
		log.Info().Int64("GOMEMLIMIT", int64(defaultMemLimit)).Msg("[runtime] set memory limit")
	}

	if os.Getenv("GOMAXPROCS") == "" {
		procs := runtime.NumCPU()
		if procs > 8 {
			procs = procs / 2
		}
		if procs < 1 {
			procs = 1
		}
		runtime.GOMAXPROCS(procs)
		log.Info().Int("GOMAXPROCS", procs).Msg("[runtime] set GOMAXPROCS")
	}
}
