package main

import (
	"github.com/lattice-intel/lattice/internal/server"
	"github.com/lattice-intel/lattice/internal/util"
	"github.com/lattice-intel/lattice/pkg/logger"
	"github.com/lattice-intel/lattice/pkg/logger/console"

	_ "github.com/lib/pq"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	server.Init()
}
