package main

import (
	"flag"
	stdlog "log"

	"github.com/tidy-app/tidy/internal/config"
	"github.com/tidy-app/tidy/internal/history"
	"github.com/tidy-app/tidy/internal/log"
	"github.com/tidy-app/tidy/internal/web"
)

var (
	version = "dev" // set by ldflags during build
)

func main() {
	addr := flag.String("addr", "localhost:8080", "HTTP server address")
	appConfig := flag.String("app-config", "", "app config file (default: user config dir)")
	historyFile := flag.String("history-file", "", "operation history file (default: data dir)")
	logFile := flag.String("log-file", "", "log file path")
	logJSON := flag.Bool("log-json", false, "output JSON logs")
	flag.Parse()

	logger, err := log.New(log.Options{FilePath: *logFile, JSON: *logJSON})
	if err != nil {
		stdlog.Fatal(err)
	}
	defer logger.Sync()

	baseCfg := config.DefaultConfig()
	baseCfg.AppConfigFile = *appConfig
	baseCfg.LogFile = *logFile
	baseCfg.LogJSON = *logJSON
	if *historyFile != "" {
		baseCfg.HistoryFile = *historyFile
	}

	server := web.NewServer(config.NewStore(*appConfig), history.New(baseCfg.HistoryFile), logger)
	server.SetVersion(version)
	server.SetBaseConfig(baseCfg)

	if err := server.Start(*addr); err != nil {
		stdlog.Fatal(err)
	}
}
