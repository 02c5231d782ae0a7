package main

import (
	"embed"
	"flag"
	"os"

	"github.com/marina21-cs/weteweta.github.io/internal/app"
	"github.com/marina21-cs/weteweta.github.io/internal/config"
	"github.com/marina21-cs/weteweta.github.io/internal/support/logger"

	// Database dialects and storage backends register themselves on import.
	_ "github.com/marina21-cs/weteweta.github.io/internal/adapter/database/gorm/mysql"
	_ "github.com/marina21-cs/weteweta.github.io/internal/adapter/database/gorm/postgres"
	_ "github.com/marina21-cs/weteweta.github.io/internal/adapter/database/gorm/sqlite"
	_ "github.com/marina21-cs/weteweta.github.io/internal/adapter/storage/gcs"
	_ "github.com/marina21-cs/weteweta.github.io/internal/adapter/storage/local"
)

//go:embed resources/application.yaml
var embeddedConfig []byte

//go:embed migrations
var migrations embed.FS

func main() {
	envFile := flag.String("env-file", "", "path to a .env file with configuration overrides")
	flag.Parse()

	if err := app.RunApplication(*envFile, config.EmbeddedConfig(embeddedConfig), migrations); err != nil {
		logger.Errorf("Pipeline run failed: %v", err)
		os.Exit(1)
	}
}
