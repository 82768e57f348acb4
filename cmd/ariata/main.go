// Command ariata is the personal data aggregation server and its CLI.
package main

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	calendar "google.golang.org/api/calendar/v3"
	gmail "google.golang.org/api/gmail/v1"

	"github.com/ariata/ariata/internal/adapters/driven/config/file"
	"github.com/ariata/ariata/internal/adapters/driven/storage/sqlite"
	"github.com/ariata/ariata/internal/adapters/driving/cli"
	"github.com/ariata/ariata/internal/connectors"
	"github.com/ariata/ariata/internal/core/ports/driven"
	"github.com/ariata/ariata/internal/core/services"
	"github.com/ariata/ariata/internal/processors"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	config, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	store, err := sqlite.NewStore(config.GetString(file.KeyDataDir))
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()

	catalog := services.NewCatalog()
	credentials := services.NewCredentialService(
		store.CredentialsStore(),
		store.SourceStore(),
		catalog,
		oauthConfigs(config),
	)
	factory := connectors.NewDefaultFactory(credentials, store.RecordStore())

	engine := services.NewEngine(
		store.SourceStore(),
		store.JobStore(),
		store.CheckpointStore(),
		factory,
		catalog,
		engineConfig(config),
	)
	router := services.NewRouter(
		catalog,
		store.ActivityStore(),
		store.CheckpointStore(),
		processors.NewDefaultRegistry(store.RecordStore()),
	)
	sources := services.NewSourceService(
		store.SourceStore(),
		store.CheckpointStore(),
		store.CredentialsStore(),
		catalog,
	)

	cli.SetServices(&cli.Services{
		Engine:     engine,
		Router:     router,
		Catalog:    catalog,
		Sources:    sources,
		Scheduler:  services.NewScheduler(store.SourceStore(), engine),
		Activities: store.ActivityStore(),
		Config:     config,
	})

	return cli.Execute()
}

// engineConfig applies configured overrides to the engine defaults.
func engineConfig(config driven.ConfigStore) services.EngineConfig {
	cfg := services.DefaultEngineConfig()
	if minutes := config.GetInt(file.KeyLivenessThreshold); minutes > 0 {
		cfg.LivenessThreshold = time.Duration(minutes) * time.Minute
	}
	if minutes := config.GetInt(file.KeyExecutionDeadline); minutes > 0 {
		cfg.ExecutionDeadline = time.Duration(minutes) * time.Minute
	}
	return cfg
}

// oauthConfigs builds the per-source-type OAuth configurations from the
// client credentials in the config file. Types without credentials are
// omitted; their stored tokens still work until they expire.
func oauthConfigs(config driven.ConfigStore) map[string]*oauth2.Config {
	configs := make(map[string]*oauth2.Config)

	if clientID := config.GetString(file.KeyGoogleClientID); clientID != "" {
		configs["google"] = &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: config.GetString(file.KeyGoogleClientSecret),
			Endpoint:     googleoauth.Endpoint,
			Scopes: []string{
				calendar.CalendarReadonlyScope,
				gmail.GmailReadonlyScope,
			},
		}
	}

	if clientID := config.GetString(file.KeyStravaClientID); clientID != "" {
		configs["strava"] = &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: config.GetString(file.KeyStravaClientSecret),
			Endpoint: oauth2.Endpoint{
				AuthURL:  "https://www.strava.com/oauth/authorize",
				TokenURL: "https://www.strava.com/oauth/token",
			},
			Scopes: []string{"activity:read_all"},
		}
	}

	return configs
}
