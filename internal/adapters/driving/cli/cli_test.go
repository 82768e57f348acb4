package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariata/ariata/internal/adapters/driven/storage/memory"
	"github.com/ariata/ariata/internal/core/domain"
	"github.com/ariata/ariata/internal/core/ports/driven"
	"github.com/ariata/ariata/internal/core/services"
	"github.com/ariata/ariata/internal/processors"
)

// instantConnector completes immediately with a canned result.
type instantConnector struct {
	result driven.SyncResult
}

func (c *instantConnector) Type() string   { return "google" }
func (c *instantConnector) Stream() string { return "calendar" }
func (c *instantConnector) Close() error   { return nil }

func (c *instantConnector) Sync(_ context.Context, _ driven.SyncRequest) (*driven.SyncResult, error) {
	result := c.result
	return &result, nil
}

type instantFactory struct{ connector driven.Connector }

func (f *instantFactory) Create(_ context.Context, _ domain.Source, _ string) (driven.Connector, error) {
	return f.connector, nil
}

func (f *instantFactory) Register(_, _ string, _ driven.ConnectorBuilder) {}

// wireTestServices injects in-memory services and restores the previous
// wiring afterwards.
func wireTestServices(t *testing.T, connector driven.Connector) *Services {
	t.Helper()

	sources := memory.NewSourceStore()
	jobs := memory.NewJobStore()
	checkpoints := memory.NewCheckpointStore()
	activities := memory.NewActivityStore()
	credentials := memory.NewCredentialsStore()
	records := memory.NewRecordStore()

	catalog := services.NewCatalog()
	engine := services.NewEngine(sources, jobs, checkpoints, &instantFactory{connector: connector}, catalog, services.DefaultEngineConfig())
	router := services.NewRouter(catalog, activities, checkpoints, processors.NewDefaultRegistry(records))
	sourceService := services.NewSourceService(sources, checkpoints, credentials, catalog)

	wired := &Services{
		Engine:     engine,
		Router:     router,
		Catalog:    catalog,
		Sources:    sourceService,
		Scheduler:  services.NewScheduler(sources, engine),
		Activities: activities,
	}

	previous := svc
	SetServices(wired)
	t.Cleanup(func() { SetServices(previous) })
	return wired
}

// execute runs the root command with the given args and returns output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "ariata version dev")
}

func TestCatalogCmd(t *testing.T) {
	wireTestServices(t, &instantConnector{})

	out, err := execute(t, "catalog")
	require.NoError(t, err)
	assert.Contains(t, out, "Google")
	assert.Contains(t, out, "calendar")
	assert.Contains(t, out, "push-only")
}

func TestSourcesCmd_AddAndList(t *testing.T) {
	wireTestServices(t, &instantConnector{})

	out, err := execute(t, "sources", "add", "strava", "--name", "Running")
	require.NoError(t, err)
	assert.Contains(t, out, "Created source")

	out, err = execute(t, "sources")
	require.NoError(t, err)
	assert.Contains(t, out, "Running")
	assert.Contains(t, out, "active")

	_, err = execute(t, "sources", "add", "fitbit")
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestSourcesCmd_PauseResume(t *testing.T) {
	wired := wireTestServices(t, &instantConnector{})
	ctx := context.Background()

	source, err := wired.Sources.Create(ctx, "strava", "Running", "")
	require.NoError(t, err)

	out, err := execute(t, "sources", "pause", source.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "paused")

	out, err = execute(t, "sources")
	require.NoError(t, err)
	assert.Contains(t, out, "paused")

	_, err = execute(t, "sources", "resume", source.ID)
	require.NoError(t, err)
}

func TestSyncCmd(t *testing.T) {
	wired := wireTestServices(t, &instantConnector{
		result: driven.SyncResult{Checkpoint: "cursor-1", RecordsFetched: 4, RecordsWritten: 4},
	})
	ctx := context.Background()

	source, err := wired.Sources.Create(ctx, "google", "Personal", "")
	require.NoError(t, err)
	_, err = wired.Sources.EnableStream(ctx, source.ID, "calendar", nil)
	require.NoError(t, err)

	out, err := execute(t, "sync", source.ID, "calendar")
	require.NoError(t, err)
	assert.Contains(t, out, "admitted")
	assert.Contains(t, out, "4 fetched, 4 written")

	out, err = execute(t, "jobs", "--source", source.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "completed")
}

func TestSyncCmd_UnknownStream(t *testing.T) {
	wired := wireTestServices(t, &instantConnector{})
	ctx := context.Background()

	source, err := wired.Sources.Create(ctx, "google", "Personal", "")
	require.NoError(t, err)

	_, err = execute(t, "sync", source.ID, "drive")
	assert.ErrorIs(t, err, domain.ErrUnknownStream)
}

func TestJobsCmd_Empty(t *testing.T) {
	wireTestServices(t, &instantConnector{})

	out, err := execute(t, "jobs")
	require.NoError(t, err)
	assert.Contains(t, out, "No jobs found")
}

func TestJobsCancelCmd_NotFound(t *testing.T) {
	wireTestServices(t, &instantConnector{})

	_, err := execute(t, "jobs", "cancel", "nope")
	assert.Error(t, err)
}

func TestIngestCmd(t *testing.T) {
	wireTestServices(t, &instantConnector{})

	batch := `{"source":"mac","stream":"apps","device_id":"device-1","records":[{"app_name":"Safari","timestamp":"2026-08-30T08:00:00Z","duration_seconds":30}]}`
	path := filepath.Join(t.TempDir(), "batch.json")
	require.NoError(t, os.WriteFile(path, []byte(batch), 0600))

	out, err := execute(t, "ingest", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Accepted 1, rejected 0")
}
