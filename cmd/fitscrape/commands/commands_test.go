package commands

import (
	"bytes"
	"context"
	"fitscrape/internal/catalog"
	"fitscrape/internal/components/telemetry"
	"fitscrape/internal/scrapers/fitnessprogramer"
	"fitscrape/internal/store"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "fitscrape.json5"))
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), cfg)
	require.Equal(t, fitnessprogramer.DefaultMuscles, cfg.Muscles)
	require.Equal(t, 100, cfg.MaxPages)
	clientOpts, err := cfg.ClientOptions()
	require.NoError(t, err)
	require.Zero(t, clientOpts.Timeout)
	require.Nil(t, clientOpts.ResponseDump)
}

func TestLoadConfigOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fitscrape.json5")
	err := os.WriteFile(path, []byte(`{
		// only scrape the small groups
		muscles: ["neck", "calf"],
		max_pages: 5,
		timeout_seconds: 30,
	}`), 0644)
	require.NoError(t, err)
	err = os.WriteFile(filepath.Join(dir, "fitscrape.local.json5"), []byte(`{
		output: "local.json",
		telemetry: { otlp: { traces: { http_endpoint: "http://localhost:4318/v1/traces" } } },
	}`), 0644)
	require.NoError(t, err)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, []string{"neck", "calf"}, cfg.Muscles)
	require.Equal(t, 5, cfg.MaxPages)
	require.Equal(t, "local.json", cfg.Output)
	require.Equal(t, fitnessprogramer.DefaultListingUrl, cfg.ListingUrl)
	clientOpts, err := cfg.ClientOptions()
	require.NoError(t, err)
	require.Equal(t, "30s", clientOpts.Timeout.String())
	require.True(t, cfg.Telemetry.Enabled())
}

const scrapeListing = `<html><body>
<div class="wpt_exercise_archive taxonomy_archive">
	<article>
		<h2 class="title"><a href="/exercise/neck-side-flexion/">Neck Side Flexion</a></h2>
		<div class="exercise_meta equipment"><strong>Equipment:</strong> Body weight</div>
		<div class="exercise_meta primary_muscles"><strong>Primary Muscles:</strong> Neck</div>
		<a class="button" href="/exercise/neck-side-flexion/">Details</a>
	</article>
</div>
<div class="pagination winner_pagination"><span class="page-numbers current">1</span></div>
</body></html>`

const scrapeDetails = `<html><body><div class="vc_progress_bar">
	<div class="vc_single_bar"><small class="vc_label">Neck</small><span class="vc_bar" data-percentage-value="100"></span></div>
</div></body></html>`

func TestScrape(t *testing.T) {
	var mu sync.Mutex
	var userAgents []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		userAgents = append(userAgents, r.UserAgent())
		mu.Unlock()

		switch r.URL.Path {
		case "/exercise-primary-muscle/neck/page/1/":
			w.Write([]byte(scrapeListing))
		case "/exercise/neck-side-flexion/":
			w.Write([]byte(scrapeDetails))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	cfg := DefaultConfig()
	cfg.ListingUrl = server.URL + "/exercise-primary-muscle/{muscle}/page/{page}/"
	cfg.Muscles = []string{"neck", "cardio"}
	cfg.UserAgent = "fitscrape-test"
	cfg.DisableCloudflareBypass = true
	cfg.DumpResponses = filepath.Join(t.TempDir(), "responses")

	result, err := Scrape(context.Background(), cfg, &telemetry.Recorder{})
	require.NoError(t, err)
	require.Equal(t, []string{"Neck Side Flexion"}, result.Titles())

	exercise, _ := result.Get("Neck Side Flexion")
	require.Equal(t, map[string]string{"Neck": "100"}, exercise.MusclesWorked)
	require.Equal(t, "Body weight", exercise.Equipment)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, userAgents, 3)
	for _, ua := range userAgents {
		require.Equal(t, "fitscrape-test", ua)
	}

	dumped, err := os.ReadDir(cfg.DumpResponses)
	require.NoError(t, err)
	require.Len(t, dumped, 3)
}

func TestRefresh(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/exercise-primary-muscle/neck/page/1/":
			w.Write([]byte(scrapeListing))
		case "/exercise/neck-side-flexion/":
			w.Write([]byte(scrapeDetails))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	db, err := store.Open(filepath.Join(t.TempDir(), "fitscrape.db"))
	require.NoError(t, err)
	defer db.Close()

	cfg := DefaultConfig()
	cfg.ListingUrl = server.URL + "/exercise-primary-muscle/{muscle}/page/{page}/"
	cfg.Muscles = []string{"neck"}
	cfg.DisableCloudflareBypass = true

	ctx := context.Background()
	require.NoError(t, Refresh(ctx, cfg, db, &telemetry.Recorder{}))

	loaded, err := db.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"Neck Side Flexion"}, loaded.Titles())

	run, ok, err := db.LastExport(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "scrape", run.Source)

	// a failed scrape keeps what was stored
	cfg.Muscles = nil
	require.Error(t, Refresh(ctx, cfg, db, &telemetry.Recorder{}))
	loaded, err = db.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, loaded.Len())
}

func TestScrapeRejectsEmptyMuscles(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Muscles = nil
	_, err := Scrape(context.Background(), cfg, &telemetry.Recorder{})
	require.Error(t, err)
}

func TestFormatMusclesWorked(t *testing.T) {
	require.Equal(t, "", formatMusclesWorked(map[string]string{}))
	require.Equal(
		t,
		"Chest 80%, Shoulder 40%, Triceps 40%, Core n/a%",
		formatMusclesWorked(map[string]string{
			"Triceps":  "40",
			"Chest":    "80",
			"Shoulder": "40",
			"Core":     "n/a",
		}),
	)
}

func TestRenderExercises(t *testing.T) {
	c := catalog.New()
	_, _, err := c.Put(catalog.Exercise{
		Title:          "Bench Press",
		Url:            "https://example.com/bench-press/",
		Equipment:      "Barbell",
		PrimaryMuscles: "Chest",
		MusclesWorked:  map[string]string{"Chest": "80"},
	})
	require.NoError(t, err)

	var out bytes.Buffer
	RenderExercises(&out, c.Exercises())
	rendered := out.String()
	require.True(t, strings.Contains(rendered, "Bench Press"))
	require.True(t, strings.Contains(rendered, "Chest 80%"))
	require.True(t, strings.Contains(rendered, "1 exercises"))

	out.Reset()
	RenderMatches(&out, c.Search("bench", 0))
	require.True(t, strings.Contains(out.String(), "https://example.com/bench-press/"))
}

func TestRenderYAML(t *testing.T) {
	exercises := []catalog.Exercise{{
		Title:         "Plank",
		Url:           "https://example.com/plank/",
		Equipment:     "Body weight",
		MusclesWorked: map[string]string{"Abs": "90"},
	}}

	var out bytes.Buffer
	require.NoError(t, RenderYAML(&out, exercises))

	var decoded []catalog.Exercise
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &decoded))
	require.Equal(t, exercises, decoded)
	require.Contains(t, out.String(), "muscles_worked:")
	require.NotContains(t, out.String(), "details_url")
}

func TestServeRejectsInvalidRefresh(t *testing.T) {
	err := Serve(context.Background(), DefaultConfig(), ServeOptions{
		Database: filepath.Join(t.TempDir(), "fitscrape.db"),
		Addr:     "127.0.0.1:0",
		Refresh:  "every now and then",
	}, &telemetry.Recorder{})
	require.ErrorContains(t, err, "invalid refresh schedule")
}

func TestServeStopsWithContext(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "fitscrape.db")
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, DefaultConfig(), ServeOptions{
			Database: dbPath,
			Addr:     "127.0.0.1:0",
			Refresh:  "@daily",
		}, &telemetry.Recorder{})
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not return after the context was cancelled")
	}

	db, err := store.Open(dbPath)
	require.NoError(t, err)
	defer db.Close()
	_, ok, err := db.LastExport(context.Background())
	require.NoError(t, err)
	require.False(t, ok)
}
