package fitnessprogramer

import (
	"context"
	"fitscrape/internal/components/telemetry"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDetails(t *testing.T) {
	markup := renderDetails([][2]string{
		{"Chest", "80"},
		{"Triceps", "45"},
		{"Chest", "75"},
	})

	rec := &telemetry.Recorder{}
	musclesWorked := ParseDetails(parseDoc(t, markup), rec)
	require.Equal(t, map[string]string{"Chest": "75", "Triceps": "45"}, musclesWorked)
	require.Empty(t, rec.Reports("warning"))
}

func TestParseDetailsIncompleteBars(t *testing.T) {
	markup := `<div class="vc_progress_bar">
		<div class="vc_single_bar"><small class="vc_label">Neck</small><span class="vc_bar" data-percentage-value="100"></span></div>
		<div class="vc_single_bar"><small class="vc_label">Trapezius</small><span class="vc_bar"></span></div>
		<div class="vc_single_bar"><span class="vc_bar" data-percentage-value="20"></span></div>
	</div>
	<div class="vc_single_bar"><small class="vc_label">Outside</small><span class="vc_bar" data-percentage-value="5"></span></div>`

	rec := &telemetry.Recorder{}
	musclesWorked := ParseDetails(parseDoc(t, markup), rec)
	require.Equal(t, map[string]string{"Neck": "100"}, musclesWorked)
	require.Len(t, rec.Reports("warning"), 2)
}

func TestParseDetailsNoBars(t *testing.T) {
	musclesWorked := ParseDetails(parseDoc(t, `<html><body></body></html>`), &telemetry.Recorder{})
	require.NotNil(t, musclesWorked)
	require.Empty(t, musclesWorked)
}

func TestClientDetails(t *testing.T) {
	site := newTestSite(t)
	site.set("/exercise/bench-press/", renderDetails([][2]string{{"Chest", "80"}}))
	site.fail("/exercise/broken/", http.StatusInternalServerError)

	rec := &telemetry.Recorder{}
	client := newTestClient(rec)
	ctx := context.Background()

	musclesWorked, err := client.Details(ctx, site.URL+"/exercise/bench-press/")
	require.NoError(t, err)
	require.Equal(t, map[string]string{"Chest": "80"}, musclesWorked)

	musclesWorked, err = client.Details(ctx, site.URL+"/exercise/missing/")
	require.NoError(t, err)
	require.NotNil(t, musclesWorked)
	require.Empty(t, musclesWorked)

	musclesWorked, err = client.Details(ctx, site.URL+"/exercise/broken/")
	require.NoError(t, err)
	require.Empty(t, musclesWorked)

	require.True(t, rec.Has("warning", report_client_details))
}

func TestClientDetailsCancelled(t *testing.T) {
	site := newTestSite(t)
	site.set("/exercise/bench-press/", renderDetails([][2]string{{"Chest", "80"}}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(&telemetry.Recorder{}).Details(ctx, site.URL+"/exercise/bench-press/")
	require.ErrorIs(t, err, context.Canceled)
}

func TestClientFetchKeepsStatus(t *testing.T) {
	site := newTestSite(t)
	site.fail("/gone/", http.StatusGone)

	page, err := newTestClient(&telemetry.Recorder{}).Fetch(context.Background(), site.URL+"/gone/")
	require.NoError(t, err)
	require.Equal(t, http.StatusGone, page.StatusCode)
	require.False(t, page.Ok())
}
