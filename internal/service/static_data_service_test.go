package service_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/riftstats/pipeline/internal/repository"
	"github.com/riftstats/pipeline/internal/repository/postgres"
	"github.com/riftstats/pipeline/internal/riot"
	"github.com/riftstats/pipeline/internal/service"
	"github.com/riftstats/pipeline/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogVersion = "14.10.1"

// newCatalogStub serves a minimal Data Dragon snapshot: two champions, one
// of them with an unparseable key, and two items on either side of the
// completed-item gold threshold.
func newCatalogStub(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/versions.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `["%s", "14.9.1"]`, catalogVersion)
	})
	mux.HandleFunc(fmt.Sprintf("/cdn/%s/data/en_US/champion.json", catalogVersion), func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data": {
			"Aatrox": {"id": "Aatrox", "key": "266", "name": "Aatrox", "title": "the Darkin Blade", "tags": ["Fighter", "Tank"], "image": {"full": "Aatrox.png"}},
			"Ahri":   {"id": "Ahri", "key": "103", "name": "Ahri", "title": "the Nine-Tailed Fox", "tags": ["Mage"], "image": {"full": "Ahri.png"}},
			"Broken": {"id": "Broken", "key": "not-a-number", "name": "Broken", "title": "", "tags": [], "image": {"full": "Broken.png"}}
		}}`)
	})
	mux.HandleFunc(fmt.Sprintf("/cdn/%s/data/en_US/item.json", catalogVersion), func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data": {
			"3074": {"name": "Ravenous Hydra", "gold": {"total": 3300, "purchasable": true}, "tags": ["Damage"]},
			"1055": {"name": "Doran's Blade", "gold": {"total": 450, "purchasable": true}, "tags": ["Lane"]}
		}}`)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newStaticDataFixture(t *testing.T, cdnURL string) (*service.StaticDataService, *repository.Repositories) {
	t.Helper()

	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB)
	ddragon := riot.NewDataDragonClient().WithBaseURL(cdnURL)

	return service.NewStaticDataService(repos.Champion, repos.Item, ddragon), repos
}

func TestStaticDataService_SyncAll(t *testing.T) {
	stub := newCatalogStub(t)
	svc, repos := newStaticDataFixture(t, stub.URL)
	ctx := context.Background()

	result, err := svc.SyncAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, catalogVersion, result.Version)
	assert.Equal(t, 2, result.Champions, "the champion with a bad key is skipped")
	assert.Equal(t, 2, result.Items)

	champions, err := repos.Champion.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, champions, 2)

	byID := map[int]string{}
	for _, c := range champions {
		byID[c.ID] = c.Name
		if c.ID == 266 {
			assert.Equal(t, "Aatrox", c.Slug)
			assert.Contains(t, c.ImageURL, "/cdn/14.10.1/img/champion/Aatrox.png")
			assert.JSONEq(t, `["Fighter", "Tank"]`, string(c.Tags))
		}
	}
	assert.Equal(t, map[int]string{266: "Aatrox", 103: "Ahri"}, byID)

	completed, err := repos.Item.CompletedItemIDs(ctx, 2000)
	require.NoError(t, err)
	assert.True(t, completed[3074])
	assert.False(t, completed[1055], "component items stay below the threshold")
}

func TestStaticDataService_SyncAll_Resync(t *testing.T) {
	stub := newCatalogStub(t)
	svc, repos := newStaticDataFixture(t, stub.URL)
	ctx := context.Background()

	_, err := svc.SyncAll(ctx)
	require.NoError(t, err)
	result, err := svc.SyncAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Champions)

	champions, err := repos.Champion.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, champions, 2, "resync updates in place")
}

func TestStaticDataService_SyncAll_NoVersions(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/versions.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	})
	stub := httptest.NewServer(mux)
	t.Cleanup(stub.Close)

	// Version resolution fails before any repository access.
	ddragon := riot.NewDataDragonClient().WithBaseURL(stub.URL)
	svc := service.NewStaticDataService(nil, nil, ddragon)

	_, err := svc.SyncAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "resolve catalog version")
}
