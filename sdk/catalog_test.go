package sdk

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akinalp/votespace/models"
	"github.com/akinalp/votespace/pkg"
)

func TestCatalog_LoadAndSearch(t *testing.T) {
	api := newFakeAPI(t)
	api.mux.HandleFunc("GET /api/polls", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("filter") {
		case "expired":
			pkg.JSON(w, http.StatusOK, []models.Poll{{ID: "old", Title: "Old poll"}})
		default:
			pkg.JSON(w, http.StatusOK, []models.Poll{
				{ID: "p2", Title: "Team outing", Description: strPtr("Friday LUNCH plans")},
				{ID: "p1", Title: "Lunch?"},
				{ID: "p0", Title: "Standup time"},
			})
		}
	})

	catalog := NewCatalog(api.client())
	ctx := context.Background()

	require.NoError(t, catalog.Load(ctx, ""))
	assert.Equal(t, models.PollFilterAll, catalog.Filter())
	assert.False(t, catalog.Loading())
	assert.Len(t, catalog.Visible(), 3)

	before := api.requests.Load()
	catalog.SetSearch("lunch")
	visible := catalog.Visible()
	require.Len(t, visible, 2)
	assert.Equal(t, "p2", visible[0].ID, "server order is kept")
	assert.Equal(t, "p1", visible[1].ID)
	assert.Equal(t, before, api.requests.Load(), "search does not refetch")

	catalog.SetSearch("nothing matches")
	assert.Empty(t, catalog.Visible())
	assert.Len(t, catalog.Polls(), 3)

	catalog.SetSearch("")
	require.NoError(t, catalog.Load(ctx, models.PollFilterExpired))
	require.Len(t, catalog.Visible(), 1)
	assert.Equal(t, "old", catalog.Visible()[0].ID)
}

func TestCatalog_LoadErrorKeepsList(t *testing.T) {
	api := newFakeAPI(t)
	api.mux.HandleFunc("GET /api/polls", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("filter") == "bogus" {
			pkg.ErrorWithMessage(w, http.StatusBadRequest, `unknown filter "bogus" (want all, active or expired)`)
			return
		}
		pkg.JSON(w, http.StatusOK, []models.Poll{{ID: "p1", Title: "Lunch?"}})
	})

	catalog := NewCatalog(api.client())
	require.NoError(t, catalog.Load(context.Background(), models.PollFilterAll))

	err := catalog.Load(context.Background(), models.PollFilter("bogus"))
	require.Error(t, err)
	assert.Equal(t, err, catalog.Err())
	assert.Contains(t, catalog.Err().Error(), "unknown filter")
	assert.Len(t, catalog.Polls(), 1)
}
