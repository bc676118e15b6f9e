package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestShoppingHandlerLifecycle(t *testing.T) {
	db := openHandlerTestDB(t)
	handler, err := NewShoppingHandler(db)
	require.NoError(t, err)

	_, project := seedTeamWithProject(t, db, "user-admin")
	projectParams := gin.Params{{Key: "projectID", Value: project.ID}}

	c, recorder := newJSONContext(t, http.MethodPost, gin.H{
		"name": "Whiteboard markers",
		"note": "for the war room",
	}, projectParams, "user-admin")
	handler.Add(c)
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())

	var item struct {
		ID       string `json:"id"`
		Quantity int    `json:"quantity"`
	}
	decodeDataInto(t, recorder, &item)
	require.Equal(t, 1, item.Quantity)

	itemParams := gin.Params{
		{Key: "projectID", Value: project.ID},
		{Key: "itemID", Value: item.ID},
	}
	c, recorder = newJSONContext(t, http.MethodPatch, gin.H{"purchased": true}, itemParams, "user-admin")
	handler.Update(c)
	require.Equal(t, http.StatusOK, recorder.Code)

	c, recorder = newJSONContext(t, http.MethodGet, nil, projectParams, "user-admin")
	handler.List(c)
	require.Equal(t, http.StatusOK, recorder.Code)

	var items []struct {
		Purchased bool `json:"purchased"`
	}
	decodeDataInto(t, recorder, &items)
	require.Len(t, items, 1)
	require.True(t, items[0].Purchased)

	// Items cannot be touched through another project id.
	c, recorder = newJSONContext(t, http.MethodPatch, gin.H{"purchased": false}, gin.Params{
		{Key: "projectID", Value: "other-project"},
		{Key: "itemID", Value: item.ID},
	}, "user-admin")
	handler.Update(c)
	require.Equal(t, http.StatusNotFound, recorder.Code)

	c, recorder = newJSONContext(t, http.MethodDelete, nil, itemParams, "user-admin")
	handler.Remove(c)
	require.Equal(t, http.StatusOK, recorder.Code)
}
