package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const overviewBody = `{"status":"success","data":{
 "stats":{"inventory":42,"activeNegotiations":5,"activeClients":17},
 "recentActivity":[
  {"_id":"c1","client":{"_id":"cl1","firstName":"Ada","lastName":"Lovelace"},"vehicle":{"brand":"Peugeot","model":"208"},
   "messages":[{"content":"premier"},{"content":"dernier"}],"updatedAt":"2024-05-01T10:00:00Z"},
  {"id":"c2","vehicle":{"make":"Renault","model":"Clio"}}]}}`

const fiveVehicles = `{"status":"success","data":{"vehicles":[
 {"_id":"v1","make":"A","model":"1"},{"_id":"v2","make":"B","model":"2"},{"_id":"v3","make":"C","model":"3"},
 {"_id":"v4","make":"D","model":"4"},{"_id":"v5","make":"E","model":"5"}]}}`

func TestDashboard_Overview(t *testing.T) {
	_, d := newBackend(t, map[string]string{
		"GET /dashboard/overview": overviewBody,
		"GET /vehicles":           fiveVehicles,
	})
	o, err := NewDashboard(d).Overview(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 42, o.Stats.Inventory)
	assert.Equal(t, 5, o.Stats.ActiveNegotiations)
	assert.Equal(t, 17, o.Stats.ActiveClients)

	require.Len(t, o.RecentActivity, 2)
	assert.Equal(t, "Ada Lovelace", o.RecentActivity[0].ClientName)
	assert.Equal(t, "Peugeot 208", o.RecentActivity[0].Vehicle)
	assert.Equal(t, "dernier", o.RecentActivity[0].LastMessage)
	assert.Equal(t, "c2", o.RecentActivity[1].ID)
	assert.Equal(t, "System", o.RecentActivity[1].ClientName)
	assert.Equal(t, "Discussion ouverte", o.RecentActivity[1].LastMessage)

	assert.Len(t, o.Vehicles, 4)
}

func TestDashboard_OverviewWithoutVehicles(t *testing.T) {
	_, d := newBackend(t, map[string]string{"GET /dashboard/overview": overviewBody})
	o, err := NewDashboard(d).Overview(context.Background())
	require.NoError(t, err)
	assert.Empty(t, o.Vehicles)
	assert.Len(t, o.RecentActivity, 2)
}

func TestDashboard_OverviewFailure(t *testing.T) {
	_, d := newBackend(t, map[string]string{})
	_, err := NewDashboard(d).Overview(context.Background())
	assert.Error(t, err)
}
