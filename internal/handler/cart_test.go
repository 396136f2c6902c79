package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/resort-storefront/internal/cart"
	"github.com/iliyamo/resort-storefront/internal/model"
	"github.com/iliyamo/resort-storefront/internal/session"
)

const addBody = `{"roomSlug":"pool-villa","checkIn":"2026-12-20","checkOut":"2026-12-23","adults":2,"children":0,"rooms":1}`

func addToCart(t *testing.T, h *CartHandler, id session.Identity, body string) cartResponse {
	t.Helper()
	c, rec := newContext(newEcho(), id, http.MethodPost, "/v1/cart", body)
	require.NoError(t, h.Add(c))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp cartResponse
	decode(t, rec, &resp)
	return resp
}

func getCart(t *testing.T, h *CartHandler, id session.Identity) cartResponse {
	t.Helper()
	c, rec := newContext(newEcho(), id, http.MethodGet, "/v1/cart", "")
	require.NoError(t, h.Get(c))
	var resp cartResponse
	decode(t, rec, &resp)
	return resp
}

func TestCart_GuestAddSurvivesReload(t *testing.T) {
	slots, _ := newSlots(t)
	remote := &mockRemote{}
	h := NewCartHandler(slots, remote, staticRooms(), nil)

	added := addToCart(t, h, guest, addBody)
	require.NotNil(t, added.Item)
	assert.NotEmpty(t, added.Item.ID)
	assert.Equal(t, "pool-villa", added.Item.RoomSlug)

	raw, err := slots.Get(context.Background(), guest.SessionID, cart.SlotName)
	require.NoError(t, err)
	var stored model.CartItem
	require.NoError(t, json.Unmarshal(raw, &stored))
	assert.Equal(t, added.Item.ID, stored.ID)

	reloaded := getCart(t, h, guest)
	require.NotNil(t, reloaded.Item)
	assert.Equal(t, added.Item.ID, reloaded.Item.ID)
	assert.Empty(t, remote.synced, "guests never touch the backend cart")
}

func TestCart_MemberAddSyncsRemote(t *testing.T) {
	slots, _ := newSlots(t)
	remote := &mockRemote{}
	h := NewCartHandler(slots, remote, staticRooms(), nil)

	added := addToCart(t, h, member, addBody)

	require.Len(t, remote.synced, 1)
	assert.Equal(t, added.Item.ID, remote.synced[0].ID)
}

func TestCart_MemberFetchPrefersRemote(t *testing.T) {
	slots, _ := newSlots(t)
	remote := &mockRemote{getFn: func(context.Context, string) (*model.RemoteCart, error) {
		return &model.RemoteCart{Items: []model.CartItem{{ID: "remote-1", RoomSlug: "garden-suite"}}}, nil
	}}
	h := NewCartHandler(slots, remote, staticRooms(), nil)
	require.NoError(t, slots.Set(context.Background(), member.SessionID, cart.SlotName, []byte(`{"id":"local-1"}`)))

	got := getCart(t, h, member)
	require.NotNil(t, got.Item)
	assert.Equal(t, "remote-1", got.Item.ID)
}

func TestCart_MemberCartSurvivesBackendOutage(t *testing.T) {
	slots, _ := newSlots(t)
	remote := &mockRemote{}
	h := NewCartHandler(slots, remote, staticRooms(), nil)
	added := addToCart(t, h, member, addBody)
	require.NotNil(t, added.Item)

	remote.getFn = func(context.Context, string) (*model.RemoteCart, error) {
		return nil, errors.New("dial tcp 10.0.0.5:8080: connection refused")
	}

	reloaded := getCart(t, h, member)
	require.NotNil(t, reloaded.Item)
	assert.Equal(t, added.Item.ID, reloaded.Item.ID)

	body := `{"roomSlug":"pool-villa","checkIn":"2026-12-20","checkOut":"2026-12-23","adults":3,"children":0,"rooms":1}`
	c, rec := newContext(newEcho(), member, http.MethodPut, "/v1/cart", body)
	require.NoError(t, h.Update(c))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp cartResponse
	decode(t, rec, &resp)
	assert.Equal(t, added.Item.ID, resp.Item.ID)
	assert.Equal(t, 3, resp.Item.Guests.Adults)
}

func TestCart_UpdateKeepsID(t *testing.T) {
	slots, _ := newSlots(t)
	h := NewCartHandler(slots, &mockRemote{}, staticRooms(), nil)
	added := addToCart(t, h, guest, addBody)

	body := `{"roomSlug":"pool-villa","checkIn":"2026-12-20","checkOut":"2026-12-23","adults":3,"children":0,"rooms":1}`
	c, rec := newContext(newEcho(), guest, http.MethodPut, "/v1/cart", body)
	require.NoError(t, h.Update(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp cartResponse
	decode(t, rec, &resp)
	assert.Equal(t, added.Item.ID, resp.Item.ID)
	assert.Equal(t, 3, resp.Item.Guests.Adults)
	assert.Equal(t, 1, resp.Item.Breakdown.ExtraAdults)
}

func TestCart_UpdateEmptyCart(t *testing.T) {
	slots, _ := newSlots(t)
	h := NewCartHandler(slots, &mockRemote{}, staticRooms(), nil)

	c, rec := newContext(newEcho(), guest, http.MethodPut, "/v1/cart", addBody)
	require.NoError(t, h.Update(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCart_RemoveAndClear(t *testing.T) {
	slots, _ := newSlots(t)
	remote := &mockRemote{}
	h := NewCartHandler(slots, remote, staticRooms(), nil)

	added := addToCart(t, h, member, addBody)
	c, rec := newContext(newEcho(), member, http.MethodDelete, "/v1/cart/items/"+added.Item.ID, "")
	c.SetParamNames("id")
	c.SetParamValues(added.Item.ID)
	require.NoError(t, h.Remove(c))

	var resp cartResponse
	decode(t, rec, &resp)
	assert.Nil(t, resp.Item)
	assert.Equal(t, 1, remote.cleared)

	addToCart(t, h, guest, addBody)
	c, rec = newContext(newEcho(), guest, http.MethodDelete, "/v1/cart", "")
	require.NoError(t, h.Clear(c))
	decode(t, rec, &resp)
	assert.Nil(t, resp.Item)
	assert.Nil(t, getCart(t, h, guest).Item)
}

func TestCart_TogglePersistsDrawer(t *testing.T) {
	slots, _ := newSlots(t)
	h := NewCartHandler(slots, &mockRemote{}, staticRooms(), nil)

	toggle := func() cartResponse {
		c, rec := newContext(newEcho(), guest, http.MethodPost, "/v1/cart/toggle", "")
		require.NoError(t, h.Toggle(c))
		var resp cartResponse
		decode(t, rec, &resp)
		return resp
	}

	assert.True(t, toggle().IsOpen)
	assert.True(t, getCart(t, h, guest).IsOpen)
	assert.False(t, toggle().IsOpen)
	assert.False(t, getCart(t, h, guest).IsOpen)
}

func TestCart_AddRejectsOverCapacity(t *testing.T) {
	slots, _ := newSlots(t)
	h := NewCartHandler(slots, &mockRemote{}, staticRooms(), nil)

	body := `{"roomSlug":"pool-villa","checkIn":"2026-12-20","checkOut":"2026-12-23","adults":9,"rooms":1}`
	c, rec := newContext(newEcho(), guest, http.MethodPost, "/v1/cart", body)
	require.NoError(t, h.Add(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, getCart(t, h, guest).Item)
}
