package cart

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/resort-storefront/internal/logger"
	"github.com/iliyamo/resort-storefront/internal/model"
	"github.com/iliyamo/resort-storefront/internal/session"
	"github.com/iliyamo/resort-storefront/internal/storage"
)

type mockRemote struct {
	getFn   func(ctx context.Context, tok string) (*model.RemoteCart, error)
	syncFn  func(ctx context.Context, tok string, item model.CartItem) error
	clearFn func(ctx context.Context, tok string) error
}

func (m *mockRemote) GetCart(ctx context.Context, tok string) (*model.RemoteCart, error) {
	return m.getFn(ctx, tok)
}
func (m *mockRemote) SyncCart(ctx context.Context, tok string, item model.CartItem) error {
	return m.syncFn(ctx, tok, item)
}
func (m *mockRemote) ClearCart(ctx context.Context, tok string) error {
	return m.clearFn(ctx, tok)
}

// noNetwork fails the test on any remote call.
func noNetwork(t *testing.T) *mockRemote {
	return &mockRemote{
		getFn: func(context.Context, string) (*model.RemoteCart, error) {
			t.Error("unexpected GetCart")
			return nil, nil
		},
		syncFn: func(context.Context, string, model.CartItem) error {
			t.Error("unexpected SyncCart")
			return nil
		},
		clearFn: func(context.Context, string) error {
			t.Error("unexpected ClearCart")
			return nil
		},
	}
}

func newSlots(t *testing.T) (*miniredis.Miniredis, *storage.RedisSlotStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, storage.NewRedisSlotStore(rdb, "slot", time.Hour)
}

func sampleItem() model.CartItem {
	return model.CartItem{
		RoomID:   "room-1",
		RoomSlug: "villa",
		Name:     "Pool Villa",
		CheckIn:  model.NewDate(time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)),
		CheckOut: model.NewDate(time.Date(2026, 11, 4, 0, 0, 0, 0, time.UTC)),
		Guests:   model.Guests{Adults: 2, Rooms: 1},
		Financials: model.Financials{
			BaseTotal:  decimal.NewFromInt(1000),
			Taxes:      decimal.NewFromInt(100),
			GrandTotal: decimal.NewFromInt(1100),
			Currency:   "INR",
		},
	}
}

var guest = session.Identity{SessionID: "sess-1"}
var member = session.Identity{SessionID: "sess-1", Token: "jwt"}

func TestAddToCart_SurvivesReloadWithoutNetwork(t *testing.T) {
	_, slots := newSlots(t)
	s := NewStore(slots, noNetwork(t), nil)

	s.AddToCart(context.Background(), guest, sampleItem())
	added := s.State().Item
	require.NotNil(t, added)
	assert.NotEmpty(t, added.ID)

	reloaded := NewStore(slots, noNetwork(t), nil)
	reloaded.FetchCart(context.Background(), guest)

	got := reloaded.State().Item
	require.NotNil(t, got)
	assert.Equal(t, added.ID, got.ID)
	assert.Equal(t, "villa", got.RoomSlug)
	assert.True(t, got.Financials.GrandTotal.Equal(decimal.NewFromInt(1100)))
	assert.Equal(t, added.CheckOut.String(), got.CheckOut.String())
}

func TestAddToCart_ReplacesExistingItem(t *testing.T) {
	_, slots := newSlots(t)
	s := NewStore(slots, noNetwork(t), nil)

	s.AddToCart(context.Background(), guest, sampleItem())
	other := sampleItem()
	other.RoomSlug = "cottage"
	s.AddToCart(context.Background(), guest, other)

	assert.Equal(t, "cottage", s.State().Item.RoomSlug)
}

func TestAddToCart_SlotWrittenBeforeRemoteSync(t *testing.T) {
	_, slots := newSlots(t)
	var sawLocal bool
	remote := &mockRemote{syncFn: func(ctx context.Context, tok string, item model.CartItem) error {
		raw, err := slots.Get(ctx, "sess-1", SlotName)
		sawLocal = err == nil && len(raw) > 0
		assert.Equal(t, "jwt", tok)
		return nil
	}}
	s := NewStore(slots, remote, nil)

	s.AddToCart(context.Background(), member, sampleItem())

	assert.True(t, sawLocal)
}

func TestAddToCart_RemoteFailureIsLoggedNotRolledBack(t *testing.T) {
	_, slots := newSlots(t)
	rec := &logger.Recorder{}
	remote := &mockRemote{syncFn: func(context.Context, string, model.CartItem) error {
		return errors.New("503 service unavailable")
	}}
	s := NewStore(slots, remote, rec)

	s.AddToCart(context.Background(), member, sampleItem())

	assert.NotNil(t, s.State().Item)
	assert.True(t, rec.Contains("503 service unavailable"))
	_, err := slots.Get(context.Background(), "sess-1", SlotName)
	assert.NoError(t, err)
}

func TestUpdateCartItem_KeepsID(t *testing.T) {
	_, slots := newSlots(t)
	s := NewStore(slots, noNetwork(t), nil)
	s.AddToCart(context.Background(), guest, sampleItem())
	id := s.State().Item.ID

	upd := sampleItem()
	upd.Guests.Adults = 3
	s.UpdateCartItem(context.Background(), guest, upd)

	assert.Equal(t, id, s.State().Item.ID)
	assert.Equal(t, 3, s.State().Item.Guests.Adults)
}

func TestFetchCart_AuthenticatedOverwritesLocal(t *testing.T) {
	_, slots := newSlots(t)
	remoteItem := sampleItem()
	remoteItem.ID = "remote-1"
	remote := &mockRemote{getFn: func(ctx context.Context, tok string) (*model.RemoteCart, error) {
		return &model.RemoteCart{Items: []model.CartItem{remoteItem}}, nil
	}}

	local := NewStore(slots, noNetwork(t), nil)
	local.AddToCart(context.Background(), guest, sampleItem())

	s := NewStore(slots, remote, nil)
	s.FetchCart(context.Background(), member)

	require.NotNil(t, s.State().Item)
	assert.Equal(t, "remote-1", s.State().Item.ID)

	mirror := NewStore(slots, noNetwork(t), nil)
	mirror.FetchCart(context.Background(), guest)
	assert.Equal(t, "remote-1", mirror.State().Item.ID)
}

func TestFetchCart_RemoteWithoutItemsIsEmpty(t *testing.T) {
	_, slots := newSlots(t)
	remote := &mockRemote{getFn: func(context.Context, string) (*model.RemoteCart, error) {
		return &model.RemoteCart{}, nil
	}}
	s := NewStore(slots, remote, nil)

	s.FetchCart(context.Background(), member)

	assert.Nil(t, s.State().Item)
	assert.False(t, s.State().Loading)
}

func TestFetchCart_RemoteDownFallsBackToSlot(t *testing.T) {
	_, slots := newSlots(t)
	rec := &logger.Recorder{}
	remote := &mockRemote{
		getFn:  func(context.Context, string) (*model.RemoteCart, error) { return nil, errors.New("dial tcp: connection refused") },
		syncFn: func(context.Context, string, model.CartItem) error { return errors.New("dial tcp: connection refused") },
	}

	first := NewStore(slots, remote, rec)
	first.AddToCart(context.Background(), member, sampleItem())
	added := first.State().Item
	require.NotNil(t, added)

	reloaded := NewStore(slots, remote, rec)
	reloaded.FetchCart(context.Background(), member)

	got := reloaded.State().Item
	require.NotNil(t, got)
	assert.Equal(t, added.ID, got.ID)
	assert.False(t, reloaded.State().Loading)
	assert.True(t, rec.Contains("using local copy"))
}

func TestFetchCart_CorruptSlotIsEmpty(t *testing.T) {
	mr, slots := newSlots(t)
	require.NoError(t, mr.Set("slot:sess-1:cart", "{not json"))
	rec := &logger.Recorder{}
	s := NewStore(slots, noNetwork(t), rec)

	s.FetchCart(context.Background(), guest)

	assert.Nil(t, s.State().Item)
	assert.True(t, rec.Contains("parse cart slot"))
}

func TestClearCart_LocalClearedEvenIfRemoteFails(t *testing.T) {
	mr, slots := newSlots(t)
	remote := &mockRemote{
		syncFn:  func(context.Context, string, model.CartItem) error { return nil },
		clearFn: func(context.Context, string) error { return errors.New("timeout") },
	}
	s := NewStore(slots, remote, nil)
	s.AddToCart(context.Background(), member, sampleItem())

	s.ClearCart(context.Background(), member)

	assert.Nil(t, s.State().Item)
	assert.False(t, mr.Exists("slot:sess-1:cart"))
}

func TestRemoveFromCart(t *testing.T) {
	mr, slots := newSlots(t)
	s := NewStore(slots, noNetwork(t), nil)
	s.AddToCart(context.Background(), guest, sampleItem())

	s.RemoveFromCart(context.Background(), guest, s.State().Item.ID)

	assert.Nil(t, s.State().Item)
	assert.False(t, mr.Exists("slot:sess-1:cart"))
}

func TestFetchCart_StaleResultAfterClearIsDropped(t *testing.T) {
	_, slots := newSlots(t)
	started := make(chan struct{})
	release := make(chan struct{})
	remote := &mockRemote{
		getFn: func(context.Context, string) (*model.RemoteCart, error) {
			close(started)
			<-release
			return &model.RemoteCart{Items: []model.CartItem{sampleItem()}}, nil
		},
		clearFn: func(context.Context, string) error { return nil },
	}
	s := NewStore(slots, remote, nil)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.FetchCart(context.Background(), member)
	}()
	<-started
	s.ClearCart(context.Background(), member)
	close(release)
	wg.Wait()

	assert.Nil(t, s.State().Item)
	assert.False(t, s.State().Loading)
}

func TestToggleCart(t *testing.T) {
	_, slots := newSlots(t)
	s := NewStore(slots, noNetwork(t), nil)

	var opened []bool
	s.Subscribe(func(st State) { opened = append(opened, st.IsOpen) })
	s.ToggleCart()
	s.ToggleCart()

	assert.Equal(t, []bool{true, false}, opened)
}
