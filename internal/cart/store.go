// Package cart keeps a visitor's single cart line item in sync between the
// persistent slot store and, for signed-in visitors, the backend cart.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/iliyamo/resort-storefront/internal/logger"
	"github.com/iliyamo/resort-storefront/internal/model"
	"github.com/iliyamo/resort-storefront/internal/session"
	"github.com/iliyamo/resort-storefront/internal/storage"
)

// SlotName is the slot the current line item is mirrored into.
const SlotName = "cart"

// Remote is the backend cart service.
type Remote interface {
	GetCart(ctx context.Context, authToken string) (*model.RemoteCart, error)
	SyncCart(ctx context.Context, authToken string, item model.CartItem) error
	ClearCart(ctx context.Context, authToken string) error
}

// State is a snapshot of the cart. Item is nil when the cart is empty.
type State struct {
	Item    *model.CartItem
	IsOpen  bool
	Loading bool
}

// Store owns one visitor's cart. Only one line item exists at a time; any
// add or update replaces it. Methods never return errors: slot and remote
// failures are logged and the visible action goes ahead.
type Store struct {
	slots  storage.SlotStore
	remote Remote
	log    logger.Logger

	mu    sync.Mutex
	state State
	gen   uint64
	subs  map[int]func(State)
	next  int
}

func NewStore(slots storage.SlotStore, remote Remote, log logger.Logger) *Store {
	if log == nil {
		log = logger.Nop{}
	}
	return &Store{slots: slots, remote: remote, log: log, subs: map[int]func(State){}}
}

// State returns a copy of the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Subscribe registers fn for state changes and returns its remover.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// FetchCart loads the cart: from the slot for anonymous visitors, from the
// backend for signed-in ones. The backend result overwrites the slot; when
// the backend cannot be reached the slot is used instead. If the cart was
// mutated while the fetch was in flight the result is dropped.
func (s *Store) FetchCart(ctx context.Context, id session.Identity) {
	s.mu.Lock()
	start := s.gen
	s.state.Loading = true
	s.commitLocked()

	var (
		item   *model.CartItem
		mirror bool
	)
	if !id.Authenticated() {
		item = s.loadLocal(ctx, id.SessionID)
	} else {
		rc, err := s.remote.GetCart(ctx, id.Token)
		switch {
		case err != nil:
			s.log.Error("fetch remote cart, using local copy: %v", err)
			item = s.loadLocal(ctx, id.SessionID)
		case rc != nil && len(rc.Items) > 0:
			it := rc.Items[0]
			item = &it
			mirror = true
		default:
			mirror = true
		}
	}

	s.mu.Lock()
	s.state.Loading = false
	if start != s.gen {
		s.log.Debug("cart changed during fetch; dropping fetched cart")
		s.commitLocked()
		return
	}
	s.state.Item = item
	s.commitLocked()

	if mirror {
		s.saveLocal(ctx, id.SessionID, item)
	}
}

// AddToCart replaces the cart with item.
func (s *Store) AddToCart(ctx context.Context, id session.Identity, item model.CartItem) {
	s.put(ctx, id, item)
}

// UpdateCartItem replaces the cart with item, keeping the current line
// item id when item has none.
func (s *Store) UpdateCartItem(ctx context.Context, id session.Identity, item model.CartItem) {
	if item.ID == "" {
		if cur := s.State().Item; cur != nil {
			item.ID = cur.ID
		}
	}
	s.put(ctx, id, item)
}

// RemoveFromCart empties the cart. With a single line item per cart the id
// only matters for logging.
func (s *Store) RemoveFromCart(ctx context.Context, id session.Identity, itemID string) {
	if cur := s.State().Item; cur != nil && cur.ID != itemID {
		s.log.Debug("remove %s: cart holds %s, clearing anyway", itemID, cur.ID)
	}
	s.clear(ctx, id)
}

// ClearCart empties the cart.
func (s *Store) ClearCart(ctx context.Context, id session.Identity) {
	s.clear(ctx, id)
}

// ToggleCart flips the drawer visibility flag. It is never persisted.
func (s *Store) ToggleCart() {
	s.mu.Lock()
	s.state.IsOpen = !s.state.IsOpen
	s.commitLocked()
}

func (s *Store) put(ctx context.Context, id session.Identity, item model.CartItem) {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}

	s.mu.Lock()
	s.gen++
	it := item
	s.state.Item = &it
	s.commitLocked()

	s.saveLocal(ctx, id.SessionID, &item)

	if id.Authenticated() {
		if err := s.remote.SyncCart(ctx, id.Token, item); err != nil {
			s.log.Error("sync cart item %s: %v", item.ID, err)
		}
	}
}

func (s *Store) clear(ctx context.Context, id session.Identity) {
	s.mu.Lock()
	s.gen++
	s.state.Item = nil
	s.commitLocked()

	s.saveLocal(ctx, id.SessionID, nil)

	if id.Authenticated() {
		if err := s.remote.ClearCart(ctx, id.Token); err != nil {
			s.log.Error("clear remote cart: %v", err)
		}
	}
}

func (s *Store) loadLocal(ctx context.Context, sessionID string) *model.CartItem {
	raw, err := s.slots.Get(ctx, sessionID, SlotName)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		s.log.Error("read cart slot: %v", err)
		return nil
	}
	var item model.CartItem
	if err := json.Unmarshal(raw, &item); err != nil {
		s.log.Error("parse cart slot: %v", err)
		return nil
	}
	return &item
}

// saveLocal writes item to the slot, or deletes the slot when item is nil.
func (s *Store) saveLocal(ctx context.Context, sessionID string, item *model.CartItem) {
	if item == nil {
		if err := s.slots.Delete(ctx, sessionID, SlotName); err != nil {
			s.log.Error("delete cart slot: %v", err)
		}
		return
	}
	raw, err := json.Marshal(item)
	if err != nil {
		s.log.Error("encode cart item %s: %v", item.ID, err)
		return
	}
	if err := s.slots.Set(ctx, sessionID, SlotName, raw); err != nil {
		s.log.Error("write cart slot: %v", err)
	}
}

// commitLocked must be called with s.mu held; it releases the lock and
// notifies subscribers.
func (s *Store) commitLocked() {
	snap := s.snapshot()
	subs := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()
	for _, fn := range subs {
		fn(snap)
	}
}

func (s *Store) snapshot() State {
	st := s.state
	if s.state.Item != nil {
		it := *s.state.Item
		st.Item = &it
	}
	return st
}
