// Package registry holds marketplace items and enforces their lifecycle
// transitions.
//
// The legal transitions are:
//
//	owned           --list(owner)-->        listed_for_sale
//	for_sale        --list(seller)-->       listed_for_sale (re-price)
//	listed_for_sale --unlist(holder)-->     owned (or for_sale if never owned)
//	for_sale,
//	listed_for_sale --transfer(buyer)-->    owned
//
// Every transition increments the item's version; TransferOwnership is a
// compare-and-swap keyed by the version the caller read, so two concurrent
// purchases of the same item can never both succeed.
package registry

import (
	"sort"
	"sync"
	"time"

	"github.com/efreitasn/nftmarket/internal/domain"
)

// Filter narrows the result of Items. Zero values match everything.
type Filter struct {
	Game   string
	Rarity string
	Status domain.ItemStatus
	Holder string
}

// Stats aggregates registry-wide item counts.
type Stats struct {
	TotalItems     int
	ActiveListings int
	ByStatus       map[domain.ItemStatus]int
	ByGame         map[string]int
}

// Registry is a thread-safe in-memory item registry with a price-ordered
// index of active listings.
type Registry struct {
	mu       sync.RWMutex
	items    map[int64]*domain.Item
	listings *listingIndex
	nextID   int64
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		items:    make(map[int64]*domain.Item),
		listings: newListingIndex(),
		nextID:   1,
	}
}

// Add assigns an ID and version to the item and stores it. Purchasable
// items are inserted into the listing index. Returns a snapshot of the
// stored item.
func (r *Registry) Add(item *domain.Item) *domain.Item {
	r.mu.Lock()
	defer r.mu.Unlock()

	item.ID = r.nextID
	r.nextID++
	item.Version = 1
	now := time.Now()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = item.CreatedAt

	r.items[item.ID] = item
	if item.Purchasable() {
		r.listings.Insert(listingEntry{Price: item.Price, ListedAt: item.UpdatedAt, ItemID: item.ID})
	}
	return snapshot(item)
}

// Restore installs an item with its existing ID and version, replacing
// any stored item. Used to seed state from a snapshot at startup; not
// safe to call concurrently with other operations.
func (r *Registry) Restore(item *domain.Item) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[item.ID] = item
	if item.ID >= r.nextID {
		r.nextID = item.ID + 1
	}
	if item.Purchasable() {
		r.listings.Insert(listingEntry{Price: item.Price, ListedAt: item.UpdatedAt, ItemID: item.ID})
	} else {
		r.listings.Remove(item.ID)
	}
}

// Get retrieves a snapshot of an item by ID. It returns
// domain.ErrItemNotFound if the item does not exist.
func (r *Registry) Get(id int64) (*domain.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	if !ok {
		return nil, domain.ErrItemNotFound
	}
	return snapshot(item), nil
}

// Items returns snapshots of all items matching the filter, ordered by ID.
func (r *Registry) Items(f Filter) []*domain.Item {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.Item, 0)
	for _, item := range r.items {
		if matches(item, f) {
			result = append(result, snapshot(item))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// Browse returns snapshots of up to limit active listings, cheapest first.
func (r *Registry) Browse(limit int) []*domain.Item {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit <= 0 {
		return []*domain.Item{}
	}
	result := make([]*domain.Item, 0, limit)
	r.listings.Walk(func(entry listingEntry) bool {
		item, ok := r.items[entry.ItemID]
		if ok {
			result = append(result, snapshot(item))
		}
		return len(result) < limit
	})
	return result
}

// List transitions an item to listed_for_sale at the given price.
//
// Owned items may be listed by their owner. Catalog items still in
// for_sale may be re-priced by their original seller. Items already in
// listed_for_sale return domain.ErrAlreadyListed; anyone other than the
// holder gets domain.ErrNotOwner.
func (r *Registry) List(itemID int64, caller string, price int64) (*domain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[itemID]
	if !ok {
		return nil, domain.ErrItemNotFound
	}

	switch item.Status {
	case domain.ItemStatusListed:
		return nil, domain.ErrAlreadyListed
	case domain.ItemStatusOwned:
		if caller != item.Owner {
			return nil, domain.ErrNotOwner
		}
	case domain.ItemStatusForSale:
		if caller != item.Seller {
			return nil, domain.ErrNotOwner
		}
	default:
		return nil, domain.ErrNotOwner
	}

	item.Status = domain.ItemStatusListed
	item.Price = price
	item.Seller = caller
	item.Version++
	item.UpdatedAt = time.Now()
	r.listings.Insert(listingEntry{Price: item.Price, ListedAt: item.UpdatedAt, ItemID: item.ID})

	return snapshot(item), nil
}

// Unlist takes a listed item off the market. Items with an owner return
// to owned and leave the listing index; never-owned catalog listings
// revert to for_sale (keeping the owned-implies-owner invariant) and stay
// purchasable at their mint price. The listing price is retained either way.
func (r *Registry) Unlist(itemID int64, caller string) (*domain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[itemID]
	if !ok {
		return nil, domain.ErrItemNotFound
	}
	if item.Status != domain.ItemStatusListed {
		return nil, domain.ErrNotListed
	}
	if caller != item.Holder() {
		return nil, domain.ErrNotOwner
	}

	if item.Owner != "" {
		item.Status = domain.ItemStatusOwned
		r.listings.Remove(item.ID)
	} else {
		item.Status = domain.ItemStatusForSale
	}
	item.Version++
	item.UpdatedAt = time.Now()

	return snapshot(item), nil
}

// TransferOwnership moves a purchasable item to the buyer, marking it
// owned. The swap is keyed by expectedVersion: if the item has changed
// since the caller read it, domain.ErrConflict is returned and nothing
// moves. Non-purchasable items return domain.ErrNotPurchasable; a buyer
// who already holds the item returns domain.ErrSelfTrade.
func (r *Registry) TransferOwnership(itemID int64, buyer string, expectedVersion int64) (*domain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[itemID]
	if !ok {
		return nil, domain.ErrItemNotFound
	}
	if !item.Purchasable() {
		return nil, domain.ErrNotPurchasable
	}
	if buyer == item.Holder() {
		return nil, domain.ErrSelfTrade
	}
	if item.Version != expectedVersion {
		return nil, domain.ErrConflict
	}

	item.Owner = buyer
	item.Status = domain.ItemStatusOwned
	item.Version++
	item.UpdatedAt = time.Now()
	r.listings.Remove(item.ID)

	return snapshot(item), nil
}

// Stats aggregates item counts by status and game plus the size of the
// listing index.
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := Stats{
		TotalItems:     len(r.items),
		ActiveListings: r.listings.Len(),
		ByStatus:       make(map[domain.ItemStatus]int),
		ByGame:         make(map[string]int),
	}
	for _, item := range r.items {
		s.ByStatus[item.Status]++
		s.ByGame[item.Game]++
	}
	return s
}

// matches reports whether the item satisfies every set filter field.
func matches(item *domain.Item, f Filter) bool {
	if f.Game != "" && item.Game != f.Game {
		return false
	}
	if f.Rarity != "" && item.Rarity != f.Rarity {
		return false
	}
	if f.Status != "" && item.Status != f.Status {
		return false
	}
	if f.Holder != "" && item.Holder() != f.Holder {
		return false
	}
	return true
}

// snapshot copies an item so callers never share memory with the
// registry's mutable state.
func snapshot(item *domain.Item) *domain.Item {
	cp := *item
	return &cp
}
