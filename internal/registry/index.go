package registry

import (
	"time"

	"github.com/google/btree"
)

// listingEntry represents a single active listing in the price index.
type listingEntry struct {
	Price    int64
	ListedAt time.Time
	ItemID   int64
}

// listingLess orders listings price ascending, then listed_at ascending,
// then item id ascending. Min() returns the cheapest, oldest listing.
func listingLess(a, b listingEntry) bool {
	if a.Price != b.Price {
		return a.Price < b.Price
	}
	if !a.ListedAt.Equal(b.ListedAt) {
		return a.ListedAt.Before(b.ListedAt)
	}
	return a.ItemID < b.ItemID
}

// listingIndex maintains the active listings of the registry in a B-tree
// with a secondary index for O(log n) removal by item ID. It is not
// safe for concurrent use; the registry's lock guards all access.
type listingIndex struct {
	tree  *btree.BTreeG[listingEntry]
	index map[int64]listingEntry // item id → entry
}

// newListingIndex creates an empty listing index.
func newListingIndex() *listingIndex {
	const degree = 32
	return &listingIndex{
		tree:  btree.NewG[listingEntry](degree, listingLess),
		index: make(map[int64]listingEntry),
	}
}

// Insert adds or replaces the listing for an item.
func (li *listingIndex) Insert(entry listingEntry) {
	if old, ok := li.index[entry.ItemID]; ok {
		li.tree.Delete(old)
	}
	li.tree.ReplaceOrInsert(entry)
	li.index[entry.ItemID] = entry
}

// Remove deletes an item's listing. No-op if the item isn't listed.
func (li *listingIndex) Remove(itemID int64) {
	entry, ok := li.index[itemID]
	if !ok {
		return
	}
	delete(li.index, itemID)
	li.tree.Delete(entry)
}

// Walk iterates listings cheapest-first. The callback returns true to
// continue, false to stop.
func (li *listingIndex) Walk(fn func(listingEntry) bool) {
	li.tree.Ascend(fn)
}

// Len returns the number of active listings.
func (li *listingIndex) Len() int {
	return li.tree.Len()
}
