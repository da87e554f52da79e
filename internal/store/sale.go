package store

import (
	"sync"

	"github.com/efreitasn/nftmarket/internal/domain"
)

// SaleStore is a thread-safe in-memory store for sale records,
// with a chronological log and a secondary index by item_id.
type SaleStore struct {
	mu        sync.RWMutex
	sales     []*domain.Sale
	itemSales map[int64][]*domain.Sale // item_id → sales (chronological)
}

// NewSaleStore creates an empty SaleStore.
func NewSaleStore() *SaleStore {
	return &SaleStore{
		sales:     make([]*domain.Sale, 0),
		itemSales: make(map[int64][]*domain.Sale),
	}
}

// Append adds a sale to the log and the item's provenance index.
func (s *SaleStore) Append(sale *domain.Sale) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sales = append(s.sales, sale)
	s.itemSales[sale.ItemID] = append(s.itemSales[sale.ItemID], sale)
}

// ByItem returns all sales for an item in chronological order.
// Returns an empty slice if the item has never sold.
func (s *SaleStore) ByItem(itemID int64) []*domain.Sale {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sales := s.itemSales[itemID]
	if sales == nil {
		return []*domain.Sale{}
	}

	// Return a copy to avoid callers mutating the internal slice.
	result := make([]*domain.Sale, len(sales))
	copy(result, sales)
	return result
}

// Recent returns up to limit sales in reverse chronological order
// (newest first).
func (s *SaleStore) Recent(limit int) []*domain.Sale {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.sales) {
		limit = len(s.sales)
	}
	result := make([]*domain.Sale, 0, limit)
	for i := len(s.sales) - 1; i >= 0 && len(result) < limit; i-- {
		result = append(result, s.sales[i])
	}
	return result
}

// Totals returns the number of sales and the summed volume in lamports.
func (s *SaleStore) Totals() (count int, volume int64) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sale := range s.sales {
		volume += sale.Price
	}
	return len(s.sales), volume
}
