package service

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/efreitasn/nftmarket/internal/domain"
	"github.com/efreitasn/nftmarket/internal/ledger"
	"github.com/efreitasn/nftmarket/internal/registry"
	"github.com/efreitasn/nftmarket/internal/store"
)

var (
	walletRegex   = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]{32,44}$`)
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,32}$`)
)

// ItemRegistry is the item state machine the marketplace composes.
// *registry.Registry satisfies it.
type ItemRegistry interface {
	Add(item *domain.Item) *domain.Item
	Get(id int64) (*domain.Item, error)
	Items(f registry.Filter) []*domain.Item
	Browse(limit int) []*domain.Item
	List(itemID int64, caller string, price int64) (*domain.Item, error)
	Unlist(itemID int64, caller string) (*domain.Item, error)
	TransferOwnership(itemID int64, buyer string, expectedVersion int64) (*domain.Item, error)
	Stats() registry.Stats
}

// AccountLedger is the balance ledger the marketplace composes.
// *ledger.Ledger satisfies it.
type AccountLedger interface {
	Balance(address string) int64
	Credit(address string, amount int64) (int64, error)
	Transfer(from, to string, amount int64) (ledger.TransferResult, error)
}

// Persister records committed state outside the hot path. Implementations
// must tolerate being called concurrently; a nil Persister disables
// persistence entirely.
type Persister interface {
	SaveItem(item *domain.Item)
	SaveAccount(address string, balance int64)
	SaveSale(sale *domain.Sale)
	SaveUser(u *domain.User)
}

// MintItemRequest represents the input for minting a catalog item.
type MintItemRequest struct {
	Name        string
	Description string
	ImageURL    string
	Game        string
	Kind        string
	Rarity      string
	PriceSol    float64
	Seller      string
	Owner       string // optional; minted directly into a wallet when set
}

// MarketService composes the registry and the ledger into the externally
// visible marketplace operations and owns the cross-entity invariants
// neither component can enforce alone.
type MarketService struct {
	registry ItemRegistry
	ledger   AccountLedger
	sales    *store.SaleStore
	users    *store.UserStore
	games    *domain.GameRegistry
	events   *EventService
	persist  Persister
	newID    func() string
	logger   *slog.Logger
}

// NewMarketService creates a new MarketService. events and persist may be
// nil. Receipt and sale ids come from uuid; tests may override via SetIDFunc.
func NewMarketService(
	reg ItemRegistry,
	led AccountLedger,
	sales *store.SaleStore,
	users *store.UserStore,
	games *domain.GameRegistry,
	events *EventService,
	persist Persister,
	logger *slog.Logger,
) *MarketService {
	if logger == nil {
		logger = slog.Default()
	}
	return &MarketService{
		registry: reg,
		ledger:   led,
		sales:    sales,
		users:    users,
		games:    games,
		events:   events,
		persist:  persist,
		newID:    uuid.NewString,
		logger:   logger,
	}
}

// SetIDFunc replaces the receipt/sale id generator. Intended for tests.
func (s *MarketService) SetIDFunc(fn func() string) {
	s.newID = fn
}

// Mint validates the request and creates a catalog item. Items minted
// with an owner start as owned; everything else starts as for_sale at
// the mint price.
func (s *MarketService) Mint(req MintItemRequest) (*domain.Item, error) {
	if req.Name == "" || len(req.Name) > 100 {
		return nil, &domain.ValidationError{Message: "name must be 1-100 characters"}
	}
	if req.Game == "" || len(req.Game) > 100 {
		return nil, &domain.ValidationError{Message: "game must be 1-100 characters"}
	}
	kind := domain.ItemKind(req.Kind)
	if !domain.ValidItemKinds[kind] {
		return nil, &domain.ValidationError{
			Message: fmt.Sprintf("Unknown item kind: %s. Must be one of: weapon, armor, accessory, consumable, material", req.Kind),
		}
	}
	rarity := req.Rarity
	if rarity == "" {
		rarity = "Common"
	}
	if !domain.ValidRarities[rarity] {
		return nil, &domain.ValidationError{
			Message: fmt.Sprintf("Unknown rarity: %s. Must be one of: Common, Uncommon, Rare, Epic, Legendary", req.Rarity),
		}
	}
	if !walletRegex.MatchString(req.Seller) {
		return nil, &domain.ValidationError{Message: "seller must be a valid wallet address"}
	}
	if req.Owner != "" && !walletRegex.MatchString(req.Owner) {
		return nil, &domain.ValidationError{Message: "owner must be a valid wallet address"}
	}
	if req.PriceSol < 0 {
		return nil, domain.ErrInvalidPrice
	}
	if req.Owner == "" && req.PriceSol == 0 {
		// an ownerless mint goes straight on sale, so it needs a buyable price
		return nil, domain.ErrInvalidPrice
	}
	price, err := domain.SolToLamports(req.PriceSol)
	if err != nil {
		return nil, domain.ErrInvalidPrice
	}

	status := domain.ItemStatusForSale
	if req.Owner != "" {
		status = domain.ItemStatusOwned
	}

	item := s.registry.Add(&domain.Item{
		Name:        req.Name,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Game:        req.Game,
		Kind:        kind,
		Rarity:      rarity,
		Price:       price,
		Seller:      req.Seller,
		Owner:       req.Owner,
		Status:      status,
	})

	s.games.Register(req.Game)
	if s.persist != nil {
		s.persist.SaveItem(item)
	}
	return item, nil
}

// GetItem retrieves an item by ID.
func (s *MarketService) GetItem(itemID int64) (*domain.Item, error) {
	return s.registry.Get(itemID)
}

// ListItems returns items matching the filter.
func (s *MarketService) ListItems(f registry.Filter) []*domain.Item {
	return s.registry.Items(f)
}

// BrowseListings returns up to limit active listings, cheapest first.
func (s *MarketService) BrowseListings(limit int) []*domain.Item {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.registry.Browse(limit)
}

// ListForSale lists an item at the given SOL price on behalf of seller.
// The price must be positive; ownership checks are the registry's.
func (s *MarketService) ListForSale(itemID int64, seller string, priceSol float64) (*domain.Item, error) {
	if priceSol <= 0 {
		return nil, domain.ErrInvalidPrice
	}
	price, err := domain.SolToLamports(priceSol)
	if err != nil {
		return nil, domain.ErrInvalidPrice
	}
	if price <= 0 {
		return nil, domain.ErrInvalidPrice
	}

	item, lerr := s.registry.List(itemID, seller, price)
	if lerr != nil {
		return nil, lerr
	}

	if s.persist != nil {
		s.persist.SaveItem(item)
	}
	if s.events != nil {
		s.events.DispatchItemListed(item)
	}
	return item, nil
}

// Unlist takes an item off the market on behalf of its holder.
func (s *MarketService) Unlist(itemID int64, caller string) (*domain.Item, error) {
	item, err := s.registry.Unlist(itemID, caller)
	if err != nil {
		return nil, err
	}

	if s.persist != nil {
		s.persist.SaveItem(item)
	}
	if s.events != nil {
		s.events.DispatchItemUnlisted(item)
	}
	return item, nil
}

// Purchase executes an atomic sale of the item to the buyer.
//
// The funds move first, then ownership; if the ownership swap is beaten
// by a concurrent purchase, the transfer is reversed and the whole
// operation either retries once (version conflict) or surfaces the
// registry's refusal. Callers observe only two outcomes: a Receipt with
// both effects committed, or an error with neither.
func (s *MarketService) Purchase(itemID int64, buyer string) (*domain.Receipt, error) {
	if !walletRegex.MatchString(buyer) {
		return nil, &domain.ValidationError{Message: "buyer must be a valid wallet address"}
	}

	const maxAttempts = 2
	for attempt := 1; ; attempt++ {
		item, err := s.registry.Get(itemID)
		if err != nil {
			return nil, err
		}
		if !item.Purchasable() {
			return nil, domain.ErrNotPurchasable
		}
		seller := item.Holder()
		if buyer == seller {
			return nil, domain.ErrSelfTrade
		}
		if item.Price <= 0 {
			return nil, domain.ErrInvalidPrice
		}
		// Cheap pre-check; the transfer below is the authoritative one.
		if s.ledger.Balance(buyer) < item.Price {
			return nil, domain.ErrInsufficientFunds
		}

		res, err := s.ledger.Transfer(buyer, seller, item.Price)
		if err != nil {
			return nil, err
		}

		sold, err := s.registry.TransferOwnership(itemID, buyer, item.Version)
		if err != nil {
			// Compensate: reverse the funds transfer so no partial
			// effect survives.
			if _, rerr := s.ledger.Transfer(seller, buyer, item.Price); rerr != nil {
				s.logger.Error("purchase compensation failed",
					slog.Int64("item_id", itemID),
					slog.String("buyer", buyer),
					slog.String("seller", seller),
					slog.String("error", rerr.Error()),
				)
				return nil, domain.ErrConflict
			}
			if errors.Is(err, domain.ErrConflict) && attempt < maxAttempts {
				continue
			}
			return nil, err
		}

		receipt := &domain.Receipt{
			ReceiptID:     s.newID(),
			ItemID:        sold.ID,
			Buyer:         buyer,
			Seller:        seller,
			Price:         sold.Price,
			BuyerBalance:  res.FromBalance,
			SellerBalance: res.ToBalance,
			ExecutedAt:    time.Now(),
		}
		sale := &domain.Sale{
			SaleID:     s.newID(),
			ItemID:     sold.ID,
			Buyer:      buyer,
			Seller:     seller,
			Price:      sold.Price,
			ExecutedAt: receipt.ExecutedAt,
		}

		s.sales.Append(sale)
		s.users.RecordPurchase(buyer, seller, sold.Price)

		if s.persist != nil {
			s.persist.SaveItem(sold)
			s.persist.SaveAccount(buyer, res.FromBalance)
			s.persist.SaveAccount(seller, res.ToBalance)
			s.persist.SaveSale(sale)
			if u, uerr := s.users.Get(buyer); uerr == nil {
				s.persist.SaveUser(u)
			}
			if u, uerr := s.users.Get(seller); uerr == nil {
				s.persist.SaveUser(u)
			}
		}
		if s.events != nil {
			s.events.DispatchSaleExecuted(sale, sold)
		}

		return receipt, nil
	}
}

// ItemSales returns an item's provenance (chronological sale records).
// The item must exist.
func (s *MarketService) ItemSales(itemID int64) ([]*domain.Sale, error) {
	if _, err := s.registry.Get(itemID); err != nil {
		return nil, err
	}
	return s.sales.ByItem(itemID), nil
}

// RecentSales returns up to limit sales, newest first.
func (s *MarketService) RecentSales(limit int) []*domain.Sale {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.sales.Recent(limit)
}

// MarketStats aggregates registry and sale-log statistics.
type MarketStats struct {
	TotalItems     int
	ActiveListings int
	ByStatus       map[domain.ItemStatus]int
	ByGame         map[string]int
	Games          []string
	TotalSales     int
	TotalVolume    int64 // lamports
}

// Stats returns marketplace-wide statistics.
func (s *MarketService) Stats() MarketStats {
	rs := s.registry.Stats()
	count, volume := s.sales.Totals()
	return MarketStats{
		TotalItems:     rs.TotalItems,
		ActiveListings: rs.ActiveListings,
		ByStatus:       rs.ByStatus,
		ByGame:         rs.ByGame,
		Games:          s.games.All(),
		TotalSales:     count,
		TotalVolume:    volume,
	}
}
