package domain

import "time"

// ItemStatus represents the lifecycle state of a marketplace item.
type ItemStatus string

const (
	// ItemStatusForSale marks a catalog item purchasable at its mint price.
	ItemStatusForSale ItemStatus = "for_sale"
	// ItemStatusListed marks an item actively listed by its holder.
	ItemStatusListed ItemStatus = "listed_for_sale"
	// ItemStatusOwned marks an item held by an owner and not purchasable.
	ItemStatusOwned ItemStatus = "owned"
	// ItemStatusSold is a terminal import/provenance state. Items never
	// transition into it here; a purchase marks the item owned and appends
	// a Sale record instead.
	ItemStatusSold ItemStatus = "sold"
)

// ItemKind is the gameplay category of an item.
type ItemKind string

const (
	ItemKindWeapon     ItemKind = "weapon"
	ItemKindArmor      ItemKind = "armor"
	ItemKindAccessory  ItemKind = "accessory"
	ItemKindConsumable ItemKind = "consumable"
	ItemKindMaterial   ItemKind = "material"
)

// ValidItemKinds lists all valid item kinds for validation.
var ValidItemKinds = map[ItemKind]bool{
	ItemKindWeapon:     true,
	ItemKindArmor:      true,
	ItemKindAccessory:  true,
	ItemKindConsumable: true,
	ItemKindMaterial:   true,
}

// ValidRarities lists all valid rarity tiers for validation.
var ValidRarities = map[string]bool{
	"Common":    true,
	"Uncommon":  true,
	"Rare":      true,
	"Epic":      true,
	"Legendary": true,
}

// Item represents a tradable game item in the marketplace.
//
// Seller is the wallet that minted or most recently listed the item and
// receives funds on a sale. Owner is the wallet that currently holds the
// item; it is empty only before the first purchase. Price is in lamports
// and is meaningful only while the item is purchasable.
type Item struct {
	ID          int64
	Name        string
	Description string
	ImageURL    string
	Game        string
	Kind        ItemKind
	Rarity      string
	Price       int64 // lamports
	Seller      string
	Owner       string
	Status      ItemStatus
	Version     int64 // incremented on every state transition
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Purchasable reports whether the item can currently be bought.
func (i *Item) Purchasable() bool {
	return i.Status == ItemStatusForSale || i.Status == ItemStatusListed
}

// Holder resolves the wallet that currently holds the item and receives
// payment on a sale: the owner, or the seller for items that have never
// been owned (fresh mints).
func (i *Item) Holder() string {
	if i.Owner != "" {
		return i.Owner
	}
	return i.Seller
}
