package domain

import "time"

// Sale is an append-only provenance record of a completed purchase.
type Sale struct {
	SaleID     string
	ItemID     int64
	Buyer      string
	Seller     string
	Price      int64 // lamports
	ExecutedAt time.Time
}

// Receipt is returned to the buyer after a committed purchase. Balances
// are the post-transfer balances observed at commit time.
type Receipt struct {
	ReceiptID     string
	ItemID        int64
	Buyer         string
	Seller        string
	Price         int64 // lamports
	BuyerBalance  int64
	SellerBalance int64
	ExecutedAt    time.Time
}
