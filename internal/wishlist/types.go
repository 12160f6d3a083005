package wishlist

// WishlistDTO lists hearted product ids in the order they were hearted.
type WishlistDTO struct {
	ProductIDs []int64 `json:"productIds"`
}

// ToggleResultDTO reports the heart state after a toggle.
type ToggleResultDTO struct {
	ProductID  int64   `json:"productId"`
	Hearted    bool    `json:"hearted"`
	ProductIDs []int64 `json:"productIds"`
}
