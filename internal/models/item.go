package models

const (
	ItemUnitLiters = "liters"
	ItemUnitKg     = "kg"
)

type Item struct {
	ID         int64   `json:"id"`
	SupplierID int64   `json:"supplierId"`
	Unit       string  `json:"unit"`
	Size       float32 `json:"size"`
	Name       string  `json:"name"`
	ImageID    string  `json:"imageId"`
}

type PostItemDto struct {
	Unit    string  `json:"unit"`
	Size    float32 `json:"size"`
	Name    string  `json:"name"`
	ImageID string  `json:"imageId"`
}
