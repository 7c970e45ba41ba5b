package models

// CatalogSearch filters customer, employee and part lists.
type CatalogSearch struct {
	Name       string `form:"name" json:"name" validate:"max=255"`
	ActiveOnly bool   `form:"active_only" json:"active_only"`
}
