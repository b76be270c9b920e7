package enums

// StockStatus is always derived from (units, low_stock_threshold); it is never
// written independently of a quantity change.
type StockStatus string

const (
	StockStatusInStock    StockStatus = "in_stock"
	StockStatusLowStock   StockStatus = "low_stock"
	StockStatusOutOfStock StockStatus = "out_of_stock"
)

// DeriveStockStatus computes the status for a quantity/threshold pair.
func DeriveStockStatus(units, lowStockThreshold int) StockStatus {
	switch {
	case units <= 0:
		return StockStatusOutOfStock
	case units <= lowStockThreshold:
		return StockStatusLowStock
	default:
		return StockStatusInStock
	}
}
