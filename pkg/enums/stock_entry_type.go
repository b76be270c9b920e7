package enums

// StockEntryType labels rows in the append-only stock audit trail.
type StockEntryType string

const (
	StockEntryTypeAdd    StockEntryType = "add"
	StockEntryTypeRemove StockEntryType = "remove"
)
