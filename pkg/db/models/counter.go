package models

// Counter is a named monotonic sequence. The order-number counter is bumped
// inside the confirming transaction so numbers never repeat.
type Counter struct {
	Name  string `gorm:"column:name;primaryKey"`
	Value int64  `gorm:"column:value;not null;default:0"`
}
