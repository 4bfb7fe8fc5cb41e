package model

import "time"

// Category is an expense or income bucket a rule can assign.
type Category struct {
	CreatedAt time.Time
	Name      string
	Type      TransactionType
	ID        int64
	IsActive  bool
}

// Vendor is a known counter party a rule can reference or assign.
type Vendor struct {
	CreatedAt time.Time
	Name      string
	ID        int64
}

// Staff is a person a transaction can be attributed to.
type Staff struct {
	CreatedAt time.Time
	Name      string
	ID        int64
}
