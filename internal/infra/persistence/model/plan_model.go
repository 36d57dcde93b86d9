package model

import "time"

// PlanModel mirrors the 'plans' table. Plans are seeded rows, the service
// never inserts them.
type PlanModel struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	Name       string `gorm:"type:varchar(64);not null;index"`
	PriceCents int    `gorm:"not null;default:0"`
	Features   string `gorm:"type:text"`
	CreatedAt  time.Time
}

// TableName explicitly sets the table name for GORM.
func (PlanModel) TableName() string {
	return "plans"
}

// SubscriptionModel mirrors the 'subscriptions' table.
type SubscriptionModel struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	UserID      uint   `gorm:"not null;index"`
	PlanID      uint   `gorm:"not null"`
	Status      string `gorm:"type:varchar(32);not null"`
	PeriodStart time.Time
	PeriodEnd   time.Time
	CreatedAt   time.Time
}

// TableName explicitly sets the table name for GORM.
func (SubscriptionModel) TableName() string {
	return "subscriptions"
}
