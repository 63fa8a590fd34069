package model

import "time"

// Tenant is an occupant of exactly one unit. TenantKey is "<name>_<phone digits>".
type Tenant struct {
	TenantKey string    `gorm:"primaryKey;size:96" json:"tenant_key"`
	Name      string    `gorm:"size:64;not null" json:"name"`
	Phone     string    `gorm:"size:32;not null" json:"phone"`
	UnitID    string    `gorm:"size:32;not null;index" json:"unit_id"`
	CreatedAt time.Time `json:"created_at"`

	// Deleting a tenant keeps its payments and clears their tenant key.
	Payments []Payment `gorm:"foreignKey:TenantKey;references:TenantKey;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"-"`
}
