package model

import "time"

// UnitStatus is the occupancy state of a rentable room.
type UnitStatus string

const (
	UnitRented      UnitStatus = "RENTED"
	UnitVacant      UnitStatus = "VACANT"
	UnitMaintenance UnitStatus = "MAINTENANCE"
	UnitLawsuit     UnitStatus = "LAWSUIT"
	UnitOther       UnitStatus = "OTHER"
)

// UnitStatuses lists every occupancy state in display order.
var UnitStatuses = []UnitStatus{UnitRented, UnitVacant, UnitMaintenance, UnitLawsuit, UnitOther}

// Valid reports whether s is a known occupancy state.
func (s UnitStatus) Valid() bool {
	for _, v := range UnitStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Label returns the display label used on unit lists.
func (s UnitStatus) Label() string {
	switch s {
	case UnitRented:
		return "임대중"
	case UnitVacant:
		return "공실"
	case UnitMaintenance:
		return "정비중"
	case UnitLawsuit:
		return "소송"
	default:
		return "기타"
	}
}

// Unit is a rentable room, e.g. PINE-201.
type Unit struct {
	UnitID      string     `gorm:"primaryKey;size:32" json:"unit_id"`
	RoomNo      int        `gorm:"not null" json:"room_no"`
	Floor       int        `gorm:"not null" json:"floor"`
	Status      UnitStatus `gorm:"size:16;not null;index" json:"status"`
	RoomType    *string    `gorm:"size:32" json:"room_type,omitempty"`    // "1.5룸", "투룸"
	TargetPrice *string    `gorm:"size:32" json:"target_price,omitempty"` // "<deposit>-<monthly>", e.g. "500-50"
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Deleting a unit deletes its tenants.
	Tenants []Tenant `gorm:"foreignKey:UnitID;references:UnitID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}
