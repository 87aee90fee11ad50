package models

import (
	"time"

	"gorm.io/datatypes"
)

// DoctorAvailability is a declared consultation window for a doctor on a
// single day. Times are zero-padded 24-hour "HH:MM" strings, so lexicographic
// comparison matches chronological order both in Go and in SQL.
type DoctorAvailability struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	DoctorID  string         `json:"doctor_id" gorm:"not null;size:255;index:idx_availability_doctor_date"`
	Date      datatypes.Date `json:"date" gorm:"not null;index:idx_availability_doctor_date"`
	StartTime string         `json:"start_time" gorm:"not null;size:5"`
	EndTime   string         `json:"end_time" gorm:"not null;size:5"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Doctor User `json:"-" gorm:"foreignKey:DoctorID"`
}

func (DoctorAvailability) TableName() string {
	return "doctor_availabilities"
}

// Overlaps reports whether the slot collides with the [start, end) window.
// Adjacent slots (existing end == new start) do not overlap.
func (a *DoctorAvailability) Overlaps(start, end string) bool {
	return a.StartTime < end && a.EndTime > start
}
