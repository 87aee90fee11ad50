package models

import "time"

// Treatment is the clinical outcome attached to a completed appointment.
// One row per appointment; completing the same appointment again overwrites
// the three text fields in place.
type Treatment struct {
	ID            uint   `json:"id" gorm:"primaryKey"`
	AppointmentID uint   `json:"appointment_id" gorm:"uniqueIndex;not null"`
	Diagnosis     string `json:"diagnosis" gorm:"type:text"`
	Prescription  string `json:"prescription" gorm:"type:text"`
	Notes         string `json:"notes" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Treatment) TableName() string {
	return "treatments"
}
