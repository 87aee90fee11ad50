package models

import (
	"time"
)

type AppointmentStatus string

const (
	AppointmentBooked    AppointmentStatus = "Booked"
	AppointmentCompleted AppointmentStatus = "Completed"
	AppointmentCancelled AppointmentStatus = "Cancelled"
)

// IsTerminal reports whether no further transition is allowed from the status.
func (s AppointmentStatus) IsTerminal() bool {
	return s == AppointmentCompleted || s == AppointmentCancelled
}

// Appointment links a patient to a doctor at an exact timestamp. At most one
// non-Cancelled appointment may exist per (doctor_id, date_time); a partial
// unique index created during migration enforces this at the store.
type Appointment struct {
	ID        uint              `json:"id" gorm:"primaryKey"`
	PatientID string            `json:"patient_id" gorm:"not null;size:255;index"`
	DoctorID  string            `json:"doctor_id" gorm:"not null;size:255;index:idx_appointments_doctor_time"`
	DateTime  time.Time         `json:"date_time" gorm:"not null;index:idx_appointments_doctor_time"`
	Status    AppointmentStatus `json:"status" gorm:"not null;default:Booked;size:20;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Patient   User       `json:"patient,omitempty" gorm:"foreignKey:PatientID"`
	Doctor    User       `json:"doctor,omitempty" gorm:"foreignKey:DoctorID"`
	Treatment *Treatment `json:"treatment,omitempty" gorm:"foreignKey:AppointmentID"`
}

func (Appointment) TableName() string {
	return "appointments"
}
