package validator

// AddSlotRequest declares a consultation window for a doctor on one day
type AddSlotRequest struct {
	Date      string `json:"date" validate:"required,date_format"`
	StartTime string `json:"start_time" validate:"required,time_format"`
	EndTime   string `json:"end_time" validate:"required,time_format"`
}

// BookAppointmentRequest books a doctor at an exact timestamp
type BookAppointmentRequest struct {
	DoctorID string `json:"doctor_id" validate:"required"`
	Date     string `json:"date" validate:"required,date_format"`
	Time     string `json:"time" validate:"required,time_format"`
}

// RescheduleAppointmentRequest moves an existing appointment to a new slot
type RescheduleAppointmentRequest struct {
	Date string `json:"date" validate:"required,date_format"`
	Time string `json:"time" validate:"required,time_format"`
}

// CompleteAppointmentRequest closes an appointment with its clinical outcome
type CompleteAppointmentRequest struct {
	Diagnosis    string `json:"diagnosis" validate:"omitempty,max=5000"`
	Prescription string `json:"prescription" validate:"omitempty,max=5000"`
	Notes        string `json:"notes" validate:"omitempty,max=5000"`
}

// RegisterPatientRequest is the self-service patient signup payload
type RegisterPatientRequest struct {
	FullName string  `json:"full_name" validate:"required,min=2,max=120"`
	Email    string  `json:"email" validate:"required,email,max=255"`
	Password string  `json:"password" validate:"required,min=8,max=128"`
	Age      *int    `json:"age" validate:"omitempty,min=0,max=150"`
	Gender   *string `json:"gender" validate:"omitempty,gender"`
	Phone    *string `json:"phone" validate:"omitempty,max=50"`
	Address  *string `json:"address" validate:"omitempty,max=255"`
}

// CreateDoctorRequest is the admin-only doctor provisioning payload
type CreateDoctorRequest struct {
	FullName       string `json:"full_name" validate:"required,min=2,max=120"`
	Email          string `json:"email" validate:"required,email,max=255"`
	Password       string `json:"password" validate:"required,min=8,max=128"`
	Specialization string `json:"specialization" validate:"required,min=2,max=120"`
}

// CreateDepartmentRequest creates a named hospital department
type CreateDepartmentRequest struct {
	Name        string  `json:"name" validate:"required,min=2,max=120"`
	Description *string `json:"description" validate:"omitempty,max=255"`
}
