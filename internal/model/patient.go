package model

type Patient struct {
	Base
	Email        string `db:"email" json:"email"`
	Name         string `db:"name" json:"name"`
	PasswordHash string `db:"password_hash" json:"-"`
	City         string `db:"city" json:"city"`
	DateOfBirth  string `db:"date_of_birth" json:"date_of_birth"`
	Gender       string `db:"gender" json:"gender"`
	Contact      string `db:"contact" json:"contact"`
	BloodGroup   string `db:"blood_group" json:"blood_group"`
	AvatarURL    string `db:"avatar_url" json:"avatar_url,omitempty"`
}

// PatientSummary is the public projection joined onto a doctor's appointments.
type PatientSummary struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	City       string `json:"city"`
	Gender     string `json:"gender"`
	Contact    string `json:"contact"`
	BloodGroup string `json:"blood_group"`
	AvatarURL  string `json:"avatar_url,omitempty"`
}

func (p *Patient) Summary() *PatientSummary {
	return &PatientSummary{
		ID:         p.ID.String(),
		Name:       p.Name,
		Email:      p.Email,
		City:       p.City,
		Gender:     p.Gender,
		Contact:    p.Contact,
		BloodGroup: p.BloodGroup,
		AvatarURL:  p.AvatarURL,
	}
}

type RegisterPatientRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	Name        string `json:"name" binding:"required"`
	City        string `json:"city"`
	DateOfBirth string `json:"date_of_birth"`
	Gender      string `json:"gender"`
	Contact     string `json:"contact"`
	BloodGroup  string `json:"blood_group"`
}

type UpdatePatientRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1"`
	City        *string `json:"city"`
	DateOfBirth *string `json:"date_of_birth"`
	Gender      *string `json:"gender"`
	Contact     *string `json:"contact"`
	BloodGroup  *string `json:"blood_group"`
}
