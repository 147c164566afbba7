package model

type Doctor struct {
	Base
	Email         string  `db:"email" json:"email"`
	Name          string  `db:"name" json:"name"`
	PasswordHash  string  `db:"password_hash" json:"-"`
	Specialty     string  `db:"specialty" json:"specialty"`
	Price         float64 `db:"price" json:"price"`
	Experience    int     `db:"experience" json:"experience"`
	Gender        string  `db:"gender" json:"gender"`
	Certification string  `db:"certification" json:"certification"`
}

// DoctorSummary is the public projection joined onto a patient's bookings.
type DoctorSummary struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	Specialty  string  `json:"specialty"`
	Price      float64 `json:"price"`
	Experience int     `json:"experience"`
	Gender     string  `json:"gender"`
}

func (d *Doctor) Summary() *DoctorSummary {
	return &DoctorSummary{
		ID:         d.ID.String(),
		Name:       d.Name,
		Email:      d.Email,
		Specialty:  d.Specialty,
		Price:      d.Price,
		Experience: d.Experience,
		Gender:     d.Gender,
	}
}

type RegisterDoctorRequest struct {
	Email         string  `json:"email" binding:"required,email"`
	Password      string  `json:"password" binding:"required,min=8"`
	Name          string  `json:"name" binding:"required"`
	Specialty     string  `json:"specialty" binding:"required"`
	Price         float64 `json:"price" binding:"gte=0"`
	Experience    int     `json:"experience" binding:"gte=0"`
	Gender        string  `json:"gender"`
	Certification string  `json:"certification"`
}

type UpdateDoctorRequest struct {
	Name          *string  `json:"name" binding:"omitempty,min=1"`
	Specialty     *string  `json:"specialty" binding:"omitempty,min=1"`
	Price         *float64 `json:"price" binding:"omitempty,gte=0"`
	Experience    *int     `json:"experience" binding:"omitempty,gte=0"`
	Gender        *string  `json:"gender"`
	Certification *string  `json:"certification"`
}

type DoctorFilters struct {
	Specialty string
}
