package models

import "time"

type Provider struct {
	ProviderID    int     `gorm:"primaryKey;column:provider_id" json:"provider_id"`
	UserID        int     `gorm:"column:user_id" json:"user_id"`
	FirstName     string  `gorm:"column:first_name" json:"first_name"`
	LastName      string  `gorm:"column:last_name" json:"last_name"`
	Email         string  `gorm:"column:email" json:"email"`
	Phone         *string `gorm:"column:phone" json:"phone,omitempty"`
	LicenseNumber string  `gorm:"column:license_number" json:"license_number"`
	LicenseState  string  `gorm:"column:license_state" json:"license_state"`

	// NPINumber is cached here only after the identity verification confirms it.
	NPINumber *string `gorm:"column:npi_number" json:"npi_number,omitempty"`
	DEANumber *string `gorm:"column:dea_number" json:"dea_number,omitempty"`

	CreateAt *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt *time.Time `gorm:"column:update_at" json:"update_at"`
	DeleteAt *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`

	// Relations
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (Provider) TableName() string {
	return "providers"
}

// FullName joins the display name the way the admin screens expect it.
func (p *Provider) FullName() string {
	return p.FirstName + " " + p.LastName
}
