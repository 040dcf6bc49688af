package models

import "time"

// User is an account holding both renter and owner roles.
type User struct {
	ID                  int       `db:"id" json:"id"`
	Email               string    `db:"email" json:"email"`
	PasswordHash        string    `db:"password_hash" json:"-"`
	Nickname            string    `db:"nickname" json:"nickname"`
	Avatar              string    `db:"avatar" json:"avatar"`
	PhoneNumber         string    `db:"phone_number" json:"phoneNumber"`
	FullName            string    `db:"full_name" json:"fullName"`
	IDCardNumber        string    `db:"id_card_number" json:"idCardNumber"`
	DriverLicenseNumber string    `db:"driver_license_number" json:"driverLicenseNumber"`
	CreatedAt           time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt           time.Time `db:"updated_at" json:"updatedAt"`
}

// PublicProfile is the subset of a user safe to show to other users.
type PublicProfile struct {
	ID       int    `json:"id"`
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar"`
}

// Public strips everything but the displayable identity.
func (u User) Public() PublicProfile {
	return PublicProfile{ID: u.ID, Nickname: u.Nickname, Avatar: u.Avatar}
}
