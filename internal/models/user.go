package models

import "time"

// User is an account of the application. PasswordHash never leaves the server.
type User struct {
	ID           string    `bson:"_id" json:"id"`
	Email        string    `bson:"email" json:"email"`
	FullName     string    `bson:"fullName,omitempty" json:"full_name,omitempty"`
	CompanyName  string    `bson:"companyName,omitempty" json:"company_name,omitempty"`
	PasswordHash string    `bson:"passwordHash" json:"-"`
	CreatedAt    time.Time `bson:"createdAt" json:"created_at"`
	UpdatedAt    time.Time `bson:"updatedAt" json:"updated_at"`
}
