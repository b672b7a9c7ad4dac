package models

import (
	"time"

	"github.com/google/uuid"
)

// User is the devserver's account record. Password holds the bcrypt
// hash, never the plaintext.
type User struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name      string    `json:"name"`
	Email     string    `json:"email" gorm:"uniqueIndex"`
	Password  string    `json:"-"`
	Role      string    `json:"role"`
	OTPCode   string    `json:"-"`
	OTPExpiry time.Time `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
