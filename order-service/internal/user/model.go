package user

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/vasiliy-maslov/shop-backend/order-service/internal/access"
)

// User is the order owner as known to this service. Accounts are managed upstream.
type User struct {
	ID          uuid.UUID   `json:"id" db:"id"`
	FullName    string      `json:"full_name" db:"full_name"`
	PhoneNumber *string     `json:"phone_number" db:"phone_number"`
	Role        access.Role `json:"role" db:"role"`
	CreatedAt   time.Time   `json:"created" db:"created"`
}

func (u *User) Actor() access.Actor {
	return access.Actor{UserID: u.ID, Role: u.Role}
}
