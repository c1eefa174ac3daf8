package booking

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/redmonkez12/go-tours-api/internal/tour"
	"github.com/redmonkez12/go-tours-api/internal/user"
)

// Booking records a user's purchase of a tour.
type Booking struct {
	bun.BaseModel `bun:"table:bookings,alias:b" json:"-"`

	ID        uuid.UUID  `bun:"id,pk,type:uuid,default:gen_random_uuid()" json:"id"`
	TourID    uuid.UUID  `bun:"tour_id,notnull,type:uuid" json:"tour_id" validate:"required"`
	UserID    uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user_id" validate:"required"`
	Price     float64    `bun:"price,notnull" json:"price" validate:"required,gt=0"`
	Paid      bool       `bun:"paid,notnull,default:true" json:"paid"`
	Tour      *tour.Tour `bun:"rel:belongs-to,join:tour_id=id" json:"tour,omitempty"`
	User      *user.User `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	CreatedAt time.Time  `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time  `bun:"updated_at,notnull,default:current_timestamp" json:"-"`
}

func (b *Booking) GetID() uuid.UUID {
	return b.ID
}

func (b *Booking) SetID(id uuid.UUID) {
	b.ID = id
}

func (b *Booking) Touch() {
	b.UpdatedAt = time.Now()
}
