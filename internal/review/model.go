package review

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/redmonkez12/go-tours-api/internal/user"
)

// Review is a user's rating of a tour. A user may review a tour once; the
// (tour_id, user_id) pair is unique.
type Review struct {
	bun.BaseModel `bun:"table:reviews,alias:r" json:"-"`

	ID        uuid.UUID  `bun:"id,pk,type:uuid,default:gen_random_uuid()" json:"id"`
	Review    string     `bun:"review,notnull" json:"review" validate:"required"`
	Rating    float64    `bun:"rating,notnull" json:"rating" validate:"required,gte=1,lte=5"`
	TourID    uuid.UUID  `bun:"tour_id,notnull,type:uuid,unique:reviews_tour_user" json:"tour_id"`
	UserID    uuid.UUID  `bun:"user_id,notnull,type:uuid,unique:reviews_tour_user" json:"user_id"`
	User      *user.User `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	CreatedAt time.Time  `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time  `bun:"updated_at,notnull,default:current_timestamp" json:"-"`
}

func (r *Review) GetID() uuid.UUID {
	return r.ID
}

func (r *Review) SetID(id uuid.UUID) {
	r.ID = id
}

func (r *Review) Touch() {
	r.UpdatedAt = time.Now()
}
