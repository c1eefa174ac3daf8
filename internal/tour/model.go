package tour

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Tour struct {
	bun.BaseModel `bun:"table:tours,alias:t" json:"-"`

	ID              uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()" json:"id"`
	Name            string    `bun:"name,notnull,unique" json:"name" validate:"required,min=10,max=40"`
	Slug            string    `bun:"slug,notnull" json:"slug"`
	Duration        int       `bun:"duration,notnull" json:"duration" validate:"required,gt=0"`
	MaxGroupSize    int       `bun:"max_group_size,notnull" json:"maxGroupSize" validate:"required,gt=0"`
	Difficulty      string    `bun:"difficulty,notnull" json:"difficulty" validate:"required,oneof=easy medium difficult"`
	RatingsAverage  float64   `bun:"ratings_average,notnull,default:4.5" json:"ratingsAverage"`
	RatingsQuantity int       `bun:"ratings_quantity,notnull,default:0" json:"ratingsQuantity"`
	Price           float64   `bun:"price,notnull" json:"price" validate:"required,gt=0"`
	PriceDiscount   float64   `bun:"price_discount" json:"priceDiscount,omitempty" validate:"omitempty,gt=0,ltfield=Price"`
	Summary         string    `bun:"summary,notnull" json:"summary" validate:"required"`
	Description     string    `bun:"description" json:"description,omitempty"`
	ImageCover      string    `bun:"image_cover" json:"imageCover,omitempty"`
	StartDates      []string  `bun:"start_dates,array" json:"startDates,omitempty"`
	Secret          bool      `bun:"secret,notnull,default:false" json:"-"`
	CreatedAt       time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt       time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"-"`
}

func (t *Tour) GetID() uuid.UUID {
	return t.ID
}

func (t *Tour) SetID(id uuid.UUID) {
	t.ID = id
}

func (t *Tour) Touch() {
	t.UpdatedAt = time.Now()
}

// Slugify produces the URL slug from the tour name. Called before every
// write so the slug always tracks the name.
func (t *Tour) Slugify() {
	slug := make([]rune, 0, len(t.Name))
	lastDash := true
	for _, r := range t.Name {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			slug = append(slug, r)
			lastDash = false
		case r >= 'A' && r <= 'Z':
			slug = append(slug, r+('a'-'A'))
			lastDash = false
		default:
			if !lastDash {
				slug = append(slug, '-')
				lastDash = true
			}
		}
	}
	for len(slug) > 0 && slug[len(slug)-1] == '-' {
		slug = slug[:len(slug)-1]
	}
	t.Slug = string(slug)
}
