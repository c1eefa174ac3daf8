package review

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A user reviews a tour at most once; the store enforces it with one
// composite unique constraint spanning both foreign keys.
func TestReview_OneReviewPerUserPerTour(t *testing.T) {
	tourField, ok := reflect.TypeOf(Review{}).FieldByName("TourID")
	require.True(t, ok)
	userField, ok := reflect.TypeOf(Review{}).FieldByName("UserID")
	require.True(t, ok)

	assert.Contains(t, tourField.Tag.Get("bun"), "unique:reviews_tour_user")
	assert.Contains(t, userField.Tag.Get("bun"), "unique:reviews_tour_user")
}
