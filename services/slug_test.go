package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"food-marketplace-api/models"
	"food-marketplace-api/testdb"
)

func TestSlugify(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Joe's Diner", "joes-diner"},
		{"  Café  Crème ", "cafe-creme"},
		{"Fish & Chips -- Co.", "fish-chips-co"},
		{"snake_case_name", "snake_case_name"},
		{"!!!", ""},
		{"Joe's Diner-Burger", "joes-diner-burger"},
		{"Ünïcödé 2 Go", "unicode-2-go"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Slugify(c.in), c.in)
	}
}

func TestUniqueSlug(t *testing.T) {
	db := testdb.Open(t)
	owner := testdb.User(t, db, "olivia", models.RoleVendor)
	existing := testdb.Restaurant(t, db, owner, "Joe's Diner", "joes-diner")
	testdb.Restaurant(t, db, owner, "Joe's Diner", "joes-diner-2")

	slug, err := UniqueSlug(db, &models.Restaurant{}, "Joe's Diner", "restaurant", 0)
	require.NoError(t, err)
	assert.Equal(t, "joes-diner-3", slug)

	slug, err = UniqueSlug(db, &models.Restaurant{}, "Joe's Diner", "restaurant", existing.ID)
	require.NoError(t, err)
	assert.Equal(t, "joes-diner", slug)

	slug, err = UniqueSlug(db, &models.Restaurant{}, "???", "restaurant", 0)
	require.NoError(t, err)
	assert.Equal(t, "restaurant", slug)

	long, err := UniqueSlug(db, &models.Restaurant{}, strings.Repeat("x", 400), "restaurant", 0)
	require.NoError(t, err)
	assert.Len(t, long, maxSlugBase)
}
