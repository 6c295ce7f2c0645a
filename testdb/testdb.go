// Package testdb opens throwaway databases and seeds fixtures for tests.
package testdb

import (
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"food-marketplace-api/config"
	"food-marketplace-api/models"
)

// Password is the plain-text password of every fixture user.
const Password = "s3cret-pass"

// Open returns a migrated in-memory database private to t.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, config.Migrate(db))
	return db
}

// User inserts a user with the given role; profiles are not provisioned.
func User(t testing.TB, db *gorm.DB, username string, role models.UserRole) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	require.NoError(t, err)
	u := &models.User{
		Username:      username,
		Email:         username + "@example.com",
		PasswordHash:  string(hash),
		FirstName:     strings.ToUpper(username[:1]) + username[1:],
		Role:          role,
		AccountStatus: models.AccountActive,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// Restaurant inserts an active restaurant owned by owner.
func Restaurant(t testing.TB, db *gorm.DB, owner *models.User, name, slug string) *models.Restaurant {
	t.Helper()
	r := &models.Restaurant{
		OwnerID:     &owner.ID,
		Name:        name,
		Slug:        slug,
		CuisineType: "Italian",
		Address:     "1 Main St",
		PriceRange:  models.PriceModerate,
		Rating:      decimal.Zero,
		DeliveryFee: decimal.RequireFromString("2.99"),
		MinOrder:    decimal.RequireFromString("15.00"),
		IsActive:    true,
	}
	require.NoError(t, db.Create(r).Error)
	return r
}

// Category inserts a menu category.
func Category(t testing.TB, db *gorm.DB, r *models.Restaurant, name string, period models.MealPeriod, order int) *models.MenuCategory {
	t.Helper()
	c := &models.MenuCategory{RestaurantID: r.ID, Name: name, MealPeriod: period, DisplayOrder: order}
	require.NoError(t, db.Create(c).Error)
	return c
}

// MenuItem inserts an available item priced at price.
func MenuItem(t testing.TB, db *gorm.DB, c *models.MenuCategory, name, price string) *models.MenuItem {
	t.Helper()
	m := &models.MenuItem{
		RestaurantID: c.RestaurantID,
		CategoryID:   c.ID,
		Name:         name,
		Slug:         fmt.Sprintf("%d-%s", c.RestaurantID, strings.ToLower(strings.ReplaceAll(name, " ", "-"))),
		Price:        decimal.RequireFromString(price),
		IsAvailable:  true,
	}
	require.NoError(t, db.Create(m).Error)
	return m
}
