package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"food-marketplace-api/models"
	"food-marketplace-api/testdb"
)

func rowsFor[T any](t *testing.T, db *gorm.DB, userID uint) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(new(T)).Where("user_id = ?", userID).Count(&n).Error)
	return n
}

func TestProvisioner_EnsureIsIdempotent(t *testing.T) {
	db := testdb.Open(t)
	p := NewProfileProvisioner()
	vendor := testdb.User(t, db, "vera", models.RoleVendor)

	require.NoError(t, p.Ensure(db, vendor))
	require.NoError(t, p.Ensure(db, vendor))

	assert.EqualValues(t, 1, rowsFor[models.UserProfile](t, db, vendor.ID))
	assert.EqualValues(t, 1, rowsFor[models.UserVerification](t, db, vendor.ID))
	assert.EqualValues(t, 1, rowsFor[models.VendorProfile](t, db, vendor.ID))

	var profile models.VendorProfile
	require.NoError(t, db.Where("user_id = ?", vendor.ID).First(&profile).Error)
	assert.Equal(t, "REG_1_vera", profile.BusinessRegistrationNumber)
	assert.Equal(t, "Vera's Business", profile.BusinessName)
	assert.Equal(t, "15", profile.CommissionRate.String())
}

func TestProvisioner_RoleProfiles(t *testing.T) {
	db := testdb.Open(t)
	p := NewProfileProvisioner()

	customer := testdb.User(t, db, "cara", models.RoleCustomer)
	driver := testdb.User(t, db, "dina", models.RoleDelivery)
	manager := testdb.User(t, db, "max", models.RoleRestaurantManager)
	analyst := testdb.User(t, db, "ann", models.RoleDataAnalyst)
	for _, u := range []*models.User{customer, driver, manager, analyst} {
		require.NoError(t, p.Ensure(db, u))
	}

	assert.EqualValues(t, 1, rowsFor[models.CustomerProfile](t, db, customer.ID))
	assert.EqualValues(t, 1, rowsFor[models.DeliveryProfile](t, db, driver.ID))
	assert.EqualValues(t, 0, rowsFor[models.CustomerProfile](t, db, driver.ID))

	var staff models.StaffProfile
	require.NoError(t, db.Where("user_id = ?", manager.ID).First(&staff).Error)
	assert.Equal(t, "manager", staff.Position)
	assert.False(t, staff.CanModifyMenu)

	// roles without a dedicated profile still get the generic records
	assert.EqualValues(t, 1, rowsFor[models.UserProfile](t, db, analyst.ID))
	assert.EqualValues(t, 0, rowsFor[models.StaffProfile](t, db, analyst.ID))
}

func TestProvisioner_HealRepairsUsersCreatedOutOfBand(t *testing.T) {
	db := testdb.Open(t)
	p := NewProfileProvisioner()
	cara := testdb.User(t, db, "cara", models.RoleCustomer)
	dina := testdb.User(t, db, "dina", models.RoleDelivery)
	require.NoError(t, p.Ensure(db, cara))

	checked, err := p.Heal(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, 2, checked)
	assert.EqualValues(t, 1, rowsFor[models.CustomerProfile](t, db, cara.ID))
	assert.EqualValues(t, 1, rowsFor[models.DeliveryProfile](t, db, dina.ID))
}

func TestStaffPosition(t *testing.T) {
	assert.Equal(t, "staff", staffPosition(models.RoleRestaurantStaff))
	assert.Equal(t, "manager", staffPosition(models.RoleRestaurantManager))
	assert.Equal(t, "owner", staffPosition(models.RoleRestaurantOwner))
}
