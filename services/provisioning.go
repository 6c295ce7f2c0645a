package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"food-marketplace-api/models"
)

// ProfileFactory ensures the role-specific profile of user exists.
type ProfileFactory func(tx *gorm.DB, user *models.User) error

// ProfileProvisioner creates the satellite records every user needs.
// Roles without a registered factory only get the generic records.
type ProfileProvisioner struct {
	factories map[models.UserRole]ProfileFactory
}

func NewProfileProvisioner() *ProfileProvisioner {
	p := &ProfileProvisioner{factories: map[models.UserRole]ProfileFactory{}}
	p.Register(models.RoleCustomer, ensureCustomerProfile)
	p.Register(models.RoleVendor, ensureVendorProfile)
	p.Register(models.RoleDelivery, ensureDeliveryProfile)
	p.Register(models.RoleRestaurantStaff, ensureStaffProfile)
	p.Register(models.RoleRestaurantManager, ensureStaffProfile)
	p.Register(models.RoleRestaurantOwner, ensureStaffProfile)
	return p
}

// Register sets the factory for role, replacing any previous one.
func (p *ProfileProvisioner) Register(role models.UserRole, factory ProfileFactory) {
	p.factories[role] = factory
}

// Ensure creates whatever profiles user is missing. It is safe to call
// repeatedly: existing rows are left untouched.
func (p *ProfileProvisioner) Ensure(tx *gorm.DB, user *models.User) error {
	if user.ID == 0 {
		return fmt.Errorf("provision profiles: user has no id")
	}
	if err := ensureOne(tx, user.ID, func() *models.UserProfile {
		return &models.UserProfile{UserID: user.ID}
	}); err != nil {
		return fmt.Errorf("provision user profile: %w", err)
	}
	if err := ensureOne(tx, user.ID, func() *models.UserVerification {
		return &models.UserVerification{UserID: user.ID}
	}); err != nil {
		return fmt.Errorf("provision verification record: %w", err)
	}
	if factory, ok := p.factories[user.Role]; ok {
		if err := factory(tx, user); err != nil {
			return fmt.Errorf("provision %s profile: %w", user.Role, err)
		}
	}
	return nil
}

// Heal runs Ensure for every user, repairing rows created out of band.
// It returns the number of users checked.
func (p *ProfileProvisioner) Heal(ctx context.Context, db *gorm.DB) (int, error) {
	var ids []uint
	if err := db.WithContext(ctx).Model(&models.User{}).Order("id").Pluck("id", &ids).Error; err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}
	for _, id := range ids {
		err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var user models.User
			if err := tx.First(&user, id).Error; err != nil {
				return err
			}
			return p.Ensure(tx, &user)
		})
		if err != nil {
			return 0, fmt.Errorf("heal user %d: %w", id, err)
		}
	}
	return len(ids), nil
}

// ensureOne inserts build() unless a row of T already belongs to userID.
func ensureOne[T any](tx *gorm.DB, userID uint, build func() *T) error {
	var count int64
	if err := tx.Model(new(T)).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return tx.Create(build()).Error
}

func ensureCustomerProfile(tx *gorm.DB, user *models.User) error {
	return ensureOne(tx, user.ID, func() *models.CustomerProfile {
		return &models.CustomerProfile{
			UserID:         user.ID,
			TotalSpent:     decimal.Zero,
			MembershipTier: "bronze",
		}
	})
}

func ensureVendorProfile(tx *gorm.DB, user *models.User) error {
	return ensureOne(tx, user.ID, func() *models.VendorProfile {
		return &models.VendorProfile{
			UserID:                     user.ID,
			BusinessName:               user.FullName() + "'s Business",
			BusinessType:               "restaurant",
			BusinessRegistrationNumber: fmt.Sprintf("REG_%d_%s", user.ID, user.Username),
			CommissionRate:             decimal.NewFromInt(15),
			MinimumOrderAmount:         decimal.Zero,
			TotalSales:                 decimal.Zero,
			PayoutSchedule:             "weekly",
			VerificationStatus:         "pending",
		}
	})
}

func ensureDeliveryProfile(tx *gorm.DB, user *models.User) error {
	return ensureOne(tx, user.ID, func() *models.DeliveryProfile {
		return &models.DeliveryProfile{
			UserID:               user.ID,
			DriversLicenseNumber: fmt.Sprintf("DL_%d_%s", user.ID, user.Username),
			MaxDeliveriesPerHour: 3,
			TotalEarnings:        decimal.Zero,
		}
	})
}

func ensureStaffProfile(tx *gorm.DB, user *models.User) error {
	return ensureOne(tx, user.ID, func() *models.StaffProfile {
		return &models.StaffProfile{
			UserID:       user.ID,
			EmployeeID:   fmt.Sprintf("EMP_%d_%s", user.ID, user.Username),
			Position:     staffPosition(user.Role),
			ShiftPattern: "full_time",
		}
	})
}

// staffPosition maps restaurant_manager to manager and restaurant_owner to owner.
func staffPosition(role models.UserRole) string {
	if role == models.RoleRestaurantStaff {
		return "staff"
	}
	if _, position, ok := strings.Cut(string(role), "_"); ok {
		return position
	}
	return string(role)
}
