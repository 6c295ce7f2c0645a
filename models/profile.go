package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// UserProfile holds the generic profile every account has.
type UserProfile struct {
	ID               uint                        `json:"id" gorm:"primaryKey"`
	UserID           uint                        `json:"user_id" gorm:"uniqueIndex;not null"`
	Bio              string                      `json:"bio"`
	Location         string                      `json:"location"`
	FavoriteCuisines datatypes.JSONSlice[string] `json:"favorite_cuisines"`
	Allergens        datatypes.JSONSlice[string] `json:"allergens"`
	SpiceTolerance   int                         `json:"spice_tolerance"` // 1-5, 0 when not specified
	MarketingOptIn   bool                        `json:"marketing_opt_in"`
	CreatedAt        time.Time                   `json:"created_at"`
	UpdatedAt        time.Time                   `json:"updated_at"`
}

type CustomerProfile struct {
	ID                  uint                      `json:"id" gorm:"primaryKey"`
	UserID              uint                      `json:"user_id" gorm:"uniqueIndex;not null"`
	TotalOrders         int                       `json:"total_orders"`
	TotalSpent          decimal.Decimal           `json:"total_spent" gorm:"type:decimal(10,2)"`
	FavoriteRestaurants datatypes.JSONSlice[uint] `json:"favorite_restaurants"`
	MembershipTier      string                    `json:"membership_tier" gorm:"default:'bronze'"`
	CreatedAt           time.Time                 `json:"created_at"`
	UpdatedAt           time.Time                 `json:"updated_at"`
}

type VendorProfile struct {
	ID                         uint            `json:"id" gorm:"primaryKey"`
	UserID                     uint            `json:"user_id" gorm:"uniqueIndex;not null"`
	BusinessName               string          `json:"business_name" gorm:"size:200;not null"`
	BusinessType               string          `json:"business_type" gorm:"default:'restaurant'"`
	BusinessDescription        string          `json:"business_description"`
	BusinessRegistrationNumber string          `json:"business_registration_number" gorm:"size:100;uniqueIndex;not null"`
	MinimumOrderAmount         decimal.Decimal `json:"minimum_order_amount" gorm:"type:decimal(8,2)"`
	CommissionRate             decimal.Decimal `json:"commission_rate" gorm:"type:decimal(5,2)"`
	PayoutSchedule             string          `json:"payout_schedule" gorm:"default:'weekly'"`
	TotalSales                 decimal.Decimal `json:"total_sales" gorm:"type:decimal(12,2)"`
	TotalOrders                int             `json:"total_orders"`
	VerificationStatus         string          `json:"verification_status" gorm:"default:'pending'"`
	CreatedAt                  time.Time       `json:"created_at"`
	UpdatedAt                  time.Time       `json:"updated_at"`
}

type DeliveryProfile struct {
	ID                   uint            `json:"id" gorm:"primaryKey"`
	UserID               uint            `json:"user_id" gorm:"uniqueIndex;not null"`
	DriversLicenseNumber string          `json:"drivers_license_number" gorm:"size:50;uniqueIndex;not null"`
	VehicleMake          string          `json:"vehicle_make"`
	VehicleModel         string          `json:"vehicle_model"`
	VehicleColor         string          `json:"vehicle_color"`
	HasInsulatedBag      bool            `json:"has_insulated_bag"`
	MaxDeliveriesPerHour int             `json:"max_deliveries_per_hour" gorm:"default:3"`
	TotalDeliveries      int             `json:"total_deliveries"`
	SuccessfulDeliveries int             `json:"successful_deliveries"`
	TotalEarnings        decimal.Decimal `json:"total_earnings" gorm:"type:decimal(10,2)"`
	IsOnline             bool            `json:"is_online"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// SuccessRate is the share of successful deliveries as a percentage.
func (p *DeliveryProfile) SuccessRate() float64 {
	if p.TotalDeliveries == 0 {
		return 0
	}
	return float64(p.SuccessfulDeliveries) / float64(p.TotalDeliveries) * 100
}

type StaffProfile struct {
	ID                uint      `json:"id" gorm:"primaryKey"`
	UserID            uint      `json:"user_id" gorm:"uniqueIndex;not null"`
	EmployeeID        string    `json:"employee_id" gorm:"size:200;uniqueIndex;not null"`
	Position          string    `json:"position" gorm:"size:50"`
	Department        string    `json:"department"`
	ShiftPattern      string    `json:"shift_pattern" gorm:"default:'full_time'"`
	CanProcessOrders  bool      `json:"can_process_orders"`
	CanHandlePayments bool      `json:"can_handle_payments"`
	CanModifyMenu     bool      `json:"can_modify_menu"`
	CanManageStaff    bool      `json:"can_manage_staff"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// UserVerification tracks email codes and document checks.
type UserVerification struct {
	ID                       uint       `json:"id" gorm:"primaryKey"`
	UserID                   uint       `json:"user_id" gorm:"uniqueIndex;not null"`
	EmailVerificationCode    string     `json:"-" gorm:"size:6"`
	CodeExpiresAt            *time.Time `json:"-"`
	IdentityDocumentVerified bool       `json:"identity_document_verified"`
	BusinessLicenseVerified  bool       `json:"business_license_verified"`
	BackgroundCheckStatus    string     `json:"background_check_status" gorm:"default:'not_required'"`
	FullyVerified            bool       `json:"fully_verified"`
	CreatedAt                time.Time  `json:"created_at"`
	UpdatedAt                time.Time  `json:"updated_at"`
}
