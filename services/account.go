package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"food-marketplace-api/apperr"
	"food-marketplace-api/auth"
	"food-marketplace-api/models"
)

const (
	minPasswordLength    = 8
	verificationCodeTTL  = 24 * time.Hour
	verificationCodeSize = 6
)

var phonePattern = regexp.MustCompile(`^\+?1?\d{9,15}$`)

// AccountService handles registration, sessions and account maintenance.
type AccountService struct {
	db          *gorm.DB
	tokens      *auth.TokenManager
	revoker     auth.Revoker
	provisioner *ProfileProvisioner
	notifier    Notifier
	log         zerolog.Logger
	now         func() time.Time
	bcryptCost  int
}

func NewAccountService(db *gorm.DB, tokens *auth.TokenManager, revoker auth.Revoker, provisioner *ProfileProvisioner, notifier Notifier, log zerolog.Logger) *AccountService {
	return &AccountService{
		db:          db,
		tokens:      tokens,
		revoker:     revoker,
		provisioner: provisioner,
		notifier:    orNop(notifier),
		log:         log,
		now:         time.Now,
		bcryptCost:  bcrypt.DefaultCost,
	}
}

// WithBcryptCost lowers hashing cost, for tests.
func (s *AccountService) WithBcryptCost(cost int) *AccountService {
	s.bcryptCost = cost
	return s
}

type RegisterInput struct {
	Username        string          `json:"username" binding:"required,max=150"`
	Email           string          `json:"email" binding:"required,email"`
	Password        string          `json:"password" binding:"required,min=8"`
	PasswordConfirm string          `json:"password_confirm" binding:"required"`
	FirstName       string          `json:"first_name"`
	LastName        string          `json:"last_name"`
	Phone           string          `json:"phone"`
	Role            models.UserRole `json:"user_type"`
}

type LoginInput struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type ChangePasswordInput struct {
	OldPassword        string `json:"old_password" binding:"required"`
	NewPassword        string `json:"new_password" binding:"required,min=8"`
	NewPasswordConfirm string `json:"new_password_confirm" binding:"required"`
}

type VerifyEmailInput struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required,len=6"`
}

// AuthResult is returned by register and login.
type AuthResult struct {
	Token                 string       `json:"token"`
	User                  *models.User `json:"user"`
	VerificationEmailSent *bool        `json:"verification_email_sent,omitempty"`
}

func (in *RegisterInput) normalize() error {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Username == "" {
		return apperr.Validation("username is required")
	}
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		return apperr.Validation("a valid email is required")
	}
	if len(in.Password) < minPasswordLength {
		return apperr.Validation("password must be at least %d characters", minPasswordLength)
	}
	if in.Password != in.PasswordConfirm {
		return apperr.Validation("passwords don't match").With("field", "password_confirm")
	}
	if in.Phone != "" && !phonePattern.MatchString(in.Phone) {
		return apperr.Validation("phone number must be entered in the format '+999999999', up to 15 digits").With("field", "phone")
	}
	if in.Role == "" {
		in.Role = models.RoleCustomer
	}
	if !in.Role.Valid() {
		return apperr.Validation("unknown user type %q", in.Role)
	}
	return nil
}

// Register creates a self-service account. Platform administrators cannot sign
// themselves up.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	if in.Role == models.RolePlatformAdmin {
		return nil, apperr.Validation("user type %q cannot be chosen at registration", in.Role)
	}
	user, err := s.CreateUser(ctx, in)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	s.notifier.UserRegistered(ctx, user)
	sent := s.sendVerificationCode(ctx, user)
	return &AuthResult{Token: token, User: user, VerificationEmailSent: &sent}, nil
}

// CreateUser inserts the user and provisions its profiles in one transaction.
// Any role is accepted.
func (s *AccountService) CreateUser(ctx context.Context, in RegisterInput) (*models.User, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := models.User{
		Username:      in.Username,
		Email:         in.Email,
		PasswordHash:  string(hash),
		FirstName:     in.FirstName,
		LastName:      in.LastName,
		Phone:         in.Phone,
		Role:          in.Role,
		AccountStatus: models.AccountActive,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := availability(tx, "username", user.Username); err != nil {
			return err
		}
		if err := availability(tx, "email", user.Email); err != nil {
			return err
		}
		if err := tx.Create(&user).Error; err != nil {
			if isUniqueViolation(err) {
				return apperr.Conflict("username or email already registered").Wrap(err)
			}
			return fmt.Errorf("create user: %w", err)
		}
		return s.provisioner.Ensure(tx, &user)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Uint("user_id", user.ID).Str("username", user.Username).Str("role", string(user.Role)).Msg("user registered")
	return &user, nil
}

func availability(tx *gorm.DB, column, value string) error {
	var count int64
	if err := tx.Model(&models.User{}).Where("LOWER("+column+") = ?", strings.ToLower(value)).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return apperr.Conflict("%s %q is already taken", column, value).With("field", column)
	}
	return nil
}

// Login verifies credentials and issues a token.
func (s *AccountService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("username = ?", strings.TrimSpace(in.Username)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Auth("invalid credentials")
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)) != nil {
		return nil, apperr.Auth("invalid credentials")
	}
	if !user.CanLogin() {
		return nil, apperr.Auth("account is not active").With("account_status", user.AccountStatus)
	}

	now := s.now()
	if err := s.db.WithContext(ctx).Model(&user).Update("last_login_at", now).Error; err != nil {
		return nil, fmt.Errorf("record login: %w", err)
	}
	token, err := s.tokens.Issue(&user)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &AuthResult{Token: token, User: &user}, nil
}

// Logout revokes the presented token until it expires.
func (s *AccountService) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil || claims.ExpiresAt == nil {
		return apperr.Auth("no active session")
	}
	return s.revoker.Revoke(ctx, claims.ID, claims.UserID, claims.ExpiresAt.Time)
}

// CheckUsername reports whether username is still free.
func (s *AccountService) CheckUsername(ctx context.Context, username string) (bool, error) {
	return s.isFree(ctx, "username", strings.TrimSpace(username))
}

func (s *AccountService) CheckEmail(ctx context.Context, email string) (bool, error) {
	return s.isFree(ctx, "email", strings.TrimSpace(email))
}

func (s *AccountService) isFree(ctx context.Context, column, value string) (bool, error) {
	if value == "" {
		return false, apperr.Validation("%s parameter is required", column)
	}
	err := availability(s.db.WithContext(ctx), column, value)
	switch apperr.KindOf(err) {
	case "":
		if err != nil {
			return false, err
		}
		return true, nil
	case apperr.KindConflict:
		return false, nil
	default:
		return false, err
	}
}

// ChangePassword replaces the password after checking the current one.
func (s *AccountService) ChangePassword(ctx context.Context, userID uint, in ChangePasswordInput) error {
	if len(in.NewPassword) < minPasswordLength {
		return apperr.Validation("new password must be at least %d characters", minPasswordLength)
	}
	if in.NewPassword != in.NewPasswordConfirm {
		return apperr.Validation("new passwords don't match")
	}
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return notFoundOr(err, "user %d not found", userID)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.OldPassword)) != nil {
		return apperr.Auth("old password is incorrect")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.db.WithContext(ctx).Model(&user).Update("password_hash", string(hash)).Error
}

// VerifyEmail marks the address verified when code matches and has not expired.
func (s *AccountService) VerifyEmail(ctx context.Context, in VerifyEmailInput) error {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Where("email = ?", email).First(&user).Error; err != nil {
			return notFoundOr(err, "no account uses %s", email)
		}
		if user.EmailVerified {
			return nil
		}
		var v models.UserVerification
		if err := tx.Where("user_id = ?", user.ID).First(&v).Error; err != nil {
			return notFoundOr(err, "no verification pending for %s", email)
		}
		if v.EmailVerificationCode == "" || v.EmailVerificationCode != in.Code {
			return apperr.Validation("invalid verification code")
		}
		now := s.now()
		if v.CodeExpiresAt == nil || now.After(*v.CodeExpiresAt) {
			return apperr.Validation("verification code has expired")
		}
		if err := tx.Model(&user).Updates(map[string]any{"email_verified": true, "email_verified_at": now}).Error; err != nil {
			return err
		}
		return tx.Model(&v).Updates(map[string]any{"email_verification_code": "", "code_expires_at": nil}).Error
	})
}

// ResendVerification issues a fresh code. It reports whether the email went out.
func (s *AccountService) ResendVerification(ctx context.Context, email string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return false, notFoundOr(err, "no account uses %s", email)
	}
	if user.EmailVerified {
		return false, apperr.Conflict("email is already verified")
	}
	return s.sendVerificationCode(ctx, &user), nil
}

// sendVerificationCode stores a new code and hands it to the notifier.
// Failures are logged; registration never fails because of them.
func (s *AccountService) sendVerificationCode(ctx context.Context, user *models.User) bool {
	code, err := newVerificationCode()
	if err != nil {
		s.log.Error().Err(err).Uint("user_id", user.ID).Msg("generate verification code")
		return false
	}
	expires := s.now().Add(verificationCodeTTL)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.provisioner.Ensure(tx, user); err != nil {
			return err
		}
		return tx.Model(&models.UserVerification{}).Where("user_id = ?", user.ID).
			Updates(map[string]any{"email_verification_code": code, "code_expires_at": expires}).Error
	})
	if err != nil {
		s.log.Error().Err(err).Uint("user_id", user.ID).Msg("store verification code")
		return false
	}
	return s.notifier.VerificationCode(ctx, user, code)
}

func newVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", verificationCodeSize, n.Int64()), nil
}

// UserDetail is the caller's account with whatever profiles it has.
type UserDetail struct {
	*models.User
	Profile         *models.UserProfile      `json:"profile,omitempty"`
	Verification    *models.UserVerification `json:"verification,omitempty"`
	CustomerProfile *models.CustomerProfile  `json:"customer_profile,omitempty"`
	VendorProfile   *models.VendorProfile    `json:"vendor_profile,omitempty"`
	DeliveryProfile *models.DeliveryProfile  `json:"delivery_profile,omitempty"`
	StaffProfile    *models.StaffProfile     `json:"staff_profile,omitempty"`
}

// Me loads the user with its satellite profiles.
func (s *AccountService) Me(ctx context.Context, userID uint) (*UserDetail, error) {
	db := s.db.WithContext(ctx)
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		return nil, notFoundOr(err, "user %d not found", userID)
	}
	detail := &UserDetail{User: &user}
	detail.Profile = optional[models.UserProfile](db, userID)
	detail.Verification = optional[models.UserVerification](db, userID)
	detail.CustomerProfile = optional[models.CustomerProfile](db, userID)
	detail.VendorProfile = optional[models.VendorProfile](db, userID)
	detail.DeliveryProfile = optional[models.DeliveryProfile](db, userID)
	detail.StaffProfile = optional[models.StaffProfile](db, userID)
	return detail, nil
}

func optional[T any](db *gorm.DB, userID uint) *T {
	var row T
	if err := db.Where("user_id = ?", userID).Take(&row).Error; err != nil {
		return nil
	}
	return &row
}

// User loads a user by id.
func (s *AccountService) User(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, notFoundOr(err, "user %d not found", userID)
	}
	return &user, nil
}

// UserTypes lists the roles offered at registration.
func (s *AccountService) UserTypes() []models.RoleInfo {
	return models.Roles
}

// ListUsers returns all users, optionally of one role.
func (s *AccountService) ListUsers(ctx context.Context, role models.UserRole) ([]models.User, error) {
	if role != "" && !role.Valid() {
		return nil, apperr.Validation("unknown user type %q", role)
	}
	q := s.db.WithContext(ctx).Order("id")
	if role != "" {
		q = q.Where("role = ?", role)
	}
	var users []models.User
	err := q.Find(&users).Error
	return users, err
}

// SetAccountStatus is used by administrators to suspend or reactivate accounts.
func (s *AccountService) SetAccountStatus(ctx context.Context, userID uint, status models.AccountStatus) (*models.User, error) {
	switch status {
	case models.AccountActive, models.AccountPending, models.AccountSuspended, models.AccountInactive, models.AccountBanned:
	default:
		return nil, apperr.Validation("unknown account status %q", status)
	}
	user, err := s.User(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(user).Update("account_status", status).Error; err != nil {
		return nil, err
	}
	return user, nil
}
