package services

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"food-marketplace-api/apperr"
	"food-marketplace-api/auth"
	"food-marketplace-api/models"
	"food-marketplace-api/testdb"
)

type accountFixture struct {
	db       *gorm.DB
	accounts *AccountService
	tokens   *auth.TokenManager
	revoker  *auth.GormRevoker
	notifier *recordingNotifier
}

func newAccountFixture(t *testing.T) *accountFixture {
	db := testdb.Open(t)
	tokens := auth.NewTokenManager("test-secret", time.Hour, "tests")
	revoker := auth.NewGormRevoker(db)
	n := newRecordingNotifier()
	return &accountFixture{
		db:       db,
		accounts: NewAccountService(db, tokens, revoker, NewProfileProvisioner(), n, zerolog.Nop()).WithBcryptCost(bcrypt.MinCost),
		tokens:   tokens,
		revoker:  revoker,
		notifier: n,
	}
}

func registration(username string, role models.UserRole) RegisterInput {
	return RegisterInput{
		Username:        username,
		Email:           username + "@Example.com",
		Password:        "correct-horse",
		PasswordConfirm: "correct-horse",
		FirstName:       "Test",
		Role:            role,
	}
}

func TestRegister(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()

	res, err := f.accounts.Register(ctx, registration("vera", models.RoleVendor))
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "vera@example.com", res.User.Email)
	assert.Equal(t, models.RoleVendor, res.User.Role)
	require.NotNil(t, res.VerificationEmailSent)
	assert.True(t, *res.VerificationEmailSent)
	assert.Equal(t, []uint{res.User.ID}, f.notifier.registered)
	assert.Len(t, f.notifier.codes["vera@example.com"], 6)

	claims, err := f.tokens.Parse(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID)

	me, err := f.accounts.Me(ctx, res.User.ID)
	require.NoError(t, err)
	assert.NotNil(t, me.Profile)
	assert.NotNil(t, me.Verification)
	assert.NotNil(t, me.VendorProfile)
	assert.Nil(t, me.CustomerProfile)
}

func TestRegister_Rejections(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	_, err := f.accounts.Register(ctx, registration("cara", ""))
	require.NoError(t, err)

	cases := map[string]func(in *RegisterInput){
		"password mismatch": func(in *RegisterInput) { in.PasswordConfirm = "something-else" },
		"short password":    func(in *RegisterInput) { in.Password, in.PasswordConfirm = "short", "short" },
		"bad phone":         func(in *RegisterInput) { in.Phone = "12-34" },
		"unknown role":      func(in *RegisterInput) { in.Role = "wizard" },
		"admin role":        func(in *RegisterInput) { in.Role = models.RolePlatformAdmin },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := registration("newbie", "")
			mutate(&in)
			_, err := f.accounts.Register(ctx, in)
			assert.True(t, apperr.IsKind(err, apperr.KindValidation), "got %v", err)
		})
	}

	t.Run("username taken in any case", func(t *testing.T) {
		in := registration("CARA", "")
		in.Email = "other@example.com"
		_, err := f.accounts.Register(ctx, in)
		assert.True(t, apperr.IsKind(err, apperr.KindConflict))
	})

	t.Run("email taken", func(t *testing.T) {
		in := registration("someone", "")
		in.Email = "CARA@example.com"
		_, err := f.accounts.Register(ctx, in)
		assert.True(t, apperr.IsKind(err, apperr.KindConflict))
	})

	free, err := f.accounts.CheckUsername(ctx, "cara")
	require.NoError(t, err)
	assert.False(t, free)
	free, err = f.accounts.CheckEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.True(t, free)
	_, err = f.accounts.CheckUsername(ctx, " ")
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestCreateUser_AllowsAdministrators(t *testing.T) {
	f := newAccountFixture(t)
	user, err := f.accounts.CreateUser(context.Background(), registration("ada", models.RolePlatformAdmin))
	require.NoError(t, err)
	assert.Equal(t, models.RolePlatformAdmin, user.Role)
}

func TestLoginLogout(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	_, err := f.accounts.Register(ctx, registration("cara", ""))
	require.NoError(t, err)

	_, err = f.accounts.Login(ctx, LoginInput{Username: "cara", Password: "wrong-password"})
	assert.True(t, apperr.IsKind(err, apperr.KindAuth))
	_, err = f.accounts.Login(ctx, LoginInput{Username: "ghost", Password: "correct-horse"})
	assert.True(t, apperr.IsKind(err, apperr.KindAuth))

	res, err := f.accounts.Login(ctx, LoginInput{Username: "cara", Password: "correct-horse"})
	require.NoError(t, err)
	stored, err := f.accounts.User(ctx, res.User.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.LastLoginAt)

	claims, err := f.tokens.Parse(res.Token)
	require.NoError(t, err)
	require.NoError(t, f.accounts.Logout(ctx, claims))
	revoked, err := f.revoker.IsRevoked(ctx, claims.ID)
	require.NoError(t, err)
	assert.True(t, revoked)

	_, err = f.accounts.SetAccountStatus(ctx, res.User.ID, models.AccountSuspended)
	require.NoError(t, err)
	_, err = f.accounts.Login(ctx, LoginInput{Username: "cara", Password: "correct-horse"})
	assert.True(t, apperr.IsKind(err, apperr.KindAuth))

	_, err = f.accounts.SetAccountStatus(ctx, res.User.ID, "frozen")
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestChangePassword(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	res, err := f.accounts.Register(ctx, registration("cara", ""))
	require.NoError(t, err)
	id := res.User.ID

	err = f.accounts.ChangePassword(ctx, id, ChangePasswordInput{OldPassword: "nope-nope", NewPassword: "battery-staple", NewPasswordConfirm: "battery-staple"})
	assert.True(t, apperr.IsKind(err, apperr.KindAuth))
	err = f.accounts.ChangePassword(ctx, id, ChangePasswordInput{OldPassword: "correct-horse", NewPassword: "battery-staple", NewPasswordConfirm: "battery-stapler"})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	require.NoError(t, f.accounts.ChangePassword(ctx, id, ChangePasswordInput{
		OldPassword: "correct-horse", NewPassword: "battery-staple", NewPasswordConfirm: "battery-staple",
	}))
	_, err = f.accounts.Login(ctx, LoginInput{Username: "cara", Password: "battery-staple"})
	assert.NoError(t, err)
}

func TestVerifyEmail(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	res, err := f.accounts.Register(ctx, registration("cara", ""))
	require.NoError(t, err)
	code := f.notifier.codes["cara@example.com"]
	require.Len(t, code, 6)

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	err = f.accounts.VerifyEmail(ctx, VerifyEmailInput{Email: "cara@example.com", Code: wrong})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	err = f.accounts.VerifyEmail(ctx, VerifyEmailInput{Email: "nobody@example.com", Code: code})
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	require.NoError(t, f.accounts.VerifyEmail(ctx, VerifyEmailInput{Email: "CARA@example.com", Code: code}))
	detail, err := f.accounts.Me(ctx, res.User.ID)
	require.NoError(t, err)
	assert.True(t, detail.EmailVerified)
	assert.NotNil(t, detail.EmailVerifiedAt)

	// verifying twice is harmless, asking for a new code is not
	assert.NoError(t, f.accounts.VerifyEmail(ctx, VerifyEmailInput{Email: "cara@example.com", Code: code}))
	_, err = f.accounts.ResendVerification(ctx, "cara@example.com")
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
}

func TestVerifyEmail_ExpiredCode(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	_, err := f.accounts.Register(ctx, registration("cara", ""))
	require.NoError(t, err)

	f.accounts.now = func() time.Time { return time.Now().Add(25 * time.Hour) }
	err = f.accounts.VerifyEmail(ctx, VerifyEmailInput{Email: "cara@example.com", Code: f.notifier.codes["cara@example.com"]})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expired")

	f.accounts.now = time.Now
	f.notifier.sendOK = false
	sent, err := f.accounts.ResendVerification(ctx, "cara@example.com")
	require.NoError(t, err)
	assert.False(t, sent)
	assert.NoError(t, f.accounts.VerifyEmail(ctx, VerifyEmailInput{Email: "cara@example.com", Code: f.notifier.codes["cara@example.com"]}))
}

func TestListUsers(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	testdb.User(t, f.db, "cara", models.RoleCustomer)
	testdb.User(t, f.db, "dina", models.RoleDelivery)

	all, err := f.accounts.ListUsers(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	drivers, err := f.accounts.ListUsers(ctx, models.RoleDelivery)
	require.NoError(t, err)
	require.Len(t, drivers, 1)
	assert.Equal(t, "dina", drivers[0].Username)

	_, err = f.accounts.ListUsers(ctx, "wizard")
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}
