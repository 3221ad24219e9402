package service

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/rodneyauth/internal/auth/domain"
	"github.com/aussiebroadwan/rodneyauth/pkg/jwtx"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestRegister(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	out, err := env.auth.Register(ctx, RegisterRequest{
		Email:    "alice@example.com",
		Name:     "Alice",
		Password: "correct horse",
	})
	require.NoError(t, err)
	require.Equal(t, "/dashboard", out.RedirectTo)
	require.NotNil(t, out.Session)
	require.Equal(t, domain.RoleMember, out.User.Role)
	require.False(t, out.User.TwoFactorEnabled)

	res := env.resolve(t, out.Session.Token)
	require.NotNil(t, res.User)
	require.Equal(t, "alice@example.com", res.User.Email)
	require.True(t, env.clock.Now().Add(DefaultSessionTTL).Equal(res.User.ExpiresAt))

	t.Run("duplicate email", func(t *testing.T) {
		_, err := env.auth.Register(ctx, RegisterRequest{
			Email:    "alice@example.com",
			Name:     "Other Alice",
			Password: "correct horse",
		})
		require.ErrorIs(t, err, ErrDuplicateEmail)
	})

	t.Run("email match is exact", func(t *testing.T) {
		_, err := env.auth.Register(ctx, RegisterRequest{
			Email:    "Alice@example.com",
			Name:     "Alice Again",
			Password: "correct horse",
		})
		require.NoError(t, err)
	})

	t.Run("invalid input", func(t *testing.T) {
		for _, req := range []RegisterRequest{
			{Email: "not-an-email", Name: "X", Password: "correct horse"},
			{Email: "bob@example.com", Name: "  ", Password: "correct horse"},
			{Email: "bob@example.com", Name: "Bob", Password: "short"},
		} {
			_, err := env.auth.Register(ctx, req)
			require.ErrorIs(t, err, ErrInvalidInput)
		}

		found, err := env.directory.FindByEmail(ctx, "bob@example.com")
		require.NoError(t, err)
		require.Nil(t, found)
	})
}

func TestRegisterWithTwoFactor(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	enr, err := env.enrollment.Begin(ctx, "carol@example.com")
	require.NoError(t, err)
	require.Contains(t, enr.OTPAuthURL, "issuer=RodneyAuth")
	require.Contains(t, enr.QRCode, "data:image/png;base64,")

	req := RegisterRequest{
		Email:            "carol@example.com",
		Name:             "Carol",
		Password:         "correct horse",
		EnableTwoFactor:  true,
		EnrollmentTicket: enr.Ticket,
	}

	t.Run("wrong code creates nothing", func(t *testing.T) {
		bad := req
		bad.Code = "000000"
		if bad.Code == env.code(t, enr.Secret) {
			bad.Code = "000001"
		}
		_, err := env.auth.Register(ctx, bad)
		require.ErrorIs(t, err, ErrInvalidCode)

		found, err := env.directory.FindByEmail(ctx, "carol@example.com")
		require.NoError(t, err)
		require.Nil(t, found)
	})

	t.Run("ticket for another email", func(t *testing.T) {
		other := req
		other.Email = "mallory@example.com"
		other.Code = env.code(t, enr.Secret)
		_, err := env.auth.Register(ctx, other)
		require.ErrorIs(t, err, ErrInvalidEnrollment)
	})

	t.Run("missing ticket", func(t *testing.T) {
		noTicket := req
		noTicket.EnrollmentTicket = ""
		noTicket.Code = env.code(t, enr.Secret)
		_, err := env.auth.Register(ctx, noTicket)
		require.ErrorIs(t, err, ErrInvalidEnrollment)
	})

	req.Code = env.code(t, enr.Secret)
	out, err := env.auth.Register(ctx, req)
	require.NoError(t, err)
	require.True(t, out.User.TwoFactorEnabled)
	require.False(t, out.User.RequiresTwoFactor)

	u, err := env.store.Users().GetUserByEmail(ctx, "carol@example.com")
	require.NoError(t, err)
	require.Equal(t, enr.Secret, *u.TwoFactorSecret)
}

func TestRegisterEnrollmentExpires(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	enr, err := env.enrollment.Begin(ctx, "dave@example.com")
	require.NoError(t, err)

	env.clock.Advance(jwtx.DefaultEnrollmentTTL)

	_, err = env.auth.Register(ctx, RegisterRequest{
		Email:            "dave@example.com",
		Name:             "Dave",
		Password:         "correct horse",
		EnableTwoFactor:  true,
		EnrollmentTicket: enr.Ticket,
		Code:             env.code(t, enr.Secret),
	})
	require.ErrorIs(t, err, ErrInvalidEnrollment)
}

func TestLoginPassword(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.createUser(t, NewUser{Email: "erin@example.com"})

	t.Run("success", func(t *testing.T) {
		out, err := env.auth.LoginPassword(ctx, "erin@example.com", "correct horse")
		require.NoError(t, err)
		require.Equal(t, "/dashboard", out.RedirectTo)
		require.NotNil(t, out.Session)
		require.Nil(t, out.Challenge)
		require.NotNil(t, env.resolve(t, out.Session.Token).User)
	})

	t.Run("wrong password and unknown email look the same", func(t *testing.T) {
		_, errWrong := env.auth.LoginPassword(ctx, "erin@example.com", "wrong horse")
		_, errUnknown := env.auth.LoginPassword(ctx, "nobody@example.com", "correct horse")
		require.ErrorIs(t, errWrong, ErrInvalidCredentials)
		require.ErrorIs(t, errUnknown, ErrInvalidCredentials)
		require.Equal(t, errWrong.Error(), errUnknown.Error())
	})

	t.Run("enrolled user gets a challenge", func(t *testing.T) {
		env.createUser(t, NewUser{Email: "frank+2fa@example.com", TwoFactorSecret: ptr(testSecret), RequiresTwoFactor: true})

		out, err := env.auth.LoginPassword(ctx, "frank+2fa@example.com", "correct horse")
		require.NoError(t, err)
		require.Nil(t, out.Session)
		require.NotNil(t, out.Challenge)
		require.Equal(t, "/authenticator?email=frank%2B2fa%40example.com", out.RedirectTo)
	})

	t.Run("required but not enrolled is held for setup", func(t *testing.T) {
		env.createUser(t, NewUser{Email: "gina@example.com", RequiresTwoFactor: true})

		out, err := env.auth.LoginPassword(ctx, "gina@example.com", "correct horse")
		require.NoError(t, err)
		require.Nil(t, out.Session)
		require.Nil(t, out.Challenge)
		require.NotNil(t, out.Enrollment)
		require.NotEmpty(t, out.Enrollment.Secret)
		require.Equal(t, "/authenticator/setup?email=gina%40example.com", out.RedirectTo)
	})
}

func TestCompleteEnrollment(t *testing.T) {
	ctx := context.Background()

	t.Run("signs in once the code matches", func(t *testing.T) {
		env := newTestEnv(t)
		p := env.createUser(t, NewUser{Email: "ivy@example.com", RequiresTwoFactor: true})

		out, err := env.auth.LoginPassword(ctx, "ivy@example.com", "correct horse")
		require.NoError(t, err)
		require.NotNil(t, out.Enrollment)

		out, err = env.auth.CompleteEnrollment(ctx, out.Enrollment.Ticket, env.code(t, out.Enrollment.Secret))
		require.NoError(t, err)
		require.NotNil(t, out.Session)
		require.Equal(t, p.ID, out.User.ID)
		require.True(t, out.User.TwoFactorEnabled)

		u, err := env.store.Users().GetUserByID(ctx, p.ID)
		require.NoError(t, err)
		require.True(t, u.TwoFactorEnabled())

		out, err = env.auth.LoginPassword(ctx, "ivy@example.com", "correct horse")
		require.NoError(t, err)
		require.NotNil(t, out.Challenge)
		require.Nil(t, out.Enrollment)
	})

	t.Run("wrong code stores nothing", func(t *testing.T) {
		env := newTestEnv(t)
		p := env.createUser(t, NewUser{Email: "jack@example.com", RequiresTwoFactor: true})

		out, err := env.auth.LoginPassword(ctx, "jack@example.com", "correct horse")
		require.NoError(t, err)

		res, err := env.auth.CompleteEnrollment(ctx, out.Enrollment.Ticket, wrongCode(env.code(t, out.Enrollment.Secret)))
		require.ErrorIs(t, err, ErrInvalidCode)
		require.Nil(t, res.Session)

		u, err := env.store.Users().GetUserByID(ctx, p.ID)
		require.NoError(t, err)
		require.False(t, u.TwoFactorEnabled())
	})

	t.Run("ticket without a password step is refused", func(t *testing.T) {
		env := newTestEnv(t)
		p := env.createUser(t, NewUser{Email: "kate@example.com", RequiresTwoFactor: true})

		enr, err := env.enrollment.BeginForUser(ctx, p.ID)
		require.NoError(t, err)

		out, err := env.auth.CompleteEnrollment(ctx, enr.Ticket, env.code(t, enr.Secret))
		require.ErrorIs(t, err, ErrInvalidEnrollment)
		require.Nil(t, out.Session)

		reg, err := env.enrollment.Begin(ctx, "kate@example.com")
		require.NoError(t, err)
		_, err = env.auth.CompleteEnrollment(ctx, reg.Ticket, env.code(t, reg.Secret))
		require.ErrorIs(t, err, ErrInvalidEnrollment)

		_, err = env.auth.CompleteEnrollment(ctx, "garbage", "123456")
		require.ErrorIs(t, err, ErrInvalidEnrollment)
	})

	t.Run("challenge ticket is not an enrollment", func(t *testing.T) {
		env := newTestEnv(t)
		env.createUser(t, NewUser{Email: "liam@example.com", TwoFactorSecret: ptr(testSecret), RequiresTwoFactor: true})

		out, err := env.auth.LoginPassword(ctx, "liam@example.com", "correct horse")
		require.NoError(t, err)
		require.NotNil(t, out.Challenge)

		_, err = env.auth.CompleteEnrollment(ctx, out.Challenge.Ticket, env.code(t, testSecret))
		require.ErrorIs(t, err, ErrInvalidEnrollment)
	})
}

func TestLoginPasswordUpgradesLegacyHash(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	p := env.createUser(t, NewUser{Email: "hank@example.com"})

	legacy, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, env.store.Users().UpdatePasswordHash(ctx, p.ID, string(legacy)))

	_, err = env.auth.LoginPassword(ctx, "hank@example.com", "correct horse")
	require.NoError(t, err)

	u, err := env.store.Users().GetUserByID(ctx, p.ID)
	require.NoError(t, err)
	require.Contains(t, u.PasswordHash, "$argon2id$")
}

func TestLoginTOTP(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	env.createUser(t, NewUser{Email: "ivy@example.com", TwoFactorSecret: ptr(testSecret), RequiresTwoFactor: true})
	env.createUser(t, NewUser{Email: "jack@example.com", TwoFactorSecret: ptr(testSecret)})
	env.createUser(t, NewUser{Email: "kate@example.com"})

	challenge := func(t *testing.T, email string) string {
		out, err := env.auth.LoginPassword(ctx, email, "correct horse")
		require.NoError(t, err)
		require.NotNil(t, out.Challenge)
		return out.Challenge.Ticket
	}

	t.Run("password then code", func(t *testing.T) {
		ticket := challenge(t, "ivy@example.com")
		out, err := env.auth.LoginTOTP(ctx, "ivy@example.com", env.code(t, testSecret), ticket)
		require.NoError(t, err)
		require.Equal(t, "/dashboard", out.RedirectTo)
		require.NotNil(t, out.Session)
	})

	t.Run("code alone is not enough when required", func(t *testing.T) {
		_, err := env.auth.LoginTOTP(ctx, "ivy@example.com", env.code(t, testSecret), "")
		require.ErrorIs(t, err, ErrChallengeRequired)
	})

	t.Run("challenge from another user", func(t *testing.T) {
		other, _, err := env.tickets.Issue(jwtx.PurposeChallenge, "someone-else", time.Minute, func(c *jwtx.Claims) {
			c.AMR = []string{"pwd"}
		})
		require.NoError(t, err)

		_, err = env.auth.LoginTOTP(ctx, "ivy@example.com", env.code(t, testSecret), other)
		require.ErrorIs(t, err, ErrChallengeRequired)
	})

	t.Run("expired challenge", func(t *testing.T) {
		ticket := challenge(t, "ivy@example.com")
		env.clock.Advance(jwtx.DefaultChallengeTTL)
		defer env.clock.Advance(-jwtx.DefaultChallengeTTL)

		_, err := env.auth.LoginTOTP(ctx, "ivy@example.com", env.code(t, testSecret), ticket)
		require.ErrorIs(t, err, ErrChallengeRequired)
	})

	t.Run("wrong code", func(t *testing.T) {
		ticket := challenge(t, "ivy@example.com")
		_, err := env.auth.LoginTOTP(ctx, "ivy@example.com", "12345a", ticket)
		require.ErrorIs(t, err, ErrInvalidCode)
	})

	t.Run("optional two factor accepts code alone", func(t *testing.T) {
		out, err := env.auth.LoginTOTP(ctx, "jack@example.com", env.code(t, testSecret), "")
		require.NoError(t, err)
		require.NotNil(t, out.Session)
	})

	t.Run("not enrolled", func(t *testing.T) {
		_, err := env.auth.LoginTOTP(ctx, "kate@example.com", "123456", "")
		require.ErrorIs(t, err, ErrNotEnrolled)

		_, err = env.auth.LoginTOTP(ctx, "nobody@example.com", "123456", "")
		require.ErrorIs(t, err, ErrNotEnrolled)
	})
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.createUser(t, NewUser{Email: "liam@example.com"})

	out, err := env.auth.LoginPassword(ctx, "liam@example.com", "correct horse")
	require.NoError(t, err)

	bye, err := env.auth.Logout(ctx, out.Session.Token)
	require.NoError(t, err)
	require.Equal(t, "/", bye.RedirectTo)

	res := env.resolve(t, out.Session.Token)
	require.Nil(t, res.User)
	require.True(t, res.ClearCookie)

	_, err = env.auth.Logout(ctx, out.Session.Token)
	require.NoError(t, err)
	_, err = env.auth.Logout(ctx, "")
	require.NoError(t, err)
}

// wrongCode flips the last digit of a valid code.
func wrongCode(code string) string {
	last := (code[len(code)-1]-'0'+5)%10 + '0'
	return code[:len(code)-1] + string(rune(last))
}
