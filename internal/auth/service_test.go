package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/aptitude-engine/internal/config"
	"github.com/terra-clan/aptitude-engine/internal/models"
	"github.com/terra-clan/aptitude-engine/internal/storage"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type captureSender struct {
	mu    sync.Mutex
	codes map[string]string
	err   error
}

func (c *captureSender) SendCode(_ context.Context, phone, code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	if c.codes == nil {
		c.codes = make(map[string]string)
	}
	c.codes[phone] = code
	return nil
}

func (c *captureSender) last(phone string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.codes[phone]
}

type fixture struct {
	svc    *Service
	repo   *storage.MemoryRepository
	sender *captureSender
	now    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:   storage.NewMemoryRepository(),
		sender: &captureSender{},
		now:    time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	cfg := config.AuthConfig{
		JWTSecret:  testSecret,
		Issuer:     "test",
		TokenTTL:   time.Hour,
		CodeTTL:    5 * time.Minute,
		BcryptCost: 4,
	}
	f.svc = NewService(f.repo, cfg, f.sender, WithClock(func() time.Time { return f.now }))
	return f
}

func signUp(t *testing.T, f *fixture) *Session {
	t.Helper()
	s, err := f.svc.SignUp(context.Background(), models.SignUpRequest{
		Name:     "Ana Rao",
		Email:    " Ana@Example.com ",
		Password: "secret1",
	})
	require.NoError(t, err)
	return s
}

func TestSignUp_CreatesIdentityAndProfile(t *testing.T) {
	f := newFixture(t)
	s := signUp(t, f)

	assert.NotEmpty(t, s.Token)
	assert.Equal(t, "ana@example.com", s.Identity.Email)
	assert.Equal(t, f.now.Add(time.Hour).Unix(), s.ExpiresAt.Unix())
	require.NotNil(t, s.Profile)
	assert.Equal(t, "Ana Rao", s.Profile.Name)
	assert.Equal(t, "ana@example.com", s.Profile.Email)
	assert.Equal(t, []string{}, s.Profile.Skills)

	stored, err := f.repo.GetIdentityByEmail(context.Background(), "ana@example.com")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.NotEqual(t, "secret1", stored.PasswordHash)
}

func TestSignUp_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := map[string]models.SignUpRequest{
		"short name":     {Name: "A", Email: "a@example.com", Password: "secret1"},
		"no contact":     {Name: "Ana", Password: "secret1"},
		"bad email":      {Name: "Ana", Email: "not-an-email", Password: "secret1"},
		"bad phone":      {Name: "Ana", Phone: "12ab", Password: "secret1"},
		"short password": {Name: "Ana", Email: "a@example.com", Password: "12345"},
		"long password":  {Name: "Ana", Email: "a@example.com", Password: strings.Repeat("p", 73)},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.SignUp(ctx, req)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestSignUp_Duplicate(t *testing.T) {
	f := newFixture(t)
	signUp(t, f)

	_, err := f.svc.SignUp(context.Background(), models.SignUpRequest{
		Name: "Other", Email: "ANA@example.com", Password: "secret2",
	})
	assert.ErrorIs(t, err, ErrIdentityExists)
}

func TestSignIn(t *testing.T) {
	f := newFixture(t)
	signUp(t, f)
	ctx := context.Background()

	s, err := f.svc.SignIn(ctx, models.SignInRequest{Email: "ana@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "Ana Rao", s.Profile.Name)

	_, err = f.svc.SignIn(ctx, models.SignInRequest{Email: "ana@example.com", Password: "wrong!"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.svc.SignIn(ctx, models.SignInRequest{Email: "nobody@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.svc.SignIn(ctx, models.SignInRequest{Password: "secret1"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSignIn_CreatesMissingProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	identity := &models.Identity{
		ID:           "legacy",
		Email:        "legacy@example.com",
		Name:         "Legacy",
		PasswordHash: mustHash(t, "secret1"),
		CreatedAt:    f.now,
	}
	require.NoError(t, f.repo.CreateIdentity(ctx, identity))

	s, err := f.svc.SignIn(ctx, models.SignInRequest{Email: "legacy@example.com", Password: "secret1"})
	require.NoError(t, err)
	require.NotNil(t, s.Profile)
	assert.Equal(t, "Legacy", s.Profile.Name)

	p, err := f.repo.GetProfile(ctx, "legacy")
	require.NoError(t, err)
	require.NotNil(t, p)
}

func TestSessionAndSignOut(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := signUp(t, f)

	current, err := f.svc.Session(ctx, s.Token)
	require.NoError(t, err)
	assert.Equal(t, s.Identity.ID, current.Identity.ID)

	id, err := f.svc.Authenticate(ctx, s.Token)
	require.NoError(t, err)
	assert.Equal(t, s.Identity.ID, id)

	require.NoError(t, f.svc.SignOut(ctx, s.Token))

	_, err = f.svc.Session(ctx, s.Token)
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = f.svc.Authenticate(ctx, s.Token)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestSession_RejectsBadTokens(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := signUp(t, f)

	_, err := f.svc.Session(ctx, "garbage")
	assert.ErrorIs(t, err, ErrUnauthorized)

	other := NewTokenIssuer("another-secret-another-secret-xx", "test", time.Hour)
	forged, _, err := other.Issue(s.Identity.ID)
	require.NoError(t, err)
	_, err = f.svc.Session(ctx, forged)
	assert.ErrorIs(t, err, ErrUnauthorized)

	f.now = f.now.Add(2 * time.Hour)
	_, err = f.svc.Session(ctx, s.Token)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestPhoneCode_SignsInAndCreatesIdentity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.SendPhoneCode(ctx, "+91 98765-43210"))
	code := f.sender.last("+919876543210")
	require.Len(t, code, 6)

	s, err := f.svc.VerifyPhoneCode(ctx, models.VerifyPhoneCodeRequest{Phone: "+919876543210", Code: code})
	require.NoError(t, err)
	assert.Equal(t, "+919876543210", s.Identity.Phone)
	assert.Equal(t, "+919876543210", s.Profile.Phone)

	// codes are single use
	_, err = f.svc.VerifyPhoneCode(ctx, models.VerifyPhoneCodeRequest{Phone: "+919876543210", Code: code})
	assert.ErrorIs(t, err, ErrInvalidCode)

	// a second code signs into the same identity
	require.NoError(t, f.svc.SendPhoneCode(ctx, "+919876543210"))
	again, err := f.svc.VerifyPhoneCode(ctx, models.VerifyPhoneCodeRequest{
		Phone: "+919876543210", Code: f.sender.last("+919876543210"),
	})
	require.NoError(t, err)
	assert.Equal(t, s.Identity.ID, again.Identity.ID)
}

func TestPhoneCode_WrongAndExpired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	phone := "+15550001111"

	require.NoError(t, f.svc.SendPhoneCode(ctx, phone))
	code := f.sender.last(phone)
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}

	_, err := f.svc.VerifyPhoneCode(ctx, models.VerifyPhoneCodeRequest{Phone: phone, Code: wrong})
	assert.ErrorIs(t, err, ErrInvalidCode)

	pending, err := f.repo.GetPhoneCode(ctx, phone)
	require.NoError(t, err)
	assert.Equal(t, 1, pending.Attempts)

	f.now = f.now.Add(5 * time.Minute)
	_, err = f.svc.VerifyPhoneCode(ctx, models.VerifyPhoneCodeRequest{Phone: phone, Code: code})
	assert.ErrorIs(t, err, ErrInvalidCode)

	pending, err = f.repo.GetPhoneCode(ctx, phone)
	require.NoError(t, err)
	assert.Nil(t, pending)
}

func TestPhoneCode_AttemptLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	phone := "+15550002222"

	require.NoError(t, f.svc.SendPhoneCode(ctx, phone))
	code := f.sender.last(phone)
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}

	for i := 0; i < MaxCodeAttempts; i++ {
		_, err := f.svc.VerifyPhoneCode(ctx, models.VerifyPhoneCodeRequest{Phone: phone, Code: wrong})
		require.ErrorIs(t, err, ErrInvalidCode)
	}

	_, err := f.svc.VerifyPhoneCode(ctx, models.VerifyPhoneCodeRequest{Phone: phone, Code: code})
	assert.ErrorIs(t, err, ErrInvalidCode)
}

func TestSendPhoneCode_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.svc.SendPhoneCode(ctx, "123"), ErrValidation)

	f.sender.err = errors.New("gateway down")
	require.Error(t, f.svc.SendPhoneCode(ctx, "+15550003333"))

	pending, err := f.repo.GetPhoneCode(ctx, "+15550003333")
	require.NoError(t, err)
	assert.Nil(t, pending)
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := signUp(t, f)

	education := "B.Sc Mathematics"
	skills := []string{"go", "sql"}
	projects := []models.Project{{Title: "Quiz app", Technologies: []string{"go"}}}
	f.now = f.now.Add(time.Minute)

	p, err := f.svc.UpdateProfile(ctx, s.Identity.ID, models.ProfileUpdate{
		Education: &education,
		Skills:    &skills,
		Projects:  &projects,
	})
	require.NoError(t, err)
	assert.Equal(t, education, p.Education)
	assert.Equal(t, skills, p.Skills)
	assert.Equal(t, "Ana Rao", p.Name)
	assert.Equal(t, f.now, p.UpdatedAt)

	stored, err := f.svc.GetProfile(ctx, s.Identity.ID)
	require.NoError(t, err)
	assert.Equal(t, education, stored.Education)
	require.Len(t, stored.Projects, 1)
}

func TestUpdateProfile_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := signUp(t, f)

	short := "A"
	_, err := f.svc.UpdateProfile(ctx, s.Identity.ID, models.ProfileUpdate{Name: &short})
	assert.ErrorIs(t, err, ErrValidation)

	stored, err := f.svc.GetProfile(ctx, s.Identity.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana Rao", stored.Name)

	name := "Someone"
	_, err = f.svc.UpdateProfile(ctx, "missing", models.ProfileUpdate{Name: &name})
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestInsertProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.InsertProfile(ctx, &models.Profile{IdentityID: "x", Name: "X"}))
	assert.ErrorIs(t, f.svc.InsertProfile(ctx, &models.Profile{IdentityID: "x"}), ErrProfileExists)
	assert.ErrorIs(t, f.svc.InsertProfile(ctx, &models.Profile{}), ErrValidation)
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "+919876543210", normalizePhone(" +91 (98765) 43-210 "))
	assert.True(t, validPhone("+919876543210"))
	assert.False(t, validPhone("+91abc"))
	assert.False(t, validPhone("12345"))
}
