package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/config"
	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/domain"
	apperrors "github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/pkg/util/errorutil"
)

type authFixture struct {
	svc         *AuthService
	users       *memUsers
	resets      *memResets
	revocations *memRevocations
	prefs       *memPreferences
	notifier    *recordingNotifier
}

func newAuthFixture(allowSupport bool) *authFixture {
	f := &authFixture{
		users:       newMemUsers(),
		resets:      &memResets{tokens: map[string]string{}},
		revocations: &memRevocations{revoked: map[string]time.Time{}},
		prefs:       &memPreferences{items: map[string]domain.Preferences{}},
		notifier:    &recordingNotifier{tokens: map[string]string{}},
	}
	f.svc = NewAuthService(config.AuthConfig{
		JWTSecret:               "test-secret",
		AccessTokenTTLMinutes:   30,
		PasswordResetTTLMinutes: 15,
		BcryptCost:              4,
		AllowSupportSignup:      allowSupport,
	}, AuthDependencies{
		UserRepo:          f.users,
		PasswordResetRepo: f.resets,
		RevocationRepo:    f.revocations,
		PreferencesRepo:   f.prefs,
		Notifier:          f.notifier,
	})
	return f
}

func registration() RegisterInput {
	return RegisterInput{
		FirstName:  "María",
		LastName:   "López",
		NationalID: "8-888-888",
		Extension:  "2231",
		Department: "Planificación",
		Role:       "Usuario Administrativo",
		Email:      " Maria.Lopez@MEDUCA.gob.pa ",
		Password:   "secreto1",
	}
}

func TestRegisterAndLogin(t *testing.T) {
	f := newAuthFixture(true)
	ctx := context.Background()

	session, err := f.svc.Register(ctx, registration())
	require.NoError(t, err)
	assert.Equal(t, "maria.lopez@meduca.gob.pa", session.User.Email)
	assert.Equal(t, domain.UserRoleAdministrative, session.User.Role)
	assert.NotEqual(t, "secreto1", session.User.PasswordHash)
	assert.NotEmpty(t, session.AccessToken)

	token, err := f.svc.TokenManager().ParseToken(session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, token.SubjectID)

	_, err = f.svc.Register(ctx, registration())
	assert.True(t, apperrors.IsCode(err, apperrors.CodeConflict))

	_, err = f.svc.Login(ctx, "MARIA.LOPEZ@meduca.gob.pa", "secreto1")
	assert.NoError(t, err)
	_, err = f.svc.Login(ctx, "maria.lopez@meduca.gob.pa", "wrong")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeUnauthorized))
	_, err = f.svc.Login(ctx, "nobody@meduca.gob.pa", "secreto1")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeUnauthorized))
}

func TestRegisterValidation(t *testing.T) {
	f := newAuthFixture(false)
	ctx := context.Background()

	in := registration()
	in.FirstName = ""
	in.Password = ""
	_, err := f.svc.Register(ctx, in)
	require.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
	assert.Equal(t, []string{"first_name", "password"}, apperrors.ToDomainError(err).Details["missing"])

	in = registration()
	in.Password = "123"
	_, err = f.svc.Register(ctx, in)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))

	in = registration()
	in.Email = "not-an-email"
	_, err = f.svc.Register(ctx, in)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))

	in = registration()
	in.Role = "Soporte"
	_, err = f.svc.Register(ctx, in)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeForbidden))
}

func TestPasswordResetFlow(t *testing.T) {
	f := newAuthFixture(true)
	ctx := context.Background()
	session, err := f.svc.Register(ctx, registration())
	require.NoError(t, err)

	require.NoError(t, f.svc.RequestPasswordReset(ctx, "nobody@meduca.gob.pa"))
	assert.Empty(t, f.notifier.tokens)

	require.NoError(t, f.svc.RequestPasswordReset(ctx, session.User.Email))
	token := f.notifier.tokens[session.User.Email]
	require.NotEmpty(t, token)

	require.NoError(t, f.svc.ConfirmPasswordReset(ctx, token, "nuevo-secreto"))
	err = f.svc.ConfirmPasswordReset(ctx, token, "otro-secreto")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation), "token is single use")

	_, err = f.svc.Login(ctx, session.User.Email, "nuevo-secreto")
	assert.NoError(t, err)
}

func TestChangePassword(t *testing.T) {
	f := newAuthFixture(true)
	ctx := context.Background()
	session, err := f.svc.Register(ctx, registration())
	require.NoError(t, err)

	err = f.svc.ChangePassword(ctx, session.User.ID, "wrong", "nuevo-secreto")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeUnauthorized))

	require.NoError(t, f.svc.ChangePassword(ctx, session.User.ID, "secreto1", "nuevo-secreto"))
	_, err = f.svc.Login(ctx, session.User.Email, "nuevo-secreto")
	assert.NoError(t, err)
}

func TestUpdateProfileEmailUniqueness(t *testing.T) {
	f := newAuthFixture(true)
	ctx := context.Background()
	first, err := f.svc.Register(ctx, registration())
	require.NoError(t, err)
	other := registration()
	other.Email = "jan@meduca.gob.pa"
	second, err := f.svc.Register(ctx, other)
	require.NoError(t, err)

	taken := first.User.Email
	_, err = f.svc.UpdateProfile(ctx, second.User.ID, ProfileUpdate{Email: &taken})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeConflict))

	fresh := "Jan.Gonzalez@meduca.gob.pa"
	ext := "4410"
	updated, err := f.svc.UpdateProfile(ctx, second.User.ID, ProfileUpdate{Email: &fresh, Extension: &ext})
	require.NoError(t, err)
	assert.Equal(t, "jan.gonzalez@meduca.gob.pa", updated.Email)
	assert.Equal(t, "4410", updated.Extension)
}

func TestLogoutAndDeleteAccount(t *testing.T) {
	f := newAuthFixture(true)
	ctx := context.Background()
	session, err := f.svc.Register(ctx, registration())
	require.NoError(t, err)
	f.prefs.items[session.User.ID] = domain.Preferences{DarkMode: true}

	require.NoError(t, f.svc.Logout(ctx, session.Token))
	assert.Contains(t, f.revocations.revoked, session.Token.ID)

	require.NoError(t, f.svc.DeleteAccount(ctx, session.User.ID, session.Token))
	_, err = f.svc.CurrentUser(ctx, session.User.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
	assert.NotContains(t, f.prefs.items, session.User.ID)
}

func TestPreferencesDefaults(t *testing.T) {
	repo := &memPreferences{items: map[string]domain.Preferences{}}
	svc := NewPreferencesService(repo, config.UIConfig{DefaultDarkMode: true})
	ctx := context.Background()

	prefs, err := svc.Get(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, prefs.DarkMode)

	_, err = svc.Save(ctx, "u1", domain.Preferences{DarkMode: false})
	require.NoError(t, err)
	prefs, err = svc.Get(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, prefs.DarkMode)
}
