package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/lotes-api/internal/application/auth"
	"github.com/jhoicas/lotes-api/internal/application/dto"
	"github.com/jhoicas/lotes-api/internal/domain"
	"github.com/jhoicas/lotes-api/internal/infrastructure/memory"
	pkgjwt "github.com/jhoicas/lotes-api/pkg/jwt"
)

const testSecret = "test-secret-key-for-unit-tests"

func newAuthUC() *auth.UseCase {
	store := memory.NewStore()
	return auth.NewUseCase(store.Users(), auth.JWTConfig{
		Secret:     testSecret,
		ExpMinutes: 60,
		Issuer:     "lotes-api-test",
	})
}

func TestRegister_CreaUsuarioConRolPorDefecto(t *testing.T) {
	uc := newAuthUC()

	user, err := uc.Register(dto.RegisterRequest{Email: "ana@planta.co", Password: "12345678"})

	require.NoError(t, err)
	assert.Equal(t, "visor", user.Role, "sin rol explícito cae al de menor privilegio")
	assert.Equal(t, "ana@planta.co", user.Name, "nombre vacío cae al email")
}

func TestRegister_RolInvalidoRechazado(t *testing.T) {
	uc := newAuthUC()

	_, err := uc.Register(dto.RegisterRequest{Email: "a@b.co", Password: "12345678", Role: "superuser"})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRegister_EmailDuplicado(t *testing.T) {
	uc := newAuthUC()
	_, err := uc.Register(dto.RegisterRequest{Email: "ana@planta.co", Password: "12345678"})
	require.NoError(t, err)

	_, err = uc.Register(dto.RegisterRequest{Email: "ana@planta.co", Password: "otropass123"})

	assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)
}

func TestLogin_EmiteTokenConElRol(t *testing.T) {
	uc := newAuthUC()
	_, err := uc.Register(dto.RegisterRequest{Email: "jefe@planta.co", Password: "12345678", Role: "produccion"})
	require.NoError(t, err)

	out, err := uc.Login(dto.LoginRequest{Email: "jefe@planta.co", Password: "12345678"})

	require.NoError(t, err)
	userID, role, err := pkgjwt.Parse(testSecret, out.Token)
	require.NoError(t, err)
	assert.Equal(t, out.User.ID, userID)
	assert.Equal(t, "produccion", role, "el rol viaja en el claim para el gate")
}

func TestLogin_PasswordIncorrecto(t *testing.T) {
	uc := newAuthUC()
	_, err := uc.Register(dto.RegisterRequest{Email: "ana@planta.co", Password: "12345678"})
	require.NoError(t, err)

	_, err = uc.Login(dto.LoginRequest{Email: "ana@planta.co", Password: "incorrecto"})

	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestLogin_UsuarioInexistente(t *testing.T) {
	uc := newAuthUC()

	_, err := uc.Login(dto.LoginRequest{Email: "nadie@planta.co", Password: "12345678"})

	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
