package http_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-ledger/internal/domain/permission"
	apphttp "github.com/jhoicas/pos-ledger/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/pos-ledger/pkg/jwt"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	testJWTSecret = "test-secret-key-for-unit-tests"
	testUserID    = "00000000-0000-0000-0000-000000000001"
	testIssuer    = "pos-ledger-test"
	testExpMin    = 60
)

// buildTestApp construye una aplicación Fiber mínima con:
//   - AuthMiddleware para parsear el JWT y cargar el actor
//   - RequireRole para restringir el acceso
//   - Un handler dummy que devuelve 200 si pasa los middlewares
func buildTestApp(allowed ...permission.Role) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})
	app.Get("/protected",
		apphttp.AuthMiddleware(testJWTSecret),
		apphttp.RequireRole(allowed...),
		func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusOK).JSON(fiber.Map{
				"ok":   true,
				"role": apphttp.GetRole(c),
			})
		},
	)
	return app
}

func tokenFor(t *testing.T, id pkgjwt.Identity) string {
	t.Helper()
	if id.UserID == "" {
		id.UserID = testUserID
	}
	tok, err := pkgjwt.Generate(testJWTSecret, id, testIssuer, testExpMin)
	require.NoError(t, err, "debe generarse un token JWT válido")
	return "Bearer " + tok
}

func tokenForRole(t *testing.T, role string) string {
	return tokenFor(t, pkgjwt.Identity{Role: role})
}

func doRequest(t *testing.T, app *fiber.App, authHeader string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests RequireRole
// ──────────────────────────────────────────────────────────────────────────────

func TestRequireRole_EncargadoAccedeRutaEncargado(t *testing.T) {
	app := buildTestApp(permission.RoleManager)
	resp := doRequest(t, app, tokenForRole(t, "ROL_ENCARGADO"))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "ROL_ENCARGADO", body["role"])
}

func TestRequireRole_AliasCortoSeNormaliza(t *testing.T) {
	app := buildTestApp(permission.RoleCashier)
	resp := doRequest(t, app, tokenForRole(t, "cajero"))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode, "el alias cajero equivale a ROL_EMPLEADO")
}

func TestRequireRole_EmpleadoBloqueadoEnRutaEncargado(t *testing.T) {
	app := buildTestApp(permission.RoleManager, permission.RoleOwner)
	resp := doRequest(t, app, tokenForRole(t, "ROL_EMPLEADO"))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "FORBIDDEN")
}

func TestRequireRole_MaestroSiemprePasa(t *testing.T) {
	app := buildTestApp(permission.RoleManager)
	resp := doRequest(t, app, tokenFor(t, pkgjwt.Identity{Role: "ROL_CUSTOM", Master: true}))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRequireRole_RolDesconocidoCaeEnCustom(t *testing.T) {
	app := buildTestApp(permission.RoleCustom)
	resp := doRequest(t, app, tokenForRole(t, "vendedor"))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode, "un rol desconocido se trata como ROL_CUSTOM")
}

func TestAuthMiddleware_SinAuthHeader_Retorna401(t *testing.T) {
	app := buildTestApp(permission.RoleOwner)
	resp := doRequest(t, app, "")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "MISSING_TOKEN")
}

func TestAuthMiddleware_FormatoInvalido_Retorna401(t *testing.T) {
	app := buildTestApp(permission.RoleOwner)
	resp := doRequest(t, app, "Token abc")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthMiddleware_TokenInvalido_Retorna401(t *testing.T) {
	app := buildTestApp(permission.RoleOwner)
	resp := doRequest(t, app, "Bearer token.invalido.aqui")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "INVALID_TOKEN")
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests AuthMiddleware: actor reconstruido desde los claims
// ──────────────────────────────────────────────────────────────────────────────

func TestAuthMiddleware_ConstruyeActor(t *testing.T) {
	app := fiber.New()
	app.Get("/me", apphttp.AuthMiddleware(testJWTSecret), func(c *fiber.Ctx) error {
		a := apphttp.ActorFrom(c)
		extra := make([]string, 0, len(a.Extra))
		for _, x := range a.Extra {
			extra = append(extra, x.String())
		}
		return c.JSON(fiber.Map{
			"user_id": apphttp.GetUserID(c),
			"name":    a.Name,
			"role":    string(a.Role),
			"extra":   extra,
		})
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", tokenFor(t, pkgjwt.Identity{
		Name:         "Ana",
		Role:         "ROL_EMPLEADO",
		Capabilities: []string{"CASH_CLOSE", "NO_EXISTE"},
	}))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		UserID string   `json:"user_id"`
		Name   string   `json:"name"`
		Role   string   `json:"role"`
		Extra  []string `json:"extra"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, testUserID, body.UserID)
	assert.Equal(t, "Ana", body.Name)
	assert.Equal(t, "ROL_EMPLEADO", body.Role)
	assert.Equal(t, []string{"CASH_CLOSE"}, body.Extra, "las capacidades desconocidas se ignoran")
}

func TestOptionalAuth_SinTokenDejaPasarSinActor(t *testing.T) {
	app := fiber.New()
	app.Post("/register", apphttp.OptionalAuth(testJWTSecret), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"anon": apphttp.ActorFrom(c) == nil})
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/register", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]bool
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body["anon"])
}

func TestOptionalAuth_TokenInvalidoSigueRechazado(t *testing.T) {
	app := fiber.New()
	app.Post("/register", apphttp.OptionalAuth(testJWTSecret), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/register", nil)
	req.Header.Set("Authorization", "Bearer basura")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests RequireFeature: funciones del plan
// ──────────────────────────────────────────────────────────────────────────────

func TestRequireFeature_PlanSinNomina_Retorna403(t *testing.T) {
	gate := permission.NewGate(permission.TierBodega)
	app := fiber.New()
	app.Get("/payroll", apphttp.RequireFeature(permission.FeaturePayroll, gate), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/payroll", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "MODULE_DISABLED")
}

func TestRequireFeature_BypassDeDepuracionPermite(t *testing.T) {
	gate := permission.NewGate(permission.TierBodega).WithTierBypass(true)
	app := fiber.New()
	app.Get("/payroll", apphttp.RequireFeature(permission.FeaturePayroll, gate), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/payroll", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
