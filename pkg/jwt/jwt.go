package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims incluye los claims estándar JWT más lo necesario para reconstruir el actor
// sin consultar la DB: rol, bandera maestra, plan y capacidades extra por nombre.
type Claims struct {
	jwt.RegisteredClaims
	UserID       string   `json:"user_id"`
	Name         string   `json:"name,omitempty"`
	Role         string   `json:"role"` // ROL_DUENO | ROL_ENCARGADO | ROL_EMPLEADO | ROL_CUSTOM
	Master       bool     `json:"master,omitempty"`
	Tier         string   `json:"tier,omitempty"`
	Capabilities []string `json:"caps,omitempty"`
}

// Identity datos del operador que viajan en el token.
type Identity struct {
	UserID       string
	Name         string
	Role         string
	Master       bool
	Tier         string
	Capabilities []string
}

// Generate genera un token JWT firmado con la identidad del operador.
func Generate(secret string, id Identity, issuer string, expMinutes int) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt: secret vacío")
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expMinutes) * time.Minute)),
		},
		UserID:       id.UserID,
		Name:         id.Name,
		Role:         id.Role,
		Master:       id.Master,
		Tier:         id.Tier,
		Capabilities: id.Capabilities,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// Parse valida el token y devuelve sus claims.
// Retorna error si el token es inválido, expirado o tiene firma incorrecta.
func Parse(secret, tokenString string) (*Claims, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt: secret vacío")
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("método de firma inesperado: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("claims inválidos")
	}
	return claims, nil
}
