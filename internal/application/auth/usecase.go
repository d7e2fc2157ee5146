package auth

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/pos-ledger/internal/application/access"
	"github.com/jhoicas/pos-ledger/internal/application/dto"
	"github.com/jhoicas/pos-ledger/internal/application/security"
	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/permission"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
	"github.com/jhoicas/pos-ledger/pkg/jwt"
)

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret     string
	ExpMinutes int
	Issuer     string
}

// AuthUseCase casos de uso de autenticación: alta de operadores y login con PIN.
type AuthUseCase struct {
	userRepo repository.UserRepository
	guard    *security.Guard
	jwtCfg   JWTConfig
	logger   zerolog.Logger
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(userRepo repository.UserRepository, guard *security.Guard, jwtCfg JWTConfig, logger zerolog.Logger) *AuthUseCase {
	return &AuthUseCase{
		userRepo: userRepo,
		guard:    guard,
		jwtCfg:   jwtCfg,
		logger:   logger.With().Str("component", "auth").Logger(),
	}
}

// RegisterUser crea un operador hasheando el PIN con bcrypt. Sin usuarios previos el
// primero se registra sin actor y queda como dueño maestro; después requiere
// SETTINGS_USERS_MANAGE.
func (uc *AuthUseCase) RegisterUser(ctx context.Context, actor *permission.Actor, in dto.CreateUserRequest) (*dto.UserResponse, error) {
	existing, err := uc.userRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	bootstrap := len(existing) == 0
	if !bootstrap {
		if err := uc.guard.Require(ctx, actor, "register_user", permission.SettingsManageUsers); err != nil {
			return nil, err
		}
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if u, err := uc.userRepo.GetByEmail(ctx, email); err != nil {
		return nil, err
	} else if u != nil {
		return nil, domain.ErrDuplicate
	}
	role, err := permission.ParseRole(in.Role)
	if err != nil {
		return nil, domain.NewValidationError("role", err.Error())
	}
	master := in.Master
	if bootstrap {
		role, master = permission.RoleOwner, true
	} else if master && (actor == nil || !actor.Master) {
		return nil, domain.NewValidationError("master", "solo un usuario maestro puede crear otro")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.PIN), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	name := in.Name
	if name == "" {
		name = email
	}
	user := &entity.User{
		ID:                uuid.New().String(),
		Email:             email,
		PinHash:           string(hash),
		Name:              name,
		Role:              string(role),
		Master:            master,
		ExtraCapabilities: []string{},
		Status:            "active",
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	uc.guard.Record(ctx, actor, security.EventMutation, "register_user:"+user.ID, entity.SeverityInfo, map[string]any{"role": user.Role, "bootstrap": bootstrap})
	return dto.FromUser(user), nil
}

// Login verifica email y PIN, genera el JWT con rol, plan y capacidades extra.
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	user, err := uc.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		uc.failed(ctx, email, "usuario inexistente")
		return nil, domain.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PinHash), []byte(in.PIN)); err != nil {
		uc.failed(ctx, email, "pin incorrecto")
		return nil, domain.ErrUnauthorized
	}
	if !user.Active() {
		uc.failed(ctx, email, "usuario inactivo")
		return nil, domain.ErrForbidden
	}
	token, err := jwt.Generate(uc.jwtCfg.Secret, jwt.Identity{
		UserID:       user.ID,
		Name:         user.Name,
		Role:         user.Role,
		Master:       user.Master,
		Tier:         uc.guard.Gate().Tier().Name,
		Capabilities: user.ExtraCapabilities,
	}, uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes)
	if err != nil {
		return nil, err
	}
	uc.guard.Record(ctx, access.ActorFor(user), security.EventLogin, user.ID, entity.SeverityInfo, nil)
	return &dto.LoginResponse{
		Token: token,
		User:  *dto.FromUser(user),
	}, nil
}

// ListUsers operadores registrados.
func (uc *AuthUseCase) ListUsers(ctx context.Context, actor *permission.Actor) ([]*dto.UserResponse, error) {
	if err := uc.guard.Require(ctx, actor, "list_users", permission.SettingsManageUsers); err != nil {
		return nil, err
	}
	users, err := uc.userRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, dto.FromUser(u))
	}
	return out, nil
}

func (uc *AuthUseCase) failed(ctx context.Context, email, reason string) {
	uc.logger.Warn().Str("email", email).Str("reason", reason).Msg("login fallido")
	uc.guard.Record(ctx, nil, security.EventLoginFailed, email, entity.SeverityWarn, map[string]any{"reason": reason})
}
