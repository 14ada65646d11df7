package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/geocoder89/schoolhub/internal/config"
	"github.com/geocoder89/schoolhub/internal/domain/user"
	"github.com/geocoder89/schoolhub/internal/http/middlewares"
	"github.com/geocoder89/schoolhub/internal/repo/postgres"
	"github.com/geocoder89/schoolhub/internal/security"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// UserStore is the org-scoped slice of the users repo that the admin
// surface needs. Scoping lives in the store queries; handlers only ever
// pass the caller's own organization id.
type UserStore interface {
	ListInOrg(ctx context.Context, orgID string) ([]user.User, error)
	GetInOrg(ctx context.Context, id, orgID string) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	Create(ctx context.Context, params postgres.CreateUserParams) (user.User, error)
}

type UsersHandler struct {
	users UserStore
}

func NewUsersHandler(users UserStore) *UsersHandler {
	return &UsersHandler{users: users}
}

type CreateUserRequest struct {
	FirstName    string `json:"firstName" binding:"required,min=1,max=100"`
	LastName     string `json:"lastName" binding:"required,min=1,max=100"`
	Email        string `json:"email" binding:"required,email,max=255"`
	Role         string `json:"role" binding:"required,oneof=TEACHER STUDENT"`
	TempPassword string `json:"tempPassword" binding:"required,min=8,max=128"`
}

func (h *UsersHandler) ListUsers(ctx *gin.Context) {
	identity, ok := middlewares.IdentityFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	// org id comes from the verified identity, never from the client
	users, err := h.users.ListInOrg(cctx, identity.OrganizationID)

	if err != nil {
		RespondInternal(ctx, "Could not list users")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, gin.H{
		"ok":    true,
		"users": user.SanitizeAll(users),
		"count": len(users),
	})
}

func (h *UsersHandler) GetUser(ctx *gin.Context) {
	id := ctx.Param("id")

	if id == "" || uuid.Validate(id) != nil {
		RespondBadRequest(ctx, "user id must be a valid UUID", nil)
		return
	}

	identity, ok := middlewares.IdentityFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	u, err := h.users.GetInOrg(cctx, id, identity.OrganizationID)

	if err != nil {
		if errors.Is(err, postgres.ErrUserNotFound) {
			// a row in another organization answers exactly like a miss
			RespondNotFound(ctx, "User not found")
			return
		}

		RespondInternal(ctx, "Could not fetch user")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"ok":   true,
		"user": user.Sanitize(u),
	})
}

func (h *UsersHandler) CreateUser(ctx *gin.Context) {
	identity, ok := middlewares.IdentityFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	var req CreateUserRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// the oneof tag already restricted the value set; this converts to the
	// closed type
	role, err := user.ParseRole(req.Role)

	if err != nil || role == user.RoleAdmin {
		RespondBadRequest(ctx, "Role must be TEACHER or STUDENT.", nil)
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	// courtesy pre-check for a clean conflict answer; the unique index
	// stays the authority under concurrency
	_, err = h.users.GetByEmail(cctx, req.Email)

	if err == nil {
		RespondConflict(ctx, "email_exists", "Email is already in use.")
		return
	}

	if !errors.Is(err, postgres.ErrUserNotFound) {
		RespondInternal(ctx, "Could not create user")
		return
	}

	hash, err := security.HashPassword(req.TempPassword)

	if err != nil {
		RespondInternal(ctx, "Could not create user")
		return
	}

	created, err := h.users.Create(cctx, postgres.CreateUserParams{
		ID:             uuid.NewString(),
		Email:          req.Email,
		HashedPassword: hash,
		FirstName:      &req.FirstName,
		LastName:       &req.LastName,
		Role:           role,
		// both forced from the verified identity, never from the payload
		OrganizationID:  identity.OrganizationID,
		CreatedByUserID: &identity.UserID,
	})

	if err != nil {
		if errors.Is(err, postgres.ErrEmailAlreadyUsed) {
			RespondConflict(ctx, "email_exists", "Email is already in use.")
			return
		}

		RespondInternal(ctx, "Could not create user")
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"ok":   true,
		"user": user.Sanitize(created),
	})
}
