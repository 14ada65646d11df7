package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/geocoder89/schoolhub/internal/cache"
	"github.com/geocoder89/schoolhub/internal/config"
	"github.com/geocoder89/schoolhub/internal/domain/organization"
	"github.com/geocoder89/schoolhub/internal/domain/user"
	"github.com/geocoder89/schoolhub/internal/http/middlewares"
	"github.com/geocoder89/schoolhub/internal/repo/postgres"
	"github.com/gin-gonic/gin"
)

type ProfileStore interface {
	GetByID(ctx context.Context, id string) (user.User, error)
	UpdateProfile(ctx context.Context, id string, firstName, lastName *string) (user.User, error)
}

type OrganizationReader interface {
	GetByID(ctx context.Context, id string) (organization.Organization, error)
}

type MeHandler struct {
	users ProfileStore
	orgs  OrganizationReader
	// org names are effectively immutable; a short TTL keeps the profile
	// endpoint off the organizations table on hot paths
	orgCache *cache.Cache
}

func NewMeHandler(users ProfileStore, orgs OrganizationReader) *MeHandler {
	return &MeHandler{
		users:    users,
		orgs:     orgs,
		orgCache: cache.New(30 * time.Second),
	}
}

type UpdateMeRequest struct {
	FirstName *string `json:"firstName" binding:"omitempty,max=100"`
	LastName  *string `json:"lastName" binding:"omitempty,max=100"`
}

func (h *MeHandler) GetMe(ctx *gin.Context) {
	identity, ok := middlewares.IdentityFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	// always re-read the row: the token may outlive the account
	u, err := h.users.GetByID(cctx, identity.UserID)

	if err != nil {
		if errors.Is(err, postgres.ErrUserNotFound) {
			RespondNotFound(ctx, "Profile not found")
			return
		}

		RespondInternal(ctx, "Could not load profile")
		return
	}

	org, err := h.organization(cctx, u.OrganizationID)

	if err != nil {
		RespondInternal(ctx, "Could not load profile")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"ok":   true,
		"user": user.Sanitize(u),
		"organization": gin.H{
			"id":   org.ID,
			"name": org.Name,
		},
	})
}

func (h *MeHandler) UpdateMe(ctx *gin.Context) {
	identity, ok := middlewares.IdentityFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	var req UpdateMeRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// a body with neither field is a schema failure, distinct from fields
	// that are present but trim to nothing
	if req.FirstName == nil && req.LastName == nil {
		RespondBadRequest(ctx, "At least one of firstName or lastName must be provided.", nil)
		return
	}

	firstName := trimmed(req.FirstName)
	lastName := trimmed(req.LastName)

	if firstName == nil && lastName == nil {
		RespondNothingToUpdate(ctx)
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	// target row is always the caller's own id; no id is accepted from
	// the client on this path
	u, err := h.users.UpdateProfile(cctx, identity.UserID, firstName, lastName)

	if err != nil {
		if errors.Is(err, postgres.ErrUserNotFound) {
			RespondNotFound(ctx, "Profile not found")
			return
		}

		RespondInternal(ctx, "Could not update profile")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"ok":   true,
		"user": user.Sanitize(u),
	})
}

func (h *MeHandler) organization(ctx context.Context, orgID string) (organization.Organization, error) {
	if v, ok := h.orgCache.Get(orgID); ok {
		if org, ok := v.(organization.Organization); ok {
			return org, nil
		}
	}

	org, err := h.orgs.GetByID(ctx, orgID)

	if err != nil {
		return organization.Organization{}, err
	}

	h.orgCache.Set(orgID, org)

	return org, nil
}

// trimmed collapses whitespace-only input to nil so it cannot overwrite a
// stored name with blanks.
func trimmed(s *string) *string {
	if s == nil {
		return nil
	}

	t := strings.TrimSpace(*s)

	if t == "" {
		return nil
	}

	return &t
}
