package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"food-marketplace-api/apperr"
	"food-marketplace-api/middleware"
	"food-marketplace-api/models"
	"food-marketplace-api/services"
)

// Handler exposes the services over HTTP.
type Handler struct {
	Accounts *services.AccountService
	Catalog  *services.CatalogService
	Carts    *services.CartService
	Orders   *services.OrderService
	log      zerolog.Logger
}

func New(accounts *services.AccountService, catalog *services.CatalogService, carts *services.CartService, orders *services.OrderService, log zerolog.Logger) *Handler {
	return &Handler{Accounts: accounts, Catalog: catalog, Carts: carts, Orders: orders, log: log}
}

// respondError writes err with the status of its kind. Errors without a kind
// are logged and reported as a bare 500.
func (h *Handler) respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		h.log.Error().Err(err).Str("request_id", middleware.GetRequestID(c)).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		return
	}
	body := gin.H{"error": appErr.Message, "kind": appErr.Kind}
	if len(appErr.Details) > 0 {
		body["details"] = appErr.Details
	}
	c.JSON(apperr.HTTPStatus(err), body)
}

// respondBindError reports a request body that failed binding as a validation error.
func (h *Handler) respondBindError(c *gin.Context, err error) {
	verr := apperr.Validation("invalid request body")
	var fields validator.ValidationErrors
	if errors.As(err, &fields) {
		for _, f := range fields {
			verr.With(f.Field(), f.Tag())
		}
	} else {
		verr.With("body", err.Error())
	}
	h.respondError(c, verr)
}

// bind decodes the JSON body into dst and answers 400 on failure.
func (h *Handler) bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		h.respondBindError(c, err)
		return false
	}
	return true
}

// parseID reads a positive integer path parameter.
func (h *Handler) parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		h.respondError(c, apperr.Validation("%s must be a positive integer", name))
		return 0, false
	}
	return uint(id), true
}

// queryID reads an optional positive integer query parameter; absent means 0.
func (h *Handler) queryID(c *gin.Context, name string) (uint, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		h.respondError(c, apperr.Validation("%s must be a positive integer", name))
		return 0, false
	}
	return uint(id), true
}

// currentUser loads the caller's account.
func (h *Handler) currentUser(c *gin.Context) (*models.User, bool) {
	user, err := h.Accounts.User(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			err = apperr.Auth("account no longer exists")
		}
		h.respondError(c, err)
		return nil, false
	}
	return user, true
}
