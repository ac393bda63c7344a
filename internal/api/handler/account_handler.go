package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mentorlink/mentorship-api/internal/core/domain"
	"github.com/mentorlink/mentorship-api/internal/core/ports"
)

// AccountHandler serves administrative account lookups.
type AccountHandler struct {
	authService ports.AuthService
}

func NewAccountHandler(authService ports.AuthService) *AccountHandler {
	return &AccountHandler{authService: authService}
}

// Get returns the safe projection of any account.
//
// @Summary      Get account
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Account ID"
// @Success      200  {object}  accountResponse
// @Failure      401  {object}  apierror.Response
// @Failure      403  {object}  apierror.Response
// @Failure      404  {object}  apierror.Response
// @Router       /admin/accounts/{id} [get]
func (h *AccountHandler) Get(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return domain.NewError(domain.ErrValidation, "account id is required")
	}

	safe, err := h.authService.CheckSession(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, accountResponse{Account: *safe})
}
