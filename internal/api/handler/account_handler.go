package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/memberbase/accounts-api/internal/api/metrics"
	"github.com/memberbase/accounts-api/internal/api/middleware"
	"github.com/memberbase/accounts-api/internal/core/domain"
	"github.com/memberbase/accounts-api/internal/core/ports"
)

type AccountHandler struct {
	accountService ports.AccountService
}

func NewAccountHandler(accountService ports.AccountService) *AccountHandler {
	return &AccountHandler{accountService: accountService}
}

// List returns every account, ordered by creation id ascending.
//
// @Summary      List all accounts
// @Tags         accounts
// @Produce      json
// @Success      200  {object}  listAccountsResponse
// @Failure      401  {object}  Response
// @Failure      403  {object}  Response
// @Router       /accounts/all [get]
func (h *AccountHandler) List(c echo.Context) error {
	accounts, err := h.accountService.List(c.Request().Context())
	if err != nil {
		return err
	}

	infos := make([]AccountInfo, 0, len(accounts))
	for i := range accounts {
		infos = append(infos, toAccountInfo(&accounts[i]))
	}

	return c.JSON(http.StatusOK, listAccountsResponse{
		Response: Response{Success: true, Message: "Retrieved accounts successfully"},
		Accounts: infos,
	})
}

// Create adds a new user-role account on behalf of an admin.
//
// @Summary      Create a new account
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        body  body      newAccountRequest  true  "New account details"
// @Success      201   {object}  Response
// @Failure      400   {object}  Response
// @Failure      403   {object}  Response
// @Failure      409   {object}  Response
// @Router       /accounts/new [post]
func (h *AccountHandler) Create(c echo.Context) error {
	var req newAccountRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if _, err := h.accountService.Create(c.Request().Context(), req.Username, req.Password, req.Name, domain.RoleUser); err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, Response{Success: true, Message: "Account created successfully"})
}

// BasicInfo returns the public fields of the resolved target account.
//
// @Summary      Basic account info
// @Tags         accounts
// @Produce      json
// @Param        accountId  path      string  true  "Account id or 'me'"
// @Success      200        {object}  basicInfoResponse
// @Failure      401        {object}  Response
// @Failure      404        {object}  Response
// @Router       /accounts/{accountId}/info/basic [get]
func (h *AccountHandler) BasicInfo(c echo.Context) error {
	target, err := middleware.TargetAccount(c)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, basicInfoResponse{
		Response:    Response{Success: true, Message: "Basic info collected successfully"},
		AccountInfo: toAccountInfo(target),
	})
}

// UpdateInfo applies a partial update to the resolved target account. The
// patch is all-or-nothing: a rejected field aborts the whole call.
//
// @Summary      Update account info
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        accountId  path      string                true  "Account id or 'me'"
// @Param        body       body      updateAccountRequest  true  "Fields to update"
// @Success      200        {object}  Response
// @Failure      400        {object}  Response
// @Failure      403        {object}  Response
// @Failure      409        {object}  Response
// @Router       /accounts/{accountId}/info [put]
func (h *AccountHandler) UpdateInfo(c echo.Context) error {
	target, err := middleware.TargetAccount(c)
	if err != nil {
		return err
	}

	var req updateAccountRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	patch := ports.AccountPatch{
		Username: req.Username,
		Name:     req.Name,
		Role:     req.Role,
		Password: req.Password,
	}

	if _, err := h.accountService.Update(c.Request().Context(), middleware.Principal(c), target, patch); err != nil {
		metrics.AccountUpdatesTotal.WithLabelValues("rejected").Inc()
		return err
	}
	metrics.AccountUpdatesTotal.WithLabelValues("applied").Inc()

	return c.JSON(http.StatusOK, Response{Success: true, Message: "Account updated successfully"})
}
