package handler

import "github.com/memberbase/accounts-api/internal/core/domain"

// Response is the canonical envelope every endpoint returns. Endpoint-specific
// payloads embed it and add their own fields.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// AccountInfo is the public projection of an account. The password hash is
// never exposed.
type AccountInfo struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

func toAccountInfo(a *domain.Account) AccountInfo {
	return AccountInfo{
		ID:       a.ID,
		Username: a.Username,
		Name:     a.Name,
		Role:     a.Role,
	}
}

type loginResponse struct {
	Response
	APIToken string `json:"apiToken,omitempty"`
}

type listAccountsResponse struct {
	Response
	Accounts []AccountInfo `json:"accounts"`
}

type basicInfoResponse struct {
	Response
	AccountInfo AccountInfo `json:"accountInfo"`
}
