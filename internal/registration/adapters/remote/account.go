package remote

import (
	"context"

	"cashwallet/internal/registration/models"
)

type createAccountResponse struct {
	OK        bool   `json:"ok"`
	AccountID string `json:"account_id"`
	Reason    string `json:"reason"`
}

// AccountClient implements workflow.AccountCreator over HTTP. The payload is
// posted as-is; its JSON form matches the account service's register body.
type AccountClient struct {
	*client
}

func NewAccountClient(cfg Config) (*AccountClient, error) {
	c, err := newClient("account", cfg)
	if err != nil {
		return nil, err
	}
	return &AccountClient{client: c}, nil
}

func (c *AccountClient) CreateAccount(ctx context.Context, payload models.Payload) (models.AccountResult, error) {
	var res createAccountResponse
	if err := c.post(ctx, "/api/auth/register", payload, &res); err != nil {
		return models.AccountResult{}, err
	}
	return models.AccountResult{OK: res.OK, AccountID: res.AccountID, Reason: res.Reason}, nil
}
