package google

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/vipul43/kiwis-monitor/internal/models"
	"github.com/vipul43/kiwis-monitor/internal/repository"
)

// AccountSource provides the user's stored OAuth tokens
type AccountSource interface {
	GetByUserID(ctx context.Context, userID string) (*models.Account, error)
	UpdateTokens(ctx context.Context, accountID string, accessToken string, refreshToken string, accessTokenExpiresAt time.Time) error
}

// Authorizer implements the monitor's connection checks against the user's
// Google account: load the stored tokens, refresh an expired access token,
// and probe both the mail and calendar APIs. Any failure along the way reads
// as "not authorized" rather than an error the monitor has to handle.
type Authorizer struct {
	client   *Client
	accounts AccountSource
	userID   string
}

func NewAuthorizer(client *Client, accounts AccountSource, userID string) *Authorizer {
	return &Authorizer{
		client:   client,
		accounts: accounts,
		userID:   userID,
	}
}

// Verify reports whether the user's Google integration is authorized
func (a *Authorizer) Verify(ctx context.Context) (bool, error) {
	account, err := a.accounts.GetByUserID(ctx, a.userID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return false, nil
		}
		return false, err
	}
	if account.AccessToken == nil {
		return false, nil
	}

	accessToken := *account.AccessToken
	if account.AccessTokenExpiresAt != nil && account.AccessTokenExpiresAt.Before(time.Now()) {
		if account.RefreshToken == nil {
			return false, nil
		}
		refreshed, err := a.client.RefreshAccessToken(ctx, *account.RefreshToken)
		if err != nil {
			log.Printf("Warning: failed to refresh access token: %v", err)
			return false, nil
		}
		if err := a.accounts.UpdateTokens(ctx, account.ID, refreshed.AccessToken, refreshed.RefreshToken, refreshed.ExpiresAt); err != nil {
			log.Printf("Warning: failed to persist refreshed tokens: %v", err)
		}
		accessToken = refreshed.AccessToken
	}

	if err := a.client.VerifyMailAccess(ctx, accessToken); err != nil {
		log.Printf("Warning: Gmail access check failed: %v", err)
		return false, nil
	}
	if err := a.client.VerifyCalendarAccess(ctx, accessToken); err != nil {
		log.Printf("Warning: Calendar access check failed: %v", err)
		return false, nil
	}
	return true, nil
}

// AuthorizationURL returns the consent-screen redirect target
func (a *Authorizer) AuthorizationURL() string {
	return a.client.AuthorizationURL(uuid.New().String())
}

// Revoke revokes the stored token, if any
func (a *Authorizer) Revoke(ctx context.Context) error {
	account, err := a.accounts.GetByUserID(ctx, a.userID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil
		}
		return err
	}

	token := ""
	if account.RefreshToken != nil {
		token = *account.RefreshToken
	} else if account.AccessToken != nil {
		token = *account.AccessToken
	}
	if token == "" {
		return nil
	}
	return a.client.RevokeToken(ctx, token)
}
