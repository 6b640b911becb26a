package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrCredentialsRequired = errors.New("apiclient: email and password are required")
	ErrPasswordMismatch    = errors.New("apiclient: passwords do not match")
	ErrMissingToken        = errors.New("apiclient: authentication response has no token")
)

// Authenticate exchanges credentials for a token and stores it in the session.
func (c *Client) Authenticate(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return ErrCredentialsRequired
	}
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, "/auth/authenticate", authRequest{Email: email, Password: password}, &resp); err != nil {
		return err
	}
	return c.storeToken(ctx, resp)
}

// Register creates an account and signs it in.
func (c *Client) Register(ctx context.Context, req RegisterRequest) error {
	req.Email = strings.TrimSpace(req.Email)
	req.FullName = strings.TrimSpace(req.FullName)
	if req.Email == "" || req.Password == "" {
		return ErrCredentialsRequired
	}
	if req.Password != req.ConfirmPassword {
		return ErrPasswordMismatch
	}
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", req, &resp); err != nil {
		return err
	}
	return c.storeToken(ctx, resp)
}

func (c *Client) storeToken(ctx context.Context, resp authResponse) error {
	if strings.TrimSpace(resp.Token) == "" {
		return ErrMissingToken
	}
	if err := c.session.SetToken(ctx, resp.Token); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}
	return nil
}

func (c *Client) Me(ctx context.Context) (User, error) {
	var u User
	if err := c.do(ctx, http.MethodGet, "/users/me", nil, &u); err != nil {
		return User{}, err
	}
	if strings.TrimSpace(u.Email) == "" {
		return User{}, fmt.Errorf("%w: profile has no email", ErrMalformedResponse)
	}
	return u, nil
}

// UpdateProfile changes name and email. The token's subject is the email, so
// the caller must sign in again when EmailChanged is set.
func (c *Client) UpdateProfile(ctx context.Context, current User, fullName, email string) (User, bool, error) {
	fullName = strings.TrimSpace(fullName)
	email = strings.TrimSpace(email)
	if len(fullName) < 2 {
		return User{}, false, errors.New("apiclient: name must be at least 2 characters")
	}
	if !strings.Contains(email, "@") {
		return User{}, false, errors.New("apiclient: invalid email address")
	}
	var u User
	if err := c.do(ctx, http.MethodPut, "/users/me", updateProfileRequest{FullName: fullName, Email: email}, &u); err != nil {
		return User{}, false, err
	}
	if u.Email == "" {
		u = User{ID: current.ID, FullName: fullName, Email: email, Role: current.Role}
	}
	return u, !strings.EqualFold(current.Email, email), nil
}

func (c *Client) ChangePassword(ctx context.Context, currentPassword, newPassword, confirm string) error {
	if currentPassword == "" {
		return errors.New("apiclient: current password is required")
	}
	if len(newPassword) < 6 {
		return errors.New("apiclient: password must be at least 6 characters")
	}
	if newPassword != confirm {
		return ErrPasswordMismatch
	}
	return c.do(ctx, http.MethodPut, "/users/me/password", changePasswordRequest{
		CurrentPassword: currentPassword,
		NewPassword:     newPassword,
		ConfirmPassword: confirm,
	}, nil)
}
