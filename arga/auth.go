package arga

import (
	"context"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/zenibako/arga-golang/endpoints"
)

type loginParams struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates against the admin API. The session cookie in the reply is
// stored in the client's cookie jar.
func (c *Client) Login(ctx context.Context, email, password string) (User, error) {
	if email == "" || password == "" {
		return User{}, fmt.Errorf("email and password are required")
	}

	var user User
	err := c.doJSON(ctx, http.MethodPost, endpoints.RouteLogin, nil, nil, loginParams{Email: email, Password: password}, &user)
	if err != nil {
		return User{}, fmt.Errorf("login failed: %w", err)
	}
	log.Infof("Logged in as %s", user.Email)
	return user, nil
}
