// Package wpcom obtains WordPress.com OAuth2 tokens for the WpComOAuth2 API type.
package wpcom

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/bugparty/wpctl/internal/models"
)

// Endpoint is the WordPress.com OAuth2 endpoint
var Endpoint = oauth2.Endpoint{
	AuthURL:   "https://public-api.wordpress.com/oauth2/authorize",
	TokenURL:  "https://public-api.wordpress.com/oauth2/token",
	AuthStyle: oauth2.AuthStyleInParams,
}

// Config returns the OAuth2 configuration of a WordPress.com application
func Config(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Endpoint:     Endpoint,
	}
}

// CodePrompt shows authURL to the user and returns the authorization code
// they received
type CodePrompt func(authURL string) (code string, err error)

// Login runs the authorization code flow and returns the token of the site
// the user authorized
func Login(ctx context.Context, config *oauth2.Config, prompt CodePrompt) (models.WpComToken, error) {
	state := uuid.NewString()
	code, err := prompt(config.AuthCodeURL(state))
	if err != nil {
		return models.WpComToken{}, fmt.Errorf("unable to read authorization code: %w", err)
	}

	tok, err := config.Exchange(ctx, code)
	if err != nil {
		return models.WpComToken{}, fmt.Errorf("unable to retrieve token: %w", err)
	}
	return TokenFrom(tok)
}

// TokenFrom extracts the blog_id and blog_url WordPress.com returns next to
// the access token
func TokenFrom(tok *oauth2.Token) (models.WpComToken, error) {
	if tok == nil || tok.AccessToken == "" {
		return models.WpComToken{}, fmt.Errorf("token has no access token")
	}

	blogID := extraString(tok.Extra("blog_id"))
	if blogID == "" {
		return models.WpComToken{}, fmt.Errorf("token response has no blog_id")
	}
	return models.WpComToken{
		AccessToken: tok.AccessToken,
		TokenType:   tok.TokenType,
		BlogID:      blogID,
		BlogURL:     extraString(tok.Extra("blog_url")),
	}, nil
}

// OAuth2Token converts a stored token back for use as a bearer credential
func OAuth2Token(t models.WpComToken) *oauth2.Token {
	return &oauth2.Token{AccessToken: t.AccessToken, TokenType: t.TokenType}
}

func extraString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}
