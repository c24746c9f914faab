package auth

import (
	"fmt"

	"golang.org/x/oauth2"
)

const (
	// Strava OAuth endpoints
	AuthURL  = "https://www.strava.com/oauth/authorize"
	TokenURL = "https://www.strava.com/oauth/token"

	// CallbackPort is the port for the OAuth callback server. It must
	// match the redirect URL registered with the Strava application.
	CallbackPort = 8484
)

// Scopes required for activity and stream access (Strava uses
// comma-separated scopes inside a single value)
var Scopes = []string{
	"read,activity:read_all",
}

// Credentials holds the OAuth client credentials
type Credentials struct {
	ClientID     string
	ClientSecret string
}

// NewOAuthConfig creates an oauth2.Config for the local-callback flow
func NewOAuthConfig(creds Credentials) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  AuthURL,
			TokenURL: TokenURL,
		},
		RedirectURL: fmt.Sprintf("http://localhost:%d/callback", CallbackPort),
		Scopes:      Scopes,
	}
}

// Result contains the token and athlete info from a completed auth flow
type Result struct {
	Token     *oauth2.Token
	AthleteID int64
}

// ExtractAthleteID pulls the athlete ID out of the token extras.
// Strava embeds a summary athlete object in the token response.
func ExtractAthleteID(token *oauth2.Token) int64 {
	if athlete, ok := token.Extra("athlete").(map[string]interface{}); ok {
		if id, ok := athlete["id"].(float64); ok {
			return int64(id)
		}
	}
	return 0
}
