// Package line talks to the LINE Login and Messaging APIs.
package line

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"blackyoga/pkg/client"
)

const (
	verifyPath  = "/oauth2/v2.1/verify"
	profilePath = "/v2/profile"
	pushPath    = "/v2/bot/message/push"

	// MaxTextLength is the Messaging API limit for a text message.
	MaxTextLength = 5000
)

var (
	ErrInvalidToken    = errors.New("line: access token rejected")
	ErrChannelMismatch = errors.New("line: access token issued for another channel")
)

// Profile is the LINE profile of the token's owner.
type Profile struct {
	UserID        string `json:"userId"`
	DisplayName   string `json:"displayName"`
	PictureURL    string `json:"pictureUrl"`
	StatusMessage string `json:"statusMessage"`
}

type verifyResponse struct {
	Scope     string `json:"scope"`
	ClientID  string `json:"client_id"`
	ExpiresIn int64  `json:"expires_in"`
}

type Client struct {
	http *client.HttpClient
}

func NewClient(baseURL string) *Client {
	return &Client{http: client.NewHttpClient(strings.TrimRight(baseURL, "/"))}
}

// VerifyAccessToken checks that token is live and was issued for channelID.
func (c *Client) VerifyAccessToken(ctx context.Context, token, channelID string) error {
	resp, err := c.http.GET(ctx, verifyPath, url.Values{"access_token": {token}}, nil)
	if err != nil {
		return fmt.Errorf("line verify: %w", err)
	}
	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: %s", ErrInvalidToken, client.GetErrorMessage(resp))
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("line verify: %s", client.GetErrorMessage(resp))
	}

	var body verifyResponse
	if err := resp.DecodeJSON(&body); err != nil {
		return fmt.Errorf("line verify: decode response: %w", err)
	}
	if body.ClientID != channelID {
		return ErrChannelMismatch
	}
	if body.ExpiresIn <= 0 {
		return fmt.Errorf("%w: expired", ErrInvalidToken)
	}
	return nil
}

func (c *Client) GetProfile(ctx context.Context, token string) (*Profile, error) {
	resp, err := c.http.GET(ctx, profilePath, nil, client.BearerHeader(token))
	if err != nil {
		return nil, fmt.Errorf("line profile: %w", err)
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return nil, fmt.Errorf("%w: %s", ErrInvalidToken, client.GetErrorMessage(resp))
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("line profile: %s", client.GetErrorMessage(resp))
	}

	var profile Profile
	if err := resp.DecodeJSON(&profile); err != nil {
		return nil, fmt.Errorf("line profile: decode response: %w", err)
	}
	if profile.UserID == "" {
		return nil, fmt.Errorf("line profile: response without userId")
	}
	return &profile, nil
}

type textMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type pushRequest struct {
	To       string        `json:"to"`
	Messages []textMessage `json:"messages"`
}

// PushText sends a text message to a user through the Messaging API.
func (c *Client) PushText(ctx context.Context, channelToken, to, text string) error {
	if runes := []rune(text); len(runes) > MaxTextLength {
		text = string(runes[:MaxTextLength])
	}

	resp, err := c.http.POST(ctx, pushPath, pushRequest{
		To:       to,
		Messages: []textMessage{{Type: "text", Text: text}},
	}, client.BearerHeader(channelToken))
	if err != nil {
		return fmt.Errorf("line push: %w", err)
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("line push: status %d: %s", resp.StatusCode, client.GetErrorMessage(resp))
	}
	return nil
}
