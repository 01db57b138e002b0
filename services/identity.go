// services/identity.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"viral-event-system/utils"
)

type IdentityUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is the result of a sign-up or sign-in. AccessToken is empty when the
// provider created the account but still waits for email confirmation.
type Session struct {
	AccessToken  string       `json:"access_token,omitempty"`
	RefreshToken string       `json:"refresh_token,omitempty"`
	TokenType    string       `json:"token_type,omitempty"`
	ExpiresIn    int          `json:"expires_in,omitempty"`
	User         IdentityUser `json:"user"`
}

// IdentityProvider is the hosted auth backend.
type IdentityProvider interface {
	SignUp(ctx context.Context, email, password string) (*Session, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context, accessToken string) error
}

// IdentityError is a non-2xx answer from the provider.
type IdentityError struct {
	Status  int
	Message string
}

func (e *IdentityError) Error() string {
	return fmt.Sprintf("identity provider returned %d: %s", e.Status, e.Message)
}

// GoTrueClient talks to a GoTrue (Supabase Auth) compatible REST API.
type GoTrueClient struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

func NewGoTrueClient(baseURL, apiKey string) *GoTrueClient {
	return &GoTrueClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		APIKey:  apiKey,
		Client:  utils.HTTPClient,
	}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// gotrueSession covers both signup shapes: a full session, or a bare user when
// confirmation is pending.
type gotrueSession struct {
	Session
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (c *GoTrueClient) SignUp(ctx context.Context, email, password string) (*Session, error) {
	var out gotrueSession
	if err := c.do(ctx, http.MethodPost, "/auth/v1/signup", "", credentials{email, password}, &out); err != nil {
		return nil, err
	}
	if out.User.ID == "" {
		out.User = IdentityUser{ID: out.ID, Email: out.Email}
	}
	return &out.Session, nil
}

func (c *GoTrueClient) SignIn(ctx context.Context, email, password string) (*Session, error) {
	var out Session
	if err := c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", "", credentials{email, password}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *GoTrueClient) SignOut(ctx context.Context, accessToken string) error {
	return c.do(ctx, http.MethodPost, "/auth/v1/logout", accessToken, nil, nil)
}

func (c *GoTrueClient) do(ctx context.Context, method, path, bearer string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		jsonData, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.APIKey)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("identity request %s: %w", path, err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("[IDENTITY] %s returned %d: %s", path, resp.StatusCode, string(respBody))
		return &IdentityError{Status: resp.StatusCode, Message: providerMessage(respBody)}
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode identity response: %w", err)
	}
	return nil
}

// providerMessage picks the human readable field out of a GoTrue error body.
func providerMessage(body []byte) string {
	var e struct {
		Msg              string `json:"msg"`
		Message          string `json:"message"`
		ErrorDescription string `json:"error_description"`
		Error            string `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err != nil {
		return strings.TrimSpace(string(body))
	}
	for _, m := range []string{e.Msg, e.Message, e.ErrorDescription, e.Error} {
		if m != "" {
			return m
		}
	}
	return "unknown error"
}
