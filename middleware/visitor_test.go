package middleware_test

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"viral-event-system/attribution"
	"viral-event-system/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func visitorApp() *fiber.App {
	app := fiber.New()
	app.Use(middleware.Visitor(false))
	app.Get("/code", func(c *fiber.Ctx) error {
		code, _ := attribution.ActiveCode(middleware.VisitorKV(c))
		return c.SendString(code)
	})
	app.Get("/session", func(c *fiber.Ctx) error {
		kv := middleware.VisitorKV(c)
		first := attribution.SessionID(kv)
		second := attribution.SessionID(kv)
		if first != second {
			return c.SendStatus(fiber.StatusConflict)
		}
		return c.SendString(first)
	})
	return app
}

func cookieNamed(resp *http.Response, name string) *http.Cookie {
	for _, ck := range resp.Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

func TestVisitor_RefQueryBecomesCookie(t *testing.T) {
	app := visitorApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/code?ref=abc12345", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "abc12345", string(body), "visible within the same request")

	ck := cookieNamed(resp, attribution.KeyReferralCode)
	require.NotNil(t, ck)
	assert.Equal(t, "abc12345", ck.Value)
	assert.True(t, ck.HttpOnly)
	assert.Greater(t, ck.MaxAge, 365*24*3600)
}

func TestVisitor_CookieSurvivesOrganicRequests(t *testing.T) {
	app := visitorApp()

	req := httptest.NewRequest(http.MethodGet, "/code", nil)
	req.AddCookie(&http.Cookie{Name: attribution.KeyReferralCode, Value: "stored01"})
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "stored01", string(body))
	assert.Nil(t, cookieNamed(resp, attribution.KeyReferralCode), "nothing rewritten without a ref")

	req = httptest.NewRequest(http.MethodGet, "/code?ref=newer002", nil)
	req.AddCookie(&http.Cookie{Name: attribution.KeyReferralCode, Value: "stored01"})
	resp, err = app.Test(req)
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	assert.Equal(t, "newer002", string(body), "last touch wins")
}

func TestVisitor_SessionIDIsStable(t *testing.T) {
	app := visitorApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/session", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	minted := string(body)
	require.NotEmpty(t, minted)

	ck := cookieNamed(resp, attribution.KeySessionID)
	require.NotNil(t, ck)
	assert.Equal(t, minted, ck.Value)

	req := httptest.NewRequest(http.MethodGet, "/session", nil)
	req.AddCookie(ck)
	resp, err = app.Test(req)
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	assert.Equal(t, minted, string(body))
	assert.Nil(t, cookieNamed(resp, attribution.KeySessionID))
}

func TestVisitor_ValuesOutliveTheRequest(t *testing.T) {
	var kept []string
	app := fiber.New()
	app.Use(middleware.Visitor(false))
	app.Get("/", func(c *fiber.Ctx) error {
		session, _ := middleware.VisitorKV(c).Get(attribution.KeySessionID)
		code, _ := attribution.ActiveCode(middleware.VisitorKV(c))
		kept = append(kept, session+"|"+code)
		return c.SendStatus(fiber.StatusNoContent)
	})

	const requests = 20
	for i := 0; i < requests; i++ {
		req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/?ref=code%04d", i), nil)
		req.AddCookie(&http.Cookie{Name: attribution.KeySessionID, Value: fmt.Sprintf("visitor-%04d", i)})
		_, err := app.Test(req)
		require.NoError(t, err)
	}

	require.Len(t, kept, requests)
	for i, v := range kept {
		assert.Equal(t, fmt.Sprintf("visitor-%04d|code%04d", i, i), v)
	}
}

func TestArrivedWithRef(t *testing.T) {
	app := fiber.New()
	app.Use(middleware.Visitor(false))
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(fmt.Sprint(middleware.ArrivedWithRef(c)))
	})

	for query, want := range map[string]string{
		"":             "false",
		"?ref=":        "false",
		"?ref=%20%20":  "false",
		"?ref=abc1234": "true",
	} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/"+query, nil))
		require.NoError(t, err)
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, want, string(body), "query %q", query)
	}
}
