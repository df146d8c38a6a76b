package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareLabelsByRoute(t *testing.T) {
	app := fiber.New()
	app.Use(Middleware())
	app.Get("/metrics", Handler())
	app.Get("/api/posts/:id", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNotFound) })

	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/posts/:id", "404"))
	for _, id := range []string{"1", "2"} {
		resp, err := app.Test(httptest.NewRequest("GET", "/api/posts/"+id, nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	}
	after := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/posts/:id", "404"))
	assert.Equal(t, float64(2), after-before)

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "socialdesk_http_requests_total")
}

func TestDomainCounters(t *testing.T) {
	before := testutil.ToFloat64(autoReplies.WithLabelValues("fallback"))
	RecordAutoReply(true)
	assert.Equal(t, float64(1), testutil.ToFloat64(autoReplies.WithLabelValues("fallback"))-before)

	stored := testutil.ToFloat64(uploads.WithLabelValues("stored"))
	rejected := testutil.ToFloat64(uploads.WithLabelValues("rejected"))
	RecordUpload(10, nil)
	RecordUpload(0, errors.New("too large"))
	assert.Equal(t, float64(1), testutil.ToFloat64(uploads.WithLabelValues("stored"))-stored)
	assert.Equal(t, float64(1), testutil.ToFloat64(uploads.WithLabelValues("rejected"))-rejected)

	writes := testutil.ToFloat64(postWrites.WithLabelValues("create"))
	RecordPostWrite("create")
	assert.Equal(t, float64(1), testutil.ToFloat64(postWrites.WithLabelValues("create"))-writes)
}

func TestMiddlewareKeepsMethodLabelsAcrossRequests(t *testing.T) {
	app := fiber.New()
	app.Use(Middleware())
	app.Get("/metrics", Handler())
	app.Post("/items", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusCreated) })
	app.Get("/items", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	app.Delete("/items", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

	counter := func(method, status string) float64 {
		return testutil.ToFloat64(httpRequests.WithLabelValues(method, "/items", status))
	}
	post, get, del := counter("POST", "201"), counter("GET", "200"), counter("DELETE", "204")

	for _, method := range []string{"POST", "GET", "DELETE", "GET"} {
		resp, err := app.Test(httptest.NewRequest(method, "/items", nil))
		require.NoError(t, err)
		resp.Body.Close()
	}

	assert.Equal(t, float64(1), counter("POST", "201")-post)
	assert.Equal(t, float64(2), counter("GET", "200")-get)
	assert.Equal(t, float64(1), counter("DELETE", "204")-del)

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `socialdesk_http_requests_total{method="POST",route="/items",status="201"}`)
	assert.Contains(t, string(body), `socialdesk_http_requests_total{method="DELETE",route="/items",status="204"}`)
	assert.NotContains(t, string(body), "collected before")
}
