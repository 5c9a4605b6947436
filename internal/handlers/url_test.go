package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/jaevor/go-nanoid"
	"github.com/serroba/shortlink/internal/events"
	"github.com/serroba/shortlink/internal/handlers"
	"github.com/serroba/shortlink/internal/messaging"
	"github.com/serroba/shortlink/internal/shortener"
	"github.com/serroba/shortlink/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// errorPublish returns a publish function that always fails.
func errorPublish[T any](err error) messaging.Publish[T] {
	return func(_ context.Context, _ *T) error { return err }
}

// recordingPublish returns a publish function that keeps every event.
func recordingPublish[T any](sink *[]*T) messaging.Publish[T] {
	return func(_ context.Context, event *T) error {
		*sink = append(*sink, event)

		return nil
	}
}

func newTestHandler(s shortener.Repository, publishers events.Publishers) *handlers.URLHandler {
	gen, _ := nanoid.Standard(8)

	return handlers.NewURLHandler(
		shortener.NewCreator(s, gen, "http://localhost:8888"),
		shortener.NewResolver(s, store.NewMemoryCache(time.Minute), zap.NewNop()),
		publishers,
		zap.NewNop(),
	)
}

func TestCreateShortURL(t *testing.T) {
	t.Run("creates short url successfully", func(t *testing.T) {
		memStore := store.NewMemoryStore()
		handler := newTestHandler(memStore, events.DiscardPublishers())

		req := &handlers.CreateShortURLRequest{}
		req.Body.URL = "https://example.com/very/long/path"

		resp, err := handler.CreateShortURL(context.Background(), req)

		require.NoError(t, err)
		assert.NotEmpty(t, resp.Body.Code)
		assert.Equal(t, "https://example.com/very/long/path", resp.Body.OriginalURL)
		assert.Equal(t, "http://localhost:8888/"+resp.Body.Code, resp.Body.ShortURL)
		assert.Equal(t, resp.Body.ShortURL, resp.Location)
		assert.False(t, resp.Body.CreatedAt.IsZero())
		assert.Equal(t, 1, memStore.Len())
	})

	t.Run("creates new code for same URL", func(t *testing.T) {
		handler := newTestHandler(store.NewMemoryStore(), events.DiscardPublishers())

		req := &handlers.CreateShortURLRequest{}
		req.Body.URL = testURL

		resp1, err1 := handler.CreateShortURL(context.Background(), req)
		resp2, err2 := handler.CreateShortURL(context.Background(), req)

		require.NoError(t, err1)
		require.NoError(t, err2)
		assert.NotEqual(t, resp1.Body.Code, resp2.Body.Code)
	})

	t.Run("canonicalizes scheme and host", func(t *testing.T) {
		creator := &mockCreator{}
		handler := handlers.NewURLHandler(creator, &mockResolver{}, events.DiscardPublishers(), zap.NewNop())

		req := &handlers.CreateShortURLRequest{}
		req.Body.URL = "HTTPS://Example.COM:443/Path"

		_, err := handler.CreateShortURL(context.Background(), req)

		require.NoError(t, err)
		assert.Equal(t, "https://example.com/Path", creator.received)
	})

	t.Run("returns error for invalid url", func(t *testing.T) {
		creator := &mockCreator{}
		handler := handlers.NewURLHandler(creator, &mockResolver{}, events.DiscardPublishers(), zap.NewNop())

		req := &handlers.CreateShortURLRequest{}
		req.Body.URL = "ftp://example.com/file"

		resp, err := handler.CreateShortURL(context.Background(), req)

		assert.Nil(t, resp)
		assert.Error(t, err)
		assert.Empty(t, creator.received)
	})

	t.Run("returns error when create fails", func(t *testing.T) {
		handler := handlers.NewURLHandler(
			&mockCreator{err: errMock}, &mockResolver{}, events.DiscardPublishers(), zap.NewNop(),
		)

		req := &handlers.CreateShortURLRequest{}
		req.Body.URL = testURL

		resp, err := handler.CreateShortURL(context.Background(), req)

		assert.Nil(t, resp)
		assert.Error(t, err)
	})

	t.Run("publishes link created event with request metadata", func(t *testing.T) {
		var created []*events.LinkCreated

		publishers := events.DiscardPublishers()
		publishers.LinkCreated = recordingPublish(&created)
		handler := newTestHandler(store.NewMemoryStore(), publishers)

		ctx := handlers.ContextWithRequestMeta(context.Background(), handlers.RequestMeta{
			ClientIP:  "10.0.0.1",
			UserAgent: "TestAgent/1.0",
		})

		req := &handlers.CreateShortURLRequest{}
		req.Body.URL = testURL

		resp, err := handler.CreateShortURL(ctx, req)

		require.NoError(t, err)
		require.Len(t, created, 1)
		assert.Equal(t, resp.Body.Code, created[0].Code)
		assert.Equal(t, resp.Body.ShortURL, created[0].ShortURL)
		assert.Equal(t, "10.0.0.1", created[0].ClientIP)
		assert.Equal(t, "TestAgent/1.0", created[0].UserAgent)
	})

	t.Run("succeeds even when publish fails", func(t *testing.T) {
		publishers := events.Publishers{
			LinkCreated:  errorPublish[events.LinkCreated](errors.New("publish error")),
			LinkResolved: errorPublish[events.LinkResolved](errors.New("publish error")),
		}
		handler := newTestHandler(store.NewMemoryStore(), publishers)

		req := &handlers.CreateShortURLRequest{}
		req.Body.URL = testURL

		resp, err := handler.CreateShortURL(context.Background(), req)

		require.NoError(t, err)
		assert.NotEmpty(t, resp.Body.Code)
	})
}

func TestRedirectToURL(t *testing.T) {
	t.Run("redirects to original url", func(t *testing.T) {
		memStore := store.NewMemoryStore()
		_ = memStore.Save(context.Background(), &shortener.ShortURL{
			Code:        "abc123",
			OriginalURL: testURL,
		})
		handler := newTestHandler(memStore, events.DiscardPublishers())

		req := &handlers.RedirectRequest{Code: "abc123"}

		resp, err := handler.RedirectToURL(context.Background(), req)

		require.NoError(t, err)
		assert.Equal(t, http.StatusMovedPermanently, resp.Status)
		assert.Equal(t, testURL, resp.Location)
	})

	t.Run("returns 404 when code not found", func(t *testing.T) {
		handler := newTestHandler(store.NewMemoryStore(), events.DiscardPublishers())

		req := &handlers.RedirectRequest{Code: "notfound"}

		resp, err := handler.RedirectToURL(context.Background(), req)

		assert.Nil(t, resp)
		require.Error(t, err)

		var statusErr huma.StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, http.StatusNotFound, statusErr.GetStatus())
	})

	t.Run("returns 500 on store error", func(t *testing.T) {
		handler := handlers.NewURLHandler(
			&mockCreator{}, &mockResolver{err: errMock}, events.DiscardPublishers(), zap.NewNop(),
		)

		req := &handlers.RedirectRequest{Code: "abc123"}

		resp, err := handler.RedirectToURL(context.Background(), req)

		assert.Nil(t, resp)
		require.Error(t, err)

		var statusErr huma.StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, http.StatusInternalServerError, statusErr.GetStatus())
	})

	t.Run("publishes link resolved event", func(t *testing.T) {
		var resolved []*events.LinkResolved

		publishers := events.DiscardPublishers()
		publishers.LinkResolved = recordingPublish(&resolved)
		handler := handlers.NewURLHandler(
			&mockCreator{}, &mockResolver{url: testURL, found: true}, publishers, zap.NewNop(),
		)

		ctx := handlers.ContextWithRequestMeta(context.Background(), handlers.RequestMeta{
			Referrer: "https://ref.example",
		})

		_, err := handler.RedirectToURL(ctx, &handlers.RedirectRequest{Code: "abc123"})

		require.NoError(t, err)
		require.Len(t, resolved, 1)
		assert.Equal(t, "abc123", resolved[0].Code)
		assert.Equal(t, "https://ref.example", resolved[0].Referrer)
	})

	t.Run("does not publish for unknown codes", func(t *testing.T) {
		var resolved []*events.LinkResolved

		publishers := events.DiscardPublishers()
		publishers.LinkResolved = recordingPublish(&resolved)
		handler := handlers.NewURLHandler(&mockCreator{}, &mockResolver{}, publishers, zap.NewNop())

		_, err := handler.RedirectToURL(context.Background(), &handlers.RedirectRequest{Code: "missing"})

		require.Error(t, err)
		assert.Empty(t, resolved)
	})
}

func TestRoutes(t *testing.T) {
	_, api := humatest.New(t)
	handlers.RegisterRoutes(api, newTestHandler(store.NewMemoryStore(), events.DiscardPublishers()))

	created := api.Post("/shorten", map[string]any{"url": "https://example.com/very/long/path"})
	require.Equal(t, http.StatusCreated, created.Code)

	location := created.Header().Get("Location")
	require.NotEmpty(t, location)

	code := location[len("http://localhost:8888/"):]

	redirect := api.Get("/" + code)
	assert.Equal(t, http.StatusMovedPermanently, redirect.Code)
	assert.Equal(t, "https://example.com/very/long/path", redirect.Header().Get("Location"))

	missing := api.Get("/nonexistent-id")
	assert.Equal(t, http.StatusNotFound, missing.Code)

	invalid := api.Post("/shorten", map[string]any{"url": "not a url"})
	assert.Equal(t, http.StatusBadRequest, invalid.Code)
}
