package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/shortlink/internal/events"
	"github.com/serroba/shortlink/internal/shortener"
	"go.uber.org/zap"
)

// Creator creates short URLs.
type Creator interface {
	Create(ctx context.Context, longURL string) (*shortener.Shortened, error)
}

// Resolver resolves short codes to original URLs.
type Resolver interface {
	Resolve(ctx context.Context, code shortener.Code) (string, bool, error)
}

// URLHandler handles URL shortening operations.
type URLHandler struct {
	creator    Creator
	resolver   Resolver
	publishers events.Publishers
	logger     *zap.Logger
}

// NewURLHandler creates a new URL handler.
func NewURLHandler(
	creator Creator,
	resolver Resolver,
	publishers events.Publishers,
	logger *zap.Logger,
) *URLHandler {
	return &URLHandler{
		creator:    creator,
		resolver:   resolver,
		publishers: publishers,
		logger:     logger,
	}
}

func (h *URLHandler) CreateShortURL(ctx context.Context, req *CreateShortURLRequest) (*CreateShortURLResponse, error) {
	longURL, err := shortener.ValidateURL(req.Body.URL)
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}

	created, err := h.creator.Create(ctx, longURL)
	if err != nil {
		h.logger.Error("failed to create short url", zap.Error(err))

		return nil, huma.Error500InternalServerError("failed to save url")
	}

	meta := RequestMetaFromContext(ctx)
	event := &events.LinkCreated{
		Code:        string(created.Code),
		OriginalURL: created.OriginalURL,
		ShortURL:    created.ShortURL,
		CreatedAt:   created.CreatedAt,
		ClientIP:    meta.ClientIP,
		UserAgent:   meta.UserAgent,
	}

	if err := h.publishers.LinkCreated(ctx, event); err != nil {
		h.logger.Error("failed to publish link created event",
			zap.String("code", event.Code),
			zap.Error(err),
		)
	}

	resp := &CreateShortURLResponse{}
	resp.Location = created.ShortURL
	resp.Body.Code = string(created.Code)
	resp.Body.ShortURL = created.ShortURL
	resp.Body.OriginalURL = created.OriginalURL
	resp.Body.CreatedAt = created.CreatedAt

	return resp, nil
}

func (h *URLHandler) RedirectToURL(ctx context.Context, req *RedirectRequest) (*RedirectResponse, error) {
	originalURL, found, err := h.resolver.Resolve(ctx, shortener.Code(req.Code))
	if err != nil {
		h.logger.Error("failed to resolve short url",
			zap.String("code", req.Code),
			zap.Error(err),
		)

		return nil, huma.Error500InternalServerError("failed to get url")
	}

	if !found {
		return nil, huma.Error404NotFound("short url not found")
	}

	meta := RequestMetaFromContext(ctx)
	event := &events.LinkResolved{
		Code:       req.Code,
		ResolvedAt: time.Now(),
		ClientIP:   meta.ClientIP,
		UserAgent:  meta.UserAgent,
		Referrer:   meta.Referrer,
	}

	if err = h.publishers.LinkResolved(ctx, event); err != nil {
		h.logger.Error("failed to publish link resolved event",
			zap.String("code", event.Code),
			zap.Error(err),
		)
	}

	resp := &RedirectResponse{
		Status: http.StatusMovedPermanently,
	}
	resp.Location = originalURL

	return resp, nil
}
