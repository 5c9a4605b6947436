package handlers

import "time"

// CreateShortURLRequest is the request body for creating a short URL.
type CreateShortURLRequest struct {
	Body struct {
		URL string `doc:"The URL to shorten" example:"https://example.com/very/long/path" json:"url" minLength:"1"`
	}
}

// CreateShortURLResponse is the response for a successfully created short URL.
type CreateShortURLResponse struct {
	Location string `doc:"The short URL location" header:"Location"`
	Body     struct {
		Code        string    `doc:"The short code"         example:"aZ3x9"                              json:"code"`
		ShortURL    string    `doc:"The full short URL"     example:"http://localhost:8888/aZ3x9"        json:"shortUrl"`
		OriginalURL string    `doc:"The original URL"       example:"https://example.com/very/long/path" json:"originalUrl"`
		CreatedAt   time.Time `doc:"When the link was made" json:"createdAt"`
	}
}

// RedirectRequest is the request for redirecting a short URL.
type RedirectRequest struct {
	Code string `doc:"The short code" example:"aZ3x9" path:"code"`
}

// RedirectResponse redirects the client to the original URL.
type RedirectResponse struct {
	Status   int
	Location string `doc:"The original URL" header:"Location"`
}
