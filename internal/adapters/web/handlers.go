package web

import (
	"context"
	"errors"
	"time"

	"forumintel/internal/domain"
	"forumintel/pkg/log"
	"forumintel/templates/pages"

	"github.com/a-h/templ"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
)

// Crawler runs one forum crawl.
type Crawler interface {
	Execute(ctx context.Context, query string) (*domain.CrawlResult, error)
}

// SearchResponse is the JSON body of a successful search.
type SearchResponse struct {
	Source         string            `json:"source"`
	SearchText     string            `json:"search_text"`
	DangerQuantity int               `json:"danger_quantity"`
	Dangers        []domain.Evidence `json:"dangers"`
}

// NewSearchResponse wraps a crawl result for the wire.
func NewSearchResponse(source string, result *domain.CrawlResult) SearchResponse {
	dangers := result.Evidence
	if dangers == nil {
		dangers = []domain.Evidence{}
	}
	return SearchResponse{
		Source:         source,
		SearchText:     result.Query,
		DangerQuantity: len(dangers),
		Dangers:        dangers,
	}
}

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error bool `json:"error"`
	domain.Record
}

// Handlers contains the HTTP handlers for the crawler API.
type Handlers struct {
	crawler      Crawler
	source       string
	crawlTimeout time.Duration
}

// NewHandlers creates a new Handlers instance. source names the crawled
// forum in responses; crawlTimeout bounds each crawl.
func NewHandlers(crawler Crawler, source string, crawlTimeout time.Duration) *Handlers {
	return &Handlers{
		crawler:      crawler,
		source:       source,
		crawlTimeout: crawlTimeout,
	}
}

// render is a helper to render templ components.
func render(c *fiber.Ctx, component templ.Component) error {
	c.Set("Content-Type", "text/html")
	return adaptor.HTTPHandler(templ.Handler(component))(c)
}

// Search crawls the forum for the path keyword and returns the evidence.
func (h *Handlers) Search(c *fiber.Ctx) error {
	resp, err := h.crawl(c)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// Report runs the same crawl as Search and renders it as an HTML page.
func (h *Handlers) Report(c *fiber.Ctx) error {
	resp, err := h.crawl(c)
	if err != nil {
		return err
	}
	return render(c, pages.EvidenceReport(resp.Source, resp.SearchText, resp.Dangers))
}

func (h *Handlers) crawl(c *fiber.Ctx) (SearchResponse, error) {
	text, err := ParseSearchText(c.Params("searchText"))
	if err != nil {
		return SearchResponse{}, err
	}

	ctx := c.UserContext()
	if h.crawlTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.crawlTimeout)
		defer cancel()
	}

	log.GlobalInfoCtx(ctx, "searching forum", "search_text", text)
	result, err := h.crawler.Execute(ctx, text)
	if err != nil {
		return SearchResponse{}, err
	}
	return NewSearchResponse(h.source, result), nil
}

// Health reports liveness. It never touches the browser.
func (h *Handlers) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// ErrorHandler writes every error as an ErrorResponse with the matching
// status. Unknown failures, including fiber errors other than 404 and
// 405, are reported as SCRAPER_ERROR.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var de *domain.Error
	var fe *fiber.Error
	switch {
	case errors.As(err, &de):
	case errors.As(err, &fe) && fe.Code == fiber.StatusNotFound:
		de = domain.Wrap(domain.ErrNotFound, nil, "cannot %s %s", c.Method(), c.Path())
	case errors.As(err, &fe) && fe.Code == fiber.StatusMethodNotAllowed:
		de = domain.Wrap(domain.ErrMethodNotAllowed, nil, "cannot %s %s", c.Method(), c.Path())
	default:
		de = domain.Classify(err)
	}

	rec := de.Record()
	return c.Status(rec.Status).JSON(ErrorResponse{Error: true, Record: rec})
}
