// Package ingest collects OSINT content from configured feeds into the
// record store, with fingerprint-based duplicate suppression and a
// per-run audit log.
package ingest

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/AyushPatiTripathi/Osnit-Sheild/internal/enrich"
	"github.com/AyushPatiTripathi/Osnit-Sheild/internal/model"
	"github.com/AyushPatiTripathi/Osnit-Sheild/internal/storage"
)

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Feed names one RSS source to collect.
type Feed struct {
	Name string
	URL  string
}

// Collector downloads configured feeds and inserts their items as
// unprocessed records.
type Collector struct {
	client HTTPClient
	store  storage.Storage
	feeds  []Feed
	log    *slog.Logger
}

// New creates a Collector with the given HTTP client.
func New(client HTTPClient, store storage.Storage, feeds []Feed, log *slog.Logger) *Collector {
	return &Collector{client: client, store: store, feeds: feeds, log: log}
}

// Run collects every configured feed. Each source runs in isolation: a
// failing source is logged to the ingestion audit table and the rest
// continue. Returns the total number of newly inserted records.
func (c *Collector) Run(ctx context.Context) int {
	total := 0
	for _, feed := range c.feeds {
		if ctx.Err() != nil {
			break
		}

		fetched, inserted, err := c.collectFeed(ctx, feed)
		logRow := model.IngestionLog{
			Source:          feed.Name,
			RecordsFetched:  fetched,
			RecordsInserted: inserted,
			Status:          model.IngestStatusSuccess,
		}
		if err != nil {
			msg := err.Error()
			logRow.Status = model.IngestStatusFailed
			logRow.ErrorMessage = &msg
			c.log.Error("collect feed", "source", feed.Name, "error", err)
		}
		if err := c.store.InsertIngestionLog(ctx, &logRow); err != nil {
			c.log.Error("write ingestion log", "source", feed.Name, "error", err)
		}
		total += inserted
	}
	return total
}

func (c *Collector) collectFeed(ctx context.Context, feed Feed) (fetched, inserted int, err error) {
	parsed, err := c.fetch(ctx, feed.URL)
	if err != nil {
		return 0, 0, err
	}
	fetched = len(parsed.Items)

	for _, item := range parsed.Items {
		content := itemContent(item)
		if content == "" {
			continue
		}

		rec := model.Record{
			Source:      feed.Name,
			Content:     content,
			URL:         item.Link,
			ContentHash: Fingerprint(content, feed.Name, item.Link),
		}
		switch err := c.store.InsertRecord(ctx, &rec); {
		case err == nil:
			inserted++
		case errors.Is(err, storage.ErrDuplicate):
			// already ingested, skip silently
		default:
			return fetched, inserted, fmt.Errorf("insert record: %w", err)
		}
	}

	c.log.Info("feed collected", "source", feed.Name, "fetched", fetched, "inserted", inserted)
	return fetched, inserted, nil
}

// fetch downloads and parses an RSS feed from the given URL.
func (c *Collector) fetch(ctx context.Context, url string) (*gofeed.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "OsintShieldCollector/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 5*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	parser := gofeed.NewParser()
	feed, err := parser.ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	return feed, nil
}

// Fingerprint hashes the normalized content together with the source
// tag and URL. Identical content re-fetched in a later run maps to the
// same fingerprint and is suppressed by the store's unique constraint.
func Fingerprint(content, source, url string) string {
	h := sha256.Sum256([]byte(enrich.NormalizeText(content) + "|" + source + "|" + url))
	return fmt.Sprintf("%x", h)
}

// itemContent flattens an RSS item into one content string.
func itemContent(item *gofeed.Item) string {
	parts := []string{item.Title, item.Description}
	if item.Description == "" && item.Content != "" {
		parts[1] = item.Content
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}
