// Package gohighlevel implements provider.GHLAPI over the GoHighLevel REST API.
package gohighlevel

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/SuarfelG/amber-business-health-monitor/internal/domain/provider"
	"github.com/SuarfelG/amber-business-health-monitor/internal/infrastructure/fetch"
)

// Client lists GoHighLevel records for one location.
type Client struct {
	fetch      *fetch.Client
	baseURL    string
	apiVersion string
	apiKey     string
	locationID string
	clock      clockwork.Clock
	logger     *zap.Logger
}

// Config holds connection settings shared by every location.
type Config struct {
	BaseURL    string
	APIVersion string
	// Clock stamps records GoHighLevel returns without a creation time.
	// Nil uses the real clock.
	Clock clockwork.Clock
}

// NewClient creates a client bound to one credential.
func NewClient(fc *fetch.Client, cfg Config, cred provider.Credential, logger *zap.Logger) *Client {
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Client{
		fetch:      fc,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiVersion: cfg.APIVersion,
		apiKey:     cred.APIKey,
		locationID: cred.AccountID,
		clock:      clock,
		logger:     logger,
	}
}

type contactDTO struct {
	ID        string   `json:"id"`
	Email     string   `json:"email"`
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Phone     string   `json:"phone"`
	Source    string   `json:"source"`
	Tags      []string `json:"tags"`
	DateAdded int64    `json:"dateAdded"`
}

type opportunityDTO struct {
	ID              string          `json:"id"`
	ContactID       string          `json:"contactId"`
	Name            string          `json:"name"`
	Status          string          `json:"status"`
	MonetaryValue   decimal.Decimal `json:"monetaryValue"`
	PipelineID      string          `json:"pipelineId"`
	PipelineStageID string          `json:"pipelineStageId"`
	ClosedAt        int64           `json:"closedAt"`
	DateAdded       int64           `json:"dateAdded"`
}

type appointmentDTO struct {
	ID        string `json:"id"`
	ContactID string `json:"contactId"`
	Title     string `json:"title"`
	Status    string `json:"status"`
	StartTime int64  `json:"startTime"`
	EndTime   int64  `json:"endTime"`
	DateAdded int64  `json:"dateAdded"`
}

// ListContacts lists contacts added at or after createdAfter.
func (c *Client) ListContacts(ctx context.Context, cursor string, createdAfter int64, pageSize int) (*provider.Page[provider.Contact], error) {
	var body struct {
		Contacts []contactDTO `json:"contacts"`
	}
	skip, err := c.search(ctx, "/contacts/search", cursor, createdAfter, pageSize, &body)
	if err != nil {
		return nil, err
	}

	items := make([]provider.Contact, 0, len(body.Contacts))
	for _, ct := range body.Contacts {
		items = append(items, provider.Contact{
			ExternalID: ct.ID,
			Email:      ct.Email,
			FirstName:  ct.FirstName,
			LastName:   ct.LastName,
			Phone:      ct.Phone,
			Source:     ct.Source,
			Tags:       ct.Tags,
			CreatedAt:  c.addedAt(ct.DateAdded),
		})
	}
	return newPage(items, skip, pageSize), nil
}

// ListOpportunities lists opportunities added at or after createdAfter.
func (c *Client) ListOpportunities(ctx context.Context, cursor string, createdAfter int64, pageSize int) (*provider.Page[provider.Opportunity], error) {
	var body struct {
		Opportunities []opportunityDTO `json:"opportunities"`
	}
	skip, err := c.search(ctx, "/opportunities/search", cursor, createdAfter, pageSize, &body)
	if err != nil {
		return nil, err
	}

	items := make([]provider.Opportunity, 0, len(body.Opportunities))
	for _, o := range body.Opportunities {
		items = append(items, provider.Opportunity{
			ExternalID:        o.ID,
			ContactExternalID: o.ContactID,
			Name:              o.Name,
			Status:            o.Status,
			MonetaryValue:     o.MonetaryValue,
			PipelineID:        o.PipelineID,
			StageID:           o.PipelineStageID,
			ClosedAt:          optionalTime(o.ClosedAt),
			CreatedAt:         c.addedAt(o.DateAdded),
		})
	}
	return newPage(items, skip, pageSize), nil
}

// ListAppointments lists appointments added at or after createdAfter.
func (c *Client) ListAppointments(ctx context.Context, cursor string, createdAfter int64, pageSize int) (*provider.Page[provider.Appointment], error) {
	var body struct {
		Appointments []appointmentDTO `json:"appointments"`
	}
	skip, err := c.search(ctx, "/appointments/search", cursor, createdAfter, pageSize, &body)
	if err != nil {
		return nil, err
	}

	items := make([]provider.Appointment, 0, len(body.Appointments))
	for _, a := range body.Appointments {
		items = append(items, provider.Appointment{
			ExternalID:        a.ID,
			ContactExternalID: a.ContactID,
			Title:             a.Title,
			Status:            a.Status,
			StartTime:         time.Unix(a.StartTime, 0).UTC(),
			EndTime:           optionalTime(a.EndTime),
			CreatedAt:         c.addedAt(a.DateAdded),
		})
	}
	return newPage(items, skip, pageSize), nil
}

// search fetches one page. The cursor is the skip offset.
func (c *Client) search(ctx context.Context, path, cursor string, createdAfter int64, pageSize int, out interface{}) (int, error) {
	skip := 0
	if cursor != "" {
		n, err := strconv.Atoi(cursor)
		if err != nil || n < 0 {
			return 0, &provider.ProviderError{
				Provider: provider.ProviderGoHighLevel,
				Message:  "invalid cursor " + strconv.Quote(cursor),
			}
		}
		skip = n
	}

	query := url.Values{}
	query.Set("limit", strconv.Itoa(pageSize))
	query.Set("skip", strconv.Itoa(skip))
	query.Set("dateAddedMin", strconv.FormatInt(createdAfter, 10))
	if c.locationID != "" {
		query.Set("locationId", c.locationID)
	}

	err := c.fetch.GetJSON(ctx, c.baseURL+path, &fetch.Options{
		Headers: map[string]string{
			"Authorization": "Bearer " + c.apiKey,
			"Version":       c.apiVersion,
			"Accept":        "application/json",
		},
		Query: query,
	}, out)
	if err != nil {
		return 0, c.translateError(err, path)
	}
	return skip, nil
}

func (c *Client) translateError(err error, path string) error {
	var statusErr *fetch.StatusError
	if errors.As(err, &statusErr) {
		c.logger.Error("GoHighLevel API call failed",
			zap.String("path", path),
			zap.Int("status", statusErr.StatusCode),
		)
		msg := http.StatusText(statusErr.StatusCode)
		if statusErr.Response != nil && len(statusErr.Response.Body) > 0 {
			msg = string(statusErr.Response.Body)
		}
		return &provider.ProviderError{
			Provider:   provider.ProviderGoHighLevel,
			StatusCode: statusErr.StatusCode,
			Message:    msg,
		}
	}

	c.logger.Error("GoHighLevel API call failed", zap.String("path", path), zap.Error(err))
	return err
}

// newPage marks the page as having more results only when it came back full.
func newPage[T any](items []T, skip, pageSize int) *provider.Page[T] {
	page := &provider.Page[T]{Items: items}
	if len(items) >= pageSize && pageSize > 0 {
		page.HasMore = true
		page.NextCursor = strconv.Itoa(skip + len(items))
	}
	return page
}

// addedAt falls back to the client clock when GoHighLevel omits the creation time.
func (c *Client) addedAt(sec int64) time.Time {
	if sec == 0 {
		return c.clock.Now().UTC()
	}
	return time.Unix(sec, 0).UTC()
}

func optionalTime(sec int64) *time.Time {
	if sec == 0 {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}
