// Package client is a mutual-TLS client for the ContactKeeper JSON API.
package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/atinyakov/ContactKeeper/internal/models"
	"github.com/atinyakov/ContactKeeper/internal/service"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
	// Fields holds per-field validation messages for 422 answers.
	Fields map[string]string
}

func (e *APIError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
	}
	names := slices.Sorted(maps.Keys(e.Fields))
	parts := make([]string, 0, len(names))
	for _, f := range names {
		parts = append(parts, f+": "+e.Fields[f])
	}
	return fmt.Sprintf("server returned %d: %s (%s)", e.Status, e.Message, strings.Join(parts, ", "))
}

// Client calls the API on behalf of the user named by its client certificate.
type Client struct {
	baseURL string
	http    *http.Client
}

// New wraps an already configured http.Client.
func New(baseURL string, httpClient *http.Client) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// NewMTLS builds a Client presenting certFile/keyFile and trusting only caFile.
func NewMTLS(baseURL, certFile, keyFile, caFile string) (*Client, error) {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load client cert/key: %w", err)
	}
	caCert, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA cert: %w", err)
	}
	caPool := x509.NewCertPool()
	if !caPool.AppendCertsFromPEM(caCert) {
		return nil, errors.New("failed to parse CA cert")
	}

	transport := &http.Transport{
		TLSClientConfig: &tls.Config{
			Certificates: []tls.Certificate{cert},
			RootCAs:      caPool,
			MinVersion:   tls.VersionTLS12,
		},
	}
	return New(baseURL, &http.Client{Transport: transport, Timeout: 10 * time.Second}), nil
}

// Me returns the login the server sees for this client.
func (c *Client) Me(ctx context.Context) (string, error) {
	var resp struct {
		User string `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/me", nil, &resp); err != nil {
		return "", err
	}
	return resp.User, nil
}

// Contacts lists contacts, restricted to categoryID unless it is models.AllCategories.
func (c *Client) Contacts(ctx context.Context, categoryID int64) ([]models.Contact, error) {
	path := "/api/contacts"
	if categoryID != models.AllCategories {
		path += "?categoryId=" + strconv.FormatInt(categoryID, 10)
	}
	var contacts []models.Contact
	err := c.do(ctx, http.MethodGet, path, nil, &contacts)
	return contacts, err
}

// Search lists contacts whose full name contains query.
func (c *Client) Search(ctx context.Context, query string) ([]models.Contact, error) {
	var contacts []models.Contact
	err := c.do(ctx, http.MethodGet, "/api/contacts/search?q="+url.QueryEscape(query), nil, &contacts)
	return contacts, err
}

// Contact fetches one contact with its categories.
func (c *Client) Contact(ctx context.Context, id int64) (*models.Contact, error) {
	var contact models.Contact
	if err := c.do(ctx, http.MethodGet, contactPath(id), nil, &contact); err != nil {
		return nil, err
	}
	return &contact, nil
}

// CreateContact stores a new contact.
func (c *Client) CreateContact(ctx context.Context, in service.CreateInput) (*models.Contact, error) {
	var contact models.Contact
	if err := c.do(ctx, http.MethodPost, "/api/contacts", in, &contact); err != nil {
		return nil, err
	}
	return &contact, nil
}

// EditContact replaces the editable fields of contact id.
func (c *Client) EditContact(ctx context.Context, id int64, in service.EditInput) (*models.Contact, error) {
	var contact models.Contact
	if err := c.do(ctx, http.MethodPut, contactPath(id), in, &contact); err != nil {
		return nil, err
	}
	return &contact, nil
}

// DeleteContact removes contact id.
func (c *Client) DeleteContact(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, contactPath(id), nil, nil)
}

// Categories lists the caller's categories.
func (c *Client) Categories(ctx context.Context) ([]models.Category, error) {
	var cats []models.Category
	err := c.do(ctx, http.MethodGet, "/api/categories", nil, &cats)
	return cats, err
}

// CreateCategory adds a category named name.
func (c *Client) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	var cat models.Category
	if err := c.do(ctx, http.MethodPost, "/api/categories", map[string]string{"name": name}, &cat); err != nil {
		return nil, err
	}
	return &cat, nil
}

// DeleteCategory removes category id and its links.
func (c *Client) DeleteCategory(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, categoryPath(id), nil, nil)
}

// Link tags contactID with categoryID.
func (c *Client) Link(ctx context.Context, categoryID, contactID int64) error {
	return c.do(ctx, http.MethodPut, linkPath(categoryID, contactID), nil, nil)
}

// Unlink removes the categoryID tag from contactID.
func (c *Client) Unlink(ctx context.Context, categoryID, contactID int64) error {
	return c.do(ctx, http.MethodDelete, linkPath(categoryID, contactID), nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// decodeError reads either the JSON error envelope or a plain-text body.
func decodeError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	apiErr := &APIError{Status: resp.StatusCode}

	var envelope struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	if json.Unmarshal(data, &envelope) == nil && envelope.Error != "" {
		apiErr.Message, apiErr.Fields = envelope.Error, envelope.Fields
	} else {
		apiErr.Message = strings.TrimSpace(string(data))
	}
	return apiErr
}

func contactPath(id int64) string {
	return "/api/contacts/" + strconv.FormatInt(id, 10)
}

func categoryPath(id int64) string {
	return "/api/categories/" + strconv.FormatInt(id, 10)
}

func linkPath(categoryID, contactID int64) string {
	return categoryPath(categoryID) + "/contacts/" + strconv.FormatInt(contactID, 10)
}
