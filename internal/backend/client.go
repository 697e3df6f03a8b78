// Package backend is the REST client for the remote technician service.
// It owns the wire shapes and normalizes the backend's response envelopes;
// callers only see identities, orders, and the standard error taxonomy.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	nethttp "net/http"
	"strconv"
	"strings"
	"time"

	"provider-onboarding/internal/common/config"
	"provider-onboarding/internal/common/errors"
	"provider-onboarding/internal/common/http"
	"provider-onboarding/internal/common/logger"
	"provider-onboarding/internal/models"
)

// ReasonPhoneExists is the registration failure reason that triggers the
// login fallback.
const ReasonPhoneExists = "PHONE_EXISTS"

type Client struct {
	baseURL string
	http    *http.Client
	logger  logger.Logger
}

func NewClient(cfg config.BackendConfig, log logger.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    http.NewClient(config.GetDuration(cfg.Timeout)),
		logger:  log.WithFields(map[string]interface{}{"component": "backend"}),
	}, nil
}

// RegisterResponse is the envelope of POST /tech/register.
type RegisterResponse struct {
	Success bool               `json:"success"`
	Tech    *models.Technician `json:"tech,omitempty"`
	Error   string             `json:"error,omitempty"`
}

// Register submits the full application record. The identity is only
// assigned server-side; the response must be inspected for the
// PHONE_EXISTS fallback reason.
func (c *Client) Register(ctx context.Context, payload models.RegisterPayload) (*RegisterResponse, error) {
	var resp RegisterResponse
	if err := c.postJSON(ctx, "/tech/register", payload, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// loginEnvelope accepts both historical response shapes of POST
// /tech/login: {exists, tech} and a bare {tech}. Identity presence is the
// only signal the caller sees.
type loginEnvelope struct {
	Exists *bool              `json:"exists,omitempty"`
	Tech   *models.Technician `json:"tech,omitempty"`
}

// Login resolves a phone number to an existing identity, or nil when the
// backend knows no such account.
func (c *Client) Login(ctx context.Context, phone string) (*models.Technician, error) {
	body := map[string]string{"phone": phone}

	var env loginEnvelope
	if err := c.postJSON(ctx, "/tech/login", body, &env); err != nil {
		return nil, err
	}

	if env.Exists != nil && !*env.Exists {
		return nil, nil
	}
	return env.Tech, nil
}

// UploadRequest carries one document transfer.
type UploadRequest struct {
	File         models.FileRef
	TechnicianID int64
	DocType      string
	DocNumber    string
}

type uploadResponse struct {
	Success bool   `json:"success"`
	FileURL string `json:"file_url,omitempty"`
	Error   string `json:"error,omitempty"`
}

// UploadDocument submits one multipart document transfer and returns the
// stored file URL.
func (c *Client) UploadDocument(ctx context.Context, req UploadRequest) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	name := req.File.Name
	if name == "" {
		name = req.DocType + ".jpg"
	}
	part, err := w.CreateFormFile("file", name)
	if err != nil {
		return "", errors.NewTransportError("docs/upload", err)
	}
	if _, err := part.Write(req.File.Data); err != nil {
		return "", errors.NewTransportError("docs/upload", err)
	}

	_ = w.WriteField("technician_id", strconv.FormatInt(req.TechnicianID, 10))
	_ = w.WriteField("doc_type", req.DocType)
	_ = w.WriteField("doc_number", req.DocNumber)

	if err := w.Close(); err != nil {
		return "", errors.NewTransportError("docs/upload", err)
	}

	httpReq, err := nethttp.NewRequest(nethttp.MethodPost, c.baseURL+"/docs/upload", &buf)
	if err != nil {
		return "", errors.NewTransportError("docs/upload", err)
	}
	httpReq.Header.Set("Content-Type", w.FormDataContentType())

	var resp uploadResponse
	if err := c.doJSON(ctx, httpReq, &resp); err != nil {
		return "", err
	}
	if !resp.Success {
		if resp.Error != "" {
			return "", fmt.Errorf("upload rejected: %s", resp.Error)
		}
		return "", fmt.Errorf("upload rejected")
	}
	return resp.FileURL, nil
}

// UpdateLastDocument posts the most recently uploaded file URL so the
// technician record carries a quick thumbnail reference. It is a
// best-effort post-commit hook: failures are logged, never returned.
func (c *Client) UpdateLastDocument(ctx context.Context, technicianID int64, documentURL string) {
	body := map[string]interface{}{
		"technician_id": technicianID,
		"document_url":  documentURL,
	}

	var out json.RawMessage
	if err := c.postJSON(ctx, "/tech/update-doc", body, &out); err != nil {
		c.logger.Warn("update-doc notification failed", map[string]interface{}{
			"technicianId": technicianID,
			"error":        err.Error(),
		})
	}
}

// RegisterPushToken associates a push token with a technician account.
func (c *Client) RegisterPushToken(ctx context.Context, userID *int64, token string) error {
	body := map[string]interface{}{
		"userType":  "tech",
		"userId":    userID,
		"expoToken": token,
	}
	var out json.RawMessage
	return c.postJSON(ctx, "/push/register", body, &out)
}

// PendingOrders lists the open job leads for a category.
func (c *Client) PendingOrders(ctx context.Context, category models.Category) ([]models.Order, error) {
	url := fmt.Sprintf("%s/orders/pending/list?category=%s", c.baseURL, category)
	httpReq, err := nethttp.NewRequest(nethttp.MethodGet, url, nil)
	if err != nil {
		return nil, errors.NewTransportError("orders/pending", err)
	}

	var orders []models.Order
	if err := c.doJSON(ctx, httpReq, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// AcceptOrder claims a pending order for the technician.
func (c *Client) AcceptOrder(ctx context.Context, orderID, technicianID int64) error {
	path := fmt.Sprintf("/orders/%d/accept", orderID)
	body := map[string]interface{}{"technician_id": technicianID}

	var out json.RawMessage
	return c.postJSON(ctx, path, body, &out)
}

// ==========================
// Transport helpers
// ==========================

func (c *Client) postJSON(ctx context.Context, path string, body, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return errors.NewTransportError(path, err)
	}

	req, err := nethttp.NewRequest(nethttp.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return errors.NewTransportError(path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.doJSON(ctx, req, out)
}

func (c *Client) doJSON(ctx context.Context, req *nethttp.Request, out interface{}) error {
	started := time.Now()
	resp, err := c.http.DoWithContext(ctx, req)
	if err != nil {
		return errors.NewTransportError(req.URL.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.NewTransportError(req.URL.Path, err)
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			c.logger.Warn("non-JSON response", map[string]interface{}{
				"path":   req.URL.Path,
				"status": resp.StatusCode,
				"body":   truncate(string(data), 80),
			})
			return errors.NewTransportError(req.URL.Path, err)
		}
	}

	c.logger.Debug("backend call completed", map[string]interface{}{
		"path":     req.URL.Path,
		"status":   resp.StatusCode,
		"duration": time.Since(started).String(),
	})
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
