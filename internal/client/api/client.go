// Package api is the HTTP JSON client of the portal backend. Every call
// either resolves with a decoded response or fails with a transport error
// (ErrUnavailable) or a server rejection (*Error). Nothing is retried.
package api

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/atinyakov/GenomePortal/internal/models"
	"go.uber.org/zap"
)

const (
	pathLogin              = "/login"
	pathRegister           = "/register"
	pathLogout             = "/logout"
	pathProfile            = "/profile"
	pathStartCollaboration = "/start_collaboration"
	pathHealth             = "/health"
)

// analysisPaths maps an analysis kind to its upload endpoint.
var analysisPaths = map[models.AnalysisKind]string{
	models.AnalysisQC:    "/upload_csv_qc",
	models.AnalysisStats: "/upload_csv_stats",
	models.AnalysisGWAS:  "/calculate_chi_square",
}

// ErrUnknownAnalysis is returned for an analysis kind without an endpoint.
var ErrUnknownAnalysis = errors.New("unknown analysis type")

// Client talks to the portal API rooted at a fixed base URL.
type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

// New returns a Client for baseURL (e.g. "http://localhost:8000/api").
// A nil httpClient gets a 10 second timeout client; a nil logger is a no-op.
func New(baseURL string, httpClient *http.Client, log *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		log:     log,
	}
}

// NewHTTPClient builds an http.Client whose only trusted root is the CA in
// caFile. An empty caFile yields a plain client using the system roots.
func NewHTTPClient(caFile string, timeout time.Duration) (*http.Client, error) {
	if caFile == "" {
		return &http.Client{Timeout: timeout}, nil
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
			RootCAs:    caPool,
			MinVersion: tls.VersionTLS12,
		},
	}
	return &http.Client{Transport: transport, Timeout: timeout}, nil
}

// Login exchanges credentials for an access token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var tok models.Token
	err := c.do(ctx, http.MethodPost, pathLogin, "", models.Credentials{Email: email, Password: password}, &tok)
	if err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}

// Register creates an account; the server answers with a token directly.
func (c *Client) Register(ctx context.Context, reg models.Registration) (string, error) {
	var tok models.Token
	if err := c.do(ctx, http.MethodPost, pathRegister, "", reg, &tok); err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}

// Logout asks the server to revoke token.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, pathLogout, token, nil, nil)
}

// Profile fetches the profile of the token's owner.
func (c *Client) Profile(ctx context.Context, token string) (models.Profile, error) {
	var p models.Profile
	err := c.do(ctx, http.MethodGet, pathProfile, token, nil, &p)
	return p, err
}

// UpdateProfile replaces the editable profile fields.
func (c *Client) UpdateProfile(ctx context.Context, token string, upd models.ProfileUpdate) (models.Profile, error) {
	var p models.Profile
	err := c.do(ctx, http.MethodPut, pathProfile, token, upd, &p)
	return p, err
}

// Collaborations lists the collaborations userID owns or takes part in.
func (c *Client) Collaborations(ctx context.Context, token string, userID int64) ([]models.Collaboration, error) {
	var list []models.Collaboration
	path := "/user/" + strconv.FormatInt(userID, 10) + "/collaborations"
	if err := c.do(ctx, http.MethodGet, path, token, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// StartCollaboration creates a collaboration and returns its uuid.
func (c *Client) StartCollaboration(ctx context.Context, token string, nc models.NewCollaboration) (string, error) {
	var created models.CollaborationCreated
	if err := c.do(ctx, http.MethodPost, pathStartCollaboration, token, nc, &created); err != nil {
		return "", err
	}
	return created.CollaborationID, nil
}

// Collaboration fetches a single collaboration by uuid.
func (c *Client) Collaboration(ctx context.Context, token, uuid string) (models.Collaboration, error) {
	var collab models.Collaboration
	err := c.do(ctx, http.MethodGet, "/collaboration/"+url.PathEscape(uuid), token, nil, &collab)
	return collab, err
}

// Analyze uploads raw table text to the endpoint of kind.
func (c *Client) Analyze(ctx context.Context, token string, kind models.AnalysisKind, up models.Upload) (models.AnalysisResponse, error) {
	var res models.AnalysisResponse
	path, ok := analysisPaths[kind]
	if !ok {
		return res, fmt.Errorf("%w: %q", ErrUnknownAnalysis, kind)
	}
	err := c.do(ctx, http.MethodPost, path, token, up, &res)
	return res, err
}

// Health queries the unauthenticated health endpoint.
func (c *Client) Health(ctx context.Context) (models.Health, error) {
	var h models.Health
	err := c.do(ctx, http.MethodGet, pathHealth, "", nil, &h)
	return h, err
}

// do performs one JSON round-trip. in is encoded as the body when non-nil,
// out receives the decoded 2xx reply when non-nil.
func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return fmt.Errorf("%w: %s %s: %v", ErrUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	c.log.Debug("request done",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return parseError(resp.StatusCode, data)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("invalid response: %w", err)
	}
	return nil
}
