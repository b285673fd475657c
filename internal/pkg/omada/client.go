package omada

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const (
	requestTimeout = 15 * time.Second

	// The controller caps page sizes at 1000 entries.
	maxPageSize = 1000
)

// Client wraps the controller's tenant-scoped REST endpoints. Every call
// goes through one request helper that ensures a valid token, attaches it,
// decodes the response envelope and maps failures into typed errors.
// Transport exceptions never escape as raw errors.
type Client struct {
	tokens *TokenManager
	http   *http.Client
}

// NewClient creates a controller client on top of the given token manager.
func NewClient(tokens *TokenManager) *Client {
	return &Client{
		tokens: tokens,
		http:   &http.Client{Timeout: requestTimeout},
	}
}

// do performs one authenticated request against a tenant-scoped endpoint.
// A token-rejected response triggers exactly one re-authentication and
// retry, never a loop.
func (c *Client) do(ctx context.Context, method, endpoint string, query url.Values, body, out any) error {
	err := c.doOnce(ctx, method, endpoint, query, body, out)
	if err == nil || !IsTokenRejected(err) {
		return err
	}

	c.tokens.Invalidate()
	return c.doOnce(ctx, method, endpoint, query, body, out)
}

func (c *Client) doOnce(ctx context.Context, method, endpoint string, query url.Values, body, out any) error {
	sess, err := c.tokens.EnsureValidToken(ctx)
	if err != nil {
		return err
	}

	requestURL := fmt.Sprintf("%s/openapi/v1/%s/%s", sess.BaseURL, sess.OmadacID, endpoint)
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "AccessToken="+sess.AccessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	op := method + " " + endpoint
	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &TransportError{Op: op, Err: fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(raw))}
	}

	result, err := decodeEnvelope(raw)
	if err != nil {
		var apiErr *ApiError
		if errors.As(err, &apiErr) {
			return err
		}
		return &TransportError{Op: op, Err: err}
	}

	if out == nil {
		return nil
	}
	if len(result) == 0 {
		return &TransportError{Op: op, Err: errors.New("response envelope missing result")}
	}
	if err := json.Unmarshal(result, out); err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("decode result: %w", err)}
	}
	return nil
}

// ListSites returns one page of the controller's site catalog.
func (c *Client) ListSites(ctx context.Context, page, pageSize int) (*SitePage, error) {
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("pageSize", strconv.Itoa(pageSize))

	var out SitePage
	if err := c.do(ctx, http.MethodGet, "sites", query, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateVoucherGroup creates a voucher group on the controller and returns
// the remote group identifier.
func (c *Client) CreateVoucherGroup(ctx context.Context, siteID string, req *VoucherGroupCreateRequest) (string, error) {
	endpoint := fmt.Sprintf("sites/%s/hotspot/voucher-groups", siteID)

	var out voucherGroupCreateResult
	if err := c.do(ctx, http.MethodPost, endpoint, nil, req, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", &TransportError{Op: "POST " + endpoint, Err: errors.New("create response missing group id")}
	}
	return out.ID, nil
}

// GetVoucherGroups returns one page of the voucher group list for a site.
func (c *Client) GetVoucherGroups(ctx context.Context, siteID string, page, pageSize int, filters *VoucherGroupFilters) (*VoucherGroupPage, error) {
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("pageSize", strconv.Itoa(pageSize))
	if filters != nil {
		if filters.TimeStart != "" {
			query.Set("filters.timeStart", filters.TimeStart)
		}
		if filters.TimeEnd != "" {
			query.Set("filters.timeEnd", filters.TimeEnd)
		}
		if filters.SearchKey != "" {
			query.Set("searchKey", filters.SearchKey)
		}
	}

	endpoint := fmt.Sprintf("sites/%s/hotspot/voucher-groups", siteID)
	var out VoucherGroupPage
	if err := c.do(ctx, http.MethodGet, endpoint, query, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetVoucherGroupDetail returns one page of the per-voucher records of a
// group, including each voucher's status and code.
func (c *Client) GetVoucherGroupDetail(ctx context.Context, siteID, groupID string, page, pageSize int) (*VoucherGroupDetail, error) {
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("pageSize", strconv.Itoa(pageSize))

	endpoint := fmt.Sprintf("sites/%s/hotspot/voucher-groups/%s", siteID, groupID)
	var out VoucherGroupDetail
	if err := c.do(ctx, http.MethodGet, endpoint, query, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetVoucherSummary returns aggregated voucher usage for a site, optionally
// bounded by a date range (YYYY-MM-DD).
func (c *Client) GetVoucherSummary(ctx context.Context, siteID, startDate, endDate string) (*VoucherSummary, error) {
	query := url.Values{}
	if startDate != "" {
		query.Set("startDate", startDate)
	}
	if endDate != "" {
		query.Set("endDate", endDate)
	}

	endpoint := fmt.Sprintf("sites/%s/hotspot/vouchers/summary", siteID)
	var out VoucherSummary
	if err := c.do(ctx, http.MethodGet, endpoint, query, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteExpiredVouchers clears invalid vouchers from a group.
func (c *Client) DeleteExpiredVouchers(ctx context.Context, siteID, groupID string) error {
	endpoint := fmt.Sprintf("sites/%s/hotspot/voucher-groups/%s/clear-invalid", siteID, groupID)
	return c.do(ctx, http.MethodDelete, endpoint, nil, nil, nil)
}

// DeleteVoucherGroups removes voucher groups from the controller in one
// batch call.
func (c *Client) DeleteVoucherGroups(ctx context.Context, siteID string, groupIDs []string) error {
	endpoint := fmt.Sprintf("sites/%s/hotspot/voucher-groups/batch/delete", siteID)
	body := map[string][]string{"ids": groupIDs}
	return c.do(ctx, http.MethodPost, endpoint, nil, body, nil)
}
