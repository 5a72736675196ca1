package xts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	appconfig "masterflow/config"
	"masterflow/logger"
	"masterflow/models"
)

type indexListResponse struct {
	Type        string          `json:"type"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

// nestedIndexList is the result shape of the body-segment deployment,
// which wraps the record array in an object.
type nestedIndexList struct {
	IndexList json.RawMessage `json:"indexList"`
}

// FetchIndexList requests the index list for one exchange segment using
// the configured wire shape. A success response without a result field
// yields an empty list, not an error.
func (c *Client) FetchIndexList(ctx context.Context, segment models.Segment) (*models.IndexList, error) {
	log := c.log.WithComponent("xts_client").WithFields(logger.Fields{
		"operation": "fetch_index_list",
		"segment":   segment.String(),
	})

	session := c.Session()
	if session == nil || !session.Authenticated {
		return nil, ErrNotAuthenticated
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("fetch rate limit wait: %w", err)
	}

	req, err := c.buildIndexListRequest(ctx, segment, session.Token)
	if err != nil {
		return nil, err
	}

	log.WithFields(logger.Fields{"url": req.URL.String()}).Info("fetching index list")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("index list request failed: %w", err)
	}
	defer resp.Body.Close()

	var body indexListResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, &APIError{Status: resp.StatusCode}
		}
		return nil, fmt.Errorf("decode index list response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || body.Type != "success" {
		return nil, &APIError{Status: resp.StatusCode, Type: body.Type, Description: body.Description}
	}

	list, err := decodeIndexList(segment, body.Result)
	if err != nil {
		return nil, err
	}

	log.WithFields(logger.Fields{"count": len(list.Records)}).Info("fetched index list")
	logger.IncrementFetch()

	return list, nil
}

// buildIndexListRequest constructs the request in whichever of the two
// deployed wire shapes is configured: segment as a query parameter with
// a lowercase auth header, or segment in a JSON body list.
func (c *Client) buildIndexListRequest(ctx context.Context, segment models.Segment, token string) (*http.Request, error) {
	endpoint := c.baseURL + "/instruments/indexlist"

	if c.config.Marketdata.WireShape == appconfig.WireShapeBody {
		payload, err := json.Marshal(map[string][]int{"exchangeSegmentList": {segment.Code()}})
		if err != nil {
			return nil, fmt.Errorf("marshal index list request: %w", err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("build index list request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", token)
		return req, nil
	}

	url := fmt.Sprintf("%s?exchangeSegment=%d", endpoint, segment.Code())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build index list request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	// The query-shape deployment matches the header name case-sensitively,
	// so bypass Set's canonicalization and keep it lowercase on the wire.
	req.Header["authorization"] = []string{token}
	return req, nil
}

// decodeIndexList accepts both result encodings: a bare record array or
// an object nesting the array under indexList.
func decodeIndexList(segment models.Segment, result json.RawMessage) (*models.IndexList, error) {
	raw := bytes.TrimSpace(result)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return &models.IndexList{Segment: segment, Raw: json.RawMessage("[]")}, nil
	}

	if raw[0] == '{' {
		var nested nestedIndexList
		if err := json.Unmarshal(raw, &nested); err != nil {
			return nil, fmt.Errorf("decode nested index list: %w", err)
		}
		raw = bytes.TrimSpace(nested.IndexList)
		if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
			return &models.IndexList{Segment: segment, Raw: json.RawMessage("[]")}, nil
		}
	}

	var records []models.RawIndexRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decode index records: %w", err)
	}

	return &models.IndexList{Segment: segment, Records: records, Raw: raw}, nil
}
