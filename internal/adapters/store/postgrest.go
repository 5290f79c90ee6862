package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/vmtlabs/tinsel/internal/domain/model"
	"github.com/vmtlabs/tinsel/pkg/metrics"
)

// Default PostgREST driver settings.
const (
	defaultTable       = "scores"
	defaultHTTPTimeout = 10 * time.Second
	restPathPrefix     = "/rest/v1/"
)

// PostgREST talks to a Supabase-style row store over its REST interface,
// authenticated with the privileged service-role key. Uniqueness of
// (event_id, participant_id) is enforced by the store's on_conflict merge,
// not by this client.
type PostgREST struct {
	baseURL string
	key     string
	table   string
	httpc   *http.Client
}

// PostgRESTOption applies a configuration option to the PostgREST driver.
type PostgRESTOption func(*PostgREST)

// WithTable overrides the scores table name.
func WithTable(name string) PostgRESTOption {
	return func(p *PostgREST) {
		if name != "" {
			p.table = name
		}
	}
}

// WithHTTPClient overrides the HTTP client, e.g. to adjust the timeout.
func WithHTTPClient(c *http.Client) PostgRESTOption {
	return func(p *PostgREST) {
		if c != nil {
			p.httpc = c
		}
	}
}

// NewPostgREST creates the REST driver. Missing or malformed settings are not
// rejected here: they surface as ErrConfig on the first call so a misdeployed
// process answers requests with a useful error instead of failing to boot.
func NewPostgREST(baseURL, serviceKey string, opts ...PostgRESTOption) *PostgREST {
	p := &PostgREST{
		baseURL: strings.TrimRight(baseURL, "/"),
		key:     serviceKey,
		table:   defaultTable,
		httpc:   &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// check validates connection settings before any store call.
func (p *PostgREST) check() error {
	if p.baseURL == "" || p.key == "" {
		return fmt.Errorf("%w: missing store URL or service key", ErrConfig)
	}
	u, err := url.Parse(p.baseURL)
	if err != nil {
		return fmt.Errorf("%w: invalid store URL: must be the project URL like https://xxxx.supabase.co", ErrConfig)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return fmt.Errorf("%w: invalid store URL: must start with https:// or http://", ErrConfig)
	}
	return nil
}

// row mirrors the scores table schema on the wire. updated_at stays a string
// here because PostgREST timestamp rendering depends on the column type.
type row struct {
	EventID       string  `json:"event_id"`
	ParticipantID string  `json:"participant_id"`
	Name          string  `json:"name"`
	BestScore     int     `json:"best_score"`
	Moves         int     `json:"moves"`
	Seconds       int     `json:"seconds"`
	MemeURL       *string `json:"meme_url"`
	MemeTinyURL   *string `json:"meme_tiny_url"`
	UpdatedAt     string  `json:"updated_at"`
}

// BestScore implements Store.
func (p *PostgREST) BestScore(ctx context.Context, eventID, participantID string) (int, bool, error) {
	const op = "best_score"
	q := url.Values{
		"select":         {"best_score"},
		"event_id":       {"eq." + eventID},
		"participant_id": {"eq." + participantID},
		"limit":          {"1"},
	}
	body, err := p.do(ctx, op, http.MethodGet, q, nil, "")
	if err != nil {
		return 0, false, err
	}
	var rows []struct {
		BestScore int `json:"best_score"`
	}
	if err := json.Unmarshal(body, &rows); err != nil {
		return 0, false, fmt.Errorf("%w: decoding best score: %w", ErrUnavailable, err)
	}
	if len(rows) == 0 {
		return 0, false, nil
	}
	return rows[0].BestScore, true, nil
}

// Top implements Store.
func (p *PostgREST) Top(ctx context.Context, eventID string, limit int) ([]model.ScoreRecord, error) {
	const op = "top"
	q := url.Values{
		"select":   {"event_id,participant_id,name,best_score,moves,seconds,meme_url,meme_tiny_url,updated_at"},
		"event_id": {"eq." + eventID},
		"order":    {"best_score.desc,updated_at.asc"},
		"limit":    {strconv.Itoa(limit)},
	}
	body, err := p.do(ctx, op, http.MethodGet, q, nil, "")
	if err != nil {
		return nil, err
	}
	var rows []row
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("%w: decoding leaderboard: %w", ErrUnavailable, err)
	}
	out := make([]model.ScoreRecord, len(rows))
	for i, r := range rows {
		out[i] = model.ScoreRecord{
			EventID:       r.EventID,
			ParticipantID: r.ParticipantID,
			Name:          r.Name,
			BestScore:     r.BestScore,
			Moves:         r.Moves,
			Seconds:       r.Seconds,
			MemeURL:       r.MemeURL,
			MemeTinyURL:   r.MemeTinyURL,
			UpdatedAt:     parseTimestamp(r.UpdatedAt),
		}
	}
	return out, nil
}

// Patch implements Store. Only fields present in the patch are written.
func (p *PostgREST) Patch(ctx context.Context, eventID, participantID string, patch model.Patch) error {
	const op = "patch"
	q := url.Values{
		"event_id":       {"eq." + eventID},
		"participant_id": {"eq." + participantID},
	}
	fields := map[string]any{
		"name":       patch.Name,
		"updated_at": patch.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	if patch.MemeURL.Set {
		fields["meme_url"] = patch.MemeURL.Pointer()
	}
	if patch.MemeTinyURL.Set {
		fields["meme_tiny_url"] = patch.MemeTinyURL.Pointer()
	}
	_, err := p.do(ctx, op, http.MethodPatch, q, fields, "return=minimal")
	return err
}

// Upsert implements Store. The on_conflict merge is the atomic boundary that
// keeps concurrent submissions for one key down to a single row.
func (p *PostgREST) Upsert(ctx context.Context, rec model.ScoreRecord) error {
	const op = "upsert"
	q := url.Values{
		"on_conflict": {"event_id,participant_id"},
	}
	payload := []row{{
		EventID:       rec.EventID,
		ParticipantID: rec.ParticipantID,
		Name:          rec.Name,
		BestScore:     rec.BestScore,
		Moves:         rec.Moves,
		Seconds:       rec.Seconds,
		MemeURL:       rec.MemeURL,
		MemeTinyURL:   rec.MemeTinyURL,
		UpdatedAt:     rec.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}}
	_, err := p.do(ctx, op, http.MethodPost, q, payload, "resolution=merge-duplicates,return=minimal")
	return err
}

// do performs one REST call and maps failures onto the error taxonomy.
func (p *PostgREST) do(ctx context.Context, op, method string, q url.Values, payload any, prefer string) ([]byte, error) {
	if err := p.check(); err != nil {
		return nil, err
	}

	metrics.RecordStoreCall(op)
	start := time.Now()

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: encoding payload: %w", ErrUnavailable, err)
		}
		body = bytes.NewReader(b)
	}

	endpoint := p.baseURL + restPathPrefix + p.table
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		metrics.RecordStoreError(op)
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	req.Header.Set("apikey", p.key)
	req.Header.Set("Authorization", "Bearer "+p.key)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := p.httpc.Do(req)
	if err != nil {
		metrics.RecordStoreError(op)
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	metrics.RecordStoreLatency(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordStoreError(op)
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		metrics.RecordStoreError(op)
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, restErrorMessage(resp.StatusCode, raw))
	}
	return raw, nil
}

// restErrorMessage extracts the store's own message from an error body.
func restErrorMessage(status int, raw []byte) string {
	var e struct {
		Message string `json:"message"`
		Details string `json:"details"`
	}
	if err := json.Unmarshal(raw, &e); err == nil && e.Message != "" {
		return e.Message
	}
	if len(raw) > 0 {
		return string(raw)
	}
	return "unexpected status " + strconv.Itoa(status)
}

// parseTimestamp accepts the timestamp renderings PostgREST produces for
// timestamptz and plain timestamp columns.
func parseTimestamp(s string) time.Time {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02T15:04:05.999999999", s); err == nil {
		return t.UTC()
	}
	return time.Time{}
}
