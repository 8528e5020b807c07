package zoom

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/teemow/zoomdrive/internal/instrumentation"
	"github.com/teemow/zoomdrive/internal/logging"
)

// DefaultBaseURL is the Zoom REST API base URL.
const DefaultBaseURL = "https://api.zoom.us/v2"

// Client provides access to the Zoom recording catalog.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     oauth2.TokenSource
	logger     *slog.Logger
	metrics    *instrumentation.Metrics
}

// ClientOptions contains optional settings for a Client.
type ClientOptions struct {
	// BaseURL overrides the Zoom API base URL. Used in tests.
	BaseURL string

	// HTTPClient overrides the HTTP client used for API calls.
	HTTPClient *http.Client

	// Logger is the structured logger. Defaults to slog.Default().
	Logger *slog.Logger

	// Metrics is the instrumentation recorder. May be nil.
	Metrics *instrumentation.Metrics
}

// NewClient creates a new Zoom API client authenticated by the given token
// source.
func NewClient(tokens oauth2.TokenSource, options *ClientOptions) (*Client, error) {
	if tokens == nil {
		return nil, fmt.Errorf("token source is required")
	}

	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: http.DefaultClient,
		tokens:     tokens,
	}

	if options != nil {
		if options.BaseURL != "" {
			c.baseURL = strings.TrimRight(options.BaseURL, "/")
		}
		if options.HTTPClient != nil {
			c.httpClient = options.HTTPClient
		}
		c.logger = options.Logger
		c.metrics = options.Metrics
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}

	return c, nil
}

// AuthHeader returns the Authorization header value for authenticated
// requests against recording download URLs.
func (c *Client) AuthHeader(ctx context.Context) (string, error) {
	token, err := c.tokens.Token()
	if err != nil {
		return "", err
	}
	c.logger.Debug("issuing download authorization",
		logging.Operation("zoom.authHeader"),
		slog.String("token", logging.SanitizeToken(token.AccessToken)))
	return "Bearer " + token.AccessToken, nil
}

// ListMeetings lists the meetings of the authenticated account. A non-2xx
// response is fatal to the run and reported as *APIError.
func (c *Client) ListMeetings(ctx context.Context) ([]Meeting, error) {
	ctx, span := instrumentation.StartZoomSpan(ctx, "listMeetings")
	defer span.End()
	start := time.Now()

	var payload struct {
		Meetings []Meeting `json:"meetings"`
	}
	if err := c.get(ctx, "/users/me/meetings", &payload); err != nil {
		instrumentation.SetSpanError(span, err)
		c.metrics.RecordZoomAPIOperation(ctx, "listMeetings", instrumentation.StatusError, time.Since(start))
		return nil, &APIError{Op: "listMeetings", StatusCode: statusCode(err), Err: err}
	}

	instrumentation.SetSpanSuccess(span)
	c.metrics.RecordZoomAPIOperation(ctx, "listMeetings", instrumentation.StatusSuccess, time.Since(start))

	c.logger.Debug("listed meetings",
		logging.Operation("zoom.listMeetings"),
		slog.Int("count", len(payload.Meetings)))
	return payload.Meetings, nil
}

// ListRecordings lists the recording assets of a meeting. A meeting without
// recordings answers 404; that is a normal terminal case and yields an empty
// slice. Any other failure is logged and absorbed to an empty slice so one
// meeting cannot abort the enumeration of the rest.
func (c *Client) ListRecordings(ctx context.Context, meetingID string) ([]Recording, error) {
	ctx, span := instrumentation.StartZoomSpan(ctx, "listRecordings")
	defer span.End()
	start := time.Now()

	var payload struct {
		RecordingFiles []Recording `json:"recording_files"`
	}
	err := c.get(ctx, "/meetings/"+meetingID+"/recordings", &payload)
	if err != nil {
		if statusCode(err) == http.StatusNotFound {
			// No recordings for this meeting.
			instrumentation.SetSpanSuccess(span)
			c.metrics.RecordZoomAPIOperation(ctx, "listRecordings", instrumentation.StatusSuccess, time.Since(start))
			return []Recording{}, nil
		}

		instrumentation.SetSpanError(span, err)
		c.metrics.RecordZoomAPIOperation(ctx, "listRecordings", instrumentation.StatusError, time.Since(start))
		c.logger.Error("failed to list recordings",
			logging.Operation("zoom.listRecordings"),
			logging.MeetingID(meetingID),
			logging.Err(err))
		return []Recording{}, nil
	}

	recordings := payload.RecordingFiles
	for i := range recordings {
		if recordings[i].MeetingID == "" {
			recordings[i].MeetingID = ID(meetingID)
		}
	}

	instrumentation.SetSpanSuccess(span)
	c.metrics.RecordZoomAPIOperation(ctx, "listRecordings", instrumentation.StatusSuccess, time.Since(start))
	return recordings, nil
}

// GetMeeting fetches meeting metadata for enrichment (host, topic, timezone).
// Failures never propagate: a zero Meeting is returned so that one meeting's
// metadata failure cannot abort the batch.
func (c *Client) GetMeeting(ctx context.Context, meetingID string) Meeting {
	ctx, span := instrumentation.StartZoomSpan(ctx, "getMeeting")
	defer span.End()
	start := time.Now()

	var meeting Meeting
	if err := c.get(ctx, "/meetings/"+meetingID, &meeting); err != nil {
		instrumentation.SetSpanError(span, err)
		c.metrics.RecordZoomAPIOperation(ctx, "getMeeting", instrumentation.StatusError, time.Since(start))
		c.logger.Warn("failed to get meeting details",
			logging.Operation("zoom.getMeeting"),
			logging.MeetingID(meetingID),
			logging.Err(err))
		return Meeting{}
	}

	instrumentation.SetSpanSuccess(span)
	c.metrics.RecordZoomAPIOperation(ctx, "getMeeting", instrumentation.StatusSuccess, time.Since(start))
	return meeting
}

// statusError carries an HTTP status through the error chain.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	if e.body != "" {
		return fmt.Sprintf("unexpected status %d: %s", e.code, e.body)
	}
	return fmt.Sprintf("unexpected status %d", e.code)
}

// statusCode extracts the HTTP status from an error chain, 0 if absent.
func statusCode(err error) int {
	for err != nil {
		if se, ok := err.(*statusError); ok {
			return se.code
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return 0
		}
		err = unwrapper.Unwrap()
	}
	return 0
}

// get performs an authenticated GET against the Zoom API and decodes the
// JSON response body into out.
func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	token, err := c.tokens.Token()
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	token.SetAuthHeader(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
