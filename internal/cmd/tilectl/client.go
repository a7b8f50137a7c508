package tilectl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/net/websocket"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	statuspb "google.golang.org/genproto/googleapis/rpc/status"
	"google.golang.org/protobuf/encoding/protojson"

	tileshttp "github.com/louisbranch/wear-tiles/internal/services/tiles/api/http/tiles"
	"github.com/louisbranch/wear-tiles/internal/services/tiles/domain"
	"github.com/louisbranch/wear-tiles/internal/services/tiles/render"
)

// APIError is a non-2xx answer from the tiles service.
type APIError struct {
	StatusCode int
	Reason     string
	Message    string
}

func (e *APIError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("tiles api: status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("tiles api: status %d: %s (%s)", e.StatusCode, e.Message, e.Reason)
}

// Client calls the tiles HTTP API.
type Client struct {
	base   string
	locale string
	http   *http.Client
}

// NewClient builds a client for the service at base, e.g. http://localhost:8096.
func NewClient(base, locale string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	return &Client{base: strings.TrimRight(strings.TrimSpace(base), "/"), locale: locale, http: httpClient}
}

// Tile renders the current tile for device.
func (c *Client) Tile(ctx context.Context, device render.DeviceParams) (render.Tile, error) {
	var tile render.Tile
	body := map[string]any{"device": device, "locale": c.locale}
	if err := c.do(ctx, http.MethodPost, tileshttp.PathTile, body, &tile); err != nil {
		return render.Tile{}, err
	}
	return tile, nil
}

// Resources fetches images for ids. No ids asks for every resource.
func (c *Client) Resources(ctx context.Context, version string, ids []string) (render.Resources, error) {
	var resources render.Resources
	body := map[string]any{"version": version, "ids": ids}
	if err := c.do(ctx, http.MethodPost, tileshttp.PathResources, body, &resources); err != nil {
		return render.Resources{}, err
	}
	return resources, nil
}

// Favorites lists the stored favorites.
func (c *Client) Favorites(ctx context.Context) ([]domain.Contact, error) {
	var favorites tileshttp.FavoritesJSON
	if err := c.do(ctx, http.MethodGet, tileshttp.PathFavorites, nil, &favorites); err != nil {
		return nil, err
	}
	return tileshttp.ContactsFromJSON(favorites.Favorites), nil
}

// ReplaceFavorites overwrites the stored favorites.
func (c *Client) ReplaceFavorites(ctx context.Context, favorites []domain.Contact) error {
	body := tileshttp.FavoritesJSON{Favorites: tileshttp.ContactsToJSON(favorites)}
	return c.do(ctx, http.MethodPut, tileshttp.PathFavorites, body, nil)
}

// Updates opens the update stream.
func (c *Client) Updates() (*websocket.Conn, error) {
	target, err := url.Parse(c.base + tileshttp.PathUpdates)
	if err != nil {
		return nil, fmt.Errorf("parse updates url: %w", err)
	}
	origin := *target
	origin.Path = "/"
	switch target.Scheme {
	case "https":
		target.Scheme = "wss"
	default:
		target.Scheme = "ws"
	}
	wsConfig, err := websocket.NewConfig(target.String(), origin.String())
	if err != nil {
		return nil, fmt.Errorf("updates config: %w", err)
	}
	if c.locale != "" {
		wsConfig.Header.Set("Accept-Language", c.locale)
	}
	conn, err := websocket.DialConfig(wsConfig)
	if err != nil {
		return nil, fmt.Errorf("dial updates: %w", err)
	}
	return conn, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.locale != "" {
		req.Header.Set("Accept-Language", c.locale)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// decodeAPIError reads a google.rpc.Status body, preferring its localized
// message.
func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return apiErr
	}
	var status statuspb.Status
	if err := (protojson.UnmarshalOptions{DiscardUnknown: true}).Unmarshal(payload, &status); err != nil {
		if text := strings.TrimSpace(string(payload)); text != "" {
			apiErr.Message = text
		}
		return apiErr
	}
	if status.GetMessage() != "" {
		apiErr.Message = status.GetMessage()
	}
	for _, detail := range status.GetDetails() {
		message, err := detail.UnmarshalNew()
		if err != nil {
			continue
		}
		switch d := message.(type) {
		case *errdetails.ErrorInfo:
			apiErr.Reason = d.GetReason()
		case *errdetails.LocalizedMessage:
			if d.GetMessage() != "" {
				apiErr.Message = d.GetMessage()
			}
		}
	}
	return apiErr
}
