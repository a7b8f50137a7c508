// Package tiles serves the tile host boundary over HTTP: rendered tiles,
// image resources, the favorites list and a WebSocket update stream.
package tiles

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	"golang.org/x/net/websocket"

	"github.com/louisbranch/wear-tiles/internal/platform/i18n/catalog"
	"github.com/louisbranch/wear-tiles/internal/platform/timeouts"
	"github.com/louisbranch/wear-tiles/internal/services/tiles/domain"
	"github.com/louisbranch/wear-tiles/internal/services/tiles/render"
)

const (
	// Route paths.
	PathTile      = "/v1/tile"
	PathResources = "/v1/resources"
	PathFavorites = "/v1/favorites"
	PathUpdates   = "/v1/updates"
	PathUp        = "/up"

	maxBodyBytes = 1 << 20
)

// Service is the domain surface the handlers call.
type Service interface {
	GetTileState(ctx context.Context) (domain.TileState, error)
	GetResources(ctx context.Context, request domain.ResourceRequest) (domain.Resolution, error)
	ListFavorites(ctx context.Context) ([]domain.Contact, error)
	ReplaceFavorites(ctx context.Context, favorites []domain.Contact) error
	Subscribe() (*domain.Subscription, error)
}

// Options tunes the handler.
type Options struct {
	Renderer render.Renderer
	// Catalog localizes tiles and error messages. Nil uses the embedded one.
	Catalog *catalog.Bundle
	// RequestTimeout bounds each request. Zero uses timeouts.Request.
	RequestTimeout time.Duration
	Logf           func(string, ...any)
}

type handler struct {
	svc      Service
	renderer render.Renderer
	catalog  *catalog.Bundle
	timeout  time.Duration
	logf     func(string, ...any)
}

// NewHandler builds the HTTP routes for svc.
func NewHandler(svc Service, opts Options) http.Handler {
	h := &handler{
		svc:      svc,
		renderer: opts.Renderer,
		catalog:  opts.Catalog,
		timeout:  opts.RequestTimeout,
		logf:     opts.Logf,
	}
	if h.catalog == nil {
		h.catalog = catalog.Default()
	}
	if h.timeout <= 0 {
		h.timeout = timeouts.Request
	}
	if h.logf == nil {
		h.logf = func(string, ...any) {}
	}

	mux := http.NewServeMux()
	mux.HandleFunc(PathUp, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	mux.HandleFunc(PathTile, h.methods(map[string]http.HandlerFunc{http.MethodPost: h.handleTile}))
	mux.HandleFunc(PathResources, h.methods(map[string]http.HandlerFunc{http.MethodPost: h.handleResources}))
	mux.HandleFunc(PathFavorites, h.methods(map[string]http.HandlerFunc{
		http.MethodGet: h.handleListFavorites,
		http.MethodPut: h.handleReplaceFavorites,
	}))
	updates := websocket.Handler(h.streamUpdates)
	mux.HandleFunc(PathUpdates, h.methods(map[string]http.HandlerFunc{http.MethodGet: updates.ServeHTTP}))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		h.writeError(w, r, errNotFound)
	})
	return mux
}

// methods dispatches by method and answers anything else with 405.
func (h *handler) methods(byMethod map[string]http.HandlerFunc) http.HandlerFunc {
	allowed := make([]string, 0, len(byMethod))
	for method := range byMethod {
		allowed = append(allowed, method)
	}
	slices.Sort(allowed)
	allow := strings.Join(allowed, ", ")
	return func(w http.ResponseWriter, r *http.Request) {
		next, ok := byMethod[r.Method]
		if !ok {
			w.Header().Set("Allow", allow)
			h.writeError(w, r, errMethodNotAllowed)
			return
		}
		next(w, r)
	}
}

type tileRequest struct {
	Device render.DeviceParams `json:"device"`
	Locale string              `json:"locale"`
}

func (h *handler) handleTile(w http.ResponseWriter, r *http.Request) {
	var req tileRequest
	if err := decodeJSON(r, &req, true); err != nil {
		h.writeError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	state, err := h.svc.GetTileState(ctx)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	locale := req.Locale
	if strings.TrimSpace(locale) == "" {
		locale = r.Header.Get("Accept-Language")
	}
	tile := h.renderer.RenderTile(h.catalog.Printer(locale), state, req.Device)
	writeJSON(w, http.StatusOK, tile)
}

type resourcesRequest struct {
	Version string   `json:"version"`
	IDs     []string `json:"ids"`
}

func (h *handler) handleResources(w http.ResponseWriter, r *http.Request) {
	var req resourcesRequest
	if err := decodeJSON(r, &req, true); err != nil {
		h.writeError(w, r, err)
		return
	}
	ids := domain.ParseResourceIDs(req.IDs)
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	resolution, err := h.svc.GetResources(ctx, domain.ResourceRequest{Version: req.Version, IDs: ids})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, render.ProduceResources(req.Version, resolution))
}

// ContactJSON is the wire form of a contact.
type ContactJSON struct {
	ID           string `json:"id"`
	Name         string `json:"name,omitempty"`
	AvatarSource string `json:"avatar_source,omitempty"`
}

// FavoritesJSON is the body of the favorites endpoints.
type FavoritesJSON struct {
	Favorites []ContactJSON `json:"favorites"`
}

func (h *handler) handleListFavorites(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	favorites, err := h.svc.ListFavorites(ctx)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, FavoritesJSON{Favorites: ContactsToJSON(favorites)})
}

func (h *handler) handleReplaceFavorites(w http.ResponseWriter, r *http.Request) {
	var req FavoritesJSON
	if err := decodeJSON(r, &req, false); err != nil {
		h.writeError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	favorites := ContactsFromJSON(req.Favorites)
	if err := h.svc.ReplaceFavorites(ctx, favorites); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ContactsToJSON maps domain contacts to their wire form.
func ContactsToJSON(contacts []domain.Contact) []ContactJSON {
	out := make([]ContactJSON, 0, len(contacts))
	for _, contact := range contacts {
		out = append(out, ContactJSON{ID: contact.ID, Name: contact.Name, AvatarSource: contact.AvatarSource})
	}
	return out
}

// ContactsFromJSON maps wire contacts to domain contacts.
func ContactsFromJSON(contacts []ContactJSON) []domain.Contact {
	out := make([]domain.Contact, 0, len(contacts))
	for _, contact := range contacts {
		out = append(out, domain.Contact{ID: contact.ID, Name: contact.Name, AvatarSource: contact.AvatarSource})
	}
	return out
}

var errEmptyBody = errors.New("request body is required")

// decodeJSON reads one JSON object from r. When allowEmpty is set an empty
// body leaves target untouched.
func decodeJSON(r *http.Request, target any, allowEmpty bool) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			if allowEmpty {
				return nil
			}
			return badRequest(errEmptyBody)
		}
		return badRequest(err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}
