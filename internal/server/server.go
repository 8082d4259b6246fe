package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/lwatty24/fortniteshop.site/internal/config"
	"github.com/lwatty24/fortniteshop.site/internal/domain"
	"github.com/lwatty24/fortniteshop.site/internal/history"
	"github.com/lwatty24/fortniteshop.site/internal/repository"
	"github.com/lwatty24/fortniteshop.site/internal/service"

	"github.com/benbjohnson/clock"
	log "github.com/sirupsen/logrus"
)

// Server exposes the shop, search, wishlist, collection and subscription
// operations over a JSON API.
type Server struct {
	service   *service.Service
	documents repository.DocumentRepository
	limiter   *rateLimiter

	httpServer *http.Server
}

func New(cfg config.ServerConfig, notifications config.NotificationsConfig, svc *service.Service, docs repository.DocumentRepository, clk clock.Clock) *Server {
	s := &Server{
		service:   svc,
		documents: docs,
		limiter:   newRateLimiter(clk, notifications.RequestsPerMinute, time.Minute),
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("GET /api/shop", s.handleCurrentShop)
	mux.HandleFunc("GET /api/shop/dates", s.handleShopDates)
	mux.HandleFunc("GET /api/shop/{date}", s.handleShopForDate)
	mux.HandleFunc("GET /api/search", s.handleSearch)

	mux.HandleFunc("GET /api/users/{id}/wishlist", s.handleWishlist)
	mux.HandleFunc("POST /api/users/{id}/wishlist", s.handleToggleWishlist)
	mux.HandleFunc("DELETE /api/users/{id}/wishlist/{itemID}", s.handleRemoveFromWishlist)

	mux.HandleFunc("GET /api/users/{id}/searches", s.handleRecentSearches)
	mux.HandleFunc("DELETE /api/users/{id}/searches", s.handleClearSearches)

	mux.HandleFunc("GET /api/users/{id}/profile", s.handleGetProfile)
	mux.HandleFunc("PUT /api/users/{id}/profile", s.handleSaveProfile)

	mux.HandleFunc("GET /api/users/{id}/collections", s.handleListCollections)
	mux.HandleFunc("POST /api/users/{id}/collections", s.handleCreateCollection)
	mux.HandleFunc("GET /api/users/{id}/collections/{cid}", s.handleGetCollection)
	mux.HandleFunc("PUT /api/users/{id}/collections/{cid}", s.handleUpdateCollection)
	mux.HandleFunc("DELETE /api/users/{id}/collections/{cid}", s.handleDeleteCollection)
	mux.HandleFunc("POST /api/users/{id}/collections/{cid}/items", s.handleAddCollectionItem)
	mux.HandleFunc("DELETE /api/users/{id}/collections/{cid}/items/{itemID}", s.handleRemoveCollectionItem)
	mux.HandleFunc("POST /api/users/{id}/collections/{cid}/share", s.handleShareCollection)
	mux.HandleFunc("GET /api/shared/{shareID}", s.handleSharedCollection)

	mux.HandleFunc("POST /api/notifications/subscribe", s.handleSubscribe)
	mux.HandleFunc("POST /api/notifications/unsubscribe", s.handleUnsubscribe)

	return mux
}

// Run serves until the context is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Infof("🚀 HTTP server listening on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down http server: %w", err)
		}
		log.Info("🛑 HTTP server stopped")
		return ctx.Err()
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto HTTP statuses. Anything unmapped is a
// plain 500 with the error hidden from the client.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidShopData):
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "upstream shop data unavailable"})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, domain.ErrSubscriptionConflict):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "email already subscribed"})
	case errors.Is(err, domain.ErrRateLimited):
		writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "too many requests"})
	case errors.Is(err, context.DeadlineExceeded):
		writeJSON(w, http.StatusGatewayTimeout, map[string]string{"error": "upstream timeout"})
	default:
		log.Errorf("❌ Unhandled request error: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCurrentShop(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.service.RefreshShop(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (s *Server) handleShopForDate(w http.ResponseWriter, r *http.Request) {
	date := r.PathValue("date")
	snapshot, err := s.service.ShopForDate(r.Context(), date)
	if err != nil {
		writeError(w, err)
		return
	}

	// Prev/next stay empty at the edges of retained history.
	var prev, next string
	if dates, err := s.service.HistoryDates(r.Context()); err == nil {
		prev, next = history.Adjacent(dates, date)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"shop": snapshot,
		"prev": prev,
		"next": next,
	})
}

func (s *Server) handleShopDates(w http.ResponseWriter, r *http.Request) {
	dates, err := s.service.HistoryDates(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"dates": dates})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	userID := r.URL.Query().Get("user_id")
	results := s.service.SearchItems(r.Context(), userID, query)
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (s *Server) handleWishlist(w http.ResponseWriter, r *http.Request) {
	items, err := s.service.Wishlist(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleToggleWishlist(w http.ResponseWriter, r *http.Request) {
	var item domain.CatalogItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil || item.ID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "item with id required"})
		return
	}

	wishlisted, err := s.service.ToggleWishlist(r.Context(), r.PathValue("id"), item)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"wishlisted": wishlisted})
}

func (s *Server) handleRemoveFromWishlist(w http.ResponseWriter, r *http.Request) {
	if err := s.service.RemoveFromWishlist(r.Context(), r.PathValue("id"), r.PathValue("itemID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRecentSearches(w http.ResponseWriter, r *http.Request) {
	searches, err := s.service.RecentSearches(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"searches": searches})
}

func (s *Server) handleClearSearches(w http.ResponseWriter, r *http.Request) {
	if err := s.service.ClearRecentSearches(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.documents.GetProfile(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleSaveProfile(w http.ResponseWriter, r *http.Request) {
	var profile domain.Profile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil || profile.DisplayName == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "display_name required"})
		return
	}
	profile.UserID = r.PathValue("id")

	if err := s.documents.SaveProfile(r.Context(), &profile); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleListCollections(w http.ResponseWriter, r *http.Request) {
	collections, err := s.documents.ListCollections(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"collections": collections})
}

func (s *Server) handleCreateCollection(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name required"})
		return
	}

	collection, err := s.documents.CreateCollection(r.Context(), r.PathValue("id"), payload.Name, payload.Description)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, collection)
}

// ownedCollection loads a collection and verifies the path user owns it.
// A foreign collection is indistinguishable from a missing one.
func (s *Server) ownedCollection(r *http.Request) (*domain.Collection, error) {
	collection, err := s.documents.GetCollection(r.Context(), r.PathValue("cid"))
	if err != nil {
		return nil, err
	}
	if collection.UserID != r.PathValue("id") {
		return nil, domain.ErrNotFound
	}
	return collection, nil
}

func (s *Server) handleGetCollection(w http.ResponseWriter, r *http.Request) {
	collection, err := s.ownedCollection(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, collection)
}

func (s *Server) handleUpdateCollection(w http.ResponseWriter, r *http.Request) {
	collection, err := s.ownedCollection(r)
	if err != nil {
		writeError(w, err)
		return
	}

	payload := struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		IsPublic    bool   `json:"is_public"`
	}{Name: collection.Name, Description: collection.Description, IsPublic: collection.IsPublic}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if payload.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name required"})
		return
	}

	if err := s.documents.UpdateCollection(r.Context(), collection.ID, payload.Name, payload.Description, payload.IsPublic); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteCollection(w http.ResponseWriter, r *http.Request) {
	collection, err := s.ownedCollection(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.documents.DeleteCollection(r.Context(), collection.ID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddCollectionItem(w http.ResponseWriter, r *http.Request) {
	collection, err := s.ownedCollection(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var item domain.CatalogItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil || item.ID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "item with id required"})
		return
	}

	if err := s.documents.AddItem(r.Context(), collection.ID, item); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemoveCollectionItem(w http.ResponseWriter, r *http.Request) {
	collection, err := s.ownedCollection(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.documents.RemoveItem(r.Context(), collection.ID, r.PathValue("itemID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleShareCollection(w http.ResponseWriter, r *http.Request) {
	collection, err := s.ownedCollection(r)
	if err != nil {
		writeError(w, err)
		return
	}
	shareID, err := s.documents.ShareCollection(r.Context(), collection.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"share_id": shareID})
}

func (s *Server) handleSharedCollection(w http.ResponseWriter, r *http.Request) {
	collection, err := s.documents.GetByShareID(r.Context(), r.PathValue("shareID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, collection)
}

type subscribePayload struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow(clientIP(r)) {
		writeError(w, domain.ErrRateLimited)
		return
	}

	var payload subscribePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Email == "" || payload.UserID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "user_id and email required"})
		return
	}

	if err := s.service.Subscribe(r.Context(), payload.UserID, payload.Email); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "subscribed"})
}

func (s *Server) handleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow(clientIP(r)) {
		writeError(w, domain.ErrRateLimited)
		return
	}

	var payload subscribePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Email == "" || payload.UserID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "user_id and email required"})
		return
	}

	if err := s.service.Unsubscribe(r.Context(), payload.UserID, payload.Email); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "unsubscribed"})
}
