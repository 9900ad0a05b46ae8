package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"

	"github.com/DoyleJ11/trivia-rooms/internal/hub"
	"github.com/DoyleJ11/trivia-rooms/pkg/types"
)

const qrSize = 320

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// GetRoom serves the debug snapshot of one room.
func GetRoom(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := lookup(r.Context(), h, chi.URLParam(r, "code"))
		if err != nil {
			http.Error(w, "hub unavailable", http.StatusServiceUnavailable)
			return
		}
		if snap == nil {
			writeJSON(w, http.StatusNotFound, types.ErrorPayload{Error: "room not found"})
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

// JoinQR renders a PNG QR code pointing at the room's join link.
func JoinQR(h *hub.Hub, publicURL string, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := lookup(r.Context(), h, chi.URLParam(r, "code"))
		if err != nil {
			http.Error(w, "hub unavailable", http.StatusServiceUnavailable)
			return
		}
		if snap == nil {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}

		png, err := qrcode.Encode(JoinURL(publicURL, r, snap.Code), qrcode.Medium, qrSize)
		if err != nil {
			log.Error("qr generation failed", zap.String("room", snap.Code), zap.Error(err))
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write(png)
	}
}

// JoinURL builds <base>/?code=CODE. Without a configured base it uses the
// request's scheme and host.
func JoinURL(publicURL string, r *http.Request, code string) string {
	base := strings.TrimRight(publicURL, "/")
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}
		base = scheme + "://" + r.Host
	}
	return base + "/?code=" + url.QueryEscape(code)
}

func lookup(ctx context.Context, h *hub.Hub, code string) (*types.RoomSnapshot, error) {
	reply := make(chan *types.RoomSnapshot, 1)
	select {
	case h.Inbox() <- hub.GetRoom{Code: code, Reply: reply}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case snap := <-reply:
		return snap, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
