package web

import (
	"context"
	"net/http"

	"github.com/italolelis/docx2xlsx/internal/form"
	"github.com/italolelis/docx2xlsx/internal/logctx"
)

// SessionCookie names the cookie that ties a browser to its form.
const SessionCookie = "docx2xlsx_session"

type ctxKey string

const controllerKey ctxKey = "form_controller"

// sessionMiddleware loads (or creates) the form controller of the calling
// browser and stores it in the request context.
func (h *Handler) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var current string
		if c, err := r.Cookie(SessionCookie); err == nil {
			current = c.Value
		}

		id, ctrl := h.sessions.GetOrCreate(r.Context(), current)
		if id != current {
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookie,
				Value:    id,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		ctx := logctx.WithSessionID(r.Context(), id)
		ctx = context.WithValue(ctx, controllerKey, ctrl)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func controllerFrom(ctx context.Context) *form.Controller {
	ctrl, _ := ctx.Value(controllerKey).(*form.Controller)
	return ctrl
}
