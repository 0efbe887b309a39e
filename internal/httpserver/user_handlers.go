package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"chatapp/internal/domain"
	"chatapp/internal/service"
)

func handleListUsers(userSvc *service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := userSvc.List(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, users)
	}
}

func handleGetUser(userSvc *service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := userSvc.GetByID(r.Context(), chi.URLParam(r, "userID"))
		if err != nil {
			writeError(w, err)
			return
		}
		if user == nil {
			writeError(w, domain.ErrNotFound)
			return
		}
		writeJSON(w, http.StatusOK, user)
	}
}
