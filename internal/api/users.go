package api

import (
	"net/http"

	"github.com/joestump/devhub/internal/store"
)

type usersHandler struct {
	users *store.UserStore
}

// List returns the seeded accounts, including their passwords and tokens.
// The mock login scans this list client side.
//
// @Summary      List users
// @Description  Returns every user. Optional username filter matches exactly.
// @Tags         Users
// @Produce      json
// @Param        username  query     string  false  "Exact username"
// @Success      200       {array}   store.User
// @Failure      429       {object}  ErrorResponse
// @Failure      500       {object}  ErrorResponse
// @Router       /users [get]
func (h *usersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListAll(r.Context())
	if err != nil {
		writeInternal(w, "list users", err)
		return
	}

	if name := r.URL.Query().Get("username"); name != "" {
		filtered := make([]*store.User, 0, 1)
		for _, u := range users {
			if u.Username == name {
				filtered = append(filtered, u)
			}
		}
		users = filtered
	}

	writeJSON(w, http.StatusOK, users)
}
