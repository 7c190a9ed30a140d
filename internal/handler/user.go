package handler

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/msomdec/result-processing/internal/domain"
	"github.com/msomdec/result-processing/internal/service"
)

// UserHandler handles user directory and role HTTP requests.
type UserHandler struct {
	directory *service.UserDirectory
	authority *service.RoleAuthority
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(directory *service.UserDirectory, authority *service.RoleAuthority) *UserHandler {
	return &UserHandler{directory: directory, authority: authority}
}

// HandleList returns every user document.
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.directory.List(r.Context())
	if err != nil {
		writeServiceError(w, err, "list users")
		return
	}
	writeJSON(w, http.StatusOK, toUserDocuments(users))
}

// HandleIsAdmin reports whether the caller's own record holds the admin role.
func (h *UserHandler) HandleIsAdmin(w http.ResponseWriter, r *http.Request) {
	h.handleRoleQuery(w, r, domain.RoleAdmin, "isAdmin")
}

// HandleIsManager reports whether the caller's own record holds the manager role.
func (h *UserHandler) HandleIsManager(w http.ResponseWriter, r *http.Request) {
	h.handleRoleQuery(w, r, domain.RoleManager, "isManager")
}

func (h *UserHandler) handleRoleQuery(w http.ResponseWriter, r *http.Request, role domain.Role, key string) {
	// chi matches on the escaped path, so the segment may still be encoded.
	email, err := url.PathUnescape(chi.URLParam(r, "email"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed email in path")
		return
	}
	ok, err := h.authority.CheckRole(r.Context(), email, ClaimsFromContext(r.Context()), role)
	if err != nil {
		writeServiceError(w, err, "check role")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{key: ok})
}

// HandleCreate stores a user document unless its email is already taken.
func (h *UserHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	body, err := readObject(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}

	user, ok := userFromBody(body)
	if !ok {
		writeError(w, http.StatusBadRequest, "email and role must be strings")
		return
	}

	out, err := h.directory.Create(r.Context(), user)
	if err != nil {
		writeServiceError(w, err, "create user")
		return
	}
	if out.AlreadyExists {
		writeJSON(w, http.StatusOK, MessageResponse{Message: "User already exist"})
		return
	}
	writeJSON(w, http.StatusOK, toInsertResponse(out.Inserted))
}

// HandleDelete removes a user by id.
func (h *UserHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	res, err := h.directory.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err, "delete user")
		return
	}
	writeJSON(w, http.StatusOK, toDeleteResponse(res))
}

// HandleSetRole returns a handler that assigns role to the user in the path.
func (h *UserHandler) HandleSetRole(role domain.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := h.directory.SetRole(r.Context(), chi.URLParam(r, "id"), role)
		if err != nil {
			writeServiceError(w, err, "set role")
			return
		}
		writeJSON(w, http.StatusOK, toUpdateResponse(res))
	}
}

// userFromBody splits a posted document into the fixed user fields and the
// free-form profile. A client "_id" is dropped.
func userFromBody(body map[string]any) (*domain.User, bool) {
	user := &domain.User{Profile: map[string]any{}}
	for k, v := range body {
		switch k {
		case "_id":
		case "email":
			s, ok := v.(string)
			if !ok {
				return nil, false
			}
			user.Email = s
		case "role":
			s, ok := v.(string)
			if !ok {
				return nil, false
			}
			user.Role = domain.Role(s)
		default:
			user.Profile[k] = v
		}
	}
	return user, true
}
