package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"

	"github.com/clinicdesk/registration-service/internal/user"
)

func handleUserError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, user.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "user_not_found", err.Error())
	case errors.Is(err, user.ErrDuplicateUser):
		writeError(w, http.StatusConflict, "user_exists", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func decodeUserRequest(w http.ResponseWriter, r *http.Request) (*user.User, bool) {
	var req UserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return nil, false
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return nil, false
	}

	// Format already validated.
	birthdate, _ := time.Parse("2006-01-02", req.Birthdate)

	return &user.User{
		Name:        req.Name,
		PhoneNumber: req.PhoneNumber,
		Email:       req.Email,
		Birthdate:   birthdate,
	}, true
}

func listUsersHandler(store user.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset := parsePage(r)

		users, err := store.List(r.Context(), limit, offset)
		if err != nil {
			handleUserError(w, err)
			return
		}

		out := make([]UserResponse, 0, len(users))
		for _, u := range users {
			out = append(out, toUserResponse(u))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getUserHandler(store user.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_user_id", "id must be a valid UUID")
			return
		}

		u, err := store.GetByID(r.Context(), id)
		if err != nil {
			handleUserError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toUserResponse(*u))
	}
}

func getUserByPhoneHandler(store user.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		phone := chi.URLParam(r, "phoneNumber")

		u, err := store.GetByPhoneNumber(r.Context(), phone)
		if err != nil {
			handleUserError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toUserResponse(*u))
	}
}

func createUserHandler(store user.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := decodeUserRequest(w, r)
		if !ok {
			return
		}

		created, err := store.Create(r.Context(), u)
		if err != nil {
			handleUserError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toUserResponse(*created))
	}
}

func updateUserHandler(store user.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_user_id", "id must be a valid UUID")
			return
		}

		u, okBody := decodeUserRequest(w, r)
		if !okBody {
			return
		}

		existing, err := store.GetByID(r.Context(), id)
		if err != nil {
			handleUserError(w, err)
			return
		}

		existing.Name = u.Name
		existing.PhoneNumber = u.PhoneNumber
		existing.Email = u.Email
		existing.Birthdate = u.Birthdate

		updated, err := store.Update(r.Context(), existing)
		if err != nil {
			handleUserError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toUserResponse(*updated))
	}
}

func deleteUserHandler(store user.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_user_id", "id must be a valid UUID")
			return
		}

		if err := store.Delete(r.Context(), id); err != nil {
			handleUserError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
