package api

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"github.com/jdholdren/chatter/internal/chatter"
	chaterrs "github.com/jdholdren/chatter/internal/errors"
	"github.com/jdholdren/chatter/internal/serverutil"
)

type (
	createUserReq struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Email     string `json:"email"`
	}

	// Every field is optional, blanks are left alone.
	updateUserReq struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Email     string `json:"email"`
	}
)

func (c createUserReq) Validate() error {
	var details []chaterrs.Detail
	if strings.TrimSpace(c.FirstName) == "" {
		details = append(details, chaterrs.Detail{Field: "first_name", Error: "is required"})
	}
	if strings.TrimSpace(c.LastName) == "" {
		details = append(details, chaterrs.Detail{Field: "last_name", Error: "is required"})
	}
	if _, err := mail.ParseAddress(c.Email); err != nil {
		details = append(details, chaterrs.Detail{Field: "email", Error: "must be a valid address"})
	}
	if len(details) > 0 {
		return chaterrs.E(http.StatusBadRequest, "invalid user", details)
	}

	return nil
}

func (u updateUserReq) Validate() error {
	if u.Email == "" {
		return nil
	}
	if _, err := mail.ParseAddress(u.Email); err != nil {
		return chaterrs.E(http.StatusBadRequest, "invalid user", chaterrs.Detail{Field: "email", Error: "must be a valid address"})
	}

	return nil
}

func (s *Server) getUsers(w http.ResponseWriter, r *http.Request) error {
	limit, offset := parsePaginationParams(r, defaultLimit, maxLimit)

	users, err := s.repo.Users(r.Context(), offset, limit)
	if err != nil {
		return err
	}

	return serverutil.WriteJSON(w, http.StatusOK, users)
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "Invalid user ID")
	if err != nil {
		return err
	}

	usr, err := s.repo.User(r.Context(), id)
	if err != nil {
		return storeErr(err, "User not found")
	}

	return serverutil.WriteJSON(w, http.StatusOK, usr)
}

func (s *Server) postUser(w http.ResponseWriter, r *http.Request) error {
	req, err := serverutil.DecodeValid[createUserReq](r.Body)
	if err != nil {
		return err
	}

	usr, err := s.repo.InsertUser(r.Context(), chatter.User{
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Email:     strings.TrimSpace(req.Email),
	})
	if errors.Is(err, chatter.ErrConflict) {
		return chaterrs.E(err, "Email already in use", http.StatusConflict)
	}
	if err != nil {
		return err
	}

	return serverutil.WriteJSON(w, http.StatusCreated, usr)
}

func (s *Server) putUser(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "Invalid user ID")
	if err != nil {
		return err
	}
	req, err := serverutil.DecodeValid[updateUserReq](r.Body)
	if err != nil {
		return err
	}

	usr, err := s.repo.UpdateUser(r.Context(), id, chatter.UpdateUserArgs{
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Email:     strings.TrimSpace(req.Email),
	})
	if errors.Is(err, chatter.ErrConflict) {
		return chaterrs.E(err, "Email already in use", http.StatusConflict)
	}
	if err != nil {
		return storeErr(err, "User not found")
	}

	return serverutil.WriteJSON(w, http.StatusOK, usr)
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "Invalid user ID")
	if err != nil {
		return err
	}

	if err := s.repo.DeleteUser(r.Context(), id); err != nil {
		return storeErr(err, "User not found")
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}
