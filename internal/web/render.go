// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Penwright Contributors

package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/samber/oops"

	"github.com/penwright/penwright/internal/access"
	"github.com/penwright/penwright/internal/auth"
	"github.com/penwright/penwright/internal/blog"
	"github.com/penwright/penwright/pkg/errutil"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
	Field string `json:"field,omitempty"`
}

type userView struct {
	ID        int64     `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Role      auth.Role `json:"role"`
}

type postView struct {
	ID         int64  `json:"id"`
	AuthorID   *int64 `json:"author_id"`
	AuthorName string `json:"author_name"`
	Title      string `json:"title"`
	Subtitle   string `json:"subtitle"`
	Date       string `json:"date"`
	Body       string `json:"body"`
	ImgURL     string `json:"img_url"`
}

type commentView struct {
	ID         int64  `json:"id"`
	PostID     int64  `json:"post_id"`
	AuthorID   *int64 `json:"author_id"`
	AuthorName string `json:"author_name"`
	Text       string `json:"text"`
}

// formView describes a form for clients that render their own markup.
type formView struct {
	Form    string            `json:"form"`
	Action  string            `json:"action"`
	Fields  []string          `json:"fields"`
	Values  map[string]string `json:"values,omitempty"`
	IsEdit  bool              `json:"is_edit,omitempty"`
	User    *userView         `json:"current_user"`
	Flashes []Flash           `json:"flashes"`
}

func newUserView(id *auth.Identity) *userView {
	if id == nil {
		return nil
	}
	return &userView{ID: id.UserID, FirstName: id.FirstName, LastName: id.LastName, Email: id.Email, Role: id.Role}
}

func newPostView(p *blog.Post) postView {
	return postView{
		ID:         p.ID,
		AuthorID:   p.AuthorID,
		AuthorName: p.AuthorName,
		Title:      p.Title,
		Subtitle:   p.Subtitle,
		Date:       p.Date,
		Body:       p.Body,
		ImgURL:     p.ImgURL,
	}
}

func newCommentView(c *blog.Comment) commentView {
	return commentView{ID: c.ID, PostID: c.PostID, AuthorID: c.AuthorID, AuthorName: c.AuthorName, Text: c.Text}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	//nolint:errchkjson,errcheck // client may disconnect
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// fail maps a service error to a response: missing rows are 404, denied
// capabilities 403, bad input 400 and everything else a logged 500.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := errutil.Code(err)
	switch {
	case errors.Is(err, blog.ErrNotFound), errors.Is(err, auth.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found", Code: code})
	case errors.Is(err, access.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "forbidden", Code: code})
	case code == blog.CodeInvalidInput, code == auth.CodeInvalidInput:
		resp := errorResponse{Error: publicMessage(err), Code: code}
		var verr *blog.ValidationError
		if errors.As(err, &verr) {
			resp.Field = verr.Field
		} else if field, ok := contextValue(err, "field"); ok {
			resp.Field = field
		}
		writeJSON(w, http.StatusBadRequest, resp)
	default:
		errutil.LogErrorContext(r.Context(), s.logger, "request failed", err,
			"method", r.Method, "path", r.URL.Path)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func publicMessage(err error) string {
	var verr *blog.ValidationError
	if errors.As(err, &verr) {
		return verr.Error()
	}
	if oopsErr, ok := oops.AsOops(err); ok {
		return oopsErr.Error()
	}
	return err.Error()
}

func contextValue(err error, key string) (string, bool) {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return "", false
	}
	v, ok := oopsErr.Context()[key].(string)
	return v, ok
}
