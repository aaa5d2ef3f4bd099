// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Penwright Contributors

package web

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/penwright/penwright/internal/auth"
	"github.com/penwright/penwright/internal/blog"
	"github.com/penwright/penwright/pkg/errutil"
)

var (
	registerFields = []string{"f_name", "l_name", "email", "password"}
	loginFields    = []string{"email", "password"}
	postFields     = []string{"title", "subtitle", "img_url", "body"}
	commentFields  = []string{"text"}
)

var pages = map[string]map[string]string{
	"about": {
		"title":    "About Me",
		"subtitle": "This is what I do.",
	},
	"contact": {
		"title":    "Contact Me",
		"subtitle": "Have questions? I have answers.",
	},
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	posts, err := s.blog.ListPosts(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	views := make([]postView, 0, len(posts))
	for _, p := range posts {
		views = append(views, newPostView(p))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"posts":        views,
		"current_user": newUserView(auth.IdentityFrom(r.Context())),
		"flashes":      s.takeFlashes(w, r),
	})
}

func (s *Server) handlePage(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"page":         name,
			"content":      pages[name],
			"current_user": newUserView(auth.IdentityFrom(r.Context())),
			"flashes":      s.takeFlashes(w, r),
		})
	}
}

func (s *Server) form(w http.ResponseWriter, r *http.Request, name, action string, fields []string) formView {
	return formView{
		Form:    name,
		Action:  action,
		Fields:  fields,
		User:    newUserView(auth.IdentityFrom(r.Context())),
		Flashes: s.takeFlashes(w, r),
	}
}

func (s *Server) handleRegisterForm(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.form(w, r, "register", "/register", registerFields))
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "malformed form")
		return
	}
	in := auth.RegisterInput{
		FirstName: r.PostFormValue("f_name"),
		LastName:  r.PostFormValue("l_name"),
		Email:     strings.TrimSpace(r.PostFormValue("email")),
		Password:  r.PostFormValue("password"),
	}

	result, err := s.auth.Register(r.Context(), in, clientInfo(r))
	if err != nil {
		if errutil.HasCode(err, auth.CodeDuplicateEmail) {
			s.addFlash(w, r, FlashWarning, fmt.Sprintf("User with email (%s) exists.", in.Email))
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		s.fail(w, r, err)
		return
	}

	s.setSessionCookie(w, result.Token, result.Session.ExpiresAt)
	s.addFlash(w, r, FlashSuccess, "User registered successfully.")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.form(w, r, "login", "/login", loginFields))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "malformed form")
		return
	}
	email := strings.TrimSpace(r.PostFormValue("email"))

	result, err := s.auth.Login(r.Context(), email, r.PostFormValue("password"), clientInfo(r))
	switch {
	case err == nil:
	case errutil.HasCode(err, auth.CodeUnknownUser):
		s.addFlash(w, r, FlashDanger, fmt.Sprintf("User with email (%s) does not exist. Register user.", email))
		http.Redirect(w, r, "/register", http.StatusSeeOther)
		return
	case errutil.HasCode(err, auth.CodeWrongPassword):
		s.addFlash(w, r, FlashDanger, "Wrong password! Try again.")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	default:
		s.fail(w, r, err)
		return
	}

	s.setSessionCookie(w, result.Token, result.Session.ExpiresAt)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if ident := auth.IdentityFrom(r.Context()); ident != nil {
		if err := s.auth.Logout(r.Context(), ident.SessionID); err != nil {
			errutil.LogErrorContext(r.Context(), s.logger, "logout failed", err)
		}
	}
	s.clearSessionCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleShowPost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	post, err := s.blog.GetPost(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	comments, err := s.blog.ListComments(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	views := make([]commentView, 0, len(comments))
	for _, c := range comments {
		views = append(views, newCommentView(c))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"post":         newPostView(post),
		"comments":     views,
		"comment_form": formView{Form: "comment", Action: r.URL.Path, Fields: commentFields},
		"current_user": newUserView(auth.IdentityFrom(r.Context())),
		"flashes":      s.takeFlashes(w, r),
	})
}

func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "malformed form")
		return
	}

	if _, err := s.blog.AddComment(r.Context(), id, r.PostFormValue("text")); err != nil {
		if errutil.HasCode(err, blog.CodeUnauthenticated) {
			s.addFlash(w, r, FlashWarning, "Submission failed! You need to login or register to comment.")
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		s.fail(w, r, err)
		return
	}
	http.Redirect(w, r, postPath(id), http.StatusSeeOther)
}

func (s *Server) handleNewPostForm(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.form(w, r, "new-post", "/new-post", postFields))
}

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	in, ok := postInput(w, r)
	if !ok {
		return
	}
	if _, err := s.blog.CreatePost(r.Context(), in); err != nil {
		if errutil.HasCode(err, blog.CodeDuplicateTitle) {
			s.addFlash(w, r, FlashWarning, fmt.Sprintf("A post titled %q already exists.", strings.TrimSpace(in.Title)))
			http.Redirect(w, r, "/new-post", http.StatusSeeOther)
			return
		}
		s.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleEditPostForm(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	post, err := s.blog.GetPost(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	view := s.form(w, r, "edit-post", r.URL.Path, postFields)
	view.IsEdit = true
	view.Values = map[string]string{
		"title":    post.Title,
		"subtitle": post.Subtitle,
		"img_url":  post.ImgURL,
		"body":     post.Body,
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleEditPost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	in, ok := postInput(w, r)
	if !ok {
		return
	}
	if _, err := s.blog.EditPost(r.Context(), id, in); err != nil {
		if errutil.HasCode(err, blog.CodeDuplicateTitle) {
			s.addFlash(w, r, FlashWarning, fmt.Sprintf("A post titled %q already exists.", strings.TrimSpace(in.Title)))
			http.Redirect(w, r, "/edit-post/"+strconv.FormatInt(id, 10), http.StatusSeeOther)
			return
		}
		s.fail(w, r, err)
		return
	}
	http.Redirect(w, r, postPath(id), http.StatusSeeOther)
}

func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.blog.DeletePost(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.directory.ListUsers(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if users == nil {
		users = []*auth.User{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"users":        users,
		"current_user": newUserView(auth.IdentityFrom(r.Context())),
		"flashes":      s.takeFlashes(w, r),
	})
}

func (s *Server) handlePurge(w http.ResponseWriter, r *http.Request) {
	n, err := s.directory.PurgeAllUsers(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.logger.WarnContext(r.Context(), "user directory purged over http", "count", n, "remote_addr", r.RemoteAddr)
	s.clearSessionCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// pathID parses the {id} path value, answering 404 when it is not a
// positive integer.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusNotFound, "not found")
		return 0, false
	}
	return id, true
}

func postInput(w http.ResponseWriter, r *http.Request) (blog.PostInput, bool) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "malformed form")
		return blog.PostInput{}, false
	}
	return blog.PostInput{
		Title:    r.PostFormValue("title"),
		Subtitle: r.PostFormValue("subtitle"),
		ImgURL:   r.PostFormValue("img_url"),
		Body:     r.PostFormValue("body"),
	}, true
}

func postPath(id int64) string {
	return "/post/" + strconv.FormatInt(id, 10)
}
