// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Penwright Contributors

package web

import "net/http"

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.HandleFunc("GET /about", s.handlePage("about"))
	mux.HandleFunc("GET /contact", s.handlePage("contact"))

	mux.HandleFunc("GET /register", s.handleRegisterForm)
	mux.HandleFunc("POST /register", s.handleRegister)
	mux.HandleFunc("GET /login", s.handleLoginForm)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("GET /logout", s.handleLogout)

	mux.HandleFunc("GET /post/{id}", s.requireLogin(s.handleShowPost))
	mux.HandleFunc("POST /post/{id}", s.requireLogin(s.handleAddComment))

	// Creating and editing posts needs no login and editing has no
	// ownership check. Deletion is the only admin-gated post route.
	mux.HandleFunc("GET /new-post", s.handleNewPostForm)
	mux.HandleFunc("POST /new-post", s.handleCreatePost)
	mux.HandleFunc("GET /edit-post/{id}", s.handleEditPostForm)
	mux.HandleFunc("POST /edit-post/{id}", s.handleEditPost)
	mux.HandleFunc("GET /delete/{id}", s.handleDeletePost)

	// The user directory is served to anyone, including the purge.
	mux.HandleFunc("GET /users", s.handleListUsers)
	mux.HandleFunc("GET /purge-database", s.handlePurge)

	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	return mux
}
