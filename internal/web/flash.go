// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Penwright Contributors

package web

import (
	"net/http"

	"github.com/gorilla/securecookie"
	"github.com/samber/oops"
)

const flashCookieName = "penwright_flash"

// Flash categories.
const (
	FlashSuccess = "success"
	FlashWarning = "warning"
	FlashDanger  = "danger"
	FlashInfo    = "info"
)

// Flash is a one-shot notice shown on the next view.
type Flash struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

// flashMaxAge bounds how long a flash cookie stays valid, in seconds.
const flashMaxAge = 10 * 60

// newFlashCodec signs flash lists with HMAC-SHA256 under key and encodes
// them as JSON. Values older than flashMaxAge fail to decode.
func newFlashCodec(key []byte) *securecookie.SecureCookie {
	return securecookie.New(key, nil).
		MaxAge(flashMaxAge).
		SetSerializer(securecookie.JSONEncoder{})
}

func (s *Server) encodeFlashes(flashes []Flash) (string, error) {
	value, err := s.flashes.Encode(flashCookieName, flashes)
	if err != nil {
		return "", oops.Code("FLASH_ENCODE_FAILED").Wrap(err)
	}
	return value, nil
}

func (s *Server) decodeFlashes(value string) ([]Flash, error) {
	var flashes []Flash
	if err := s.flashes.Decode(flashCookieName, value, &flashes); err != nil {
		return nil, oops.Code("FLASH_INVALID").Wrap(err)
	}
	return flashes, nil
}

// pendingFlashes returns the flashes carried by the request cookie.
// Unsigned or malformed cookies yield none.
func (s *Server) pendingFlashes(r *http.Request) []Flash {
	cookie, err := r.Cookie(flashCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	flashes, err := s.decodeFlashes(cookie.Value)
	if err != nil {
		s.logger.DebugContext(r.Context(), "discarding flash cookie", "error", err)
		return nil
	}
	return flashes
}

// addFlash appends a notice to the flash cookie for the next view.
func (s *Server) addFlash(w http.ResponseWriter, r *http.Request, category, message string) {
	flashes := append(s.pendingFlashes(r), Flash{Category: category, Message: message})
	value, err := s.encodeFlashes(flashes)
	if err != nil {
		s.logger.WarnContext(r.Context(), "best-effort flash failed", "operation", "encode_flash", "error", err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   flashMaxAge,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// takeFlashes returns pending flashes and clears the cookie.
func (s *Server) takeFlashes(w http.ResponseWriter, r *http.Request) []Flash {
	flashes := s.pendingFlashes(r)
	if _, err := r.Cookie(flashCookieName); err == nil {
		http.SetCookie(w, &http.Cookie{
			Name:     flashCookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   s.secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
	if flashes == nil {
		return []Flash{}
	}
	return flashes
}
