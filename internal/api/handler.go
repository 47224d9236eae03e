package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"Postline/internal/service"
)

// ----------------------------
// Users
// ----------------------------

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in service.RegisterInput
	if !decodeJSON(w, r, &in) {
		return
	}

	user, err := s.Users.Register(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in service.LoginInput
	if !decodeJSON(w, r, &in) {
		return
	}

	tok, err := s.Users.Login(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.Log.Info("login successful", zap.String("username", in.Username))
	writeJSON(w, http.StatusOK, tok)
}

// ----------------------------
// Posts
// ----------------------------

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	in, up, cleanup, ok := s.readPostForm(w, r)
	if !ok {
		return
	}
	defer cleanup()

	post, err := s.Posts.Create(r.Context(), userID, in, up)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	fields := []zap.Field{zap.Int64("post_id", post.ID), zap.Int64("user_id", userID)}
	if u, ok := currentUser(r.Context()); ok {
		fields = append(fields, zap.String("created_by", u.Username))
	}
	s.Log.Info("post created", fields...)

	writeJSON(w, http.StatusOK, post)
}

func (s *Server) handleUpdatePost(w http.ResponseWriter, r *http.Request) {
	postID, ok := pathID(w, r, "postID")
	if !ok {
		return
	}
	in, up, cleanup, ok := s.readPostForm(w, r)
	if !ok {
		return
	}
	defer cleanup()

	post, err := s.Posts.Update(r.Context(), postID, in, up)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := s.Posts.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	postID, ok := pathID(w, r, "postID")
	if !ok {
		return
	}
	post, err := s.Posts.Get(r.Context(), postID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	postID, ok := pathID(w, r, "postID")
	if !ok {
		return
	}
	post, err := s.Posts.Delete(r.Context(), postID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// readPostForm accepts title and content as form fields or query parameters
// and an optional "file" part. cleanup releases temporary upload files.
func (s *Server) readPostForm(w http.ResponseWriter, r *http.Request) (service.PostInput, *service.Upload, func(), bool) {
	noop := func() {}
	if s.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.MaxUploadBytes)
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeDetail(w, http.StatusRequestEntityTooLarge, "upload too large")
		} else {
			writeDetail(w, http.StatusBadRequest, "invalid form data")
		}
		return service.PostInput{}, nil, noop, false
	}
	cleanup := noop
	if r.MultipartForm != nil {
		cleanup = func() { _ = r.MultipartForm.RemoveAll() }
	}

	in := service.PostInput{
		Title:   r.FormValue("title"),
		Content: r.FormValue("content"),
	}

	file, header, err := r.FormFile("file")
	switch {
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return in, nil, cleanup, true
	case err != nil:
		cleanup()
		writeDetail(w, http.StatusBadRequest, "invalid file upload")
		return service.PostInput{}, nil, noop, false
	}

	closeAll := func() {
		_ = file.Close()
		cleanup()
	}
	return in, &service.Upload{Filename: header.Filename, Body: file}, closeAll, true
}

// ----------------------------
// Profiles
// ----------------------------

func (s *Server) handleCreateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	var in service.ProfileInput
	if !decodeJSON(w, r, &in) {
		return
	}

	p, err := s.Profiles.Create(r.Context(), userID, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	p, err := s.Profiles.Get(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	var in service.ProfileUpdate
	if !decodeJSON(w, r, &in) {
		return
	}

	p, err := s.Profiles.Update(r.Context(), userID, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	p, err := s.Profiles.Delete(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// ----------------------------
// Broadcast
// ----------------------------

func (s *Server) handleBroadcast(w http.ResponseWriter, r *http.Request) {
	if s.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.MaxUploadBytes)
	}
	file, _, err := r.FormFile("recipients")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeDetail(w, http.StatusRequestEntityTooLarge, "upload too large")
		} else {
			writeDetail(w, http.StatusBadRequest, "recipients csv is required")
		}
		return
	}
	defer file.Close()
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}

	in := service.BroadcastInput{
		Subject: r.FormValue("subject"),
		Body:    r.FormValue("body"),
	}
	res, err := s.Broadcasts.Enqueue(r.Context(), in, file)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if u, ok := currentUser(r.Context()); ok {
		s.Log.Info("broadcast queued", zap.String("requested_by", u.Username), zap.Int("queued", res.Queued))
	}
	writeJSON(w, http.StatusAccepted, res)
}

// ----------------------------
// Integrations
// ----------------------------

func (s *Server) handleTaskMessages(w http.ResponseWriter, r *http.Request) {
	var in service.TaskMessagesInput
	if !decodeJSON(w, r, &in) {
		return
	}
	if in.TaskID <= 0 {
		writeDetail(w, http.StatusBadRequest, "task_id is required")
		return
	}

	s.Log.Info("fetching task messages", zap.Int64("task_id", in.TaskID))
	tm, err := s.TaskMessages.Fetch(r.Context(), in.TaskID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tm)
}

func (s *Server) handleSyncHotel(w http.ResponseWriter, r *http.Request) {
	hotel, err := s.Hotels.Sync(r.Context(), chi.URLParam(r, "hotelID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, hotel)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		writeDetail(w, http.StatusBadRequest, fmt.Sprintf("invalid %s", name))
		return 0, false
	}
	return id, true
}
