// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/cohesion-education/api/internal/imaging"
	"github.com/cohesion-education/api/internal/model"
	"github.com/cohesion-education/api/internal/store"
	"github.com/cohesion-education/api/internal/taxonomy"
	"github.com/cohesion-education/api/internal/util"
)

// Upload limits.
const (
	DefaultMaxUploadSize = 512 << 20
	DefaultUploadDir     = "./uploads"
	MaxVideoTitleLength  = 200
	posterFileName       = "poster.jpg"
	videosDir            = "videos"
)

// ErrVideoNotFound is returned for unknown video ids.
var ErrVideoNotFound = errors.New("video not found")

// videoExtensions maps allowed video types to stored file extensions.
var videoExtensions = map[string]string{
	model.MimeTypeMP4:       "mp4",
	model.MimeTypeWebM:      "webm",
	model.MimeTypeQuickTime: "mov",
	model.MimeTypeOgg:       "ogv",
}

// typesByExtension is consulted when sniffing cannot tell the container.
var typesByExtension = map[string]string{
	"mp4":  model.MimeTypeMP4,
	"m4v":  model.MimeTypeMP4,
	"webm": model.MimeTypeWebM,
	"mov":  model.MimeTypeQuickTime,
	"ogv":  model.MimeTypeOgg,
	"ogg":  model.MimeTypeOgg,
}

// VideoFieldOrder is the order validation errors are reported in.
var VideoFieldOrder = []string{"title", "taxonomy_id", "video_file", "poster_file"}

// VideoInput is a parsed create or update form.
type VideoInput struct {
	Title               string
	TaxonomyID          int64
	KeyTerms            []string
	StateStandards      []string
	CommonCoreStandards []string
	File                *multipart.FileHeader // required on create
	Poster              *multipart.FileHeader // optional
}

// ParseVideoForm reads a multipart video form. Repeated list fields are
// merged with comma or newline separated values.
func ParseVideoForm(form *multipart.Form) VideoInput {
	in := VideoInput{
		Title:               formValue(form, "title"),
		TaxonomyID:          util.ParsePositiveID(formValue(form, "taxonomy_id")),
		KeyTerms:            formList(form, "key_terms"),
		StateStandards:      formList(form, "state_standards"),
		CommonCoreStandards: formList(form, "common_core_standards"),
	}
	if files := form.File["video_file"]; len(files) > 0 {
		in.File = files[0]
	}
	if files := form.File["poster_file"]; len(files) > 0 {
		in.Poster = files[0]
	}
	return in
}

func formValue(form *multipart.Form, key string) string {
	if v := form.Value[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

func formList(form *multipart.Form, key string) []string {
	var out []string
	for _, v := range form.Value[key] {
		out = append(out, model.SplitList(v)...)
	}
	return out
}

// VideoService stores video metadata in the database and files under the
// uploads directory.
type VideoService struct {
	db        *sql.DB
	queries   *store.Queries
	taxonomy  *TaxonomyService
	posters   *imaging.Processor
	uploadDir string
	maxUpload int64
	logger    *slog.Logger
}

// NewVideoService creates a VideoService. Labels and leaf checks go through tax.
func NewVideoService(db *sql.DB, tax *TaxonomyService, uploadDir string, maxUpload int64) *VideoService {
	if uploadDir == "" {
		uploadDir = DefaultUploadDir
	}
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUploadSize
	}
	return &VideoService{
		db:        db,
		queries:   store.New(db),
		taxonomy:  tax,
		posters:   imaging.NewProcessor(imaging.PosterWidth, imaging.PosterQuality),
		uploadDir: uploadDir,
		maxUpload: maxUpload,
		logger:    slog.Default(),
	}
}

// MaxUploadSize returns the per-file limit in bytes.
func (s *VideoService) MaxUploadSize() int64 {
	return s.maxUpload
}

// Create validates in, stores the video and optional poster and inserts the
// row. Validation problems are returned as model.ValidationErrors.
func (s *VideoService) Create(ctx context.Context, in VideoInput) (model.Video, error) {
	up, verr := s.validate(ctx, in, true)
	if verr != nil {
		return model.Video{}, verr
	}

	dir := path.Join(videosDir, uuid.NewString())
	storagePath := path.Join(dir, videoFileName(up.title, up.fileType))
	size, err := s.saveVideo(storagePath, in.File)
	if err != nil {
		s.removeDir(dir)
		return model.Video{}, err
	}

	var posterPath string
	if up.poster != nil {
		posterPath = path.Join(dir, posterFileName)
		if err := s.writeFile(posterPath, up.poster.Data); err != nil {
			s.removeDir(dir)
			return model.Video{}, err
		}
	}

	id, err := s.queries.CreateVideo(ctx, store.CreateVideoParams{
		Title:               up.title,
		TaxonomyID:          in.TaxonomyID,
		FileName:            originalName(in.File),
		FileType:            up.fileType,
		FileSize:            size,
		StoragePath:         storagePath,
		PosterPath:          posterPath,
		KeyTerms:            model.StringListToJSON(in.KeyTerms),
		StateStandards:      model.StringListToJSON(in.StateStandards),
		CommonCoreStandards: model.StringListToJSON(in.CommonCoreStandards),
		CreatedAt:           time.Now().UTC(),
		CreatedBy:           actorNull(ctx),
	})
	if err != nil {
		s.removeDir(dir)
		return model.Video{}, fmt.Errorf("creating video: %w", err)
	}

	s.logger.Info("video uploaded", "category", model.EventCategoryVideo, "id", id, "title", up.title, "size", size)
	return s.Get(ctx, id)
}

// Update changes metadata and optionally replaces the video file and poster.
// Replacement files are written next to the current ones before any row is
// touched, and the row changes commit together. On failure the row and the
// current files are left as they were.
func (s *VideoService) Update(ctx context.Context, id int64, in VideoInput) (model.Video, error) {
	existing, err := s.queries.GetVideo(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Video{}, ErrVideoNotFound
	}
	if err != nil {
		return model.Video{}, fmt.Errorf("getting video %d: %w", id, err)
	}

	up, verr := s.validate(ctx, in, false)
	if verr != nil {
		return model.Video{}, verr
	}

	dir := path.Dir(existing.StoragePath)
	var written []string
	discard := func() {
		for _, rel := range written {
			s.removeFile(rel)
		}
	}

	var (
		storagePath string
		size        int64
	)
	if in.File != nil {
		storagePath = unusedPath(path.Join(dir, videoFileName(up.title, up.fileType)), existing.StoragePath)
		if size, err = s.saveVideo(storagePath, in.File); err != nil {
			return model.Video{}, err
		}
		written = append(written, storagePath)
	}

	var posterPath string
	if up.poster != nil {
		posterPath = unusedPath(path.Join(dir, posterFileName), existing.PosterPath)
		if err := s.writeFile(posterPath, up.poster.Data); err != nil {
			discard()
			return model.Video{}, err
		}
		written = append(written, posterPath)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		discard()
		return model.Video{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	qtx := s.queries.WithTx(tx)

	now := sql.NullTime{Time: time.Now().UTC(), Valid: true}
	err = qtx.UpdateVideo(ctx, store.UpdateVideoParams{
		Title:               up.title,
		TaxonomyID:          in.TaxonomyID,
		KeyTerms:            model.StringListToJSON(in.KeyTerms),
		StateStandards:      model.StringListToJSON(in.StateStandards),
		CommonCoreStandards: model.StringListToJSON(in.CommonCoreStandards),
		UpdatedAt:           now,
		UpdatedBy:           actorNull(ctx),
		ID:                  id,
	})
	if err == nil && storagePath != "" {
		err = qtx.UpdateVideoFile(ctx, store.UpdateVideoFileParams{
			FileName:    originalName(in.File),
			FileType:    up.fileType,
			FileSize:    size,
			StoragePath: storagePath,
			UpdatedAt:   now,
			UpdatedBy:   actorNull(ctx),
			ID:          id,
		})
	}
	if err == nil && posterPath != "" {
		err = qtx.UpdateVideoPoster(ctx, store.UpdateVideoPosterParams{PosterPath: posterPath, UpdatedAt: now, ID: id})
	}
	if err == nil {
		err = tx.Commit()
	}
	if err != nil {
		discard()
		return model.Video{}, fmt.Errorf("updating video %d: %w", id, err)
	}

	if storagePath != "" {
		s.removeFile(existing.StoragePath)
	}
	if posterPath != "" && existing.PosterPath != "" {
		s.removeFile(existing.PosterPath)
	}
	return s.Get(ctx, id)
}

// Get returns a video with its breadcrumb label and public URLs.
func (s *VideoService) Get(ctx context.Context, id int64) (model.Video, error) {
	row, err := s.queries.GetVideo(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Video{}, ErrVideoNotFound
	}
	if err != nil {
		return model.Video{}, fmt.Errorf("getting video %d: %w", id, err)
	}
	return s.toModel(ctx, row), nil
}

// List returns a page of videos and the total count.
func (s *VideoService) List(ctx context.Context, limit, offset int64) ([]model.Video, int64, error) {
	rows, err := s.queries.ListVideos(ctx, store.ListVideosParams{Limit: limit, Offset: offset})
	if err != nil {
		return nil, 0, fmt.Errorf("listing videos: %w", err)
	}
	total, err := s.queries.CountVideos(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("counting videos: %w", err)
	}
	out := make([]model.Video, 0, len(rows))
	for _, r := range rows {
		out = append(out, s.toModel(ctx, r))
	}
	return out, total, nil
}

// Delete removes the row and the video's directory.
func (s *VideoService) Delete(ctx context.Context, id int64) error {
	row, err := s.queries.GetVideo(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrVideoNotFound
	}
	if err != nil {
		return fmt.Errorf("getting video %d: %w", id, err)
	}
	if _, err := s.queries.DeleteVideo(ctx, id); err != nil {
		return fmt.Errorf("deleting video %d: %w", id, err)
	}
	s.removeDir(path.Dir(row.StoragePath))
	s.logger.Info("video deleted", "category", model.EventCategoryVideo, "id", id)
	return nil
}

// FindByGrade groups the videos below the root named grade by the flattened
// label of their category. Categories without videos are omitted.
func (s *VideoService) FindByGrade(ctx context.Context, grade string) (map[string][]model.Video, error) {
	root, err := s.taxonomy.FindGradeByName(ctx, grade)
	if err != nil {
		return nil, err
	}
	res, err := s.taxonomy.FlattenUnder(ctx, root.ID, 0)
	if err != nil {
		return nil, err
	}

	out := make(map[string][]model.Video)
	for _, opt := range res.Options {
		rows, err := s.queries.ListVideosByTaxonomy(ctx, opt.Value)
		if err != nil {
			return nil, fmt.Errorf("listing videos for %d: %w", opt.Value, err)
		}
		for _, r := range rows {
			v := s.baseModel(r)
			v.TaxonomyLabel = opt.Label
			out[opt.Label] = append(out[opt.Label], v)
		}
	}
	return out, nil
}

// videoUpload is a validated form: the cleaned title, the detected video
// type and the already processed poster.
type videoUpload struct {
	title    string
	fileType string
	poster   *imaging.Thumbnail
}

func (s *VideoService) validate(ctx context.Context, in VideoInput, create bool) (videoUpload, error) {
	errs := model.ValidationErrors{}
	var up videoUpload

	up.title = util.PlainText(in.Title)
	switch {
	case up.title == "":
		errs["title"] = "Title is required"
	case utf8.RuneCountInString(up.title) > MaxVideoTitleLength:
		errs["title"] = fmt.Sprintf("Title must be at most %d characters", MaxVideoTitleLength)
	}

	if in.TaxonomyID <= 0 {
		errs["taxonomy_id"] = "Taxonomy is required"
	} else if leaf, err := s.taxonomy.IsLeaf(ctx, in.TaxonomyID); err != nil {
		if !errors.Is(err, taxonomy.ErrNotFound) {
			return videoUpload{}, err
		}
		errs["taxonomy_id"] = "Taxonomy does not exist"
	} else if !leaf {
		errs["taxonomy_id"] = "Choose the most specific category"
	}

	switch {
	case in.File == nil && create:
		errs["video_file"] = "Video file is required"
	case in.File != nil:
		t, msg := s.checkVideo(in.File)
		if msg != "" {
			errs["video_file"] = msg
		}
		up.fileType = t
	}

	if in.Poster != nil {
		thumb, msg := s.preparePoster(in.Poster)
		if msg != "" {
			errs["poster_file"] = msg
		}
		up.poster = thumb
	}

	if len(errs) > 0 {
		return videoUpload{}, errs
	}
	return up, nil
}

func (s *VideoService) checkVideo(fh *multipart.FileHeader) (string, string) {
	if fh.Size > s.maxUpload {
		return "", fmt.Sprintf("Video file exceeds %d MB", s.maxUpload>>20)
	}
	if fh.Size == 0 {
		return "", "Video file is empty"
	}
	head, err := sniff(fh)
	if err != nil {
		return "", "Video file could not be read"
	}
	if t := detectVideoType(head, fh.Filename); t != "" {
		return t, ""
	}
	return "", "Video must be MP4, WebM, QuickTime or Ogg"
}

// preparePoster decodes and scales the poster so a damaged image is reported
// as a field error before anything is stored.
func (s *VideoService) preparePoster(fh *multipart.FileHeader) (*imaging.Thumbnail, string) {
	f, err := fh.Open()
	if err != nil {
		return nil, "Poster could not be read"
	}
	defer func() { _ = f.Close() }()

	thumb, err := s.posters.Thumbnail(f)
	switch {
	case errors.Is(err, imaging.ErrUnsupportedImage):
		return nil, "Poster must be a JPEG, PNG, GIF or WebP image"
	case err != nil:
		s.logger.Debug("poster rejected", "category", model.EventCategoryVideo, "file", fh.Filename, "error", err)
		return nil, "Poster image is damaged or incomplete"
	}
	return thumb, ""
}

func sniff(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return head[:n], nil
}

// saveVideo copies fh to rel, a slash-separated path relative to the uploads
// directory. A partially written file is removed.
func (s *VideoService) saveVideo(rel string, fh *multipart.FileHeader) (int64, error) {
	dst, err := s.createFile(rel)
	if err != nil {
		return 0, err
	}
	src, err := fh.Open()
	if err != nil {
		_ = dst.Close()
		s.removeFile(rel)
		return 0, fmt.Errorf("opening upload: %w", err)
	}
	defer func() { _ = src.Close() }()

	n, err := io.Copy(dst, io.LimitReader(src, s.maxUpload+1))
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		s.removeFile(rel)
		return 0, fmt.Errorf("writing video: %w", err)
	}
	if n > s.maxUpload {
		s.removeFile(rel)
		return 0, model.ValidationErrors{"video_file": fmt.Sprintf("Video file exceeds %d MB", s.maxUpload>>20)}
	}
	return n, nil
}

func (s *VideoService) writeFile(rel string, data []byte) error {
	dst, err := s.createFile(rel)
	if err != nil {
		return err
	}
	_, err = io.Copy(dst, bytes.NewReader(data))
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		s.removeFile(rel)
		return fmt.Errorf("writing %s: %w", path.Base(rel), err)
	}
	return nil
}

func videoFileName(title, fileType string) string {
	return util.Slugify(title, "video") + "." + videoExtensions[fileType]
}

// unusedPath returns rel, or rel with a random suffix before the extension
// when it equals current.
func unusedPath(rel, current string) string {
	if rel != current {
		return rel
	}
	ext := path.Ext(rel)
	return strings.TrimSuffix(rel, ext) + "-" + uuid.NewString()[:8] + ext
}

func (s *VideoService) createFile(rel string) (*os.File, error) {
	full, err := util.SafeJoinPath(s.uploadDir, filepath.FromSlash(rel))
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return nil, fmt.Errorf("creating directory: %w", err)
	}
	f, err := os.Create(full) //nolint:gosec // path validated by SafeJoinPath
	if err != nil {
		return nil, fmt.Errorf("creating file: %w", err)
	}
	return f, nil
}

func (s *VideoService) removeFile(rel string) {
	full, err := util.SafeJoinPath(s.uploadDir, filepath.FromSlash(rel))
	if err != nil {
		return
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("failed to remove video file", "category", model.EventCategoryVideo, "path", rel, "error", err)
	}
}

func (s *VideoService) removeDir(rel string) {
	if rel == "" || rel == "." || !strings.HasPrefix(rel, videosDir+"/") {
		return
	}
	full, err := util.SafeJoinPath(s.uploadDir, filepath.FromSlash(rel))
	if err != nil {
		return
	}
	if err := os.RemoveAll(full); err != nil {
		s.logger.Warn("failed to remove video directory", "category", model.EventCategoryVideo, "path", rel, "error", err)
	}
}

// VideoFile is an opened stored video. The caller closes File.
type VideoFile struct {
	Video   model.Video
	File    *os.File
	ModTime time.Time
}

// Open returns the stored file of video id for streaming.
func (s *VideoService) Open(ctx context.Context, id int64) (*VideoFile, error) {
	row, err := s.queries.GetVideo(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrVideoNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting video %d: %w", id, err)
	}
	full, err := s.FullPath(row.StoragePath)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full) //nolint:gosec // path validated by SafeJoinPath
	if os.IsNotExist(err) {
		s.logger.Warn("video file missing", "category", model.EventCategoryVideo, "id", id, "path", row.StoragePath)
		return nil, ErrVideoNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("opening video %d: %w", id, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat video %d: %w", id, err)
	}
	return &VideoFile{Video: s.baseModel(row), File: f, ModTime: info.ModTime()}, nil
}

// FullPath resolves a stored relative path under the uploads directory.
func (s *VideoService) FullPath(rel string) (string, error) {
	return util.SafeJoinPath(s.uploadDir, filepath.FromSlash(rel))
}

func (s *VideoService) baseModel(r store.Video) model.Video {
	v := model.Video{
		ID:                  r.ID,
		Title:               r.Title,
		TaxonomyID:          r.TaxonomyID,
		FileName:            r.FileName,
		FileType:            r.FileType,
		FileSize:            r.FileSize,
		URL:                 "/uploads/" + r.StoragePath,
		KeyTerms:            model.ParseStringList(r.KeyTerms),
		StateStandards:      model.ParseStringList(r.StateStandards),
		CommonCoreStandards: model.ParseStringList(r.CommonCoreStandards),
		Created:             r.CreatedAt,
		CreatedBy:           model.NullInt64Ptr(r.CreatedBy),
		Updated:             model.NullTimePtr(r.UpdatedAt),
		UpdatedBy:           model.NullInt64Ptr(r.UpdatedBy),
	}
	if r.PosterPath != "" {
		v.PosterURL = "/uploads/" + r.PosterPath
	}
	return v
}

func (s *VideoService) toModel(ctx context.Context, r store.Video) model.Video {
	v := s.baseModel(r)
	label, err := s.taxonomy.Label(ctx, r.TaxonomyID)
	if err != nil {
		s.logger.Warn("failed to resolve video taxonomy label", "category", model.EventCategoryVideo, "video_id", r.ID, "error", err)
	}
	v.TaxonomyLabel = label
	return v
}

func originalName(fh *multipart.FileHeader) string {
	if name, err := util.SanitizeFilename(fh.Filename); err == nil {
		return name
	}
	return "upload"
}

// detectVideoType sniffs head and falls back to the file extension only
// when sniffing is inconclusive. It returns "" for disallowed types.
func detectVideoType(head []byte, filename string) string {
	t := imaging.DetectMimeType(head)
	if t == "application/ogg" {
		t = model.MimeTypeOgg
	}
	if _, ok := videoExtensions[t]; ok {
		return t
	}
	if t == "application/octet-stream" {
		return typesByExtension[util.Ext(filename)]
	}
	return ""
}
