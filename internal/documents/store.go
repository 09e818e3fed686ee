// Package documents stores uploaded files on local disk and turns them into
// text for question answering.
package documents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"docqa/internal/models"
	"docqa/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultMaxUploadSize = 10 * 1024 * 1024
	sidecarSuffix        = ".extracted.txt"
)

var DefaultAllowedExtensions = []string{"txt", "pdf", "doc", "docx"}

var contentTypes = map[string]string{
	"txt":  "text/plain",
	"pdf":  "application/pdf",
	"doc":  "application/msword",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// ContentType maps a file name to its MIME type by extension.
func ContentType(filename string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if ct, ok := contentTypes[ext]; ok {
		return ct
	}
	return "application/octet-stream"
}

// Catalog persists document records. storage.DocumentRepo implements it.
type Catalog interface {
	UpsertDocument(ctx context.Context, d models.Document) error
	ListDocuments(ctx context.Context) ([]models.Document, error)
}

type Config struct {
	Dir               string
	MaxUploadSize     int64
	AllowedExtensions []string
}

type Option func(*Store)

func WithCatalog(c Catalog) Option {
	return func(s *Store) {
		s.catalog = c
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

type Store struct {
	dir     string
	maxSize int64
	exts    []string
	catalog Catalog
	log     *zap.Logger
	now     func() time.Time
}

func NewStore(cfg Config, opts ...Option) (*Store, error) {
	if cfg.Dir == "" {
		cfg.Dir = "./uploads"
	}
	if cfg.MaxUploadSize <= 0 {
		cfg.MaxUploadSize = DefaultMaxUploadSize
	}
	exts := make([]string, 0, len(cfg.AllowedExtensions))
	for _, e := range cfg.AllowedExtensions {
		e = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(e), "."))
		if e != "" {
			exts = append(exts, e)
		}
	}
	if len(exts) == 0 {
		exts = append(exts, DefaultAllowedExtensions...)
	}
	if err := util.EnsureDir(cfg.Dir); err != nil {
		return nil, err
	}
	s := &Store{
		dir:     cfg.Dir,
		maxSize: cfg.MaxUploadSize,
		exts:    exts,
		log:     zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) allowed(ext string) bool {
	for _, e := range s.exts {
		if e == ext {
			return true
		}
	}
	return false
}

// Save validates and writes an upload as <id>.<ext> under the store dir.
// Partially written files are removed on any failure.
func (s *Store) Save(ctx context.Context, filename string, r io.Reader) (models.Document, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filepath.Base(filename)), "."))
	if strings.TrimSpace(filename) == "" || !s.allowed(ext) {
		return models.Document{}, fmt.Errorf("%w: allowed types are %s", util.ErrInvalidFileType, strings.Join(s.exts, ", "))
	}

	tmp, err := os.CreateTemp(s.dir, "upload-*.part")
	if err != nil {
		return models.Document{}, fmt.Errorf("create temp file: %w", err)
	}
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmp.Name())
		}
	}()

	n, err := io.Copy(tmp, io.LimitReader(r, s.maxSize+1))
	if err != nil {
		return models.Document{}, fmt.Errorf("write upload: %w", err)
	}
	if n > s.maxSize {
		return models.Document{}, fmt.Errorf("%w: limit is %d bytes", util.ErrFileTooLarge, s.maxSize)
	}
	if err := tmp.Close(); err != nil {
		return models.Document{}, fmt.Errorf("close upload: %w", err)
	}

	id := uuid.NewString()
	finalPath := filepath.Join(s.dir, id+"."+ext)
	if err := os.Rename(tmp.Name(), finalPath); err != nil {
		return models.Document{}, fmt.Errorf("atomic move upload: %w", err)
	}
	committed = true

	doc := models.Document{
		ID:               id,
		Filename:         filepath.Base(finalPath),
		OriginalFilename: filepath.Base(filename),
		Size:             n,
		ContentType:      ContentType(finalPath),
		Status:           models.DocumentStatusUploaded,
		UploadDate:       s.now().UTC(),
	}
	if s.catalog != nil {
		if err := s.catalog.UpsertDocument(ctx, doc); err != nil {
			_ = os.Remove(finalPath)
			return models.Document{}, err
		}
	}
	s.log.Info("document saved",
		zap.String("document_id", id),
		zap.String("filename", doc.OriginalFilename),
		zap.Int64("size", n),
	)
	return doc, nil
}

// Path probes <id>.<ext> for each allowed extension.
func (s *Store) Path(ctx context.Context, documentID string) (string, error) {
	_ = ctx
	id := strings.TrimSpace(documentID)
	if id == "" || id != filepath.Base(id) || strings.HasPrefix(id, ".") {
		return "", fmt.Errorf("%w: %q", util.ErrDocumentNotFound, documentID)
	}
	for _, ext := range s.exts {
		p := filepath.Join(s.dir, id+"."+ext)
		if util.RegularFileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %s", util.ErrDocumentNotFound, id)
}

// SidecarPath is where pre-extracted text for a document is kept.
func (s *Store) SidecarPath(documentID string) string {
	return util.SafeJoin(s.dir, documentID+sidecarSuffix)
}

// Content resolves and reads a document.
func (s *Store) Content(ctx context.Context, documentID string) (string, error) {
	p, err := s.Path(ctx, documentID)
	if err != nil {
		return "", err
	}
	return s.Read(ctx, p)
}

// Read returns the text of a stored file. Pre-extracted sidecar text wins
// over the original file.
func (s *Store) Read(ctx context.Context, path string) (string, error) {
	_ = ctx
	id := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if b, err := os.ReadFile(s.SidecarPath(id)); err == nil {
		return util.SanitizeText(DecodeText(b)), nil
	}
	text, err := ExtractText(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", util.ErrDocumentNotFound, id)
		}
		return "", err
	}
	return text, nil
}

// List returns the catalog when one is configured, otherwise a scan of the
// upload dir, newest first.
func (s *Store) List(ctx context.Context) ([]models.Document, error) {
	if s.catalog != nil {
		return s.catalog.ListDocuments(ctx)
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read upload dir: %w", err)
	}
	out := make([]models.Document, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		name := e.Name()
		ext := strings.TrimPrefix(filepath.Ext(name), ".")
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		if stem == "" || strings.Contains(stem, ".") || !s.allowed(strings.ToLower(ext)) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, models.Document{
			ID:          stem,
			Filename:    name,
			Size:        info.Size(),
			ContentType: ContentType(name),
			UploadDate:  info.ModTime().UTC(),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UploadDate.After(out[j].UploadDate)
	})
	return out, nil
}
