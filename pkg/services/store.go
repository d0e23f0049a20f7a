package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"article-cms/pkg/models"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var ErrInvalidPath = errors.New("invalid article path")

// Document is one raw file of the collection. Path is slash separated and
// relative to the content directory.
type Document struct {
	Path    string
	Source  []byte
	ModTime time.Time
}

// Store gives access to the article collection on disk and caches what it
// read until Invalidate is called.
type Store struct {
	repoPath    string
	contentDir  string
	concurrency int
	git         *Git
	logger      *zap.Logger

	mu       sync.Mutex
	docs     []Document
	articles []models.Article
	loaded   bool
}

func NewStore(repoPath, contentDir string, concurrency int, git *Git, logger *zap.Logger) *Store {
	if concurrency <= 0 {
		concurrency = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		repoPath:    repoPath,
		contentDir:  contentDir,
		concurrency: concurrency,
		git:         git,
		logger:      logger,
	}
}

// Root is the content directory on disk.
func (s *Store) Root() string {
	return filepath.Join(s.repoPath, s.contentDir)
}

func SafeJoin(root, sub, target string) string {
	cleanTarget := filepath.Clean(filepath.FromSlash(target))
	if filepath.IsAbs(cleanTarget) || cleanTarget == ".." || strings.HasPrefix(cleanTarget, ".."+string(filepath.Separator)) {
		return ""
	}
	return filepath.Join(root, sub, cleanTarget)
}

// ContentPath resolves an article path to a file inside the content directory.
func (s *Store) ContentPath(p string) (string, error) {
	p = strings.TrimPrefix(strings.TrimSpace(p), "/")
	if p == "" || !strings.HasSuffix(p, ".md") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	full := SafeJoin(s.repoPath, s.contentDir, p)
	if full == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	return full, nil
}

func (s *Store) load(ctx context.Context) error {
	if s.loaded {
		return nil
	}

	root := s.Root()
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".md") {
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			paths = append(paths, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("walk %s: %w", root, err)
	}
	sort.Strings(paths)

	docs := make([]Document, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, rel := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			doc, err := s.readDocument(rel)
			if err != nil {
				return err
			}
			docs[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	dirty := map[string]bool{}
	if s.git != nil {
		if files, err := s.git.DirtyFiles(ctx); err == nil {
			dirty = files
		} else {
			s.logger.Debug("git status unavailable", zap.Error(err))
		}
	}

	articles := make([]models.Article, 0, len(docs))
	for _, doc := range docs {
		articles = append(articles, s.summarize(doc, dirty))
	}

	s.docs = docs
	s.articles = articles
	s.loaded = true
	s.logger.Info("article collection loaded", zap.String("root", root), zap.Int("articles", len(docs)))
	return nil
}

func (s *Store) readDocument(rel string) (Document, error) {
	full := filepath.Join(s.Root(), filepath.FromSlash(rel))
	content, err := os.ReadFile(full)
	if err != nil {
		return Document{}, fmt.Errorf("read %s: %w", rel, err)
	}
	info, err := os.Stat(full)
	if err != nil {
		return Document{}, fmt.Errorf("stat %s: %w", rel, err)
	}
	return Document{Path: rel, Source: content, ModTime: info.ModTime()}, nil
}

// summarize builds the listing entry for doc. Documents that fail to parse
// stay listed with their path as title.
func (s *Store) summarize(doc Document, dirty map[string]bool) models.Article {
	repoRel := filepath.ToSlash(filepath.Join(s.contentDir, doc.Path))
	entry := models.Article{
		Path:    doc.Path,
		Slug:    SlugForPath(doc.Path),
		Title:   doc.Path,
		IsDirty: dirty[repoRel],
	}

	article, err := ParseArticle(doc.Path, doc.Source)
	if article != nil {
		if article.Title != "" {
			entry.Title = article.Title
		}
		entry.Description = article.Description
		entry.Date = article.Date
	}
	if err != nil {
		entry.Error = err.Error()
	}
	return entry
}

// Documents returns every document of the collection sorted by path.
func (s *Store) Documents(ctx context.Context) ([]Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	return append([]Document(nil), s.docs...), nil
}

// Articles returns the listing of the collection sorted by path.
func (s *Store) Articles(ctx context.Context) ([]models.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	return append([]models.Article(nil), s.articles...), nil
}

// Get reads one document straight from disk.
func (s *Store) Get(ctx context.Context, p string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	if _, err := s.ContentPath(p); err != nil {
		return Document{}, err
	}
	return s.readDocument(strings.TrimPrefix(filepath.ToSlash(p), "/"))
}

// Save replaces the content of an existing article. Articles are edited in
// place; Save never creates files.
func (s *Store) Save(ctx context.Context, p string, content []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := s.ContentPath(p)
	if err != nil {
		return err
	}
	info, err := os.Stat(full)
	if err != nil {
		return err
	}
	if err := os.WriteFile(full, content, info.Mode().Perm()); err != nil {
		return fmt.Errorf("save %s: %w", p, err)
	}
	s.Invalidate()
	return nil
}

// Create writes a new article. It fails with os.ErrExist when the path is
// taken.
func (s *Store) Create(ctx context.Context, p string, content []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := s.ContentPath(p)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", p, err)
	}
	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(content); err != nil {
		f.Close()
		return fmt.Errorf("create %s: %w", p, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("create %s: %w", p, err)
	}
	s.Invalidate()
	return nil
}

func (s *Store) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = false
	s.docs = nil
	s.articles = nil
}
