package handlers

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"

	"article-cms/pkg/models"
	"article-cms/pkg/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// API serves the article collection to the editor.
type API struct {
	Store         *services.Store
	Renderer      *services.Renderer
	Checker       *services.Checker
	Git           *services.Git
	ContentDir    string
	RepoPath      string
	CMSConfigPath string
	Logger        *zap.Logger
}

func (a *API) logger() *zap.Logger {
	if a.Logger == nil {
		return zap.NewNop()
	}
	return a.Logger
}

func (a *API) cmsConfig() *models.CMSConfig {
	cfg, err := services.GetCMSConfig(a.RepoPath, a.CMSConfigPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			a.logger().Warn("cms config unreadable", zap.Error(err))
		}
		return nil
	}
	return cfg
}

// abortWithError maps store and content errors onto HTTP statuses.
func abortWithError(c *gin.Context, err error, msg string) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrInvalidPath):
		status = http.StatusBadRequest
		msg = "Invalid path"
	case errors.Is(err, fs.ErrNotExist):
		status = http.StatusNotFound
		msg = "File not found"
	case errors.Is(err, fs.ErrExist):
		status = http.StatusConflict
		msg = "File already exists"
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

func sessionToken(c *gin.Context) (string, bool) {
	token, ok := sessions.Default(c).Get("access_token").(string)
	return token, ok && token != ""
}

func (a *API) HandleSync(c *gin.Context) {
	token, ok := sessionToken(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "GitHub login required"})
		return
	}
	log, err := a.Git.Sync(c.Request.Context(), token)
	a.Store.Invalidate()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "log": log})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "log": log})
}

func (a *API) HandlePublish(c *gin.Context) {
	token, ok := sessionToken(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "GitHub login required"})
		return
	}
	log, err := a.Git.Publish(c.Request.Context(), token)
	a.Store.Invalidate()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "log": log})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "log": log})
}

func (a *API) ListArticles(c *gin.Context) {
	articles, err := a.Store.Articles(c.Request.Context())
	if err != nil {
		abortWithError(c, err, "Failed to fetch articles")
		return
	}
	c.JSON(http.StatusOK, articles)
}

func (a *API) GetArticle(c *gin.Context) {
	targetPath := c.Query("path")
	doc, err := a.Store.Get(c.Request.Context(), targetPath)
	if err != nil {
		abortWithError(c, err, "Failed to read article")
		return
	}

	article, err := services.ParseArticle(doc.Path, doc.Source)
	if article == nil {
		c.JSON(http.StatusOK, models.Article{
			Path:    doc.Path,
			Slug:    services.SlugForPath(doc.Path),
			Content: string(doc.Source),
			Error:   err.Error(),
		})
		return
	}
	if err != nil {
		article.Error = err.Error()
	}
	c.JSON(http.StatusOK, article)
}

// articleContent builds the file content the editor sent.
func articleContent(art *models.Article) ([]byte, error) {
	if art.FrontMatter != nil {
		format := art.Format
		if format == "" {
			format = "yaml"
		}
		return services.ConstructFileContent(art.FrontMatter, art.Body, format)
	}
	return []byte(art.Content), nil
}

func (a *API) SaveArticle(c *gin.Context) {
	var art models.Article
	if err := c.ShouldBindJSON(&art); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	content, err := articleContent(&art)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to construct file content: " + err.Error()})
		return
	}
	collection := services.FindCollection(a.cmsConfig(), a.ContentDir, art.Path)
	content = services.NormalizeContent(content, collection)

	if err := a.Store.Save(c.Request.Context(), art.Path, content); err != nil {
		abortWithError(c, err, "Save failed")
		return
	}

	resp := gin.H{"status": "saved"}
	if _, perr := services.ParseArticle(art.Path, content); perr != nil {
		resp["warning"] = perr.Error()
	}
	c.JSON(http.StatusOK, resp)
}

type createRequest struct {
	Path        string `json:"path" binding:"required"`
	Collection  string `json:"collection"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content"`
}

func newArticleOverrides(req createRequest) map[string]interface{} {
	overrides := map[string]interface{}{}
	if req.Title != "" {
		overrides["title"] = req.Title
	}
	if req.Description != "" {
		overrides["description"] = req.Description
	}
	return overrides
}

func (a *API) CreateArticle(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	if !strings.HasSuffix(req.Path, ".md") {
		req.Path += ".md"
	}

	content := []byte(req.Content)
	if req.Content == "" {
		var err error
		content, err = services.NewArticleContent(a.cmsConfig(), a.ContentDir, req.Path, req.Collection, newArticleOverrides(req))
		if err != nil {
			abortWithError(c, err, "Failed to build article")
			return
		}
	}
	if err := a.Store.Create(c.Request.Context(), req.Path, content); err != nil {
		abortWithError(c, err, "Create failed")
		return
	}

	a.logger().Info("article created", zap.String("path", req.Path))
	c.JSON(http.StatusOK, gin.H{"status": "created", "path": req.Path, "slug": services.SlugForPath(req.Path)})
}

func (a *API) GetDiff(c *gin.Context) {
	var art models.Article
	if err := c.ShouldBindJSON(&art); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	ctx := c.Request.Context()

	var currentContent []byte
	if doc, err := a.Store.Get(ctx, art.Path); err == nil {
		currentContent = services.NormalizeContent(doc.Source, nil)
	} else if !errors.Is(err, fs.ErrNotExist) {
		abortWithError(c, err, "Failed to read article")
		return
	}

	newContent, err := articleContent(&art)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Construction failed"})
		return
	}
	collection := services.FindCollection(a.cmsConfig(), a.ContentDir, art.Path)
	if services.SameContent(currentContent, newContent, collection) {
		newContent = currentContent
	} else {
		newContent = services.NormalizeContent(newContent, collection)
	}

	f1, err := writeTemp("diff_old_*", currentContent)
	if err != nil {
		abortWithError(c, err, "Diff failed")
		return
	}
	defer os.Remove(f1)
	f2, err := writeTemp("diff_new_*", newContent)
	if err != nil {
		abortWithError(c, err, "Diff failed")
		return
	}
	defer os.Remove(f2)

	relPath := path.Join(a.ContentDir, strings.TrimPrefix(art.Path, "/"))
	diffStr, diffType := a.Git.Diff(ctx, f1, f2, relPath)
	c.JSON(http.StatusOK, gin.H{"diff": diffStr, "type": diffType})
}

func writeTemp(pattern string, content []byte) (string, error) {
	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", err
	}
	if _, err := f.Write(content); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), f.Close()
}

func (a *API) RenderArticle(c *gin.Context) {
	doc, err := a.Store.Get(c.Request.Context(), c.Query("path"))
	if err != nil {
		abortWithError(c, err, "Failed to read article")
		return
	}
	article, err := services.ParseArticle(doc.Path, doc.Source)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	rendered, err := a.Renderer.Render(article)
	if err != nil {
		abortWithError(c, err, "Render failed")
		return
	}
	c.JSON(http.StatusOK, rendered)
}

func (a *API) CheckArticles(c *gin.Context) {
	ctx := c.Request.Context()
	docs, err := a.Store.Documents(ctx)
	if err != nil {
		abortWithError(c, err, "Failed to fetch articles")
		return
	}
	report, err := a.Checker.CheckCollection(ctx, docs)
	if err != nil {
		abortWithError(c, err, "Check failed")
		return
	}
	if p := c.Query("path"); p != "" {
		if report, err = report.Narrow(docs, []string{p}, a.ContentDir); err != nil {
			abortWithError(c, err, "Article not found")
			return
		}
	}
	c.JSON(http.StatusOK, report)
}

func (a *API) GetConfig(c *gin.Context) {
	cfg, err := services.GetCMSConfig(a.RepoPath, a.CMSConfigPath)
	if err != nil {
		abortWithError(c, err, "Failed to parse config")
		return
	}
	c.JSON(http.StatusOK, cfg)
}
