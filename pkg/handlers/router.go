package handlers

import (
	"crypto/rand"
	"fmt"
	"net/http"

	"article-cms/pkg/logging"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/jub0bs/cors"
	"go.uber.org/zap"
)

type RouterOptions struct {
	SessionSecret string
	// CORSOrigins lists the browser origins allowed to call the API with
	// credentials. Empty disables CORS handling.
	CORSOrigins  []string
	AuthDisabled bool
	Logger       *zap.Logger
}

// NewRouter wires the editor API. The returned handler answers CORS
// preflight requests before they reach gin.
func NewRouter(api *API, opts RouterOptions) (http.Handler, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	secret := []byte(opts.SessionSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("session secret: %w", err)
		}
		logger.Warn("SESSION_SECRET not set, sessions will not survive a restart")
	}

	r := gin.New()
	r.Use(gin.Recovery(), logging.GinLogger(logger))

	store := cookie.NewStore(secret)
	r.Use(sessions.Sessions("article-cms", store))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	r.GET("/login", LoginPage)
	r.GET("/login/github", GithubLogin)
	r.GET("/auth/callback", AuthCallback)
	r.GET("/logout", Logout)

	authorized := r.Group("/")
	authorized.Use(AuthRequired(opts.AuthDisabled))
	{
		authorized.GET("/", func(c *gin.Context) { c.Redirect(http.StatusFound, "/api/articles") })

		apiGroup := authorized.Group("/api")
		{
			apiGroup.GET("/articles", api.ListArticles)
			apiGroup.GET("/article", api.GetArticle)
			apiGroup.POST("/article", api.SaveArticle)
			apiGroup.POST("/create", api.CreateArticle)
			apiGroup.POST("/diff", api.GetDiff)
			apiGroup.GET("/render", api.RenderArticle)
			apiGroup.GET("/check", api.CheckArticles)
			apiGroup.GET("/config", api.GetConfig)
			apiGroup.POST("/sync", api.HandleSync)
			apiGroup.POST("/publish", api.HandlePublish)
		}
	}

	if len(opts.CORSOrigins) == 0 {
		return r, nil
	}
	corsMw, err := cors.NewMiddleware(cors.Config{
		Origins:         opts.CORSOrigins,
		Credentialed:    true,
		RequestHeaders:  []string{"Content-Type"},
		MaxAgeInSeconds: 600,
	})
	if err != nil {
		return nil, fmt.Errorf("cors: %w", err)
	}
	return corsMw.Wrap(r), nil
}
