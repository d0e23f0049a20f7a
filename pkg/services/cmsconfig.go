package services

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"article-cms/pkg/models"

	"gopkg.in/yaml.v3"
)

// GetCMSConfig reads the Decap-style admin config of the repository.
func GetCMSConfig(repoPath, configPath string) (*models.CMSConfig, error) {
	content, err := os.ReadFile(filepath.Join(repoPath, configPath))
	if err != nil {
		return nil, err
	}

	var cfg models.CMSConfig
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FindCollection returns the collection whose folder holds articlePath, a
// path relative to the content directory. The most specific folder wins.
func FindCollection(cfg *models.CMSConfig, contentDir, articlePath string) *models.Collection {
	if cfg == nil {
		return nil
	}
	repoRel := path.Join(filepath.ToSlash(contentDir), filepath.ToSlash(articlePath))
	dir := path.Dir(repoRel)

	var best *models.Collection
	for i := range cfg.Collections {
		col := &cfg.Collections[i]
		folder := strings.Trim(filepath.ToSlash(col.Folder), "/")
		if folder == "" {
			continue
		}
		if dir != folder && !strings.HasPrefix(dir, folder+"/") {
			continue
		}
		if best == nil || len(folder) > len(strings.Trim(best.Folder, "/")) {
			best = col
		}
	}
	return best
}

// CollectionByName looks a collection up by name.
func CollectionByName(cfg *models.CMSConfig, name string) *models.Collection {
	if cfg == nil {
		return nil
	}
	for i := range cfg.Collections {
		if cfg.Collections[i].Name == name {
			return &cfg.Collections[i]
		}
	}
	return nil
}

// DefaultCollection is the template used when the repository has no admin
// config or no collection matches.
func DefaultCollection() models.Collection {
	return models.Collection{
		Name: "articles",
		Fields: []models.Field{
			{Name: "title", Widget: "string"},
			{Name: "description", Widget: "string"},
			{Name: "date", Widget: "datetime"},
			{Name: "body", Widget: "markdown"},
		},
	}
}

// NewArticleContent renders the initial file of a new article. The collection
// is picked by name, then by folder, then DefaultCollection.
func NewArticleContent(cfg *models.CMSConfig, contentDir, articlePath, collectionName string, overrides map[string]interface{}) ([]byte, error) {
	collection := CollectionByName(cfg, collectionName)
	if collection == nil {
		collection = FindCollection(cfg, contentDir, articlePath)
	}
	if collection == nil {
		def := DefaultCollection()
		collection = &def
	}
	return GenerateContentFromCollection(*collection, overrides)
}
