package models

type CMSConfig struct {
	MediaFolder  string       `yaml:"media_folder" json:"media_folder,omitempty"`
	PublicFolder string       `yaml:"public_folder" json:"public_folder,omitempty"`
	Collections  []Collection `yaml:"collections" json:"collections"`
}

type Collection struct {
	Name      string  `yaml:"name" json:"name"`
	Label     string  `yaml:"label" json:"label,omitempty"`
	Folder    string  `yaml:"folder" json:"folder"`
	Path      string  `yaml:"path" json:"path,omitempty"`
	Extension string  `yaml:"extension" json:"extension,omitempty"`
	Format    string  `yaml:"format" json:"format,omitempty"`
	Fields    []Field `yaml:"fields" json:"fields"`
}

type Field struct {
	Name    string      `yaml:"name" json:"name"`
	Widget  string      `yaml:"widget" json:"widget"`
	Default interface{} `yaml:"default,omitempty" json:"default,omitempty"`
}
