package shared

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

// AppName is used for the config and cache folder names.
const AppName = "spx"

const (
	AppConfigFile    = "app.toml"
	KeymapConfigFile = "keymap.toml"
	ThemeConfigFile  = "theme.toml"
	FoldersFile      = "playlist_folders.json"
	TokenCacheFile   = "token.json"
	DatabaseFile     = "spx.db"
	LockFile         = "spx.lock"
)

// ConfigFolder returns the default configuration folder ($XDG_CONFIG_HOME/spx).
func ConfigFolder() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// CacheFolder returns the default cache folder ($XDG_CACHE_HOME/spx).
func CacheFolder() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// Paths resolves every file the application reads or writes.
type Paths struct {
	ConfigFolder string
	CacheFolder  string
}

// NewPaths fills empty folders with the XDG defaults.
func NewPaths(configFolder, cacheFolder string) Paths {
	if configFolder == "" {
		configFolder = ConfigFolder()
	}
	if cacheFolder == "" {
		cacheFolder = CacheFolder()
	}
	return Paths{ConfigFolder: configFolder, CacheFolder: cacheFolder}
}

func (p Paths) AppConfig() string  { return filepath.Join(p.ConfigFolder, AppConfigFile) }
func (p Paths) Keymap() string     { return filepath.Join(p.ConfigFolder, KeymapConfigFile) }
func (p Paths) Theme() string      { return filepath.Join(p.ConfigFolder, ThemeConfigFile) }
func (p Paths) Folders() string    { return filepath.Join(p.ConfigFolder, FoldersFile) }
func (p Paths) TokenCache() string { return filepath.Join(p.CacheFolder, TokenCacheFile) }
func (p Paths) Lock() string       { return filepath.Join(p.CacheFolder, LockFile) }
func (p Paths) Logs() string       { return filepath.Join(p.CacheFolder, "logs") }
