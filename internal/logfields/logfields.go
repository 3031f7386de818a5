package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID       = "run_id"
	KeyURI         = "uri"
	KeyPageNumber  = "page_number"
	KeyBakePath    = "bake_path"
	KeySiteRoot    = "site_root"
	KeySource      = "source"
	KeyDestination = "destination"
	KeyPath        = "path"
	KeyPages       = "pages"
	KeyFiles       = "files"
	KeyAssets      = "assets"
	KeyDurationMS  = "duration_ms"
	KeyConfigKey   = "config_key"
	KeyOp          = "op"
	KeyError       = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func URI(uri string) slog.Attr        { return slog.String(KeyURI, uri) }
func PageNumber(n int) slog.Attr      { return slog.Int(KeyPageNumber, n) }
func BakePath(p string) slog.Attr     { return slog.String(KeyBakePath, p) }
func SiteRoot(r string) slog.Attr     { return slog.String(KeySiteRoot, r) }
func Source(p string) slog.Attr       { return slog.String(KeySource, p) }
func Destination(p string) slog.Attr  { return slog.String(KeyDestination, p) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Pages(n int) slog.Attr           { return slog.Int(KeyPages, n) }
func Files(n int) slog.Attr           { return slog.Int(KeyFiles, n) }
func Assets(n int) slog.Attr          { return slog.Int(KeyAssets, n) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func ConfigKey(key string) slog.Attr  { return slog.String(KeyConfigKey, key) }
func Op(op string) slog.Attr          { return slog.String(KeyOp, op) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
