// Package assets wraps the external media host. The platform only ever
// uploads a binary and later deletes it by handle; everything else about the
// host is opaque.
package assets

import "context"

// Asset is the handle returned by the media host.
type Asset struct {
	URL     string `json:"url"`
	AssetID string `json:"asset_id"`
}

// Upload is the binary payload sent to the host.
type Upload struct {
	FileName    string
	ContentType string
	Data        []byte
}

// Store is the client boundary for the media host.
//
// Delete is best-effort: callers log a failed delete and move on. An orphaned
// remote asset is acceptable; a rolled-back document delete is not.
type Store interface {
	Upload(ctx context.Context, u Upload) (Asset, error)
	Delete(ctx context.Context, assetID string) error
}
