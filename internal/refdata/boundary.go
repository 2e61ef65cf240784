package refdata

import (
	"context"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/relay-cli/internal/geo"
)

// ShapefileBoundary reads a local .shp or a .zip holding one.
type ShapefileBoundary struct {
	Path    string
	TempDir string
}

func (s ShapefileBoundary) Boundary(_ context.Context) (*geo.Boundary, error) {
	return geo.LoadShapefile(s.Path, s.TempDir)
}

// GeoJSONBoundary reads a local GeoJSON document.
type GeoJSONBoundary struct {
	Path string
}

func (g GeoJSONBoundary) Boundary(_ context.Context) (*geo.Boundary, error) {
	return geo.LoadGeoJSON(g.Path)
}

// DownloadBoundary fetches a zipped shapefile over HTTP and reads it.
type DownloadBoundary struct {
	URL     string
	TempDir string
	Client  *http.Client
}

func (d DownloadBoundary) Boundary(ctx context.Context) (*geo.Boundary, error) {
	dir, err := os.MkdirTemp(d.TempDir, "boundary-download-*")
	if err != nil {
		return nil, eris.Wrap(err, "refdata: create download dir")
	}
	defer os.RemoveAll(dir) //nolint:errcheck

	name := path.Base(strings.SplitN(d.URL, "?", 2)[0])
	if !strings.EqualFold(filepath.Ext(name), ".zip") {
		name = "boundary.zip"
	}
	dest := filepath.Join(dir, name)

	zap.L().Info("downloading boundary",
		zap.String("component", "refdata"),
		zap.String("url", d.URL),
	)
	if err := geo.Download(ctx, d.Client, d.URL, dest); err != nil {
		return nil, eris.Wrap(err, "refdata: download boundary")
	}
	return geo.LoadShapefile(dest, dir)
}

// FileBoundary picks a loader from the file extension.
func FileBoundary(path, tempDir string) BoundarySource {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".geojson", ".json":
		return GeoJSONBoundary{Path: path}
	default:
		return ShapefileBoundary{Path: path, TempDir: tempDir}
	}
}
