package geo

import (
	"archive/zip"
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
	"github.com/twpayne/go-geom/xy/location"
	"go.uber.org/zap"
)

// LoadShapefile reads every polygon record of a shapefile into one
// Boundary. path may point at the .shp itself or at a .zip holding it; zips
// are extracted under tempDir and removed afterwards.
func LoadShapefile(path, tempDir string) (*Boundary, error) {
	log := zap.L().With(zap.String("component", "geo.loader"), zap.String("path", path))

	shpPath := path
	if strings.EqualFold(filepath.Ext(path), ".zip") {
		dir, err := os.MkdirTemp(tempDir, "boundary-*")
		if err != nil {
			return nil, eris.Wrap(err, "geo: create extract dir")
		}
		defer os.RemoveAll(dir) //nolint:errcheck

		if err := extractZIP(path, dir); err != nil {
			return nil, eris.Wrap(err, "geo: extract boundary ZIP")
		}
		shpPath, err = findFileByExt(dir, ".shp")
		if err != nil {
			return nil, eris.Wrap(err, "geo: find .shp file")
		}
	}

	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, eris.Wrap(err, "geo: open shapefile")
	}
	defer func() { _ = reader.Close() }()

	mp := geom.NewMultiPolygon(geom.XY).SetSRID(SRID)
	var records int
	for reader.Next() {
		_, shape := reader.Shape()
		poly, ok := shape.(*shp.Polygon)
		if !ok || poly == nil {
			continue
		}
		for _, p := range polygonParts(poly) {
			if err := mp.Push(p); err != nil {
				log.Debug("geo: skipping malformed polygon", zap.Error(err))
			}
		}
		records++
	}
	if err := reader.Err(); err != nil {
		return nil, eris.Wrap(err, "geo: read shapefile")
	}
	log.Info("boundary shapefile loaded",
		zap.Int("records", records),
		zap.Int("polygons", mp.NumPolygons()),
	)
	return NewBoundary(mp)
}

// polygonParts converts a shapefile polygon record into go-geom polygons.
// Shapefile outer rings run clockwise and holes counter-clockwise; a
// counter-clockwise ring outside the current shell starts a new polygon.
func polygonParts(p *shp.Polygon) []*geom.Polygon {
	if p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	var (
		out   []*geom.Polygon
		shell *geom.LinearRing
	)
	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := int32(len(p.Points))
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}
		if end-start < 3 {
			continue
		}

		coords := make([]geom.Coord, 0, end-start)
		for j := start; j < end; j++ {
			coords = append(coords, geom.Coord{p.Points[j].X, p.Points[j].Y})
		}
		flat := flatCoords(coords)
		ring := geom.NewLinearRingFlat(geom.XY, flat)

		// xy.SignedArea is negative for counter-clockwise rings.
		isHole := shell != nil && xy.SignedArea(geom.XY, flat) < 0
		if isHole {
			first := geom.Coord{flat[0], flat[1]}
			if xy.LocatePointInRing(geom.XY, first, shell.FlatCoords()) == location.Exterior {
				isHole = false
			}
		}

		if isHole {
			if err := out[len(out)-1].Push(ring); err != nil {
				zap.L().Debug("geo: skipping malformed hole", zap.Int32("part", i), zap.Error(err))
			}
			continue
		}

		poly := geom.NewPolygon(geom.XY)
		if err := poly.Push(ring); err != nil {
			zap.L().Debug("geo: skipping malformed ring", zap.Int32("part", i), zap.Error(err))
			continue
		}
		out = append(out, poly)
		shell = ring
	}
	return out
}

func flatCoords(coords []geom.Coord) []float64 {
	out := make([]float64, 0, len(coords)*2)
	for _, c := range coords {
		out = append(out, c[0], c[1])
	}
	return out
}

// Download fetches url into dest.
func Download(ctx context.Context, client *http.Client, url, dest string) error {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return eris.Wrap(err, "geo: build request")
	}

	resp, err := client.Do(req)
	if err != nil {
		return eris.Wrap(err, "geo: download")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("geo: download returned status %d", resp.StatusCode)
	}

	f, err := os.Create(dest)
	if err != nil {
		return eris.Wrap(err, "geo: create file")
	}
	defer f.Close() //nolint:errcheck

	if _, err := io.Copy(f, resp.Body); err != nil {
		return eris.Wrap(err, "geo: write file")
	}
	return nil
}

// extractZIP flattens a ZIP archive into destDir.
func extractZIP(zipPath, destDir string) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return eris.Wrap(err, "open zip")
	}
	defer r.Close() //nolint:errcheck

	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if err := extractEntry(f, filepath.Join(destDir, filepath.Base(f.Name))); err != nil {
			return err
		}
	}
	return nil
}

func extractEntry(f *zip.File, destPath string) error {
	rc, err := f.Open()
	if err != nil {
		return eris.Wrapf(err, "open zip entry %s", f.Name)
	}
	defer rc.Close() //nolint:errcheck

	out, err := os.Create(destPath)
	if err != nil {
		return eris.Wrapf(err, "create %s", destPath)
	}
	defer out.Close() //nolint:errcheck

	if _, err := io.Copy(out, rc); err != nil {
		return eris.Wrapf(err, "extract %s", f.Name)
	}
	return nil
}

// findFileByExt finds the first file with the given extension in a directory.
func findFileByExt(dir, ext string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", eris.Wrap(err, "read directory")
	}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(strings.ToLower(e.Name()), ext) {
			return filepath.Join(dir, e.Name()), nil
		}
	}
	return "", eris.Errorf("no %s file found in %s", ext, dir)
}
