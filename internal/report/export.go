package report

import (
	"compress/gzip"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fieldtrace/trackstats/internal/bands"
	"github.com/fieldtrace/trackstats/internal/summary"
)

// Exporter writes report tables into one output directory.
type Exporter struct {
	Dir      string
	Compress bool // gzip every table and append .gz to its name
	Logger   *slog.Logger
}

func (e *Exporter) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}

// ExportFull writes full_speed_distance.csv. An empty table is not written and
// yields an empty path.
func (e *Exporter) ExportFull(rows []FrameRow) (string, error) {
	if len(rows) == 0 {
		e.logger().Warn("No speed/distance data found, full table skipped", "dir", e.Dir)
		return "", nil
	}
	return e.write(FullFile, func(w io.Writer) error { return WriteFull(w, rows) })
}

// ExportSummary writes player_summary_stats.csv.
func (e *Exporter) ExportSummary(rows []summary.Row) (string, error) {
	if len(rows) == 0 {
		e.logger().Warn("No summary rows, summary table skipped", "dir", e.Dir)
		return "", nil
	}
	return e.write(SummaryFile, func(w io.Writer) error { return WriteSummary(w, rows) })
}

// ExportBands writes player_speed_bands.csv.
func (e *Exporter) ExportBands(rows []bands.Row) (string, error) {
	return e.ExportBandsAs(BandsFile, rows)
}

// ExportBandsAs writes a band table under name.
func (e *Exporter) ExportBandsAs(name string, rows []bands.Row) (string, error) {
	if len(rows) == 0 {
		e.logger().Warn("No speed band rows, band table skipped", "dir", e.Dir, "file", name)
		return "", nil
	}
	return e.write(name, func(w io.Writer) error { return WriteBands(w, rows) })
}

func (e *Exporter) write(name string, fn func(io.Writer) error) (string, error) {
	if err := os.MkdirAll(e.Dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(e.Dir, name)
	if e.Compress {
		path += ".gz"
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	if e.Compress {
		gz := gzip.NewWriter(f)
		if err := fn(gz); err != nil {
			return "", fmt.Errorf("write %s: %w", path, err)
		}
		if err := gz.Close(); err != nil {
			return "", fmt.Errorf("write %s: %w", path, err)
		}
	} else if err := fn(f); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	e.logger().Info("Report exported", "path", path)
	return path, nil
}

// openTable opens dir/name, falling back to its gzipped variant.
func openTable(dir, name string) (io.ReadCloser, string, error) {
	path := filepath.Join(dir, name)
	f, err := os.Open(path)
	if err == nil {
		return f, path, nil
	}
	if !os.IsNotExist(err) {
		return nil, path, err
	}

	gzPath := path + ".gz"
	gf, gzErr := os.Open(gzPath)
	if gzErr != nil {
		return nil, path, fmt.Errorf("missing %s in %s: %w", name, dir, err)
	}
	zr, err := gzip.NewReader(gf)
	if err != nil {
		gf.Close()
		return nil, gzPath, fmt.Errorf("open %s: %w", gzPath, err)
	}
	return &gzipFile{Reader: zr, file: gf}, gzPath, nil
}

type gzipFile struct {
	*gzip.Reader
	file *os.File
}

func (g *gzipFile) Close() error {
	g.Reader.Close()
	return g.file.Close()
}

// LoadFull reads the per-frame table of a segment directory.
func LoadFull(dir string) ([]FrameRow, error) {
	rc, path, err := openTable(dir, FullFile)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	rows, err := ReadFull(rc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

// LoadBands reads the speed-band table of a segment directory.
func LoadBands(dir string) ([]bands.Row, error) {
	rc, path, err := openTable(dir, BandsFile)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	rows, err := ReadBands(rc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

// ConcatBands joins the band tables of several segment directories in the
// order given. Rows without a segment label take their directory's base name.
func ConcatBands(dirs []string) ([]bands.Row, error) {
	var out []bands.Row
	for _, dir := range dirs {
		rows, err := LoadBands(dir)
		if err != nil {
			return nil, err
		}
		for i := range rows {
			if rows[i].Segment == "" {
				rows[i].Segment = filepath.Base(dir)
			}
		}
		out = append(out, rows...)
	}
	return out, nil
}
