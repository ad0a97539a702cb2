// Package influx sends run results to InfluxDB. When the server cannot be
// reached, points are appended as line protocol to a gzip backup file instead.
package influx

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/fieldtrace/trackstats/internal/bands"
	"github.com/fieldtrace/trackstats/internal/config"
	"github.com/fieldtrace/trackstats/internal/summary"
	"github.com/fieldtrace/trackstats/pkg/core"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/influxdata/influxdb-client-go/v2/domain"
	"github.com/rs/zerolog"
)

// Measurement names.
const (
	MeasurementSummary = "entity_summary"
	MeasurementBands   = "speed_bands"
)

// ErrDisabled is returned by Connect when influx.enabled is false.
var ErrDisabled = errors.New("influx is disabled")

// Manager handles the InfluxDB connection and writes.
type Manager struct {
	Client       influxdb2.Client
	Writer       influxdb2_api.WriteAPI
	BackupWriter *gzip.Writer
	IsValid      bool
	Logger       zerolog.Logger
	BackupPath   string

	cfg        config.InfluxConfig
	backupFile *os.File
	mu         sync.Mutex
}

// NewManager creates a new InfluxDB manager.
func NewManager(cfg config.InfluxConfig, log zerolog.Logger, backupPath string) *Manager {
	return &Manager{
		cfg:        cfg,
		Logger:     log,
		BackupPath: backupPath,
	}
}

// Connect establishes a connection to InfluxDB, falling back to the backup
// file when the server does not answer.
func (m *Manager) Connect(ctx context.Context) error {
	if !m.cfg.Enabled {
		return ErrDisabled
	}

	m.Client = influxdb2.NewClientWithOptions(
		m.cfg.URL(),
		m.cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(2500).
			SetFlushInterval(1000),
	)

	// validate client connection health
	running, err := m.Client.Ping(ctx)
	if err != nil || !running {
		m.IsValid = false
		if err := m.openBackup(); err != nil {
			return err
		}
		m.Logger.Warn().Err(err).Str("backupPath", m.BackupPath).
			Msg("InfluxDB client failed to initialize, using backup writer")
		return nil
	}

	m.IsValid = true
	if err := m.setupOrganizationAndBucket(ctx); err != nil {
		return err
	}
	m.createWriter()
	m.Logger.Info().Str("url", m.cfg.URL()).Msg("InfluxDB client initialized")
	return nil
}

func (m *Manager) openBackup() error {
	if m.BackupWriter != nil {
		return nil
	}
	if m.BackupPath == "" {
		return errors.New("influx unreachable and no backup path set")
	}
	file, err := os.OpenFile(m.BackupPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("error creating backup file: %w", err)
	}
	m.backupFile = file
	m.BackupWriter = gzip.NewWriter(file)
	return nil
}

func (m *Manager) setupOrganizationAndBucket(ctx context.Context) error {
	orgName := m.cfg.Org

	// ensure org exists
	influxOrg, err := m.Client.OrganizationsAPI().FindOrganizationByName(ctx, orgName)
	if err != nil {
		m.Logger.Info().Str("org", orgName).Msg("Organization not found, creating")
		influxOrg, err = m.Client.OrganizationsAPI().CreateOrganizationWithName(ctx, orgName)
		if err != nil {
			return fmt.Errorf("error creating organization %s: %w", orgName, err)
		}
	}

	// ensure bucket exists with 90 day retention
	if _, err = m.Client.BucketsAPI().FindBucketByName(ctx, m.cfg.Bucket); err != nil {
		m.Logger.Info().Str("bucket", m.cfg.Bucket).Msg("Bucket not found, creating")

		rule := domain.RetentionRuleTypeExpire
		_, err = m.Client.BucketsAPI().CreateBucketWithName(ctx, influxOrg, m.cfg.Bucket, domain.RetentionRule{
			Type:         &rule,
			EverySeconds: 60 * 60 * 24 * 90, // 90 days
		})
		if err != nil {
			return fmt.Errorf("error creating bucket %s: %w", m.cfg.Bucket, err)
		}
	}
	return nil
}

func (m *Manager) createWriter() {
	m.Writer = m.Client.WriteAPI(m.cfg.Org, m.cfg.Bucket)

	errorsCh := m.Writer.Errors()
	go func() {
		for writeErr := range errorsCh {
			m.Logger.Error().Err(writeErr).Str("bucket", m.cfg.Bucket).
				Msg("Error sending data to InfluxDB")
		}
	}()
}

// WritePoint writes a point to InfluxDB or the backup file.
func (m *Manager) WritePoint(point *influxdb2_write.Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.IsValid {
		if m.Writer == nil {
			return errors.New("influxDB writer not initialized")
		}
		m.Writer.WritePoint(point)
		return nil
	}

	if m.BackupWriter == nil {
		return errors.New("influxDB client not initialized and backup writer not available")
	}
	// PointToLineProtocol terminates the line itself
	lineProtocol := influxdb2_write.PointToLineProtocol(point, time.Nanosecond)
	if _, err := m.BackupWriter.Write([]byte(lineProtocol)); err != nil {
		return fmt.Errorf("error writing to InfluxDB backup file: %w", err)
	}
	return nil
}

// WriteRun writes one point per summary row and one per band row.
func (m *Manager) WriteRun(seg core.Segment, summaries []summary.Row, bandRows []bands.Row) (int, error) {
	written := 0
	for _, r := range summaries {
		if err := m.WritePoint(SummaryPoint(seg, r)); err != nil {
			return written, err
		}
		written++
	}
	for _, r := range bandRows {
		if err := m.WritePoint(BandPoint(seg, r)); err != nil {
			return written, err
		}
		written++
	}
	m.Logger.Debug().Str("runId", seg.ID).Int("points", written).Msg("Run points written")
	return written, nil
}

// Close flushes pending writes and closes the client and backup file.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Writer != nil {
		m.Writer.Flush()
	}
	if m.Client != nil {
		m.Client.Close()
	}
	var errs []error
	if m.BackupWriter != nil {
		errs = append(errs, m.BackupWriter.Close())
		m.BackupWriter = nil
	}
	if m.backupFile != nil {
		errs = append(errs, m.backupFile.Close())
		m.backupFile = nil
	}
	return errors.Join(errs...)
}

func runTags(p *influxdb2_write.Point, seg core.Segment, trackID core.TrackID) {
	p.AddTag("run_id", seg.ID)
	if seg.Name != "" {
		p.AddTag("segment", seg.Name)
	}
	p.AddTag("track_id", strconv.Itoa(int(trackID)))
}

// SummaryPoint converts a summary row to a point stamped with the run start.
func SummaryPoint(seg core.Segment, r summary.Row) *influxdb2_write.Point {
	p := influxdb2_write.NewPointWithMeasurement(MeasurementSummary)
	runTags(p, seg, r.TrackID)
	p.AddTag("object_type", r.Class.String())
	p.AddField("final_distance_m", r.FinalDistanceM)
	p.AddField("avg_speed_kmh", r.AvgSpeedKmh)
	p.AddField("max_speed_kmh", r.MaxSpeedKmh)
	p.SetTime(seg.StartTime)
	return p
}

// BandPoint converts a speed-band row to a point stamped with the run start.
func BandPoint(seg core.Segment, r bands.Row) *influxdb2_write.Point {
	p := influxdb2_write.NewPointWithMeasurement(MeasurementBands)
	runTags(p, seg, r.TrackID)
	p.AddField("low_speed_distance_m", r.LowM)
	p.AddField("hsr_distance_m", r.HSRM)
	p.AddField("sprint_distance_m", r.SprintM)
	p.SetTime(seg.StartTime)
	return p
}
