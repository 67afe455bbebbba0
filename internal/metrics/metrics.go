// Package metrics exports organizer, downloader, and run statistics in the
// Prometheus text format so node_exporter's textfile collector can pick them
// up after each run.
package metrics

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"avshelf/internal/history"
	"avshelf/internal/images"
	"avshelf/internal/organizer"
	"avshelf/internal/pipeline"
	"avshelf/internal/services"
)

const namespace = "avshelf"

// Exporter gathers from its own registry, not the default registerer.
type Exporter struct {
	registry *prometheus.Registry

	organizerFiles     *prometheus.GaugeVec
	organizerConflicts prometheus.Gauge
	organizerSidecars  prometheus.Gauge
	organizerSuccess   prometheus.Gauge

	imageCounts  *prometheus.GaugeVec
	imageBytes   prometheus.Gauge
	imageSuccess prometheus.Gauge

	runOutcomes  *prometheus.GaugeVec
	runDuration  prometheus.Gauge
	runTimestamp prometheus.Gauge
}

// New builds an Exporter with every metric registered.
func New() *Exporter {
	e := &Exporter{
		registry: prometheus.NewRegistry(),
		organizerFiles: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "organizer",
			Name:      "files",
			Help:      "Files handled by the organizer by result.",
		}, []string{"result"}),
		organizerConflicts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "organizer",
			Name:      "conflicts_resolved",
			Help:      "Target conflicts resolved by the organizer.",
		}),
		organizerSidecars: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "organizer",
			Name:      "metadata_files_created",
			Help:      "Metadata sidecars written next to organized videos.",
		}),
		organizerSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "organizer",
			Name:      "success_rate_percent",
			Help:      "Share of processed files that were placed in the library.",
		}),
		imageCounts: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "images",
			Name:      "handled",
			Help:      "Artwork handled by the downloader by result.",
		}, []string{"result"}),
		imageBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "images",
			Name:      "downloaded_bytes",
			Help:      "Bytes fetched by the downloader.",
		}),
		imageSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "images",
			Name:      "success_rate_percent",
			Help:      "Share of image downloads that succeeded.",
		}),
		runOutcomes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "files",
			Help:      "Files in the last organize run by status.",
		}, []string{"status"}),
		runDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "duration_seconds",
			Help:      "Wall time of the last organize run.",
		}),
		runTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "last_completed_timestamp_seconds",
			Help:      "Unix time the last organize run finished.",
		}),
	}
	e.registry.MustRegister(
		e.organizerFiles,
		e.organizerConflicts,
		e.organizerSidecars,
		e.organizerSuccess,
		e.imageCounts,
		e.imageBytes,
		e.imageSuccess,
		e.runOutcomes,
		e.runDuration,
		e.runTimestamp,
	)
	return e
}

// Registry exposes the underlying registry for gathering.
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

// ObserveOrganizer copies an organizer statistics snapshot into the gauges.
func (e *Exporter) ObserveOrganizer(s organizer.Statistics) {
	e.organizerFiles.WithLabelValues("processed").Set(float64(s.FilesProcessed))
	e.organizerFiles.WithLabelValues("moved").Set(float64(s.FilesMoved))
	e.organizerFiles.WithLabelValues("copied").Set(float64(s.FilesCopied))
	e.organizerFiles.WithLabelValues("skipped").Set(float64(s.FilesSkipped))
	e.organizerFiles.WithLabelValues("error").Set(float64(s.Errors))
	e.organizerConflicts.Set(float64(s.ConflictsResolved))
	e.organizerSidecars.Set(float64(s.MetadataFilesCreated))
	e.organizerSuccess.Set(s.SuccessRate)
}

// ObserveImages copies a downloader statistics snapshot into the gauges.
func (e *Exporter) ObserveImages(s images.Statistics) {
	e.imageCounts.WithLabelValues("downloaded").Set(float64(s.ImagesDownloaded))
	e.imageCounts.WithLabelValues("processed").Set(float64(s.ImagesProcessed))
	e.imageCounts.WithLabelValues("converted").Set(float64(s.ImagesConverted))
	e.imageCounts.WithLabelValues("resized").Set(float64(s.ImagesResized))
	e.imageCounts.WithLabelValues("thumbnail").Set(float64(s.ThumbnailsCreated))
	e.imageCounts.WithLabelValues("download_failure").Set(float64(s.DownloadFailures))
	e.imageCounts.WithLabelValues("processing_failure").Set(float64(s.ProcessingFailures))
	e.imageBytes.Set(float64(s.TotalBytesDownloaded))
	e.imageSuccess.Set(s.SuccessRate)
}

// ObserveRun records the per-status totals of a finished run.
func (e *Exporter) ObserveRun(r pipeline.Report) {
	e.runOutcomes.WithLabelValues(string(history.StatusSuccess)).Set(float64(r.Counts.Successful))
	e.runOutcomes.WithLabelValues(string(history.StatusPartial)).Set(float64(r.Counts.Partial))
	e.runOutcomes.WithLabelValues(string(history.StatusSkipped)).Set(float64(r.Counts.Skipped))
	e.runOutcomes.WithLabelValues(string(history.StatusFailed)).Set(float64(r.Counts.Failed))
	e.runDuration.Set(r.Duration().Seconds())
	if !r.FinishedAt.IsZero() {
		e.runTimestamp.Set(float64(r.FinishedAt.UnixNano()) / 1e9)
	}
}

// WriteTextfile atomically writes every registered metric to path. An empty
// path is a no-op so callers can pass the configured value unconditionally.
func (e *Exporter) WriteTextfile(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, "metrics", "write textfile", "create directory", err)
	}
	if err := prometheus.WriteToTextfile(path, e.registry); err != nil {
		return services.Wrap(services.ErrTransient, "metrics", "write textfile", path, err)
	}
	return nil
}
