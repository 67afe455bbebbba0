package images

import "sync/atomic"

// Statistics are cumulative counters for one Downloader.
type Statistics struct {
	ImagesDownloaded     int64   `json:"images_downloaded"`
	ImagesProcessed      int64   `json:"images_processed"`
	ImagesConverted      int64   `json:"images_converted"`
	ImagesResized        int64   `json:"images_resized"`
	ThumbnailsCreated    int64   `json:"thumbnails_created"`
	DownloadFailures     int64   `json:"download_failures"`
	ProcessingFailures   int64   `json:"processing_failures"`
	TotalBytesDownloaded int64   `json:"total_bytes_downloaded"`
	TotalMBDownloaded    float64 `json:"total_mb_downloaded"`
	SuccessRate          float64 `json:"success_rate"`
}

type counters struct {
	downloaded         atomic.Int64
	processed          atomic.Int64
	converted          atomic.Int64
	resized            atomic.Int64
	thumbnails         atomic.Int64
	downloadFailures   atomic.Int64
	processingFailures atomic.Int64
	bytes              atomic.Int64
}

func (c *counters) reset() {
	c.downloaded.Store(0)
	c.processed.Store(0)
	c.converted.Store(0)
	c.resized.Store(0)
	c.thumbnails.Store(0)
	c.downloadFailures.Store(0)
	c.processingFailures.Store(0)
	c.bytes.Store(0)
}

// Statistics returns a snapshot of the counters. SuccessRate is the share of
// attempted images that landed on disk, as a percentage.
func (d *Downloader) Statistics() Statistics {
	s := Statistics{
		ImagesDownloaded:     d.stats.downloaded.Load(),
		ImagesProcessed:      d.stats.processed.Load(),
		ImagesConverted:      d.stats.converted.Load(),
		ImagesResized:        d.stats.resized.Load(),
		ThumbnailsCreated:    d.stats.thumbnails.Load(),
		DownloadFailures:     d.stats.downloadFailures.Load(),
		ProcessingFailures:   d.stats.processingFailures.Load(),
		TotalBytesDownloaded: d.stats.bytes.Load(),
	}
	s.TotalMBDownloaded = float64(s.TotalBytesDownloaded) / (1024 * 1024)
	s.SuccessRate = float64(s.ImagesDownloaded) / float64(max(1, s.ImagesDownloaded+s.DownloadFailures)) * 100
	return s
}

// ResetStatistics zeroes all counters.
func (d *Downloader) ResetStatistics() {
	d.stats.reset()
	d.logger.Info("downloader statistics reset")
}
