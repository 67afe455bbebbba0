package organizer

// Statistics are cumulative counters for one Organizer.
type Statistics struct {
	FilesProcessed       int     `json:"files_processed"`
	FilesMoved           int     `json:"files_moved"`
	FilesCopied          int     `json:"files_copied"`
	FilesSkipped         int     `json:"files_skipped"`
	ConflictsResolved    int     `json:"conflicts_resolved"`
	MetadataFilesCreated int     `json:"metadata_files_created"`
	Errors               int     `json:"errors"`
	SuccessRate          float64 `json:"success_rate"`
}

// Statistics returns a snapshot with the derived success rate, the share of
// processed files that were placed, as a percentage.
func (o *Organizer) Statistics() Statistics {
	o.statsMu.Lock()
	defer o.statsMu.Unlock()
	s := o.stats
	s.SuccessRate = float64(s.FilesMoved+s.FilesCopied) / float64(max(1, s.FilesProcessed)) * 100
	return s
}

// ResetStatistics zeroes all counters.
func (o *Organizer) ResetStatistics() {
	o.statsMu.Lock()
	o.stats = Statistics{}
	o.statsMu.Unlock()
	o.logger.Info("organizer statistics reset")
}

func (o *Organizer) count(update func(*Statistics)) {
	o.statsMu.Lock()
	update(&o.stats)
	o.statsMu.Unlock()
}
