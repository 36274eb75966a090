package edit

// Options configures retention and listing defaults.
type Options struct {
	// MaxPerFile bounds each file's history; the oldest records are evicted first.
	MaxPerFile int
	// RecentLimit is used when a caller passes no limit.
	RecentLimit int
	// DedupeConsecutive returns the previous record instead of appending when
	// a diff repeats the file's last diff exactly.
	DedupeConsecutive bool
}

// DefaultOptions returns the retention defaults.
func DefaultOptions() Options {
	return Options{MaxPerFile: 100, RecentLimit: 20}
}
