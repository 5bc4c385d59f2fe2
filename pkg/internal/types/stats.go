package types

// StyleCount 某风格下的条目数.
type StyleCount struct {
	Style string `json:"style"`
	Count int64  `json:"count"`
}

// GalleryStats 画廊总体统计.
type GalleryStats struct {
	Items   int64        `json:"items"`
	Votes   int64        `json:"votes"`
	Voters  int64        `json:"voters"`
	ByStyle []StyleCount `json:"byStyle"`
}

// SweepReport 孤儿图片清理结果.
type SweepReport struct {
	Scanned int      `json:"scanned"`
	Orphans []string `json:"orphans"`
	Deleted int      `json:"deleted"`
	DryRun  bool     `json:"dryRun"`
}

// VoteDrift 某条目的计数与投票行不一致.
type VoteDrift struct {
	ItemID   string `json:"itemId"`
	Recorded int64  `json:"recorded"`
	Actual   int64  `json:"actual"`
}

// ReconcileReport 投票计数校对结果.
type ReconcileReport struct {
	Checked  int         `json:"checked"`
	Drift    []VoteDrift `json:"drift"`
	Repaired int         `json:"repaired"`
	DryRun   bool        `json:"dryRun"`
}
