package store

import "time"

type Report struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:255;uniqueIndex"`
	Firm      string `gorm:"size:128;index"`
	Year      string `gorm:"size:16"`
	Industry  string `gorm:"size:128"`
	Title     string `gorm:"size:512"`
	Author    string `gorm:"size:255"`
	Pages     int
	Chunks    int
	Decrypted bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Report) TableName() string {
	return "report"
}

type Chunk struct {
	ID         uint   `gorm:"primaryKey"`
	ReportName string `gorm:"size:255;uniqueIndex:idx_chunk_report_seq"`
	ChunkID    int    `gorm:"uniqueIndex:idx_chunk_report_seq"`
	Words      int
	Text       string `gorm:"type:text"`
}

func (Chunk) TableName() string {
	return "chunk"
}

type ChunkAnalysis struct {
	ID                uint   `gorm:"primaryKey"`
	ReportName        string `gorm:"size:255;uniqueIndex:idx_analysis_report_seq"`
	ChunkID           int    `gorm:"uniqueIndex:idx_analysis_report_seq"`
	TopKeywords       string `gorm:"size:512"`
	Topics            string `gorm:"size:255"`
	VaderSentiment    float64
	TextBlobSentiment float64
	UpdatedAt         time.Time
}

func (ChunkAnalysis) TableName() string {
	return "chunk_analysis"
}

// Benchmark is the whole-report sentiment shown on the dashboard.
type Benchmark struct {
	ID         uint      `gorm:"primaryKey" json:"-"`
	FirmReport string    `gorm:"size:255;uniqueIndex" json:"firm_report"`
	Sentiment  float64   `json:"sentiment"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Benchmark) TableName() string {
	return "benchmark"
}

// Firm is the part of FirmReport before the first underscore.
func (b Benchmark) Firm() string {
	for i := 0; i < len(b.FirmReport); i++ {
		if b.FirmReport[i] == '_' {
			return b.FirmReport[:i]
		}
	}
	return b.FirmReport
}

func Models() []any {
	return []any{&Report{}, &Chunk{}, &ChunkAnalysis{}, &Benchmark{}}
}
