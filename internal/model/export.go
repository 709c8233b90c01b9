package model

import "time"

// ProgressExport is the top-level structure for a progress report export.
type ProgressExport struct {
	GeneratedAt    time.Time       `json:"generated_at"`
	BankQuestions  int             `json:"bank_questions"`
	TotalCards     int             `json:"total_cards"`
	TotalReviewed  int             `json:"total_reviewed"`
	TotalMastered  int             `json:"total_mastered"`
	TotalFavorites int             `json:"total_favorites"`
	Chapters       []ChapterReport `json:"chapters"`
}

// ChapterReport holds one chapter's aggregate statistics for export.
type ChapterReport struct {
	Number             int     `json:"number"`
	Title              string  `json:"title"`
	Cards              int     `json:"cards"`
	Reviewed           int     `json:"reviewed"`
	Mastered           int     `json:"mastered"`
	Favorites          int     `json:"favorites"`
	ProgressPercentage float64 `json:"progress_percentage"`
}
