// Package report builds progress exports and writes them as JSON or XLSX.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/cppdeck/cppdeck/internal/model"
)

// Build aggregates per-chapter statistics into an export document.
func Build(chapters []model.Chapter, bankQuestions int) model.ProgressExport {
	export := model.ProgressExport{
		GeneratedAt:   time.Now(),
		BankQuestions: bankQuestions,
	}
	for _, c := range chapters {
		cr := model.ChapterReport{
			Number:             c.Number,
			Title:              c.Title,
			Cards:              len(c.Cards),
			Reviewed:           c.ReviewedCount(),
			Mastered:           c.MasteredCount(),
			Favorites:          c.FavoriteCount(),
			ProgressPercentage: c.ProgressPercentage(),
		}
		export.TotalCards += cr.Cards
		export.TotalReviewed += cr.Reviewed
		export.TotalMastered += cr.Mastered
		export.TotalFavorites += cr.Favorites
		export.Chapters = append(export.Chapters, cr)
	}
	return export
}

// WriteJSON writes the export as indented JSON with a trailing newline.
func WriteJSON(w io.Writer, export model.ProgressExport) error {
	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	_, err = fmt.Fprintln(w)
	return err
}

// WriteXLSX writes the export as a workbook with a summary sheet and one
// card-level sheet per chapter.
func WriteXLSX(w io.Writer, export model.ProgressExport, chapters []model.Chapter) error {
	f := excelize.NewFile()
	defer f.Close()

	const summary = "Summary"
	if err := f.SetSheetName("Sheet1", summary); err != nil {
		return fmt.Errorf("rename summary sheet: %w", err)
	}

	headers := []string{"Chapter", "Title", "Cards", "Reviewed", "Mastered", "Favorites", "Progress %"}
	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(summary, cell, h); err != nil {
			return err
		}
	}
	for row, cr := range export.Chapters {
		values := []any{cr.Number, cr.Title, cr.Cards, cr.Reviewed, cr.Mastered, cr.Favorites, cr.ProgressPercentage}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(summary, cell, v); err != nil {
				return err
			}
		}
	}

	for _, c := range chapters {
		sheet := fmt.Sprintf("Chapter %d", c.Number)
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("create sheet %s: %w", sheet, err)
		}
		cardHeaders := []string{"Question", "Answer", "Reviewed", "Mastered", "Favorite", "Attempts", "Last review"}
		for col, h := range cardHeaders {
			cell, err := excelize.CoordinatesToCellName(col+1, 1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, h); err != nil {
				return err
			}
		}
		for row, card := range c.Cards {
			lastReview := ""
			if card.LastReviewDate != nil {
				lastReview = card.LastReviewDate.Format(time.RFC3339)
			}
			values := []any{card.Question, card.Answer, card.IsReviewed, card.IsMastered, card.IsFavorite, card.AttemptCount, lastReview}
			for col, v := range values {
				cell, err := excelize.CoordinatesToCellName(col+1, row+2)
				if err != nil {
					return err
				}
				if err := f.SetCellValue(sheet, cell, v); err != nil {
					return err
				}
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
