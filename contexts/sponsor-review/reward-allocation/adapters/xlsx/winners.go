package xlsx

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"sponsordesk/contexts/sponsor-review/reward-allocation/domain/entities"
	"sponsordesk/contexts/sponsor-review/reward-allocation/ports"

	"github.com/xuri/excelize/v2"
)

const winnersSheet = "Winners"

var winnerHeader = []any{"Position", "Candidate ID", "Applicant ID", "Reward", "Total Paid"}

// WinnerSheetWriter renders winners into a single-sheet workbook.
type WinnerSheetWriter struct {
	Logger *slog.Logger
}

func (w WinnerSheetWriter) WriteWinners(out io.Writer, listing entities.Listing, rows []ports.WinnerRow) error {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil && w.Logger != nil {
			w.Logger.Error("winners workbook close failed",
				"event", "reward_allocation_xlsx_close_failed",
				"module", "sponsor-review/reward-allocation",
				"layer", "adapter",
				"listing_id", listing.ListingID,
				"error", err.Error(),
			)
		}
	}()

	if err := f.SetSheetName("Sheet1", winnersSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(winnersSheet, "A1", &winnerHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []any{
			positionLabel(row.Position),
			row.CandidateID,
			row.ApplicantID,
			row.Reward.StringFixed(2),
			row.TotalPaid.StringFixed(2),
		}
		if err := f.SetSheetRow(winnersSheet, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if title := listing.Title; title != "" {
		if err := f.SetDocProps(&excelize.DocProperties{Title: title}); err != nil {
			return fmt.Errorf("set doc props: %w", err)
		}
	}
	_, err := f.WriteTo(out)
	return err
}

func positionLabel(position int) string {
	if position == entities.BonusPosition {
		return "bonus"
	}
	return strconv.Itoa(position)
}
