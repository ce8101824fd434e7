package service

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/noah-isme/thesis-go-api/internal/models"
)

const (
	scheduleSheet = "Schedules"
	memberSheet   = "Members"
)

// ExportCouncilSchedules renders the council's sessions and roster as an xlsx workbook.
func (s *scheduleService) ExportCouncilSchedules(ctx context.Context, actor Actor, councilID uint) ([]byte, string, error) {
	council, err := s.store.Councils.GetByID(ctx, councilID)
	if err != nil {
		return nil, "", notFound(err, ErrCouncilNotFound)
	}
	if err := s.authz.Authorize(ctx, actor, &council.SemesterID,
		models.RoleAdmin, models.RoleAcademicOfficer, models.RoleGraduationThesisManager, models.RoleExaminationOfficer); err != nil {
		return nil, "", err
	}

	sessions, err := s.existingSessions(ctx, council)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", scheduleSheet); err != nil {
		return nil, "", fmt.Errorf("prepare workbook: %w", err)
	}
	if _, err := f.NewSheet(memberSheet); err != nil {
		return nil, "", fmt.Errorf("prepare workbook: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, "", fmt.Errorf("prepare workbook: %w", err)
	}

	if err := writeSheetRow(f, scheduleSheet, 1, []interface{}{"Council", "Type", "Group", "Time", "Room", "Round", "Status"}); err != nil {
		return nil, "", err
	}
	_ = f.SetCellStyle(scheduleSheet, "A1", "G1", headerStyle)
	_ = f.SetColWidth(scheduleSheet, "A", "C", 20)
	_ = f.SetColWidth(scheduleSheet, "D", "D", 22)

	for i, session := range sessions {
		row := []interface{}{
			council.Code,
			session.Type,
			session.GroupCode,
			session.Time.Format("2006-01-02 15:04"),
			session.Room,
			session.Round,
			session.Status,
		}
		if err := writeSheetRow(f, scheduleSheet, i+2, row); err != nil {
			return nil, "", err
		}
	}

	if err := writeSheetRow(f, memberSheet, 1, []interface{}{"Name", "Email", "Role"}); err != nil {
		return nil, "", err
	}
	_ = f.SetCellStyle(memberSheet, "A1", "C1", headerStyle)
	_ = f.SetColWidth(memberSheet, "A", "B", 28)

	for i, member := range council.Members {
		if err := writeSheetRow(f, memberSheet, i+2, []interface{}{member.User.FullName, member.User.Email, string(member.Role)}); err != nil {
			return nil, "", err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		s.logger.Error().Err(err).Uint("council_id", council.ID).Msg("failed to write schedule export")
		return nil, "", fmt.Errorf("write workbook: %w", err)
	}

	return buf.Bytes(), fmt.Sprintf("%s-schedules.xlsx", council.Code), nil
}

func writeSheetRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}
