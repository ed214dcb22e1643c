package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"workshop-tracker/backend/internal/dto"
	"workshop-tracker/backend/internal/model"
	"workshop-tracker/backend/internal/repository"
	"workshop-tracker/backend/pkg/timeutil"
)

// ReportService 报表业务接口
type ReportService interface {
	// BuildAttendanceSummary scope 为主管编码；主管调用时强制为本人
	BuildAttendanceSummary(ctx context.Context, actor Actor, start, end time.Time, scope string) ([]dto.AttendanceSummaryRow, error)
	WorkstationServiceSummary(ctx context.Context, actor Actor, start, end time.Time, workstation string) ([]dto.ServiceSummaryRow, error)
	AdvisorServiceSummary(ctx context.Context, actor Actor, start, end time.Time, workstation string) ([]dto.ServiceSummaryRow, error)
}

type reportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewReportService 创建 ReportService 实例
func NewReportService(repo *repository.Repository, logger *zap.Logger) ReportService {
	return &reportService{repo: repo, logger: logger}
}

func (s *reportService) BuildAttendanceSummary(ctx context.Context, actor Actor, start, end time.Time, scope string) ([]dto.AttendanceSummaryRow, error) {
	scope, err := reportScope(actor, scope)
	if err != nil {
		return nil, err
	}
	start, end, err = normalizeRange(start, end)
	if err != nil {
		return nil, err
	}

	records, err := s.repo.Attendance.ListByRange(ctx, start, end, scope)
	if err != nil {
		s.logger.Error("查询考勤汇总数据失败", zap.Error(err))
		return nil, storageErr(err)
	}
	return AggregateAttendance(records, start, end), nil
}

func (s *reportService) WorkstationServiceSummary(ctx context.Context, actor Actor, start, end time.Time, workstation string) ([]dto.ServiceSummaryRow, error) {
	if _, err := reportScope(actor, ""); err != nil {
		return nil, err
	}
	start, end, err := normalizeRange(start, end)
	if err != nil {
		return nil, err
	}

	ms, err := s.repo.Metrics.ListWorkstationByRange(ctx, start, end, workstation)
	if err != nil {
		s.logger.Error("查询工位日报失败", zap.Error(err))
		return nil, storageErr(err)
	}
	rows := scopeServiceRows(actor, workstationRows(ms))
	return BuildServiceSummary(rows, start, end, GroupByWorkstation), nil
}

func (s *reportService) AdvisorServiceSummary(ctx context.Context, actor Actor, start, end time.Time, workstation string) ([]dto.ServiceSummaryRow, error) {
	if _, err := reportScope(actor, ""); err != nil {
		return nil, err
	}
	start, end, err := normalizeRange(start, end)
	if err != nil {
		return nil, err
	}

	ms, err := s.repo.Metrics.ListAdvisorByRange(ctx, start, end, workstation)
	if err != nil {
		s.logger.Error("查询顾问日报失败", zap.Error(err))
		return nil, storageErr(err)
	}
	rows := scopeServiceRows(actor, advisorRows(ms))
	return BuildServiceSummary(rows, start, end, GroupBySupervisorWorkstationAdvisor), nil
}

func normalizeRange(start, end time.Time) (time.Time, time.Time, error) {
	start, end = timeutil.DateOf(start), timeutil.DateOf(end)
	if start.After(end) {
		return start, end, ErrInvalidDateRange
	}
	return start, end, nil
}

// scopeServiceRows 主管只看到以自己名义提交的日报
func scopeServiceRows(actor Actor, rows []ServiceRow) []ServiceRow {
	if actor.Role != model.RoleSupervisor {
		return rows
	}
	kept := rows[:0]
	for _, r := range rows {
		if r.SupervisorName == actor.Name {
			kept = append(kept, r)
		}
	}
	return kept
}
