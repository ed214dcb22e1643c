package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"workshop-tracker/backend/internal/dto"
	"workshop-tracker/backend/internal/model"
	"workshop-tracker/backend/internal/repository"
	"workshop-tracker/backend/pkg/sheet"
	"workshop-tracker/backend/pkg/timeutil"
)

// ── 导出模块业务错误 ──

var (
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// 与历史导出文件一致的列名
var (
	peopleColumns     = []string{"Code", "Name", "Password", "Supervisor_Code", "User_Role", "Target"}
	attendanceColumns = []string{
		"Code", "Name", "Workstation_Name", "Attendance_Date",
		"In_Time", "In_Time_Photo_Link", "Out_Time", "Out_Time_Photo_Link",
		"Supervisor_Name", "Shift_Duration", "Holiday", "Holiday_Remarks",
	}
	countColumns = []string{
		"Running_Repair", "Free_Service", "Paid_Service", "Body_Shop", "Total",
		"Align", "Balance", "Align_And_Balance",
	}
)

// ExportService 导出业务接口
//
// 导出以 FileResponse 返回，由 Handler 层设置下载响应头后写出。
// 汇总类导出复用 ReportService 的结果；原始表导出仅超级管理员可用。
type ExportService interface {
	ExportAttendanceSummary(ctx context.Context, actor Actor, start, end time.Time, scope string) (*dto.FileResponse, error)
	// ExportServiceSummary 工位汇总与顾问汇总各占一个工作表
	ExportServiceSummary(ctx context.Context, actor Actor, start, end time.Time, workstation string) (*dto.FileResponse, error)
	// ExportPeople 密码列留空，回导时留空表示沿用原密码
	ExportPeople(ctx context.Context, actor Actor) (*dto.FileResponse, error)
	ExportAttendance(ctx context.Context, actor Actor) (*dto.FileResponse, error)
}

type exportService struct {
	repo   *repository.Repository
	report ReportService
	clock  timeutil.Clock
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, report ReportService, clock timeutil.Clock, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, report: report, clock: clock, logger: logger}
}

// ────────────────────── 汇总导出 ──────────────────────

func (s *exportService) ExportAttendanceSummary(ctx context.Context, actor Actor, start, end time.Time, scope string) (*dto.FileResponse, error) {
	summary, err := s.report.BuildAttendanceSummary(ctx, actor, start, end, scope)
	if err != nil {
		return nil, err
	}

	rows := make([][]interface{}, 0, len(summary))
	for _, r := range summary {
		rows = append(rows, []interface{}{
			r.SupervisorName, r.Code, r.Name, r.TotalDays, r.SundayCount, r.HolidayCount, r.TotalHours,
		})
	}

	return s.write("Attendance_Report", sheet.Table{
		Name:    "Attendance",
		Title:   rangeTitle("考勤汇总", start, end),
		Headers: []string{"Supervisor_Name", "Technician_Code", "Technician_Name", "Total_Days", "Sundays", "Holidays", "Total_Hours"},
		Rows:    rows,
		Widths:  []float64{20, 16, 22, 12, 10, 10, 14},
	})
}

func (s *exportService) ExportServiceSummary(ctx context.Context, actor Actor, start, end time.Time, workstation string) (*dto.FileResponse, error) {
	wsSummary, err := s.report.WorkstationServiceSummary(ctx, actor, start, end, workstation)
	if err != nil {
		return nil, err
	}
	advSummary, err := s.report.AdvisorServiceSummary(ctx, actor, start, end, workstation)
	if err != nil {
		return nil, err
	}

	wsRows := make([][]interface{}, 0, len(wsSummary))
	for _, r := range wsSummary {
		wsRows = append(wsRows, append([]interface{}{r.WorkstationName}, countCells(r.Counts)...))
	}
	advRows := make([][]interface{}, 0, len(advSummary))
	for _, r := range advSummary {
		advRows = append(advRows, append([]interface{}{r.SupervisorName, r.WorkstationName, r.AdvisorName}, countCells(r.Counts)...))
	}

	return s.write("Service_Report",
		sheet.Table{
			Name:    "Workstation",
			Title:   rangeTitle("工位台数汇总", start, end),
			Headers: append([]string{"Workstation_Name"}, countColumns...),
			Rows:    wsRows,
		},
		sheet.Table{
			Name:    "Advisor",
			Title:   rangeTitle("顾问台数汇总", start, end),
			Headers: append([]string{"Supervisor_Name", "Workstation_Name", "Advisor_Name"}, countColumns...),
			Rows:    advRows,
		},
	)
}

// ────────────────────── 原始表导出 ──────────────────────

func (s *exportService) ExportPeople(ctx context.Context, actor Actor) (*dto.FileResponse, error) {
	if !actor.IsSuperAdmin() {
		return nil, ErrUnauthorized
	}
	people, err := s.repo.Person.List(ctx, "", "")
	if err != nil {
		s.logger.Error("查询人员失败", zap.Error(err))
		return nil, storageErr(err)
	}

	rows := make([][]interface{}, 0, len(people))
	for _, p := range people {
		rows = append(rows, []interface{}{
			p.Code, p.Name, "", deref(p.SupervisorCode), roleLabel(p.Role), intOrBlank(p.Target),
		})
	}
	return s.write("User_Credentials", sheet.Table{Name: "User_Credentials", Headers: peopleColumns, Rows: rows})
}

func (s *exportService) ExportAttendance(ctx context.Context, actor Actor) (*dto.FileResponse, error) {
	if !actor.IsSuperAdmin() {
		return nil, ErrUnauthorized
	}
	records, err := s.repo.Attendance.ListAll(ctx)
	if err != nil {
		s.logger.Error("查询考勤失败", zap.Error(err))
		return nil, storageErr(err)
	}

	rows := make([][]interface{}, 0, len(records))
	for i := range records {
		r := toAttendanceResponse(&records[i])
		rows = append(rows, []interface{}{
			r.Code, r.Name, r.WorkstationName, r.Date,
			r.InTime, deref(r.InPhotoRef), r.OutTime, deref(r.OutPhotoRef),
			r.SupervisorName, r.ShiftDuration, yesNo(r.Holiday), deref(r.HolidayRemarks),
		})
	}
	return s.write("Attendance", sheet.Table{Name: "Attendance", Headers: attendanceColumns, Rows: rows})
}

// ── 辅助函数 ──

func (s *exportService) write(base string, tables ...sheet.Table) (*dto.FileResponse, error) {
	buf, err := sheet.Write(tables...)
	if err != nil {
		s.logger.Error("写入 Excel 失败", zap.String("file", base), zap.Error(err))
		return nil, ErrExportGenerateFail
	}
	return &dto.FileResponse{
		Filename:    fmt.Sprintf("%s_%s.xlsx", base, timeutil.FormatDate(s.clock.Now())),
		ContentType: xlsxContentType,
		Content:     buf.Bytes(),
	}, nil
}

func rangeTitle(title string, start, end time.Time) string {
	return fmt.Sprintf("%s %s 至 %s", title, timeutil.FormatDate(start), timeutil.FormatDate(end))
}

func countCells(c dto.ServiceCounts) []interface{} {
	return []interface{}{
		c.RunningRepair, c.FreeService, c.PaidService, c.BodyShop, c.Total,
		c.Align, c.Balance, c.AlignAndBalance,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func intOrBlank(v *int) interface{} {
	if v == nil {
		return ""
	}
	return *v
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// roleLabel 角色的表格写法，与 parseRoleLabel 互逆
func roleLabel(role string) string {
	switch role {
	case model.RoleTechnician:
		return "Technician"
	case model.RoleSupervisor:
		return "Supervisor"
	case model.RoleWorkstation:
		return "Workstation"
	case model.RoleAdvisor:
		return "Advisor"
	case model.RoleSuperAdmin:
		return "Super Admin"
	}
	return role
}
