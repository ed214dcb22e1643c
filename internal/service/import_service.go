package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"workshop-tracker/backend/internal/dto"
	"workshop-tracker/backend/internal/model"
	"workshop-tracker/backend/internal/repository"
	"workshop-tracker/backend/pkg/sheet"
	"workshop-tracker/backend/pkg/timeutil"
)

// ── 导入模块业务错误 ──

var (
	ErrImportUnreadable = errors.New("无法读取上传的表格文件")
	ErrImportInvalid    = errors.New("导入数据校验未通过，未做任何修改")
)

// ImportService 批量导入业务接口
//
// 导入为整表覆盖：先完整校验，任一行有误则返回全部错误且不落库；
// 校验通过后在单个事务内删除旧数据并写入新数据。
type ImportService interface {
	ImportPeople(ctx context.Context, actor Actor, r io.Reader, filename string) (*dto.ImportResult, error)
	ImportAttendance(ctx context.Context, actor Actor, r io.Reader, filename string) (*dto.ImportResult, error)
}

type importService struct {
	repo     *repository.Repository
	clock    timeutil.Clock
	logger   *zap.Logger
	hashCost int
}

// NewImportService 创建 ImportService 实例
func NewImportService(repo *repository.Repository, clock timeutil.Clock, logger *zap.Logger) ImportService {
	return &importService{repo: repo, clock: clock, logger: logger, hashCost: bcrypt.DefaultCost}
}

// ────────────────────── People ──────────────────────

func (s *importService) ImportPeople(ctx context.Context, actor Actor, r io.Reader, filename string) (*dto.ImportResult, error) {
	if !actor.IsSuperAdmin() {
		return nil, ErrUnauthorized
	}
	header, body, result, err := readSheet(r, filename, []string{"Code", "Name", "Password", "Supervisor_Code", "User_Role"})
	if err != nil {
		return result, err
	}

	// 密码留空时沿用已有哈希
	existing, err := s.repo.Person.List(ctx, "", "")
	if err != nil {
		s.logger.Error("查询人员失败", zap.Error(err))
		return nil, storageErr(err)
	}
	oldHash := make(map[string]string, len(existing))
	for _, p := range existing {
		oldHash[p.Code] = p.PasswordHash
	}

	people := make([]model.Person, 0, len(body))
	seen := make(map[string]int, len(body))
	for i, row := range body {
		line := i + 2
		fail := func(format string, args ...interface{}) {
			result.Errors = append(result.Errors, dto.ImportRowError{Row: line, Reason: fmt.Sprintf(format, args...)})
		}

		code := sheet.Cell(row, header, "Code")
		name := sheet.Cell(row, header, "Name")
		password := sheet.Cell(row, header, "Password")
		supCode := sheet.Cell(row, header, "Supervisor_Code")
		role, roleOK := parseRoleLabel(sheet.Cell(row, header, "User_Role"))

		if code == "" || name == "" {
			fail("Code、Name 不能为空")
			continue
		}
		if !roleOK {
			fail("User_Role 无效: %q", sheet.Cell(row, header, "User_Role"))
			continue
		}
		if role == model.RoleTechnician && supCode == "" {
			fail("技师必须填写 Supervisor_Code")
			continue
		}
		if prev, dup := seen[code]; dup {
			fail("Code %s 与第 %d 行重复", code, prev)
			continue
		}
		seen[code] = line

		hash := oldHash[code]
		if password != "" {
			b, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
			if err != nil {
				fail("密码无法处理")
				continue
			}
			hash = string(b)
		}
		if hash == "" {
			fail("新人员必须填写 Password")
			continue
		}

		p := model.Person{Code: code, Name: name, PasswordHash: hash, Role: role}
		if supCode != "" {
			p.SupervisorCode = &supCode
		}
		if raw := sheet.Cell(row, header, "Target"); raw != "" {
			target, err := strconv.Atoi(raw)
			if err != nil || target < 0 {
				fail("Target 必须为非负整数")
				continue
			}
			p.Target = &target
		}
		people = append(people, p)
	}

	if len(result.Errors) > 0 {
		return result, ErrImportInvalid
	}

	err = s.repo.RunInTx(ctx, func(txRepo *repository.Repository) error {
		return txRepo.Person.ReplaceAll(ctx, people)
	})
	if err != nil {
		s.logger.Error("覆盖人员表失败", zap.Error(err))
		return nil, storageErr(err)
	}

	result.Imported = len(people)
	s.logger.Info("人员表已覆盖", zap.Int("rows", len(people)), zap.String("by", actor.Code))
	return result, nil
}

// ────────────────────── Attendance ──────────────────────

func (s *importService) ImportAttendance(ctx context.Context, actor Actor, r io.Reader, filename string) (*dto.ImportResult, error) {
	if !actor.IsSuperAdmin() {
		return nil, ErrUnauthorized
	}
	header, body, result, err := readSheet(r, filename, attendanceColumns[:10])
	if err != nil {
		return result, err
	}

	rows := make([]model.Attendance, 0, len(body))
	seen := make(map[string]int, len(body))
	now := s.clock.Now()
	for i, row := range body {
		line := i + 2
		fail := func(format string, args ...interface{}) {
			result.Errors = append(result.Errors, dto.ImportRowError{Row: line, Reason: fmt.Sprintf(format, args...)})
		}

		a, reason := parseAttendanceRow(row, header)
		if reason != "" {
			fail("%s", reason)
			continue
		}
		key := a.Code + "|" + timeutil.FormatISODate(a.AttendanceDate)
		if prev, dup := seen[key]; dup {
			fail("(%s, %s) 与第 %d 行重复", a.Code, timeutil.FormatDate(a.AttendanceDate), prev)
			continue
		}
		seen[key] = line
		a.CreatedAt, a.UpdatedAt = now, now
		rows = append(rows, *a)
	}

	if len(result.Errors) > 0 {
		return result, ErrImportInvalid
	}

	err = s.repo.RunInTx(ctx, func(txRepo *repository.Repository) error {
		return txRepo.Attendance.ReplaceAll(ctx, rows)
	})
	if err != nil {
		s.logger.Error("覆盖考勤表失败", zap.Error(err))
		return nil, storageErr(err)
	}

	result.Imported = len(rows)
	s.logger.Info("考勤表已覆盖", zap.Int("rows", len(rows)), zap.String("by", actor.Code))
	return result, nil
}

// parseAttendanceRow 解析一行考勤；时长由上下班时间重算，表中的 Shift_Duration 非空时必须与之一致
func parseAttendanceRow(row []string, header map[string]int) (*model.Attendance, string) {
	cell := func(col string) string { return sheet.Cell(row, header, col) }

	code, name, supName := cell("Code"), cell("Name"), cell("Supervisor_Name")
	if code == "" || name == "" || cell("Attendance_Date") == "" || cell("In_Time") == "" || supName == "" {
		return nil, "Code、Name、Attendance_Date、In_Time、Supervisor_Name 不能为空"
	}

	day, err := timeutil.ParseDate(cell("Attendance_Date"))
	if err != nil {
		return nil, fmt.Sprintf("Attendance_Date 格式无效: %q", cell("Attendance_Date"))
	}
	in, err := timeutil.ClockOn(day, cell("In_Time"))
	if err != nil {
		return nil, fmt.Sprintf("In_Time 格式无效: %q", cell("In_Time"))
	}

	a := &model.Attendance{
		Code:            code,
		AttendanceDate:  day,
		Name:            name,
		WorkstationName: cell("Workstation_Name"),
		InTime:          &in,
		InPhotoRef:      optional(cell("In_Time_Photo_Link")),
		OutPhotoRef:     optional(cell("Out_Time_Photo_Link")),
		SupervisorName:  supName,
		HolidayRemarks:  optional(cell("Holiday_Remarks")),
	}

	if raw := cell("Out_Time"); raw != "" {
		out, err := timeutil.ClockOn(day, raw)
		if err != nil {
			return nil, fmt.Sprintf("Out_Time 格式无效: %q", raw)
		}
		d, err := timeutil.Span(in, out)
		if err != nil {
			return nil, "Out_Time 早于 In_Time"
		}
		secs := int64(d / time.Second)
		a.OutTime = &out
		a.ShiftSeconds = &secs
	}
	// 时长以上下班时间为准，表中填写的值必须与之一致
	if raw := cell("Shift_Duration"); raw != "" {
		d, err := timeutil.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Sprintf("Shift_Duration 格式无效: %q", raw)
		}
		if a.ShiftSeconds == nil || int64(d/time.Second) != *a.ShiftSeconds {
			return nil, fmt.Sprintf("Shift_Duration %q 与上下班时间不符", raw)
		}
	}

	switch strings.ToLower(cell("Holiday")) {
	case "", "no", "false", "0":
	case "yes", "true", "1":
		if a.ShiftSeconds == nil || a.HolidayRemarks == nil {
			return nil, "假日行必须有完整班次与备注"
		}
		a.Holiday = true
	default:
		return nil, fmt.Sprintf("Holiday 取值无效: %q", cell("Holiday"))
	}
	if !a.Holiday {
		a.HolidayRemarks = nil
	}
	return a, ""
}

// ── 辅助函数 ──

// readSheet 读取表格并校验必需列；返回表头索引与数据行（不含表头）
func readSheet(r io.Reader, filename string, required []string) (map[string]int, [][]string, *dto.ImportResult, error) {
	rows, err := sheet.ReadRows(r, filename)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: %v", ErrImportUnreadable, err)
	}

	header := sheet.HeaderIndex(rows[0])
	body := rows[1:]
	result := &dto.ImportResult{Total: len(body)}
	if missing := sheet.MissingColumns(header, required); len(missing) > 0 {
		result.Errors = append(result.Errors, dto.ImportRowError{
			Row:    1,
			Reason: "缺少列: " + strings.Join(missing, ", "),
		})
		return nil, nil, result, ErrImportInvalid
	}
	return header, body, result, nil
}

// parseRoleLabel 接受 "Super Admin" / "super_admin" 等写法
func parseRoleLabel(label string) (string, bool) {
	role := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(label)), " ", "_")
	return role, model.ValidRole(role)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
