package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"workshop-tracker/backend/internal/dto"
	"workshop-tracker/backend/internal/model"
	"workshop-tracker/backend/internal/repository"
	"workshop-tracker/backend/pkg/photo"
	"workshop-tracker/backend/pkg/timeutil"
)

// ── 考勤模块业务错误 ──

var (
	ErrAlreadyPunchedIn    = errors.New("今日已上班打卡")
	ErrAlreadyPunchedOut   = errors.New("今日已下班打卡，如需修改请走补录")
	ErrNoOpenShift         = errors.New("今日没有上班打卡记录")
	ErrInvalidDuration     = errors.New("下班时间早于上班时间，不支持跨午夜班次")
	ErrBlankRemarks        = errors.New("假日备注不能为空")
	ErrAttendanceNotFound  = errors.New("该日期没有已完成的考勤记录")
	ErrPastEditingDisabled = errors.New("补录考勤未开启")
	ErrPastDateOutOfRange  = errors.New("补录日期超出允许范围")
	ErrEmptyPastEntry      = errors.New("上班或下班时间至少填写一项")
	ErrInvalidClock        = errors.New("时间格式应为 hh.mm.ss AM/PM")
	ErrPhotoRequired       = errors.New("本人打卡必须上传照片")
	ErrInvalidPhoto        = errors.New("照片无法识别，仅支持 jpeg/png/webp")
	ErrInvalidDateRange    = errors.New("开始日期不能晚于结束日期")
)

// PhotoStore 打卡照片存储（由 pkg/photo 实现）
type PhotoStore interface {
	Save(code string, kind photo.Kind, at time.Time, raw []byte) (string, error)
	Remove(ref string) error
}

// AttendanceService 考勤台账业务接口
//
// 每人每日至多一行；状态 Absent → InOnly → Complete，假日为正交标记。
// 所有写操作以 (code, date) 为键原子完成判定与写入。
type AttendanceService interface {
	// PunchIn code 为空表示本人打卡；主管为下属代打卡时无需照片，照片引用记为主管姓名
	PunchIn(ctx context.Context, actor Actor, code, workstation string, raw []byte) (*dto.AttendanceResponse, error)
	PunchOut(ctx context.Context, actor Actor, code string, raw []byte) (*dto.AttendanceResponse, error)
	MarkHoliday(ctx context.Context, actor Actor, code string, date time.Time, remarks string) (*dto.AttendanceResponse, error)
	ClearHoliday(ctx context.Context, actor Actor, code string, date time.Time) error
	RecordPastAttendance(ctx context.Context, actor Actor, code string, date time.Time, inClock, outClock *string) (*dto.AttendanceResponse, error)
	HasPunchedInToday(ctx context.Context, code string) (bool, error)
	GetToday(ctx context.Context, actor Actor, code string) (*dto.TodayStatusResponse, error)
	List(ctx context.Context, actor Actor, start, end time.Time, supervisorCode string) ([]dto.AttendanceResponse, error)
}

type attendanceService struct {
	repo   *repository.Repository
	photos PhotoStore
	clock  timeutil.Clock
	logger *zap.Logger
}

// NewAttendanceService 创建 AttendanceService 实例
func NewAttendanceService(repo *repository.Repository, photos PhotoStore, clock timeutil.Clock, logger *zap.Logger) AttendanceService {
	return &attendanceService{repo: repo, photos: photos, clock: clock, logger: logger}
}

func (s *attendanceService) now() time.Time {
	return s.clock.Now().In(timeutil.Location).Truncate(time.Second)
}

// ────────────────────── PunchIn ──────────────────────

func (s *attendanceService) PunchIn(ctx context.Context, actor Actor, code, workstation string, raw []byte) (*dto.AttendanceResponse, error) {
	if code == "" {
		code = actor.Code
	}
	person, err := authorizeFor(ctx, s.repo, actor, code, true)
	if err != nil {
		return nil, err
	}

	now := s.now()
	day := timeutil.DateOf(now)

	// 先查一次，避免重复打卡时照片落盘
	if _, err := s.repo.Attendance.Get(ctx, code, day); err == nil {
		return nil, ErrAlreadyPunchedIn
	} else if !repository.IsNotFound(err) {
		s.logger.Error("查询考勤失败", zap.String("code", code), zap.Error(err))
		return nil, storageErr(err)
	}

	ref, err := s.photoRef(actor, code, photo.KindIn, now, raw)
	if err != nil {
		return nil, err
	}
	supName, err := supervisorName(ctx, s.repo, person)
	if err != nil {
		s.logger.Error("查询上级失败", zap.String("code", code), zap.Error(err))
		return nil, err
	}

	row := &model.Attendance{
		Code:            code,
		AttendanceDate:  day,
		Name:            person.Name,
		WorkstationName: strings.TrimSpace(workstation),
		InTime:          &now,
		InPhotoRef:      &ref,
		SupervisorName:  supName,
	}
	created, err := s.repo.Attendance.CreateIfAbsent(ctx, row)
	if err != nil {
		s.logger.Error("写入上班打卡失败", zap.String("code", code), zap.Error(err))
		s.discardPhoto(actor, code, ref)
		return nil, storageErr(err)
	}
	if !created {
		s.discardPhoto(actor, code, ref)
		return nil, ErrAlreadyPunchedIn
	}

	s.logger.Info("上班打卡",
		zap.String("code", code),
		zap.String("date", timeutil.FormatDate(day)),
		zap.String("by", actor.Code),
	)
	resp := toAttendanceResponse(row)
	return &resp, nil
}

// ────────────────────── PunchOut ──────────────────────

func (s *attendanceService) PunchOut(ctx context.Context, actor Actor, code string, raw []byte) (*dto.AttendanceResponse, error) {
	if code == "" {
		code = actor.Code
	}
	if _, err := authorizeFor(ctx, s.repo, actor, code, true); err != nil {
		return nil, err
	}

	now := s.now()
	day := timeutil.DateOf(now)

	var (
		result *model.Attendance
		ref    string
	)
	err := s.repo.RunInTx(ctx, func(txRepo *repository.Repository) error {
		row, err := txRepo.Attendance.GetForUpdate(ctx, code, day)
		if err != nil {
			if repository.IsNotFound(err) {
				return ErrNoOpenShift
			}
			return storageErr(err)
		}
		if row.InTime == nil {
			return ErrNoOpenShift
		}
		if row.OutTime != nil {
			return ErrAlreadyPunchedOut
		}

		d, err := timeutil.Span(*row.InTime, now)
		if err != nil {
			return ErrInvalidDuration
		}

		ref, err = s.photoRef(actor, code, photo.KindOut, now, raw)
		if err != nil {
			return err
		}

		secs := int64(d / time.Second)
		if err := txRepo.Attendance.UpdatePunchOut(ctx, code, day, now, ref, secs); err != nil {
			if repository.IsNotFound(err) {
				return ErrNoOpenShift
			}
			return storageErr(err)
		}
		row.OutTime = &now
		row.OutPhotoRef = &ref
		row.ShiftSeconds = &secs
		result = row
		return nil
	})
	if err != nil {
		if ref != "" {
			s.discardPhoto(actor, code, ref)
		}
		s.logBusinessOrStorage("下班打卡失败", code, err)
		return nil, err
	}

	s.logger.Info("下班打卡",
		zap.String("code", code),
		zap.String("shift", timeutil.FormatDuration(*result.ShiftDuration())),
		zap.String("by", actor.Code),
	)
	resp := toAttendanceResponse(result)
	return &resp, nil
}

// ────────────────────── Holiday ──────────────────────

func (s *attendanceService) MarkHoliday(ctx context.Context, actor Actor, code string, date time.Time, remarks string) (*dto.AttendanceResponse, error) {
	remarks = strings.TrimSpace(remarks)
	if remarks == "" {
		return nil, ErrBlankRemarks
	}
	if _, err := authorizeFor(ctx, s.repo, actor, code, false); err != nil {
		return nil, err
	}

	day := timeutil.DateOf(date)
	// 只能标记已有时长的记录
	n, err := s.repo.Attendance.SetHoliday(ctx, code, day, remarks)
	if err != nil {
		s.logger.Error("标记假日失败", zap.String("code", code), zap.Error(err))
		return nil, storageErr(err)
	}
	if n == 0 {
		return nil, ErrAttendanceNotFound
	}

	row, err := s.repo.Attendance.Get(ctx, code, day)
	if err != nil {
		s.logger.Error("查询考勤失败", zap.String("code", code), zap.Error(err))
		return nil, storageErr(err)
	}
	resp := toAttendanceResponse(row)
	return &resp, nil
}

func (s *attendanceService) ClearHoliday(ctx context.Context, actor Actor, code string, date time.Time) error {
	if _, err := authorizeFor(ctx, s.repo, actor, code, false); err != nil {
		return err
	}
	if err := s.repo.Attendance.ClearHoliday(ctx, code, timeutil.DateOf(date)); err != nil {
		s.logger.Error("取消假日失败", zap.String("code", code), zap.Error(err))
		return storageErr(err)
	}
	return nil
}

// ────────────────────── RecordPastAttendance ──────────────────────

func (s *attendanceService) RecordPastAttendance(ctx context.Context, actor Actor, code string, date time.Time, inClock, outClock *string) (*dto.AttendanceResponse, error) {
	person, err := authorizeFor(ctx, s.repo, actor, code, false)
	if err != nil {
		return nil, err
	}

	cfg, err := s.repo.AttendanceConfig.Get(ctx)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrPastEditingDisabled
		}
		s.logger.Error("查询补录配置失败", zap.Error(err))
		return nil, storageErr(err)
	}
	if !cfg.Enabled {
		return nil, ErrPastEditingDisabled
	}
	day := timeutil.DateOf(date)
	if !timeutil.WithinDays(day, s.now(), cfg.MaxPastDays) {
		return nil, ErrPastDateOutOfRange
	}

	in, err := anchorClock(day, inClock)
	if err != nil {
		return nil, err
	}
	out, err := anchorClock(day, outClock)
	if err != nil {
		return nil, err
	}
	if in == nil && out == nil {
		return nil, ErrEmptyPastEntry
	}

	supName, err := supervisorName(ctx, s.repo, person)
	if err != nil {
		return nil, err
	}

	var result *model.Attendance
	err = s.repo.RunInTx(ctx, func(txRepo *repository.Repository) error {
		existing, err := txRepo.Attendance.GetForUpdate(ctx, code, day)
		if err != nil && !repository.IsNotFound(err) {
			return storageErr(err)
		}

		// 合并后的上下班时间：新值非空时覆盖，空值不擦除已有数据
		mergedIn, mergedOut := in, out
		if existing != nil {
			if mergedIn == nil {
				mergedIn = existing.InTime
			}
			if mergedOut == nil {
				mergedOut = existing.OutTime
			}
		}
		if mergedIn == nil {
			return ErrNoOpenShift
		}
		if mergedOut != nil {
			if _, err := timeutil.Span(*mergedIn, *mergedOut); err != nil {
				return ErrInvalidDuration
			}
		}

		row := &model.Attendance{
			Code:           code,
			AttendanceDate: day,
			Name:           person.Name,
			SupervisorName: supName,
			InTime:         in,
			OutTime:        out,
		}
		// 补录没有照片，记录操作人姓名
		if in != nil {
			row.InPhotoRef = &actor.Name
		}
		if out != nil {
			row.OutPhotoRef = &actor.Name
		}
		if existing == nil && in != nil && out != nil {
			d, _ := timeutil.Span(*in, *out)
			secs := int64(d / time.Second)
			row.ShiftSeconds = &secs
		}
		if err := txRepo.Attendance.UpsertCoalesce(ctx, row); err != nil {
			return storageErr(err)
		}

		saved, err := txRepo.Attendance.Get(ctx, code, day)
		if err != nil {
			return storageErr(err)
		}
		result = saved
		return nil
	})
	if err != nil {
		s.logBusinessOrStorage("补录考勤失败", code, err)
		return nil, err
	}

	s.logger.Info("补录考勤",
		zap.String("code", code),
		zap.String("date", timeutil.FormatDate(day)),
		zap.String("by", actor.Code),
	)
	resp := toAttendanceResponse(result)
	return &resp, nil
}

// ────────────────────── Query ──────────────────────

func (s *attendanceService) HasPunchedInToday(ctx context.Context, code string) (bool, error) {
	row, err := s.repo.Attendance.Get(ctx, code, timeutil.DateOf(s.now()))
	if err != nil {
		if repository.IsNotFound(err) {
			return false, nil
		}
		return false, storageErr(err)
	}
	return row.InTime != nil, nil
}

func (s *attendanceService) GetToday(ctx context.Context, actor Actor, code string) (*dto.TodayStatusResponse, error) {
	if code == "" {
		code = actor.Code
	}
	if _, err := authorizeFor(ctx, s.repo, actor, code, true); err != nil {
		return nil, err
	}

	day := timeutil.DateOf(s.now())
	status := &dto.TodayStatusResponse{
		Code:  code,
		Date:  timeutil.FormatDate(day),
		State: string(model.StateAbsent),
	}
	row, err := s.repo.Attendance.Get(ctx, code, day)
	if err != nil {
		if repository.IsNotFound(err) {
			return status, nil
		}
		s.logger.Error("查询考勤失败", zap.String("code", code), zap.Error(err))
		return nil, storageErr(err)
	}

	resp := toAttendanceResponse(row)
	status.PunchedIn = row.InTime != nil
	status.State = resp.State
	status.Record = &resp
	return status, nil
}

func (s *attendanceService) List(ctx context.Context, actor Actor, start, end time.Time, supervisorCode string) ([]dto.AttendanceResponse, error) {
	scope, err := reportScope(actor, supervisorCode)
	if err != nil {
		return nil, err
	}
	start, end = timeutil.DateOf(start), timeutil.DateOf(end)
	if start.After(end) {
		return nil, ErrInvalidDateRange
	}

	rows, err := s.repo.Attendance.ListByRange(ctx, start, end, scope)
	if err != nil {
		s.logger.Error("查询考勤明细失败", zap.Error(err))
		return nil, storageErr(err)
	}
	result := make([]dto.AttendanceResponse, 0, len(rows))
	for i := range rows {
		result = append(result, toAttendanceResponse(&rows[i]))
	}
	return result, nil
}

// ── 辅助 ──

// photoRef 本人打卡保存照片；代打卡记录代打人姓名
func (s *attendanceService) photoRef(actor Actor, code string, kind photo.Kind, at time.Time, raw []byte) (string, error) {
	if actor.Code != code {
		return actor.Name, nil
	}
	if len(raw) == 0 || s.photos == nil {
		return "", ErrPhotoRequired
	}
	ref, err := s.photos.Save(code, kind, at, raw)
	if err != nil {
		if errors.Is(err, photo.ErrEmptyPhoto) ||
			errors.Is(err, photo.ErrUnsupportedPhoto) ||
			errors.Is(err, photo.ErrDecodePhoto) {
			return "", ErrInvalidPhoto
		}
		s.logger.Error("保存打卡照片失败", zap.String("code", code), zap.Error(err))
		return "", err
	}
	return ref, nil
}

// discardPhoto 打卡未落库时删除已保存的照片；代打卡没有照片文件
func (s *attendanceService) discardPhoto(actor Actor, code, ref string) {
	if actor.Code != code || s.photos == nil {
		return
	}
	if err := s.photos.Remove(ref); err != nil {
		s.logger.Warn("删除未使用的打卡照片失败", zap.String("ref", ref), zap.Error(err))
	}
}

func (s *attendanceService) logBusinessOrStorage(msg, code string, err error) {
	if isStorage(err) {
		s.logger.Error(msg, zap.String("code", code), zap.Error(err))
	}
}

func anchorClock(day time.Time, clock *string) (*time.Time, error) {
	if clock == nil || strings.TrimSpace(*clock) == "" {
		return nil, nil
	}
	t, err := timeutil.ClockOn(day, *clock)
	if err != nil {
		return nil, ErrInvalidClock
	}
	return &t, nil
}
