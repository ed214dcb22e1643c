package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"workshop-tracker/backend/internal/model"
)

// AttendanceRepository 考勤数据访问接口
// 所有写操作均以 (code, attendance_date) 为自然键，单条语句完成判定与写入
type AttendanceRepository interface {
	Get(ctx context.Context, code string, date time.Time) (*model.Attendance, error)
	// GetForUpdate 行级锁读取，须在事务中调用
	GetForUpdate(ctx context.Context, code string, date time.Time) (*model.Attendance, error)
	// CreateIfAbsent 不存在时插入；已存在返回 false
	CreateIfAbsent(ctx context.Context, a *model.Attendance) (bool, error)
	// UpdatePunchOut 同一语句写入下班时间、照片与时长
	UpdatePunchOut(ctx context.Context, code string, date time.Time, out time.Time, photoRef string, shiftSeconds int64) error
	// UpsertCoalesce 补录：新值为空时保留已有值，时长按合并后的上下班时间重算
	UpsertCoalesce(ctx context.Context, a *model.Attendance) error
	// SetHoliday 仅作用于已有时长的记录，返回受影响行数
	SetHoliday(ctx context.Context, code string, date time.Time, remarks string) (int64, error)
	ClearHoliday(ctx context.Context, code string, date time.Time) error
	// ListByRange 日期闭区间查询；supervisorCode 非空时仅返回其下属技师
	ListByRange(ctx context.Context, start, end time.Time, supervisorCode string) ([]model.Attendance, error)
	ListAll(ctx context.Context) ([]model.Attendance, error)
	// ReplaceAll 整表覆盖，须在事务中调用
	ReplaceAll(ctx context.Context, rows []model.Attendance) error
}

type attendanceRepo struct {
	db *gorm.DB
}

// NewAttendanceRepo 创建 AttendanceRepository 实例
func NewAttendanceRepo(db *gorm.DB) AttendanceRepository {
	return &attendanceRepo{db: db}
}

func (r *attendanceRepo) Get(ctx context.Context, code string, date time.Time) (*model.Attendance, error) {
	var a model.Attendance
	err := r.db.WithContext(ctx).
		Where("code = ? AND attendance_date = ?", code, date).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *attendanceRepo) GetForUpdate(ctx context.Context, code string, date time.Time) (*model.Attendance, error) {
	var a model.Attendance
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("code = ? AND attendance_date = ?", code, date).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *attendanceRepo) CreateIfAbsent(ctx context.Context, a *model.Attendance) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}, {Name: "attendance_date"}},
			DoNothing: true,
		}).
		Create(a)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *attendanceRepo) UpdatePunchOut(ctx context.Context, code string, date time.Time, out time.Time, photoRef string, shiftSeconds int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.Attendance{}).
		Where("code = ? AND attendance_date = ? AND in_time IS NOT NULL", code, date).
		Updates(map[string]interface{}{
			"out_time":               out,
			"out_photo_ref":          photoRef,
			"shift_duration_seconds": shiftSeconds,
			"updated_at":             out,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

const (
	mergedIn  = "COALESCE(EXCLUDED.in_time, attendances.in_time)"
	mergedOut = "COALESCE(EXCLUDED.out_time, attendances.out_time)"
)

func (r *attendanceRepo) UpsertCoalesce(ctx context.Context, a *model.Attendance) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "code"}, {Name: "attendance_date"}},
			DoUpdates: clause.Set{
				{Column: clause.Column{Name: "in_time"}, Value: gorm.Expr(mergedIn)},
				{Column: clause.Column{Name: "out_time"}, Value: gorm.Expr(mergedOut)},
				{Column: clause.Column{Name: "in_photo_ref"}, Value: gorm.Expr("COALESCE(EXCLUDED.in_photo_ref, attendances.in_photo_ref)")},
				{Column: clause.Column{Name: "out_photo_ref"}, Value: gorm.Expr("COALESCE(EXCLUDED.out_photo_ref, attendances.out_photo_ref)")},
				{Column: clause.Column{Name: "shift_duration_seconds"}, Value: gorm.Expr(
					"CASE WHEN " + mergedIn + " IS NULL OR " + mergedOut + " IS NULL THEN NULL" +
						" ELSE EXTRACT(EPOCH FROM date_trunc('second', " + mergedOut + ") - date_trunc('second', " + mergedIn + "))::BIGINT END")},
				{Column: clause.Column{Name: "updated_at"}, Value: gorm.Expr("EXCLUDED.updated_at")},
			},
		}).
		Create(a).Error
}

func (r *attendanceRepo) SetHoliday(ctx context.Context, code string, date time.Time, remarks string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Attendance{}).
		Where("code = ? AND attendance_date = ? AND shift_duration_seconds IS NOT NULL", code, date).
		Updates(map[string]interface{}{
			"holiday":         true,
			"holiday_remarks": remarks,
		})
	return res.RowsAffected, res.Error
}

func (r *attendanceRepo) ClearHoliday(ctx context.Context, code string, date time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.Attendance{}).
		Where("code = ? AND attendance_date = ?", code, date).
		Updates(map[string]interface{}{
			"holiday":         false,
			"holiday_remarks": gorm.Expr("NULL"),
		}).Error
}

func (r *attendanceRepo) ListByRange(ctx context.Context, start, end time.Time, supervisorCode string) ([]model.Attendance, error) {
	var rows []model.Attendance
	db := r.db.WithContext(ctx).
		Where("attendance_date BETWEEN ? AND ?", start, end)
	if supervisorCode != "" {
		db = db.Where("code IN (?)",
			r.db.Model(&model.Person{}).Select("code").Where("supervisor_code = ?", supervisorCode))
	}
	if err := db.Order("attendance_date ASC, code ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *attendanceRepo) ListAll(ctx context.Context) ([]model.Attendance, error) {
	var rows []model.Attendance
	if err := r.db.WithContext(ctx).Order("attendance_date ASC, code ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *attendanceRepo) ReplaceAll(ctx context.Context, rows []model.Attendance) error {
	db := r.db.WithContext(ctx)
	if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.Attendance{}).Error; err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	return db.CreateInBatches(rows, 500).Error
}

// IsNotFound 判断是否为记录不存在
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
