package repository

import (
	"context"

	"gorm.io/gorm"

	"workshop-tracker/backend/internal/model"
)

// AttendanceConfigRepository 补录考勤配置数据访问接口（单行表）
type AttendanceConfigRepository interface {
	Get(ctx context.Context) (*model.PastAttendanceConfig, error)
	Update(ctx context.Context, cfg *model.PastAttendanceConfig) error
}

type attendanceConfigRepo struct {
	db *gorm.DB
}

// NewAttendanceConfigRepo 创建 AttendanceConfigRepository 实例
func NewAttendanceConfigRepo(db *gorm.DB) AttendanceConfigRepository {
	return &attendanceConfigRepo{db: db}
}

func (r *attendanceConfigRepo) Get(ctx context.Context) (*model.PastAttendanceConfig, error) {
	var cfg model.PastAttendanceConfig
	err := r.db.WithContext(ctx).Where("singleton = ?", true).First(&cfg).Error
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *attendanceConfigRepo) Update(ctx context.Context, cfg *model.PastAttendanceConfig) error {
	cfg.Singleton = true
	return r.db.WithContext(ctx).
		Model(&model.PastAttendanceConfig{}).
		Where("singleton = ?", true).
		Updates(map[string]interface{}{
			"enabled":       cfg.Enabled,
			"max_past_days": cfg.MaxPastDays,
			"updated_by":    cfg.UpdatedBy,
			"updated_at":    gorm.Expr("CURRENT_TIMESTAMP"),
		}).Error
}
