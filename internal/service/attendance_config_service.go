package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"workshop-tracker/backend/internal/dto"
	"workshop-tracker/backend/internal/model"
	"workshop-tracker/backend/internal/repository"
)

// ── 补录配置模块业务错误 ──

var (
	ErrAttendanceConfigNotFound = errors.New("补录考勤配置未初始化")
)

// AttendanceConfigService 补录考勤配置业务接口
type AttendanceConfigService interface {
	Get(ctx context.Context) (*dto.PastAttendanceConfigResponse, error)
	Update(ctx context.Context, actor Actor, req *dto.UpdatePastAttendanceConfigRequest) (*dto.PastAttendanceConfigResponse, error)
}

type attendanceConfigService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewAttendanceConfigService 创建 AttendanceConfigService 实例
func NewAttendanceConfigService(repo *repository.Repository, logger *zap.Logger) AttendanceConfigService {
	return &attendanceConfigService{repo: repo, logger: logger}
}

// ────────────────────── Get ──────────────────────

func (s *attendanceConfigService) Get(ctx context.Context) (*dto.PastAttendanceConfigResponse, error) {
	cfg, err := s.repo.AttendanceConfig.Get(ctx)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrAttendanceConfigNotFound
		}
		s.logger.Error("查询补录配置失败", zap.Error(err))
		return nil, storageErr(err)
	}
	return toConfigResponse(cfg), nil
}

// ────────────────────── Update ──────────────────────

func (s *attendanceConfigService) Update(ctx context.Context, actor Actor, req *dto.UpdatePastAttendanceConfigRequest) (*dto.PastAttendanceConfigResponse, error) {
	if !actor.IsSuperAdmin() {
		return nil, ErrUnauthorized
	}

	cfg, err := s.repo.AttendanceConfig.Get(ctx)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrAttendanceConfigNotFound
		}
		s.logger.Error("查询补录配置失败", zap.Error(err))
		return nil, storageErr(err)
	}

	if req.Enabled != nil {
		cfg.Enabled = *req.Enabled
	}
	if req.MaxPastDays != nil {
		cfg.MaxPastDays = *req.MaxPastDays
	}
	updatedBy := actor.Code
	cfg.UpdatedBy = &updatedBy

	if err := s.repo.AttendanceConfig.Update(ctx, cfg); err != nil {
		s.logger.Error("更新补录配置失败", zap.Error(err))
		return nil, storageErr(err)
	}

	s.logger.Info("补录配置已更新",
		zap.Bool("enabled", cfg.Enabled),
		zap.Int("max_past_days", cfg.MaxPastDays),
		zap.String("by", actor.Code),
	)
	return toConfigResponse(cfg), nil
}

func toConfigResponse(cfg *model.PastAttendanceConfig) *dto.PastAttendanceConfigResponse {
	return &dto.PastAttendanceConfigResponse{
		Enabled:     cfg.Enabled,
		MaxPastDays: cfg.MaxPastDays,
		UpdatedAt:   cfg.UpdatedAt.Format(time.RFC3339),
		UpdatedBy:   cfg.UpdatedBy,
	}
}
