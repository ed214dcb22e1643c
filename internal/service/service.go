package service

import (
	"go.uber.org/zap"

	"workshop-tracker/backend/config"
	"workshop-tracker/backend/internal/repository"
	"workshop-tracker/backend/pkg/jwt"
	"workshop-tracker/backend/pkg/timeutil"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth             AuthService
	Person           PersonService
	Attendance       AttendanceService
	AttendanceConfig AttendanceConfigService
	Metrics          MetricsService
	Report           ReportService
	Export           ExportService
	Import           ImportService
}

// Deps 外部协作者；Blacklist 为 nil 时登出仅由客户端丢弃 Token
type Deps struct {
	JWT       *jwt.Manager
	Blacklist TokenBlacklist
	Photos    PhotoStore
	Clock     timeutil.Clock
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	deps Deps,
	logger *zap.Logger,
) *Service {
	clock := deps.Clock
	if clock == nil {
		clock = timeutil.SystemClock{}
	}

	report := NewReportService(repo, logger)
	return &Service{
		Auth:             NewAuthService(cfg, repo, deps.JWT, deps.Blacklist, logger),
		Person:           NewPersonService(repo, logger),
		Attendance:       NewAttendanceService(repo, deps.Photos, clock, logger),
		AttendanceConfig: NewAttendanceConfigService(repo, logger),
		Metrics:          NewMetricsService(&cfg.Metrics, repo, clock, logger),
		Report:           report,
		Export:           NewExportService(repo, report, clock, logger),
		Import:           NewImportService(repo, clock, logger),
	}
}
