package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"workshop-tracker/backend/config"
	"workshop-tracker/backend/internal/dto"
	"workshop-tracker/backend/internal/model"
	"workshop-tracker/backend/internal/repository"
	"workshop-tracker/backend/pkg/timeutil"
)

// ── 服务台数模块业务错误 ──

var (
	ErrCountOutOfRange       = errors.New("台数必须为 0 到上限之间的整数")
	ErrMetricsDateOutOfRange = errors.New("录入日期超出允许范围")
	ErrInvalidDate           = errors.New("日期格式无效")
	ErrNotWorkstation        = errors.New("仅工位账号可使用该功能")
	ErrBlankMetricName       = errors.New("工位与顾问名称不能为空")
)

// MetricsService 服务台数台账业务接口
//
// 自然键：工位日报 (日期, 工位)，顾问日报 (日期, 工位, 顾问)。
// Total 与 AlignAndBalance 总是服务端重算。
type MetricsService interface {
	SubmitWorkstationMetrics(ctx context.Context, actor Actor, req *dto.SubmitWorkstationRequest) (*dto.WorkstationMetricResponse, error)
	SubmitAdvisorMetrics(ctx context.Context, actor Actor, req *dto.SubmitAdvisorRequest) (*dto.AdvisorMetricResponse, error)
	// SubmitAdvisorBatch 同一事务内提交多个顾问，任一行失败则整批不落库
	SubmitAdvisorBatch(ctx context.Context, actor Actor, req *dto.SubmitAdvisorBatchRequest) ([]dto.AdvisorMetricResponse, error)
	GetWorkstationDashboard(ctx context.Context, actor Actor) (*dto.DashboardResponse, error)
	ListAdvisorsForEntry(ctx context.Context, actor Actor, date string) (*dto.AdvisorEntryResponse, error)
}

type metricsService struct {
	cfg    *config.MetricsConfig
	repo   *repository.Repository
	clock  timeutil.Clock
	logger *zap.Logger
}

// NewMetricsService 创建 MetricsService 实例
func NewMetricsService(cfg *config.MetricsConfig, repo *repository.Repository, clock timeutil.Clock, logger *zap.Logger) MetricsService {
	return &metricsService{cfg: cfg, repo: repo, clock: clock, logger: logger}
}

// ────────────────────── Submit ──────────────────────

func (s *metricsService) SubmitWorkstationMetrics(ctx context.Context, actor Actor, req *dto.SubmitWorkstationRequest) (*dto.WorkstationMetricResponse, error) {
	day, err := s.entryDate(req.Date)
	if err != nil {
		return nil, err
	}
	workstation := strings.TrimSpace(req.Workstation)
	if workstation == "" {
		return nil, ErrBlankMetricName
	}
	if err := s.authorizeWorkstation(actor, workstation); err != nil {
		return nil, err
	}
	counts, err := s.checkCounts(req.Counts)
	if err != nil {
		return nil, err
	}
	supName, err := s.resolveSupervisorName(ctx, actor, req.SupervisorName)
	if err != nil {
		return nil, err
	}

	m := &model.WorkstationMetric{
		MetricDate:      day,
		WorkstationName: workstation,
		SupervisorName:  supName,
		Counts:          counts,
		SubmittedAt:     s.clock.Now(),
	}
	if err := s.repo.Metrics.UpsertWorkstation(ctx, m); err != nil {
		s.logger.Error("提交工位日报失败", zap.String("workstation", workstation), zap.Error(err))
		return nil, storageErr(err)
	}

	return toWorkstationMetricResponse(m), nil
}

func (s *metricsService) SubmitAdvisorMetrics(ctx context.Context, actor Actor, req *dto.SubmitAdvisorRequest) (*dto.AdvisorMetricResponse, error) {
	rows, err := s.SubmitAdvisorBatch(ctx, actor, &dto.SubmitAdvisorBatchRequest{
		Date:           req.Date,
		Workstation:    req.Workstation,
		SupervisorName: req.SupervisorName,
		Rows:           []dto.AdvisorCountsRow{{Advisor: req.Advisor, Counts: req.Counts}},
	})
	if err != nil {
		return nil, err
	}
	return &rows[0], nil
}

func (s *metricsService) SubmitAdvisorBatch(ctx context.Context, actor Actor, req *dto.SubmitAdvisorBatchRequest) ([]dto.AdvisorMetricResponse, error) {
	day, err := s.entryDate(req.Date)
	if err != nil {
		return nil, err
	}
	workstation := strings.TrimSpace(req.Workstation)
	if workstation == "" {
		return nil, ErrBlankMetricName
	}
	if err := s.authorizeWorkstation(actor, workstation); err != nil {
		return nil, err
	}
	supName, err := s.resolveSupervisorName(ctx, actor, req.SupervisorName)
	if err != nil {
		return nil, err
	}

	// 先整体校验，再落库
	now := s.clock.Now()
	metrics := make([]*model.AdvisorMetric, 0, len(req.Rows))
	for _, r := range req.Rows {
		advisor := strings.TrimSpace(r.Advisor)
		if advisor == "" {
			return nil, ErrBlankMetricName
		}
		counts, err := s.checkCounts(r.Counts)
		if err != nil {
			return nil, fmt.Errorf("%w（顾问 %s）", err, r.Advisor)
		}
		metrics = append(metrics, &model.AdvisorMetric{
			MetricDate:      day,
			WorkstationName: workstation,
			AdvisorName:     advisor,
			SupervisorName:  supName,
			Counts:          counts,
			SubmittedAt:     now,
		})
	}

	err = s.repo.RunInTx(ctx, func(txRepo *repository.Repository) error {
		for _, m := range metrics {
			if err := txRepo.Metrics.UpsertAdvisor(ctx, m); err != nil {
				return storageErr(err)
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("提交顾问日报失败", zap.String("workstation", workstation), zap.Error(err))
		return nil, err
	}

	result := make([]dto.AdvisorMetricResponse, 0, len(metrics))
	for _, m := range metrics {
		result = append(result, *toAdvisorMetricResponse(m))
	}
	return result, nil
}

// ────────────────────── Dashboard ──────────────────────

func (s *metricsService) GetWorkstationDashboard(ctx context.Context, actor Actor) (*dto.DashboardResponse, error) {
	if actor.Role != model.RoleWorkstation {
		return nil, ErrNotWorkstation
	}
	ws, err := loadPerson(ctx, s.repo, actor.Code)
	if err != nil {
		return nil, err
	}

	today := timeutil.DateOf(s.clock.Now())
	rows, err := s.repo.Metrics.ListWorkstationByRange(ctx, timeutil.StartOfMonth(today), today, ws.Name)
	if err != nil {
		s.logger.Error("查询工位月累计失败", zap.String("workstation", ws.Name), zap.Error(err))
		return nil, storageErr(err)
	}

	resp := &dto.DashboardResponse{
		Workstation: ws.Name,
		Date:        timeutil.FormatDate(today),
		Target:      ws.Target,
	}
	var month model.ServiceCounts
	for _, r := range rows {
		month.Add(r.Counts)
		if timeutil.DateOf(r.MetricDate).Equal(today) {
			c := toCountsDTO(r.Counts)
			resp.Today = &c
		}
	}
	resp.MonthToDate = toCountsDTO(month)
	return resp, nil
}

func (s *metricsService) ListAdvisorsForEntry(ctx context.Context, actor Actor, date string) (*dto.AdvisorEntryResponse, error) {
	if actor.Role != model.RoleWorkstation {
		return nil, ErrNotWorkstation
	}
	day := timeutil.DateOf(s.clock.Now())
	if date != "" {
		var err error
		if day, err = s.entryDate(date); err != nil {
			return nil, err
		}
	}

	advisors, err := s.repo.Person.List(ctx, model.RoleAdvisor, actor.Code)
	if err != nil {
		s.logger.Error("查询顾问失败", zap.String("workstation", actor.Code), zap.Error(err))
		return nil, storageErr(err)
	}
	existing, err := s.repo.Metrics.ListAdvisorByRange(ctx, day, day, actor.Name)
	if err != nil {
		s.logger.Error("查询顾问日报失败", zap.String("workstation", actor.Name), zap.Error(err))
		return nil, storageErr(err)
	}
	byName := make(map[string]model.ServiceCounts, len(existing))
	for _, m := range existing {
		byName[m.AdvisorName] = m.Counts
	}

	resp := &dto.AdvisorEntryResponse{
		Date:        timeutil.FormatDate(day),
		Workstation: actor.Name,
		Advisors:    make([]dto.AdvisorEntryRow, 0, len(advisors)),
	}
	for _, a := range advisors {
		counts, ok := byName[a.Name]
		resp.Advisors = append(resp.Advisors, dto.AdvisorEntryRow{
			Code:      a.Code,
			Advisor:   a.Name,
			Submitted: ok,
			Counts:    toCountsDTO(counts),
		})
	}
	sort.SliceStable(resp.Advisors, func(i, j int) bool {
		return resp.Advisors[i].Advisor < resp.Advisors[j].Advisor
	})
	return resp, nil
}

// ── 辅助 ──

// entryDate 解析录入日期并校验 [today-MaxPastDays, today]
func (s *metricsService) entryDate(raw string) (time.Time, error) {
	day, err := timeutil.ParseDate(raw)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	if !timeutil.WithinDays(day, s.clock.Now(), s.cfg.MaxPastDays) {
		return time.Time{}, ErrMetricsDateOutOfRange
	}
	return day, nil
}

func (s *metricsService) checkCounts(in dto.ServiceCounts) (model.ServiceCounts, error) {
	counts := fromCountsDTO(in)
	for _, v := range counts.Inputs() {
		if v < 0 || v > s.cfg.MaxCount {
			return model.ServiceCounts{}, ErrCountOutOfRange
		}
	}
	return counts, nil
}

// authorizeWorkstation 工位账号只能提交自己的数据；主管与超级管理员不限
func (s *metricsService) authorizeWorkstation(actor Actor, workstation string) error {
	switch actor.Role {
	case model.RoleSuperAdmin, model.RoleSupervisor:
		return nil
	case model.RoleWorkstation:
		if actor.Name == workstation {
			return nil
		}
	}
	return ErrUnauthorized
}

// resolveSupervisorName 未显式传入时取提交人的上级（工位）或提交人本人（主管）
func (s *metricsService) resolveSupervisorName(ctx context.Context, actor Actor, given string) (string, error) {
	if name := strings.TrimSpace(given); name != "" {
		return name, nil
	}
	switch actor.Role {
	case model.RoleSupervisor:
		return actor.Name, nil
	case model.RoleWorkstation:
		p, err := loadPerson(ctx, s.repo, actor.Code)
		if err != nil {
			if errors.Is(err, ErrPersonNotFound) {
				return "", nil
			}
			return "", err
		}
		return supervisorName(ctx, s.repo, p)
	}
	return "", nil
}

func toWorkstationMetricResponse(m *model.WorkstationMetric) *dto.WorkstationMetricResponse {
	return &dto.WorkstationMetricResponse{
		Date:           timeutil.FormatDate(m.MetricDate),
		Workstation:    m.WorkstationName,
		SupervisorName: m.SupervisorName,
		Counts:         toCountsDTO(m.Counts),
		SubmittedAt:    m.SubmittedAt.In(timeutil.Location).Format(time.RFC3339),
	}
}

func toAdvisorMetricResponse(m *model.AdvisorMetric) *dto.AdvisorMetricResponse {
	return &dto.AdvisorMetricResponse{
		Date:           timeutil.FormatDate(m.MetricDate),
		Workstation:    m.WorkstationName,
		Advisor:        m.AdvisorName,
		SupervisorName: m.SupervisorName,
		Counts:         toCountsDTO(m.Counts),
		SubmittedAt:    m.SubmittedAt.In(timeutil.Location).Format(time.RFC3339),
	}
}
