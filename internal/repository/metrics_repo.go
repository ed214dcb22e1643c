package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"workshop-tracker/backend/internal/model"
)

// MetricsRepository 服务台数数据访问接口
type MetricsRepository interface {
	// UpsertWorkstation 以 (metric_date, workstation_name) 为键插入或整行覆盖
	UpsertWorkstation(ctx context.Context, m *model.WorkstationMetric) error
	// UpsertAdvisor 以 (metric_date, workstation_name, advisor_name) 为键插入或整行覆盖
	UpsertAdvisor(ctx context.Context, m *model.AdvisorMetric) error
	GetWorkstation(ctx context.Context, date time.Time, workstation string) (*model.WorkstationMetric, error)
	// ListWorkstationByRange workstation 为空时返回全部工位
	ListWorkstationByRange(ctx context.Context, start, end time.Time, workstation string) ([]model.WorkstationMetric, error)
	// ListAdvisorByRange workstation 为空时返回全部工位
	ListAdvisorByRange(ctx context.Context, start, end time.Time, workstation string) ([]model.AdvisorMetric, error)
}

type metricsRepo struct {
	db *gorm.DB
}

// NewMetricsRepo 创建 MetricsRepository 实例
func NewMetricsRepo(db *gorm.DB) MetricsRepository {
	return &metricsRepo{db: db}
}

// 覆盖更新的可变列；派生合计随录入列一起写入
var metricMutableColumns = []string{
	"supervisor_name",
	"running_repair", "free_service", "paid_service", "body_shop", "total",
	"align", "balance", "align_and_balance",
	"submitted_at",
}

func (r *metricsRepo) UpsertWorkstation(ctx context.Context, m *model.WorkstationMetric) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "metric_date"}, {Name: "workstation_name"}},
			DoUpdates: clause.AssignmentColumns(metricMutableColumns),
		}).
		Create(m).Error
}

func (r *metricsRepo) UpsertAdvisor(ctx context.Context, m *model.AdvisorMetric) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "metric_date"}, {Name: "workstation_name"}, {Name: "advisor_name"}},
			DoUpdates: clause.AssignmentColumns(metricMutableColumns),
		}).
		Create(m).Error
}

func (r *metricsRepo) GetWorkstation(ctx context.Context, date time.Time, workstation string) (*model.WorkstationMetric, error) {
	var m model.WorkstationMetric
	err := r.db.WithContext(ctx).
		Where("metric_date = ? AND workstation_name = ?", date, workstation).
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *metricsRepo) ListWorkstationByRange(ctx context.Context, start, end time.Time, workstation string) ([]model.WorkstationMetric, error) {
	var rows []model.WorkstationMetric
	db := r.db.WithContext(ctx).Where("metric_date BETWEEN ? AND ?", start, end)
	if workstation != "" {
		db = db.Where("workstation_name = ?", workstation)
	}
	if err := db.Order("metric_date ASC, workstation_name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *metricsRepo) ListAdvisorByRange(ctx context.Context, start, end time.Time, workstation string) ([]model.AdvisorMetric, error) {
	var rows []model.AdvisorMetric
	db := r.db.WithContext(ctx).Where("metric_date BETWEEN ? AND ?", start, end)
	if workstation != "" {
		db = db.Where("workstation_name = ?", workstation)
	}
	if err := db.Order("metric_date ASC, workstation_name ASC, advisor_name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
