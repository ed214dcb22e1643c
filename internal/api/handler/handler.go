package handler

import (
	"io"

	"workshop-tracker/backend/internal/service"
)

// PhotoArchiver 打卡照片打包下载（由 pkg/photo 实现）
type PhotoArchiver interface {
	Archive(w io.Writer) error
}

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth             *AuthHandler
	Person           *PersonHandler
	Attendance       *AttendanceHandler
	AttendanceConfig *AttendanceConfigHandler
	Metrics          *MetricsHandler
	Report           *ReportHandler
	Export           *ExportHandler
	Import           *ImportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service, photos PhotoArchiver) *Handler {
	return &Handler{
		Auth:             NewAuthHandler(svc.Auth),
		Person:           NewPersonHandler(svc.Person),
		Attendance:       NewAttendanceHandler(svc.Attendance),
		AttendanceConfig: NewAttendanceConfigHandler(svc.AttendanceConfig),
		Metrics:          NewMetricsHandler(svc.Metrics),
		Report:           NewReportHandler(svc.Report),
		Export:           NewExportHandler(svc.Export, photos),
		Import:           NewImportHandler(svc.Import),
	}
}
