package service

import (
	"context"
	"errors"
	"fmt"

	"workshop-tracker/backend/internal/dto"
	"workshop-tracker/backend/internal/model"
	"workshop-tracker/backend/internal/repository"
	pkgerrors "workshop-tracker/backend/pkg/errors"
	"workshop-tracker/backend/pkg/timeutil"
)

// storageErr 包装存储层错误，保留原始错误链
func storageErr(err error) error {
	return fmt.Errorf("%w: %w", pkgerrors.ErrStorage, err)
}

// supervisorName 解析人员的上级姓名；无上级或上级不存在时返回空串
func supervisorName(ctx context.Context, repo *repository.Repository, p *model.Person) (string, error) {
	if p == nil || p.SupervisorCode == nil || *p.SupervisorCode == "" {
		return "", nil
	}
	sup, err := repo.Person.GetByCode(ctx, *p.SupervisorCode)
	if err != nil {
		if repository.IsNotFound(err) {
			return "", nil
		}
		return "", storageErr(err)
	}
	return sup.Name, nil
}

// ── 模型 → DTO ──

func toPersonResponse(p *model.Person) dto.PersonResponse {
	return dto.PersonResponse{
		Code:           p.Code,
		Name:           p.Name,
		Role:           p.Role,
		SupervisorCode: p.SupervisorCode,
		Target:         p.Target,
	}
}

func toAttendanceResponse(a *model.Attendance) dto.AttendanceResponse {
	resp := dto.AttendanceResponse{
		Code:            a.Code,
		Name:            a.Name,
		Date:            timeutil.FormatDate(a.AttendanceDate),
		WorkstationName: a.WorkstationName,
		InPhotoRef:      a.InPhotoRef,
		OutPhotoRef:     a.OutPhotoRef,
		SupervisorName:  a.SupervisorName,
		State:           string(a.State()),
		Holiday:         a.Holiday,
		HolidayRemarks:  a.HolidayRemarks,
	}
	if a.InTime != nil {
		resp.InTime = timeutil.FormatClock(*a.InTime)
	}
	if a.OutTime != nil {
		resp.OutTime = timeutil.FormatClock(*a.OutTime)
	}
	if d := a.ShiftDuration(); d != nil {
		resp.ShiftDuration = timeutil.FormatDuration(*d)
	}
	return resp
}

func toCountsDTO(c model.ServiceCounts) dto.ServiceCounts {
	return dto.ServiceCounts{
		RunningRepair:   c.RunningRepair,
		FreeService:     c.FreeService,
		PaidService:     c.PaidService,
		BodyShop:        c.BodyShop,
		Total:           c.Total,
		Align:           c.Align,
		Balance:         c.Balance,
		AlignAndBalance: c.AlignAndBalance,
	}
}

// fromCountsDTO 只取六个录入字段，派生合计由 Recompute 重算
func fromCountsDTO(c dto.ServiceCounts) model.ServiceCounts {
	counts := model.ServiceCounts{
		RunningRepair: c.RunningRepair,
		FreeService:   c.FreeService,
		PaidService:   c.PaidService,
		BodyShop:      c.BodyShop,
		Align:         c.Align,
		Balance:       c.Balance,
	}
	counts.Recompute()
	return counts
}

func isStorage(err error) bool {
	return errors.Is(err, pkgerrors.ErrStorage)
}

// reportScope 主管强制限定为自己的下属；超级管理员可选任意主管或不限
func reportScope(actor Actor, requested string) (string, error) {
	switch {
	case actor.IsSuperAdmin():
		return requested, nil
	case actor.Role == model.RoleSupervisor:
		return actor.Code, nil
	default:
		return "", ErrUnauthorized
	}
}
