package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"workshop-tracker/backend/internal/dto"
	"workshop-tracker/backend/internal/model"
	"workshop-tracker/backend/internal/repository"
)

// ── 人员模块业务错误 ──

var (
	ErrPersonNotFound     = errors.New("人员不存在")
	ErrSupervisorNotFound = errors.New("该人员没有上级主管")
	ErrUnauthorized       = errors.New("无权对该人员执行此操作")
)

// PersonService 人员目录业务接口
type PersonService interface {
	FindPerson(ctx context.Context, code string) (*dto.PersonResponse, error)
	FindSupervisorOf(ctx context.Context, code string) (*dto.PersonResponse, error)
	// ListPeople 主管只能看到自己的下属
	ListPeople(ctx context.Context, actor Actor, req *dto.PersonListRequest) ([]dto.PersonResponse, error)
}

type personService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewPersonService 创建 PersonService 实例
func NewPersonService(repo *repository.Repository, logger *zap.Logger) PersonService {
	return &personService{repo: repo, logger: logger}
}

func (s *personService) FindPerson(ctx context.Context, code string) (*dto.PersonResponse, error) {
	p, err := loadPerson(ctx, s.repo, code)
	if err != nil {
		return nil, err
	}
	resp := toPersonResponse(p)
	return &resp, nil
}

func (s *personService) FindSupervisorOf(ctx context.Context, code string) (*dto.PersonResponse, error) {
	p, err := loadPerson(ctx, s.repo, code)
	if err != nil {
		return nil, err
	}
	if p.SupervisorCode == nil || *p.SupervisorCode == "" {
		return nil, ErrSupervisorNotFound
	}

	sup, err := s.repo.Person.GetByCode(ctx, *p.SupervisorCode)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrSupervisorNotFound
		}
		s.logger.Error("查询上级失败", zap.String("code", code), zap.Error(err))
		return nil, storageErr(err)
	}
	resp := toPersonResponse(sup)
	return &resp, nil
}

func (s *personService) ListPeople(ctx context.Context, actor Actor, req *dto.PersonListRequest) ([]dto.PersonResponse, error) {
	supervisorCode := req.SupervisorCode
	switch {
	case actor.IsSuperAdmin():
	case actor.Role == model.RoleSupervisor:
		supervisorCode = actor.Code
	default:
		return nil, ErrUnauthorized
	}

	people, err := s.repo.Person.List(ctx, req.Role, supervisorCode)
	if err != nil {
		s.logger.Error("查询人员列表失败", zap.Error(err))
		return nil, storageErr(err)
	}

	result := make([]dto.PersonResponse, 0, len(people))
	for i := range people {
		result = append(result, toPersonResponse(&people[i]))
	}
	return result, nil
}

// ── 共享校验 ──

func loadPerson(ctx context.Context, repo *repository.Repository, code string) (*model.Person, error) {
	p, err := repo.Person.GetByCode(ctx, code)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrPersonNotFound
		}
		return nil, storageErr(err)
	}
	return p, nil
}

// authorizeFor 本人、直属主管或超级管理员可以操作 code 对应的人员
// allowSelf 为 false 时本人无权操作（假日、补录等管理动作）
func authorizeFor(ctx context.Context, repo *repository.Repository, actor Actor, code string, allowSelf bool) (*model.Person, error) {
	p, err := loadPerson(ctx, repo, code)
	if err != nil {
		return nil, err
	}
	switch {
	case actor.IsSuperAdmin():
	case actor.Supervises(p):
	case allowSelf && actor.Code == code:
	default:
		return nil, ErrUnauthorized
	}
	return p, nil
}
