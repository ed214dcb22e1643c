package repository

import (
	"context"

	"gorm.io/gorm"

	"workshop-tracker/backend/internal/model"
)

// PersonRepository 人员数据访问接口
type PersonRepository interface {
	GetByCode(ctx context.Context, code string) (*model.Person, error)
	GetByName(ctx context.Context, name string) (*model.Person, error)
	// List 按角色、上级编码过滤；空字符串表示不过滤
	List(ctx context.Context, role, supervisorCode string) ([]model.Person, error)
	// ReplaceAll 整表覆盖，须在事务中调用
	ReplaceAll(ctx context.Context, people []model.Person) error
}

type personRepo struct {
	db *gorm.DB
}

// NewPersonRepo 创建 PersonRepository 实例
func NewPersonRepo(db *gorm.DB) PersonRepository {
	return &personRepo{db: db}
}

func (r *personRepo) GetByCode(ctx context.Context, code string) (*model.Person, error) {
	var p model.Person
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *personRepo) GetByName(ctx context.Context, name string) (*model.Person, error) {
	var p model.Person
	err := r.db.WithContext(ctx).Where("name = ?", name).Order("code").First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *personRepo) List(ctx context.Context, role, supervisorCode string) ([]model.Person, error) {
	var people []model.Person
	db := r.db.WithContext(ctx).Model(&model.Person{})
	if role != "" {
		db = db.Where("role = ?", role)
	}
	if supervisorCode != "" {
		db = db.Where("supervisor_code = ?", supervisorCode)
	}
	if err := db.Order("name ASC, code ASC").Find(&people).Error; err != nil {
		return nil, err
	}
	return people, nil
}

func (r *personRepo) ReplaceAll(ctx context.Context, people []model.Person) error {
	db := r.db.WithContext(ctx)
	if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.Person{}).Error; err != nil {
		return err
	}
	if len(people) == 0 {
		return nil
	}
	return db.CreateInBatches(people, 200).Error
}
