// Package validate 注册 gin 绑定使用的自定义校验规则
package validate

import (
	"fmt"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"workshop-tracker/backend/pkg/timeutil"
)

// Register 将 clock12 / daydate 注册到 gin 默认校验器，启动时调用一次
func Register() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("gin 校验引擎不是 validator/v10")
	}
	return RegisterOn(v)
}

// RegisterOn 注册到指定校验器
func RegisterOn(v *validator.Validate) error {
	if err := v.RegisterValidation("clock12", clock12); err != nil {
		return err
	}
	return v.RegisterValidation("daydate", dayDate)
}

// clock12 "09.00.00 AM" 形式的 12 小时制时间；空串交给 required/omitempty 处理
func clock12(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return true
	}
	_, err := timeutil.ParseClock(s)
	return err == nil
}

// dayDate 日-月-年 或 ISO 日期
func dayDate(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return true
	}
	_, err := timeutil.ParseDate(s)
	return err == nil
}
