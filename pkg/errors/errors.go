package errors

import "errors"

// ErrStorage 存储层瞬时故障（连接、超时等），向上透传，不做自动重试
var ErrStorage = errors.New("存储访问失败，请稍后重试")
