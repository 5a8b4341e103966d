package errors

import "errors"

// ── 错误分类 ──
// 各业务模块的错误通过 fmt.Errorf("%w: ...") 包装以下哨兵错误，
// Handler 层按分类映射 HTTP 状态码。

var (
	// ErrValidation 请求字段缺失或取值非法
	ErrValidation = errors.New("参数校验失败")
	// ErrNotFound 引用的记录不存在
	ErrNotFound = errors.New("记录不存在")
	// ErrInvalidState 当前状态不允许执行该操作
	ErrInvalidState = errors.New("当前状态不允许此操作")
	// ErrDependency 外部依赖调用失败（仅记录日志，不向调用方暴露）
	ErrDependency = errors.New("外部依赖调用失败")
)

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")
