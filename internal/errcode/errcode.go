package errcode

// 错误码约定：
// - 0：无错误
// - 4xxx：业务可恢复/告警类错误（输入可由调用方修正）
// - 5xxx：系统错误（需要中断流程，可重试）
const (
	OK              = 0
	ValidationError = 4001
	FormatError     = 4002
	ResourceMissing = 4004
	VersionConflict = 4009
	SystemError     = 5000
	RenderTimeout   = 5001
	RenderFailure   = 5002
)
