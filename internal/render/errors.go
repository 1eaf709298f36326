package render

import "errors"

var (
	// ErrRenderTimeout 表示渲染超出硬超时，调用方可重试。
	ErrRenderTimeout = errors.New("render timeout")
	// ErrEngineInit 表示无头浏览器初始化失败。
	ErrEngineInit = errors.New("render engine initialization failed")
	// ErrEngineClosed 表示引擎已关闭，不再接受渲染。
	ErrEngineClosed = errors.New("render engine is closed")
)
