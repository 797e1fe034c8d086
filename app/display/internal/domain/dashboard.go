package domain

// ServerInfo 分析后端状态
type ServerInfo struct {
	BaseURL string
	Online  bool
	Version string
	Message string
}

// TestOutcome 表格连接测试结果
type TestOutcome struct {
	Success bool
	Message string
	SheetID string
}
