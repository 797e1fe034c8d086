package analysis

// 报告风格固定使用 MDO 模板
const DefaultReportStyle = "mdo_weasy"

// DefaultProjectName 项目名称为空时使用的默认值
const DefaultProjectName = "Análise NPS"

// Upload 待上传的表格文件
type Upload struct {
	Name string
	Data []byte
}

// Request 一次分析请求，SheetsURL 与 File 必须且只能设置一个
type Request struct {
	SheetsURL   string
	File        *Upload
	ProjectName string
	ReportStyle string
	DateStart   string // Format: YYYY-MM-DD
	DateEnd     string // Format: YYYY-MM-DD
}

// UsesURL 是否为 URL 方式提交
func (r *Request) UsesURL() bool {
	return r.File == nil
}

// Metrics 后端返回的核心指标
type Metrics struct {
	NPSScore       float64 `json:"nps_score"`
	TotalResponses float64 `json:"total_registros"`
	AverageRating  float64 `json:"avg_rating"`
	SellerCount    float64 `json:"vendedores"`
}

// Result 分析结果
type Result struct {
	Success     bool    `json:"success"`
	Metrics     Metrics `json:"dados"`
	ReportFile  string  `json:"arquivo"`
	FileName    string  `json:"file_name,omitempty"`
	DownloadURL string  `json:"download_url,omitempty"`
	Message     string  `json:"message"`
	Error       string  `json:"error,omitempty"`
}

// ReportName 返回报告文件名，兼容旧字段 file_name
func (r *Result) ReportName() string {
	if r.ReportFile != "" {
		return r.ReportFile
	}
	return r.FileName
}

// HealthInfo 健康检查响应
type HealthInfo struct {
	Version string `json:"version"`
	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
}

// TestResult 表格连通性测试结果
type TestResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	SheetID string `json:"sheet_id,omitempty"`
	Error   string `json:"error,omitempty"`
}

// analyzeBody URL 方式的 JSON 请求体
type analyzeBody struct {
	SheetsURL   string `json:"sheets_url"`
	ProjectName string `json:"loja_nome"`
	ReportStyle string `json:"estilo_pdf"`
	DateStart   string `json:"data_inicio,omitempty"`
	DateEnd     string `json:"data_fim,omitempty"`
}

type testBody struct {
	SheetsURL string `json:"sheets_url"`
}
