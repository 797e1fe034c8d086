package presenter

import (
	"strings"

	"github.com/iWorld-y/dash_analyst/app/dashbot/pkg/analysis"
)

// Method 输入方式
type Method string

const (
	MethodURL  Method = "url"
	MethodFile Method = "file"
)

// Form 分析表单
type Form struct {
	Method      Method           `json:"method"`
	ProjectName string           `json:"project_name"`
	SheetsURL   string           `json:"sheets_url"`
	File        *analysis.Upload `json:"-"`
	DateFilter  bool             `json:"date_filter"`
	DateStart   string           `json:"date_start,omitempty"`
	DateEnd     string           `json:"date_end,omitempty"`
}

// FormCheck 表单校验结果
type FormCheck struct {
	URLValid bool   `json:"url_valid"`
	Ready    bool   `json:"ready"`
	Problem  string `json:"problem,omitempty"`
	FileName string `json:"file_name,omitempty"`
}

// DefaultForm 新分析的默认表单
func DefaultForm() Form {
	return Form{
		Method:      MethodURL,
		ProjectName: analysis.DefaultProjectName,
	}
}

// Check 一次性计算 URL 是否合法以及表单是否可以提交
func (f Form) Check() FormCheck {
	url := strings.TrimSpace(f.SheetsURL)
	check := FormCheck{URLValid: url == "" || analysis.IsValidSheetsURL(url)}
	if f.File != nil {
		check.FileName = f.File.Name
	}

	if _, err := f.Request(); err != nil {
		check.Problem = analysis.Message(err)
		return check
	}
	check.Ready = true
	return check
}

// Request 按当前输入方式构造分析请求
func (f Form) Request() (analysis.Request, error) {
	req := analysis.Request{
		ProjectName: strings.TrimSpace(f.ProjectName),
		ReportStyle: analysis.DefaultReportStyle,
	}
	if req.ProjectName == "" {
		req.ProjectName = analysis.DefaultProjectName
	}

	switch f.Method {
	case MethodFile:
		if f.File == nil {
			return req, analysis.ErrorValidation("select a CSV file")
		}
		req.File = f.File
	case MethodURL, "":
		req.SheetsURL = strings.TrimSpace(f.SheetsURL)
		if req.SheetsURL == "" {
			return req, analysis.ErrorValidation("enter the spreadsheet URL")
		}
	default:
		return req, analysis.ErrorValidation("unknown input method %q", f.Method)
	}

	if f.DateFilter {
		req.DateStart = strings.TrimSpace(f.DateStart)
		req.DateEnd = strings.TrimSpace(f.DateEnd)
	}

	if err := req.Validate(); err != nil {
		return req, err
	}
	return req, nil
}
