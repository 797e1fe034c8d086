package analysis

import (
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// MaxUploadSize 上传文件大小上限 (10MB)
const MaxUploadSize = 10 * 1024 * 1024

var sheetsURLPattern = regexp.MustCompile(`^https://docs\.google\.com/spreadsheets/d/[a-zA-Z0-9_-]+`)

// IsValidSheetsURL 判断是否为 Google Sheets 链接
func IsValidSheetsURL(url string) bool {
	return sheetsURLPattern.MatchString(strings.TrimSpace(url))
}

// ValidateUpload 校验上传文件：仅接受 CSV 且不超过 MaxUploadSize
func ValidateUpload(name string, size int64) error {
	if !strings.EqualFold(filepath.Ext(name), ".csv") {
		return ErrorValidation("only CSV files are accepted")
	}
	if size > MaxUploadSize {
		return ErrorValidation("file too large, maximum is 10MB")
	}
	return nil
}

// Validate 校验请求，失败时返回 ValidationError
func (r *Request) Validate() error {
	hasURL := strings.TrimSpace(r.SheetsURL) != ""
	hasFile := r.File != nil

	switch {
	case hasURL && hasFile:
		return ErrorValidation("either a spreadsheet URL or a file must be provided, not both")
	case !hasURL && !hasFile:
		return ErrorValidation("a spreadsheet URL or a CSV file is required")
	case hasURL && !IsValidSheetsURL(r.SheetsURL):
		return ErrorValidation("invalid URL, use a valid Google Sheets link")
	case hasFile:
		if err := ValidateUpload(r.File.Name, int64(len(r.File.Data))); err != nil {
			return err
		}
	}

	return validateDateRange(r.DateStart, r.DateEnd)
}

func validateDateRange(startStr, endStr string) error {
	var start, end time.Time
	var err error
	if startStr != "" {
		if start, err = time.Parse(time.DateOnly, startStr); err != nil {
			return ErrorValidation("invalid start date %q, expected YYYY-MM-DD", startStr)
		}
	}
	if endStr != "" {
		if end, err = time.Parse(time.DateOnly, endStr); err != nil {
			return ErrorValidation("invalid end date %q, expected YYYY-MM-DD", endStr)
		}
	}
	if startStr != "" && endStr != "" && end.Before(start) {
		return ErrorValidation("end date %s is before start date %s", endStr, startStr)
	}
	return nil
}

// normalize 填充默认值并去除首尾空白
func (r Request) normalize() Request {
	r.SheetsURL = strings.TrimSpace(r.SheetsURL)
	r.ProjectName = strings.TrimSpace(r.ProjectName)
	if r.ProjectName == "" {
		r.ProjectName = DefaultProjectName
	}
	if r.ReportStyle == "" {
		r.ReportStyle = DefaultReportStyle
	}
	return r
}
