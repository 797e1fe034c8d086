package analysis

import (
	"strings"
	"testing"
)

func TestIsValidSheetsURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://docs.google.com/spreadsheets/d/1AbC-xyz_09/edit#gid=0", true},
		{"https://docs.google.com/spreadsheets/d/abc", true},
		{"  https://docs.google.com/spreadsheets/d/abc  ", true},
		{"https://docs.google.com/spreadsheets/d/", false},
		{"https://docs.google.com/document/d/abc", false},
		{"http://docs.google.com/spreadsheets/d/abc", false},
		{"https://docs.google.com.evil.io/spreadsheets/d/abc", false},
		{"docs.google.com/spreadsheets/d/abc", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsValidSheetsURL(tt.url); got != tt.want {
			t.Errorf("IsValidSheetsURL(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestValidateUpload(t *testing.T) {
	if err := ValidateUpload("Respostas.CSV", 1024); err != nil {
		t.Errorf("ValidateUpload() error = %v", err)
	}
	if err := ValidateUpload("respostas.xlsx", 1024); !IsValidation(err) {
		t.Errorf("xlsx error = %v, want validation", err)
	}
	if err := ValidateUpload("big.csv", MaxUploadSize+1); !IsValidation(err) || !strings.Contains(Message(err), "10MB") {
		t.Errorf("oversize error = %v, want validation", err)
	}
}

func TestRequestNormalize(t *testing.T) {
	r := Request{SheetsURL: "  https://docs.google.com/spreadsheets/d/x ", ProjectName: "   "}.normalize()
	if r.ProjectName != DefaultProjectName {
		t.Errorf("ProjectName = %q", r.ProjectName)
	}
	if r.ReportStyle != DefaultReportStyle {
		t.Errorf("ReportStyle = %q", r.ReportStyle)
	}
	if r.SheetsURL != "https://docs.google.com/spreadsheets/d/x" {
		t.Errorf("SheetsURL = %q", r.SheetsURL)
	}
	if !r.UsesURL() {
		t.Error("UsesURL() = false")
	}
}

func TestValidate_DateRange(t *testing.T) {
	base := Request{SheetsURL: "https://docs.google.com/spreadsheets/d/x"}

	same := base
	same.DateStart, same.DateEnd = "2025-03-01", "2025-03-01"
	if err := same.Validate(); err != nil {
		t.Errorf("same day error = %v", err)
	}

	onlyEnd := base
	onlyEnd.DateEnd = "2025-03-01"
	if err := onlyEnd.Validate(); err != nil {
		t.Errorf("open start error = %v", err)
	}
}
