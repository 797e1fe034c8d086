package service

import (
	"context"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/dash_analyst/app/dashbot/pkg/analysis"
	"github.com/iWorld-y/dash_analyst/app/dashbot/pkg/presenter"
	"github.com/iWorld-y/dash_analyst/app/display/internal/usecase"
)

const ReasonReportUnavailable = "REPORT_UNAVAILABLE"

type Empty struct{}

type ServerReply struct {
	BaseURL string `json:"base_url"`
	Online  bool   `json:"online"`
	Version string `json:"version,omitempty"`
	Message string `json:"message,omitempty"`
}

type TestRequest struct {
	SheetsURL string `json:"sheets_url"`
}

type TestReply struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	SheetID string `json:"sheet_id,omitempty"`
}

type AnalyzeRequest struct {
	Method      string `json:"method"`
	ProjectName string `json:"project_name"`
	SheetsURL   string `json:"sheets_url"`
	DateFilter  bool   `json:"date_filter"`
	DateStart   string `json:"date_start"`
	DateEnd     string `json:"date_end"`
	// 以下字段只来自 multipart 上传
	FileName string `json:"-"`
	FileData []byte `json:"-"`
}

type CancelReply struct {
	Canceled bool `json:"canceled"`
}

type DismissRequest struct {
	ID string `json:"id"`
}

type DismissReply struct {
	Dismissed bool `json:"dismissed"`
}

type DashboardService struct {
	uc  *usecase.DashboardUseCase
	log *log.Helper
}

func NewDashboardService(uc *usecase.DashboardUseCase, logger log.Logger) *DashboardService {
	return &DashboardService{
		uc:  uc,
		log: log.NewHelper(logger),
	}
}

func (s *DashboardService) GetServer(ctx context.Context, _ *Empty) (*ServerReply, error) {
	info := s.uc.Server(ctx)
	return &ServerReply{
		BaseURL: info.BaseURL,
		Online:  info.Online,
		Version: info.Version,
		Message: info.Message,
	}, nil
}

func (s *DashboardService) GetState(ctx context.Context, _ *Empty) (*presenter.Snapshot, error) {
	snap := s.uc.State()
	return &snap, nil
}

func (s *DashboardService) TestConnection(ctx context.Context, req *TestRequest) (*TestReply, error) {
	res, err := s.uc.Test(ctx, req.SheetsURL)
	if err != nil {
		return nil, err
	}
	return &TestReply{Success: res.Success, Message: res.Message, SheetID: res.SheetID}, nil
}

func (s *DashboardService) Analyze(ctx context.Context, req *AnalyzeRequest) (*presenter.Snapshot, error) {
	form := presenter.Form{
		Method:      presenter.Method(req.Method),
		ProjectName: req.ProjectName,
		SheetsURL:   req.SheetsURL,
		DateFilter:  req.DateFilter,
		DateStart:   req.DateStart,
		DateEnd:     req.DateEnd,
	}
	if req.FileName != "" {
		form.Method = presenter.MethodFile
		form.File = &analysis.Upload{Name: req.FileName, Data: req.FileData}
	}

	if err := s.uc.Analyze(form); err != nil {
		return nil, err
	}
	snap := s.uc.State()
	return &snap, nil
}

func (s *DashboardService) Cancel(ctx context.Context, _ *Empty) (*CancelReply, error) {
	return &CancelReply{Canceled: s.uc.Cancel()}, nil
}

func (s *DashboardService) StartNew(ctx context.Context, _ *Empty) (*presenter.Snapshot, error) {
	s.uc.StartNew()
	snap := s.uc.State()
	return &snap, nil
}

func (s *DashboardService) DismissNotice(ctx context.Context, req *DismissRequest) (*DismissReply, error) {
	return &DismissReply{Dismissed: s.uc.Dismiss(req.ID)}, nil
}

func (s *DashboardService) DownloadReport(ctx context.Context, _ *Empty) (*presenter.Report, error) {
	report, ok := s.uc.Report(ctx)
	if !ok {
		return nil, errors.NotFound(ReasonReportUnavailable, "report could not be downloaded")
	}
	return report, nil
}
