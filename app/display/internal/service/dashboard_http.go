package service

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-kratos/kratos/v2/transport/http"

	"github.com/iWorld-y/dash_analyst/app/dashbot/pkg/analysis"
	"github.com/iWorld-y/dash_analyst/app/dashbot/pkg/presenter"
)

const (
	OperationDashboardGetServer      = "/dashboard.Dashboard/GetServer"
	OperationDashboardGetState       = "/dashboard.Dashboard/GetState"
	OperationDashboardTestConnection = "/dashboard.Dashboard/TestConnection"
	OperationDashboardAnalyze        = "/dashboard.Dashboard/Analyze"
	OperationDashboardCancel         = "/dashboard.Dashboard/Cancel"
	OperationDashboardStartNew       = "/dashboard.Dashboard/StartNew"
	OperationDashboardDismissNotice  = "/dashboard.Dashboard/DismissNotice"
	OperationDashboardDownloadReport = "/dashboard.Dashboard/DownloadReport"
)

// multipart 表单内存上限，超出部分写入临时文件
const maxMultipartMemory = analysis.MaxUploadSize + 1<<20

// RegisterDashboardHTTPServer 注册仪表盘接口
func RegisterDashboardHTTPServer(s *http.Server, srv *DashboardService) {
	r := s.Route("/")
	r.GET("/dashboard/server", _Dashboard_GetServer0_HTTP_Handler(srv))
	r.GET("/dashboard/state", _Dashboard_GetState0_HTTP_Handler(srv))
	r.POST("/dashboard/test", _Dashboard_TestConnection0_HTTP_Handler(srv))
	r.POST("/dashboard/analyze", _Dashboard_Analyze0_HTTP_Handler(srv))
	r.POST("/dashboard/cancel", _Dashboard_Cancel0_HTTP_Handler(srv))
	r.POST("/dashboard/new", _Dashboard_StartNew0_HTTP_Handler(srv))
	r.POST("/dashboard/notices/{id}/dismiss", _Dashboard_DismissNotice0_HTTP_Handler(srv))
	r.GET("/dashboard/report", _Dashboard_DownloadReport0_HTTP_Handler(srv))
}

func _Dashboard_GetServer0_HTTP_Handler(srv *DashboardService) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		var in Empty
		http.SetOperation(ctx, OperationDashboardGetServer)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return srv.GetServer(ctx, req.(*Empty))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(200, out.(*ServerReply))
	}
}

func _Dashboard_GetState0_HTTP_Handler(srv *DashboardService) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		var in Empty
		http.SetOperation(ctx, OperationDashboardGetState)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return srv.GetState(ctx, req.(*Empty))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(200, out.(*presenter.Snapshot))
	}
}

func _Dashboard_TestConnection0_HTTP_Handler(srv *DashboardService) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		var in TestRequest
		if err := ctx.Bind(&in); err != nil {
			return err
		}
		http.SetOperation(ctx, OperationDashboardTestConnection)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return srv.TestConnection(ctx, req.(*TestRequest))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(200, out.(*TestReply))
	}
}

func _Dashboard_Analyze0_HTTP_Handler(srv *DashboardService) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		var in AnalyzeRequest
		if strings.HasPrefix(ctx.Request().Header.Get("Content-Type"), "multipart/form-data") {
			if err := bindAnalyzeMultipart(ctx, &in); err != nil {
				return err
			}
		} else if err := ctx.Bind(&in); err != nil {
			return err
		}
		http.SetOperation(ctx, OperationDashboardAnalyze)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return srv.Analyze(ctx, req.(*AnalyzeRequest))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(202, out.(*presenter.Snapshot))
	}
}

func _Dashboard_Cancel0_HTTP_Handler(srv *DashboardService) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		var in Empty
		http.SetOperation(ctx, OperationDashboardCancel)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return srv.Cancel(ctx, req.(*Empty))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(200, out.(*CancelReply))
	}
}

func _Dashboard_StartNew0_HTTP_Handler(srv *DashboardService) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		var in Empty
		http.SetOperation(ctx, OperationDashboardStartNew)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return srv.StartNew(ctx, req.(*Empty))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(200, out.(*presenter.Snapshot))
	}
}

func _Dashboard_DismissNotice0_HTTP_Handler(srv *DashboardService) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		in := DismissRequest{ID: ctx.Vars().Get("id")}
		http.SetOperation(ctx, OperationDashboardDismissNotice)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return srv.DismissNotice(ctx, req.(*DismissRequest))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(200, out.(*DismissReply))
	}
}

func _Dashboard_DownloadReport0_HTTP_Handler(srv *DashboardService) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		var in Empty
		http.SetOperation(ctx, OperationDashboardDownloadReport)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return srv.DownloadReport(ctx, req.(*Empty))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		report := out.(*presenter.Report)

		contentType := mime.TypeByExtension(filepath.Ext(report.Name))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		ctx.Response().Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Name))
		return ctx.Blob(200, contentType, report.Data)
	}
}

// bindAnalyzeMultipart 读取文件上传方式的表单
func bindAnalyzeMultipart(ctx http.Context, in *AnalyzeRequest) error {
	req := ctx.Request()
	if err := req.ParseMultipartForm(maxMultipartMemory); err != nil {
		return analysis.ErrorValidation("invalid upload: %v", err)
	}

	in.Method = req.FormValue("method")
	in.ProjectName = req.FormValue("project_name")
	in.SheetsURL = req.FormValue("sheets_url")
	in.DateFilter, _ = strconv.ParseBool(req.FormValue("date_filter"))
	in.DateStart = req.FormValue("date_start")
	in.DateEnd = req.FormValue("date_end")

	file, header, err := req.FormFile("file")
	if err != nil {
		return analysis.ErrorValidation("select a CSV file")
	}
	defer file.Close()

	if err := analysis.ValidateUpload(header.Filename, header.Size); err != nil {
		return err
	}
	data, err := io.ReadAll(io.LimitReader(file, analysis.MaxUploadSize+1))
	if err != nil {
		return fmt.Errorf("read upload: %w", err)
	}
	in.FileName = header.Filename
	in.FileData = data
	return nil
}
