package main

import (
	"context"
	"flag"
	"fmt"
	stdlog "log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/go-kratos/kratos/v2/log"
	"golang.org/x/term"

	"github.com/iWorld-y/dash_analyst/app/dashbot/internal/view"
	"github.com/iWorld-y/dash_analyst/app/dashbot/pkg/analysis"
	"github.com/iWorld-y/dash_analyst/app/dashbot/pkg/analysis/factory"
	"github.com/iWorld-y/dash_analyst/app/dashbot/pkg/config"
	"github.com/iWorld-y/dash_analyst/app/dashbot/pkg/logger"
	"github.com/iWorld-y/dash_analyst/app/dashbot/pkg/presenter"
)

var (
	flagconf    string
	flagenv     string
	flagURL     string
	flagFile    string
	flagProject string
	flagStart   string
	flagEnd     string
	flagOut     string
	flagTest    bool
)

func init() {
	flag.StringVar(&flagconf, "conf", "app/dashbot/configs/config.yaml", "config path, eg: -conf config.yaml")
	flag.StringVar(&flagenv, "env", ".env", "optional .env file with DASHBOT_* overrides")
	flag.StringVar(&flagURL, "url", "", "Google Sheets URL to analyze")
	flag.StringVar(&flagFile, "file", "", "CSV file to analyze instead of a URL")
	flag.StringVar(&flagProject, "project", "", "project name shown in the report")
	flag.StringVar(&flagStart, "start", "", "filter start date (YYYY-MM-DD)")
	flag.StringVar(&flagEnd, "end", "", "filter end date (YYYY-MM-DD)")
	flag.StringVar(&flagOut, "out", "", "directory the report is saved into")
	flag.BoolVar(&flagTest, "test", false, "only test access to the spreadsheet URL")
}

func main() {
	flag.Parse()

	// 1. 加载配置
	cfg := config.Default()
	if _, err := os.Stat(flagconf); err == nil {
		if cfg, err = config.LoadConfig(flagconf); err != nil {
			stdlog.Fatalf("无法加载配置文件: %v", err)
		}
	}
	if err := cfg.ApplyEnv(flagenv); err != nil {
		stdlog.Fatalf("无法读取环境变量配置: %v", err)
	}
	if flagOut != "" {
		cfg.Report.OutputDir = flagOut
	}

	// 2. 初始化日志
	if err := logger.InitLogger(cfg.Log.Level, cfg.Log.File); err != nil {
		stdlog.Fatalf("无法初始化日志: %v", err)
	}
	klog := logger.NewKratosLogger(logger.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. 连接分析后端
	client, err := factory.NewClient(ctx, cfg.Backend, klog)
	if err != nil {
		logger.Log.Fatalf("无法创建分析客户端: %v", err)
	}
	if info, err := client.Health(ctx); err != nil {
		logger.Log.Warnf("后端健康检查失败 [%s]: %s", client.BaseURL(), analysis.Message(err))
	} else {
		logger.Log.Infof("已连接分析后端 %s (版本 %s)", client.BaseURL(), info.Version)
	}

	// 4. 仅测试表格访问
	if flagTest {
		res, err := client.TestConnection(ctx, flagURL)
		if err != nil {
			logger.Log.Fatalf("连接测试失败: %s", analysis.Message(err))
		}
		fmt.Println(res.Message)
		return
	}

	form, err := buildForm(cfg)
	if err != nil {
		logger.Log.Fatalf("参数错误: %v", err)
	}

	// 5. 提交分析
	tv := view.NewTerminal(os.Stderr, term.IsTerminal(int(os.Stderr.Fd())), klog)
	defer tv.Close()

	p := presenter.New(presenter.Deps{
		Analyzer: client,
		View:     tv,
		Logger:   klog,
		Options:  factory.PresenterOptions(cfg),
	})
	if err := p.Submit(form); err != nil {
		logger.Log.Fatalf("无法提交分析: %s", analysis.Message(err))
	}

	go func() {
		<-ctx.Done()
		if p.Cancel() {
			log.NewHelper(klog).Warn("收到中断信号，分析已取消")
		}
	}()

	snap, _ := p.Wait(context.Background())
	if snap.State != presenter.StateCompleted {
		tv.Close()
		os.Exit(1)
	}

	// 6. 保存报告
	if err := saveReport(ctx, p, cfg.Report.OutputDir); err != nil {
		logger.Log.Errorf("保存报告失败: %v", err)
		tv.Close()
		os.Exit(1)
	}
}

// buildForm 根据命令行参数构造分析表单
func buildForm(cfg *config.Config) (presenter.Form, error) {
	form := presenter.DefaultForm()
	form.ProjectName = cfg.Report.ProjectName
	if flagProject != "" {
		form.ProjectName = flagProject
	}

	switch {
	case flagFile != "" && flagURL != "":
		return form, fmt.Errorf("use either -url or -file, not both")
	case flagFile != "":
		data, err := os.ReadFile(flagFile)
		if err != nil {
			return form, fmt.Errorf("read %s: %w", flagFile, err)
		}
		form.Method = presenter.MethodFile
		form.File = &analysis.Upload{Name: filepath.Base(flagFile), Data: data}
	default:
		form.SheetsURL = flagURL
	}

	if flagStart != "" || flagEnd != "" {
		form.DateFilter = true
		form.DateStart = flagStart
		form.DateEnd = flagEnd
	}
	return form, nil
}

// saveReport 下载报告并保存到 dir
func saveReport(ctx context.Context, p *presenter.Presenter, dir string) error {
	report, ok := p.Download(ctx)
	if !ok {
		return fmt.Errorf("report could not be downloaded")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	path := filepath.Join(dir, filepath.Base(report.Name))
	if err := os.WriteFile(path, report.Data, 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	logger.Log.Infof("报告已保存: %s (%d bytes)", path, len(report.Data))
	return nil
}
