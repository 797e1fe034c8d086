package server

import (
	"github.com/google/wire"

	"github.com/iWorld-y/dash_analyst/app/dashbot/pkg/analysis/factory"
	"github.com/iWorld-y/dash_analyst/app/display/internal/data"
	"github.com/iWorld-y/dash_analyst/app/display/internal/service"
	"github.com/iWorld-y/dash_analyst/app/display/internal/usecase"
)

// ProviderSet 是展示服务的依赖注入 Provider 集合
var ProviderSet = wire.NewSet(
	// Server providers
	NewHTTPServer,
	NewDashboardConfig,
	factory.PresenterOptions,

	// Data providers
	data.NewData,
	data.NewAnalysisRepo,

	// UseCase providers
	usecase.NewDashboardUseCase,

	// Service providers
	service.NewDashboardService,
)
