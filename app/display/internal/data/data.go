package data

import (
	"context"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/dash_analyst/app/dashbot/pkg/analysis"
	"github.com/iWorld-y/dash_analyst/app/dashbot/pkg/analysis/factory"
	"github.com/iWorld-y/dash_analyst/app/dashbot/pkg/config"
)

type Data struct {
	client *analysis.Client
}

func NewData(c *config.Config, logger log.Logger) (*Data, func(), error) {
	client, err := factory.NewClient(context.Background(), c.Backend, logger)
	if err != nil {
		return nil, nil, err
	}
	log.NewHelper(logger).Infof("analysis backend: %s", client.BaseURL())

	cleanup := func() {
		log.NewHelper(logger).Info("closing the data resources")
	}
	return &Data{client: client}, cleanup, nil
}
