package analysis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// DefaultPorts 本地开发时后端可能监听的端口
var DefaultPorts = []int{3001, 3002, 3003, 3004}

// FindActivePort 依次探测 host 上的候选端口，采用第一个健康检查通过的端口作为后端地址
func (c *Client) FindActivePort(ctx context.Context, host string, ports []int) (int, error) {
	if host == "" {
		host = "localhost"
	}
	if len(ports) == 0 {
		ports = DefaultPorts
	}

	for _, port := range ports {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		base := fmt.Sprintf("http://%s:%d", host, port)
		if _, err := c.health(ctx, base, c.opts.ProbeTimeout); err != nil {
			c.log.Debugf("端口 %d 无响应: %v", port, err)
			continue
		}

		c.setBaseURL(base)
		c.log.Infof("已检测到后端端口: %s", base)
		return port, nil
	}

	tried := make([]string, 0, len(ports))
	for _, p := range ports {
		tried = append(tried, strconv.Itoa(p))
	}
	return 0, ErrorUnavailable("no server found on ports: %s", strings.Join(tried, ", "))
}
