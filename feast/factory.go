package feast

import (
	"strconv"
	"strings"
)

// NewClient 根据端点创建 gRPC 客户端，端点形如 "localhost:6565" 或 "grpc://localhost:6565"。
func NewClient(endpoint, project string, opts ...ClientOption) (*GrpcClient, error) {
	host, port := parseEndpoint(endpoint)
	return NewGrpcClient(host, port, project, opts...)
}

// parseEndpoint 解析端点地址，返回 host 和 port；没有端口时 port 为 0
func parseEndpoint(endpoint string) (string, int) {
	endpoint = strings.TrimPrefix(endpoint, "grpc://")
	endpoint = strings.TrimPrefix(endpoint, "grpcs://")

	idx := strings.LastIndex(endpoint, ":")
	if idx > 0 {
		if port, err := strconv.Atoi(endpoint[idx+1:]); err == nil {
			return endpoint[:idx], port
		}
	}
	return endpoint, 0
}
