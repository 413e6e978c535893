package search

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/goccy/go-json"
	opensearch "github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
	requestsigner "github.com/opensearch-project/opensearch-go/v2/signer/awsv2"

	"github.com/rushteam/recoserve/core"
	"github.com/rushteam/recoserve/pkg/breaker"
	"github.com/rushteam/recoserve/pkg/conv"
)

// OpenSearchConfig OpenSearch 连接配置
type OpenSearchConfig struct {
	// Addresses 例如 ["https://search-xxx.us-east-1.es.amazonaws.com:443"]
	Addresses []string `koanf:"addresses" validate:"required,min=1,dive,url"`

	// Index 物品索引
	Index string `koanf:"index" validate:"required"`

	// UserIndex 用户索引（屏蔽列表）
	UserIndex string `koanf:"user_index"`

	// AWS SigV4 签名（AWS OpenSearch Service）；Region 为空时不签名
	Region          string `koanf:"region"`
	AccessKeyID     string `koanf:"access_key_id"`
	SecretAccessKey string `koanf:"secret_access_key"`
	Service         string `koanf:"service"`

	// InsecureSkipVerify 跳过证书主机名校验
	InsecureSkipVerify bool `koanf:"insecure_skip_verify"`

	Timeout time.Duration `koanf:"timeout"`
}

// OpenSearchIndex 是基于 opensearch-go 的 core.SearchIndex 实现。
type OpenSearchIndex struct {
	client    *opensearch.Client
	index     string
	userIndex string
	breaker   *breaker.Breaker
}

// NewOpenSearchIndex 创建 OpenSearch 客户端。开启 gzip 请求压缩；配置了 Region 时使用 SigV4 签名。
func NewOpenSearchIndex(cfg OpenSearchConfig, b *breaker.Breaker) (*OpenSearchIndex, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: cfg.InsecureSkipVerify} //nolint:gosec // 由配置显式开启
	if cfg.Timeout > 0 {
		transport.ResponseHeaderTimeout = cfg.Timeout
	}

	osCfg := opensearch.Config{
		Addresses:           cfg.Addresses,
		Transport:           transport,
		CompressRequestBody: true,
	}

	if cfg.Region != "" {
		service := cfg.Service
		if service == "" {
			service = "es"
		}
		awsCfg := aws.Config{
			Region:      cfg.Region,
			Credentials: credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		}
		signer, err := requestsigner.NewSignerWithService(awsCfg, service)
		if err != nil {
			return nil, fmt.Errorf("search: create sigv4 signer: %w", err)
		}
		osCfg.Signer = signer
	}

	client, err := opensearch.NewClient(osCfg)
	if err != nil {
		return nil, fmt.Errorf("search: create opensearch client: %w", err)
	}

	return &OpenSearchIndex{
		client:    client,
		index:     cfg.Index,
		userIndex: cfg.UserIndex,
		breaker:   b,
	}, nil
}

func (o *OpenSearchIndex) Name() string { return "opensearch" }

func (o *OpenSearchIndex) Count(ctx context.Context, q core.CandidateQuery) (int64, error) {
	return breaker.Do(o.breaker, func() (int64, error) {
		body, err := encode(countBody(q))
		if err != nil {
			return 0, err
		}
		res, err := opensearchapi.CountRequest{
			Index: []string{o.index},
			Body:  body,
		}.Do(ctx, o.client)
		if err != nil {
			return 0, err
		}

		var out struct {
			Count int64 `json:"count"`
		}
		if err := decode(res, &out); err != nil {
			return 0, err
		}
		return out.Count, nil
	})
}

func (o *OpenSearchIndex) SearchIDs(ctx context.Context, q core.CandidateQuery) ([]string, error) {
	return o.searchIDs(ctx, o.index, searchBody(q))
}

func (o *OpenSearchIndex) Sample(ctx context.Context, n int) ([]string, error) {
	return o.searchIDs(ctx, o.index, sampleBody(n))
}

func (o *OpenSearchIndex) searchIDs(ctx context.Context, index string, query map[string]any) ([]string, error) {
	return breaker.Do(o.breaker, func() ([]string, error) {
		var out searchResponse
		if err := o.search(ctx, index, query, &out); err != nil {
			return nil, err
		}
		ids := make([]string, 0, len(out.Hits.Hits))
		for _, h := range out.Hits.Hits {
			ids = append(ids, h.ID)
		}
		return ids, nil
	})
}

// UserExclusions 取用户索引中第一条命中的 user_blacklist；没有命中或字段格式不对时返回空列表。
func (o *OpenSearchIndex) UserExclusions(ctx context.Context, userID string) ([]string, error) {
	if o.userIndex == "" || userID == "" {
		return []string{}, nil
	}
	return breaker.Do(o.breaker, func() ([]string, error) {
		var out searchResponse
		if err := o.search(ctx, o.userIndex, exclusionBody(userID), &out); err != nil {
			return nil, err
		}
		if len(out.Hits.Hits) == 0 {
			return []string{}, nil
		}
		ids := conv.SliceAnyToString(out.Hits.Hits[0].Source[core.FieldUserBlacklist])
		if ids == nil {
			return []string{}, nil
		}
		return ids, nil
	})
}

func (o *OpenSearchIndex) Ping(ctx context.Context) error {
	res, err := opensearchapi.PingRequest{}.Do(ctx, o.client)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("search: ping status %d", res.StatusCode)
	}
	return nil
}

// Close opensearch 客户端没有需要释放的连接，由 http.Transport 管理
func (o *OpenSearchIndex) Close() error {
	return nil
}

func (o *OpenSearchIndex) search(ctx context.Context, index string, query map[string]any, out any) error {
	body, err := encode(query)
	if err != nil {
		return err
	}
	res, err := opensearchapi.SearchRequest{
		Index: []string{index},
		Body:  body,
	}.Do(ctx, o.client)
	if err != nil {
		return err
	}
	return decode(res, out)
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string         `json:"_id"`
			Source map[string]any `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func encode(v any) (io.Reader, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("search: encode query: %w", err)
	}
	return bytes.NewReader(data), nil
}

func decode(res *opensearchapi.Response, out any) error {
	defer res.Body.Close()
	if res.IsError() {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
		return core.Unavailable(core.ModuleSearch, fmt.Sprintf("search: status %d: %s", res.StatusCode, msg), nil)
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("search: decode response: %w", err)
	}
	return nil
}

var _ core.SearchIndex = (*OpenSearchIndex)(nil)
