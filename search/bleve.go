package search

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/rushteam/recoserve/core"
	"github.com/rushteam/recoserve/pkg/conv"
)

// ItemDoc 物品索引文档
type ItemDoc struct {
	Country      string
	Status       string
	CreationDate time.Time
}

// BleveIndex 是基于 bleve 的内嵌 core.SearchIndex 实现，用于本地开发和测试。
// 物品与用户分两个索引，字段名与 OpenSearch 保持一致。
type BleveIndex struct {
	items bleve.Index
	users bleve.Index
}

// NewMemBleveIndex 创建纯内存索引
func NewMemBleveIndex() (*BleveIndex, error) {
	items, err := bleve.NewMemOnly(itemMapping())
	if err != nil {
		return nil, fmt.Errorf("search: create item index: %w", err)
	}
	users, err := bleve.NewMemOnly(userMapping())
	if err != nil {
		_ = items.Close()
		return nil, fmt.Errorf("search: create user index: %w", err)
	}
	return &BleveIndex{items: items, users: users}, nil
}

// OpenBleveIndex 打开（不存在则创建）磁盘索引，dir 下分 items/ 与 users/ 两个子目录。
func OpenBleveIndex(dir string) (*BleveIndex, error) {
	items, err := openOrCreate(dir+"/items", itemMapping())
	if err != nil {
		return nil, err
	}
	users, err := openOrCreate(dir+"/users", userMapping())
	if err != nil {
		_ = items.Close()
		return nil, err
	}
	return &BleveIndex{items: items, users: users}, nil
}

func openOrCreate(path string, m mapping.IndexMapping) (bleve.Index, error) {
	if _, err := os.Stat(path); err == nil {
		idx, err := bleve.Open(path)
		if err != nil {
			return nil, fmt.Errorf("search: open %s: %w", path, err)
		}
		return idx, nil
	}
	idx, err := bleve.New(path, m)
	if err != nil {
		return nil, fmt.Errorf("search: create %s: %w", path, err)
	}
	return idx, nil
}

func keywordField() *mapping.FieldMapping {
	f := bleve.NewTextFieldMapping()
	f.Analyzer = keyword.Name
	return f
}

func itemMapping() mapping.IndexMapping {
	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt(core.FieldCountry, keywordField())
	doc.AddFieldMappingsAt(core.FieldStatus, keywordField())
	doc.AddFieldMappingsAt(core.FieldCreationDate, bleve.NewDateTimeFieldMapping())

	m := bleve.NewIndexMapping()
	m.DefaultMapping = doc
	return m
}

func userMapping() mapping.IndexMapping {
	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt(core.FieldUserID, keywordField())
	blacklist := keywordField()
	blacklist.Store = true
	doc.AddFieldMappingsAt(core.FieldUserBlacklist, blacklist)

	m := bleve.NewIndexMapping()
	m.DefaultMapping = doc
	return m
}

// IndexItem 写入物品文档（文档 ID 即物品 ID）
func (b *BleveIndex) IndexItem(id string, doc ItemDoc) error {
	return b.items.Index(id, map[string]any{
		core.FieldCountry:      doc.Country,
		core.FieldStatus:       doc.Status,
		core.FieldCreationDate: doc.CreationDate,
	})
}

// IndexUser 写入用户屏蔽列表
func (b *BleveIndex) IndexUser(userID string, blacklist []string) error {
	return b.users.Index(userID, map[string]any{
		core.FieldUserID:        userID,
		core.FieldUserBlacklist: blacklist,
	})
}

func (b *BleveIndex) Name() string { return "bleve" }

func candidateQuery(q core.CandidateQuery) query.Query {
	country := bleve.NewTermQuery(q.Country)
	country.SetField(core.FieldCountry)
	status := bleve.NewTermQuery(statusOf(q))
	status.SetField(core.FieldStatus)
	return bleve.NewConjunctionQuery(country, status)
}

func (b *BleveIndex) Count(ctx context.Context, q core.CandidateQuery) (int64, error) {
	req := bleve.NewSearchRequestOptions(candidateQuery(q), 0, 0, false)
	res, err := b.items.SearchInContext(ctx, req)
	if err != nil {
		return 0, err
	}
	return int64(res.Total), nil
}

func (b *BleveIndex) SearchIDs(ctx context.Context, q core.CandidateQuery) ([]string, error) {
	req := bleve.NewSearchRequestOptions(candidateQuery(q), q.Size, 0, false)
	req.SortBy([]string{"-" + core.FieldCreationDate, "_id"})
	return b.ids(ctx, b.items, req)
}

func (b *BleveIndex) Sample(ctx context.Context, n int) ([]string, error) {
	req := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), n, 0, false)
	return b.ids(ctx, b.items, req)
}

func (b *BleveIndex) UserExclusions(ctx context.Context, userID string) ([]string, error) {
	if userID == "" {
		return []string{}, nil
	}
	q := bleve.NewTermQuery(userID)
	q.SetField(core.FieldUserID)
	req := bleve.NewSearchRequestOptions(q, 1, 0, false)
	req.Fields = []string{core.FieldUserBlacklist}

	res, err := b.users.SearchInContext(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(res.Hits) == 0 {
		return []string{}, nil
	}
	// 单值字段返回 string，多值字段返回 []interface{}
	switch v := res.Hits[0].Fields[core.FieldUserBlacklist].(type) {
	case string:
		return []string{v}, nil
	case []any:
		if ids := conv.SliceAnyToString(v); ids != nil {
			return ids, nil
		}
	}
	return []string{}, nil
}

func (b *BleveIndex) ids(ctx context.Context, idx bleve.Index, req *bleve.SearchRequest) ([]string, error) {
	res, err := idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(res.Hits))
	for _, h := range res.Hits {
		ids = append(ids, h.ID)
	}
	return ids, nil
}

func (b *BleveIndex) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := b.items.DocCount(); err != nil {
		return err
	}
	return nil
}

func (b *BleveIndex) Close() error {
	err := b.items.Close()
	if uerr := b.users.Close(); err == nil {
		err = uerr
	}
	return err
}

var _ core.SearchIndex = (*BleveIndex)(nil)
