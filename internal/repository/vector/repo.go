package vector

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/kailas-cloud/rankfuse/internal/db"
	"github.com/kailas-cloud/rankfuse/internal/db/redis"
	"github.com/kailas-cloud/rankfuse/internal/domain"
	"github.com/kailas-cloud/rankfuse/internal/domain/search/hit"
	"github.com/kailas-cloud/rankfuse/internal/usecase/indexing"
)

const (
	keyPrefix = "rankfuse:vec:"
	docField  = "doc"
)

// Config holds vector repository settings.
type Config struct {
	// TagFields are document fields indexed as tags for server-side
	// pre-filtering. Filters on other fields are applied client-side
	// after the KNN pass.
	TagFields []string
}

// Repo stores documents with embeddings in Redis hashes and searches them
// via FT KNN queries. One FT index per logical collection.
type Repo struct {
	store  db.VectorIndex
	cfg    Config
	logger *zap.Logger
	tagged map[string]bool
}

// NewRepo creates a Redis-backed vector repository.
func NewRepo(store db.VectorIndex, cfg Config, logger *zap.Logger) *Repo {
	if logger == nil {
		logger = zap.NewNop()
	}
	tagged := make(map[string]bool, len(cfg.TagFields))
	for _, f := range cfg.TagFields {
		tagged[f] = true
	}
	return &Repo{store: store, cfg: cfg, logger: logger, tagged: tagged}
}

// CreateCollection provisions the FT index for a collection. Creating an
// existing collection is a no-op.
func (r *Repo) CreateCollection(ctx context.Context, collection string, dimension int) error {
	def := &db.IndexDefinition{
		Name:      indexName(collection),
		Prefix:    collectionPrefix(collection),
		Dimension: dimension,
		TagFields: r.cfg.TagFields,
	}
	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return nil
		}
		return fmt.Errorf("create collection %q: %w", collection, err)
	}
	return nil
}

// DeleteCollection drops the FT index. Stored hashes are removed lazily by
// key prefix when the backend supports it; the index itself stops serving
// immediately.
func (r *Repo) DeleteCollection(ctx context.Context, collection string) error {
	if err := r.store.DropIndex(ctx, indexName(collection)); err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return fmt.Errorf("%w: %q", domain.ErrIndexNotFound, collection)
		}
		return fmt.Errorf("drop collection %q: %w", collection, err)
	}
	if kv, ok := r.store.(*redis.Store); ok {
		if err := kv.DeleteByPattern(ctx, collectionPrefix(collection)+"*"); err != nil {
			r.logger.Warn("failed to purge collection keys",
				zap.String("collection", collection), zap.Error(err))
		}
	}
	return nil
}

// Store upserts documents with their embeddings.
func (r *Repo) Store(ctx context.Context, collection string, docs []indexing.VectorDoc) error {
	for _, doc := range docs {
		fields, err := r.hashFields(doc)
		if err != nil {
			return fmt.Errorf("encode document %q: %w", doc.ID, err)
		}
		if err := r.store.HSet(ctx, docKey(collection, doc.ID), fields); err != nil {
			return fmt.Errorf("store document %q: %w", doc.ID, err)
		}
	}
	return nil
}

// Delete removes documents by ID.
func (r *Repo) Delete(ctx context.Context, collection string, ids []string) error {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = docKey(collection, id)
	}
	if err := r.store.Del(ctx, keys...); err != nil {
		return fmt.Errorf("delete documents: %w", err)
	}
	return nil
}

// Search runs a KNN query and returns hits ordered by cosine similarity.
// Filters on tag fields run server-side; the rest are applied to the
// decoded documents afterwards.
func (r *Repo) Search(
	ctx context.Context, collection string, vector []float32,
	limit int, filters map[string]any,
) ([]hit.Hit, error) {
	tagFilters, postFilters := r.splitFilters(filters)

	k := limit
	if len(postFilters) > 0 {
		// Client-side filtering discards candidates, so fetch extra.
		k = limit * 2
	}

	res, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:  indexName(collection),
		Vector:     vector,
		K:          k,
		TagFilters: tagFilters,
	})
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return nil, fmt.Errorf("%w: %q", domain.ErrIndexNotFound, collection)
		}
		return nil, fmt.Errorf("knn search %q: %w", collection, err)
	}

	prefix := collectionPrefix(collection)
	hits := make([]hit.Hit, 0, len(res.Entries))
	for _, entry := range res.Entries {
		doc := decodeDoc(entry.Fields)
		if !matches(doc, postFilters) {
			continue
		}
		id := entry.Key
		if len(id) > len(prefix) && id[:len(prefix)] == prefix {
			id = id[len(prefix):]
		}
		hits = append(hits, hit.New(id, doc, entry.Score, nil, hit.Semantic))
		if len(hits) == limit {
			break
		}
	}
	return hits, nil
}

// hashFields renders one document as Redis hash fields: the vector blob,
// the full document as JSON, and tag fields as plain strings.
func (r *Repo) hashFields(doc indexing.VectorDoc) (map[string]string, error) {
	data, err := json.Marshal(doc.Fields)
	if err != nil {
		return nil, err
	}

	fields := map[string]string{
		"vector": vectorBlob(doc.Vector),
		docField: string(data),
	}
	for name := range r.tagged {
		if v, ok := doc.Fields[name]; ok {
			fields[name] = fmt.Sprintf("%v", v)
		}
	}
	return fields, nil
}

func (r *Repo) splitFilters(filters map[string]any) (map[string]string, map[string]any) {
	if len(filters) == 0 {
		return nil, nil
	}
	tags := make(map[string]string)
	post := make(map[string]any)
	for field, value := range filters {
		if s, ok := value.(string); ok && r.tagged[field] {
			tags[field] = s
			continue
		}
		post[field] = value
	}
	return tags, post
}

// matches reports whether a decoded document satisfies every filter.
// Multi-valued filters match if any element matches.
func matches(doc map[string]any, filters map[string]any) bool {
	for field, want := range filters {
		got, ok := doc[field]
		if !ok {
			return false
		}
		switch w := want.(type) {
		case []string:
			if !containsValue(got, toAny(w)) {
				return false
			}
		case []any:
			if !containsValue(got, w) {
				return false
			}
		default:
			if fmt.Sprintf("%v", got) != fmt.Sprintf("%v", want) {
				return false
			}
		}
	}
	return true
}

func containsValue(got any, want []any) bool {
	for _, w := range want {
		if fmt.Sprintf("%v", got) == fmt.Sprintf("%v", w) {
			return true
		}
	}
	return false
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// vectorBlob renders an embedding as little-endian float32 bytes, the
// layout FT.SEARCH expects for HNSW fields.
func vectorBlob(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}

func decodeDoc(fields map[string]string) map[string]any {
	raw, ok := fields[docField]
	if !ok {
		return nil
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil
	}
	return doc
}

func indexName(collection string) string {
	return "rankfuse-" + collection
}

func collectionPrefix(collection string) string {
	return keyPrefix + collection + ":"
}

func docKey(collection, id string) string {
	return collectionPrefix(collection) + id
}
