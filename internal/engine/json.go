package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	apperrors "github.com/sanchitvj/sparkify-lake/internal/errors"
	"github.com/sanchitvj/sparkify-lake/internal/schema"
	"github.com/sanchitvj/sparkify-lake/internal/storage"
	"go.uber.org/zap"
)

// ReadJSON loads every object below root matching pattern and applies sch to each JSON
// document in it. A file may hold one document, a stream of documents (JSON lines), or
// a top-level array of documents. Any syntactically invalid document aborts the read.
func ReadJSON(ctx context.Context, s *Session, root storage.Location, pattern string, sch *schema.Schema) ([]schema.Record, error) {
	st, err := s.stores.Open(root)
	if err != nil {
		return nil, err
	}

	keys, err := storage.Glob(ctx, st, root, pattern)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, apperrors.NewRead(fmt.Sprintf("no objects match %s under %s", pattern, root), nil)
	}

	s.log.Info("reading json documents",
		zap.String("schema", sch.Name),
		zap.String("root", root.String()),
		zap.String("pattern", pattern),
		zap.Int("files", len(keys)),
	)

	var records []schema.Record
	for _, key := range keys {
		recs, err := readJSONObject(ctx, st, key, sch)
		if err != nil {
			return nil, err
		}
		records = append(records, recs...)
	}

	s.log.Info("loaded records",
		zap.String("schema", sch.Name),
		zap.Int("records", len(records)),
	)
	return records, nil
}

func readJSONObject(ctx context.Context, st storage.Store, key string, sch *schema.Schema) ([]schema.Record, error) {
	rc, err := st.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return decodeDocuments(rc, key, sch)
}

func decodeDocuments(r io.Reader, key string, sch *schema.Schema) ([]schema.Record, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var records []schema.Record
	for n := 0; ; n++ {
		var doc any
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, apperrors.NewRead(fmt.Sprintf("decode document %d of %s", n, key), err)
		}

		switch v := doc.(type) {
		case map[string]any:
			records = append(records, sch.Decode(v))
		case []any:
			for i, elem := range v {
				obj, ok := elem.(map[string]any)
				if !ok {
					return nil, apperrors.NewRead(fmt.Sprintf("element %d of document %d in %s is not an object", i, n, key), nil)
				}
				records = append(records, sch.Decode(obj))
			}
		default:
			return nil, apperrors.NewRead(fmt.Sprintf("document %d of %s is not an object", n, key), nil)
		}
	}
}
