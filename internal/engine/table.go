package engine

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"

	apperrors "github.com/sanchitvj/sparkify-lake/internal/errors"
	"github.com/sanchitvj/sparkify-lake/internal/storage"
	"go.uber.org/zap"
)

const successMarker = "_SUCCESS"

// Table describes how rows of T are laid out under <root>/<Name>. Partition must
// return one value per PartitionBy column.
type Table[T any] struct {
	Name        string
	PartitionBy []string
	Partition   func(T) []PartitionValue
}

// WriteResult summarizes one table write.
type WriteResult struct {
	Table string
	Rows  int
	Files int
}

// WriteTable replaces <root>/<table> with rows. Rows keep their relative order inside
// each partition file; partitions are written in directory order.
func WriteTable[T any](ctx context.Context, s *Session, root storage.Location, table Table[T], rows []T) (WriteResult, error) {
	loc := root.Join(table.Name)
	res := WriteResult{Table: table.Name, Rows: len(rows)}

	st, err := s.stores.Open(loc)
	if err != nil {
		return res, err
	}

	groups := map[string][]T{}
	if len(table.PartitionBy) == 0 {
		groups[""] = rows
	} else {
		for _, row := range rows {
			dir, err := partitionDir(table.PartitionBy, table.Partition(row))
			if err != nil {
				return res, apperrors.NewWrite(fmt.Sprintf("partition %s", table.Name), err)
			}
			groups[dir] = append(groups[dir], row)
		}
	}

	dirs := make([]string, 0, len(groups))
	for dir := range groups {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)

	if err := st.DeletePrefix(ctx, loc.Prefix()); err != nil {
		return res, apperrors.Wrap(err, fmt.Sprintf("overwrite %s", loc), false)
	}

	for _, dir := range dirs {
		part := groups[dir]
		data, err := encodeParquet(s, part)
		if err != nil {
			return res, apperrors.NewWrite(fmt.Sprintf("encode %s/%s", table.Name, dir), err)
		}

		key := loc.Join(dir, s.partFileName()).Path
		err = st.Put(ctx, key, data, map[string]string{
			"record-count": strconv.Itoa(len(part)),
			"table":        table.Name,
		})
		if err != nil {
			return res, err
		}
		res.Files++
	}

	if err := st.Put(ctx, loc.Join(successMarker).Path, nil, nil); err != nil {
		return res, err
	}

	s.log.Info("wrote table",
		zap.String("table", table.Name),
		zap.String("location", loc.String()),
		zap.Int("rows", res.Rows),
		zap.Int("files", res.Files),
	)
	return res, nil
}

// ReadTable loads every Parquet file under <root>/<table>. Row order follows the sorted
// file keys.
func ReadTable[T any](ctx context.Context, s *Session, root storage.Location, table Table[T]) ([]T, error) {
	loc := root.Join(table.Name)

	st, err := s.stores.Open(loc)
	if err != nil {
		return nil, err
	}

	keys, err := storage.Glob(ctx, st, loc, "**/*.parquet")
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		// A partitioned table with no rows has only its success marker.
		markers, err := st.List(ctx, loc.Join(successMarker).Path)
		if err != nil {
			return nil, err
		}
		if len(markers) == 0 {
			return nil, apperrors.NewRead(fmt.Sprintf("table %s not found at %s", table.Name, loc), nil)
		}
		return nil, nil
	}

	var rows []T
	for _, key := range keys {
		data, err := readAll(ctx, st, key)
		if err != nil {
			return nil, err
		}
		part, err := decodeParquet[T](s, data)
		if err != nil {
			return nil, apperrors.NewRead(fmt.Sprintf("decode %s", key), err)
		}
		rows = append(rows, part...)
	}

	s.log.Info("read table",
		zap.String("table", table.Name),
		zap.String("location", loc.String()),
		zap.Int("rows", len(rows)),
		zap.Int("files", len(keys)),
	)
	return rows, nil
}

func readAll(ctx context.Context, st storage.Store, key string) ([]byte, error) {
	rc, err := st.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, apperrors.NewRead(fmt.Sprintf("read %s", key), err)
	}
	return data, nil
}
