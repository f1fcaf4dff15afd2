package engine

import (
	"bytes"
	"fmt"

	"github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"
)

// encodeParquet serializes rows of a parquet-tagged struct type into one file image.
func encodeParquet[T any](s *Session, rows []T) ([]byte, error) {
	var buf bytes.Buffer

	pw, err := writer.NewParquetWriterFromWriter(&buf, new(T), s.parallelism)
	if err != nil {
		return nil, fmt.Errorf("failed to create parquet writer: %w", err)
	}
	pw.CompressionType = s.codec

	for i := range rows {
		if err := pw.Write(rows[i]); err != nil {
			return nil, fmt.Errorf("error writing record %d: %w", i, err)
		}
	}

	if err := pw.WriteStop(); err != nil {
		return nil, fmt.Errorf("error in WriteStop: %w", err)
	}
	return buf.Bytes(), nil
}

// decodeParquet reads every row of a file image into T.
func decodeParquet[T any](s *Session, data []byte) ([]T, error) {
	fr := buffer.NewBufferFileFromBytesNoAlloc(data)

	pr, err := reader.NewParquetReader(fr, new(T), s.parallelism)
	if err != nil {
		return nil, fmt.Errorf("failed to create parquet reader: %w", err)
	}
	defer pr.ReadStop()

	num := int(pr.GetNumRows())
	if num == 0 {
		return nil, nil
	}
	rows := make([]T, num)
	if err := pr.Read(&rows); err != nil {
		return nil, fmt.Errorf("failed to read %d rows: %w", num, err)
	}
	return rows, nil
}
