package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/JonMunkholm/wrangle/internal/table"
)

// LoadParquet reads a Parquet file. Integer, floating point, boolean, string,
// date and timestamp columns keep their type; anything else is read as text.
func LoadParquet(ctx context.Context, r io.Reader) (*table.Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read parquet: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}

	mem := memory.DefaultAllocator
	at, err := pqarrow.ReadTable(ctx, bytes.NewReader(data), parquet.NewReaderProperties(mem), pqarrow.ArrowReadProperties{}, mem)
	if err != nil {
		return nil, fmt.Errorf("read parquet: %w", err)
	}
	defer at.Release()

	cols := make([]*table.Column, at.NumCols())
	for i := range cols {
		field := at.Schema().Field(i)
		col := &table.Column{Name: field.Name, Type: columnType(field.Type), Values: make([]any, 0, at.NumRows())}
		for _, chunk := range at.Column(i).Data().Chunks() {
			col.Values = appendArrowValues(col.Values, chunk)
		}
		cols[i] = col
	}
	return table.New(cols...)
}

func columnType(dt arrow.DataType) table.Type {
	switch dt.ID() {
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64,
		arrow.UINT8, arrow.UINT16, arrow.UINT32:
		return table.Int
	case arrow.FLOAT32, arrow.FLOAT64, arrow.UINT64:
		return table.Float
	case arrow.BOOL:
		return table.Bool
	case arrow.DATE32, arrow.DATE64, arrow.TIMESTAMP:
		return table.Time
	default:
		return table.Text
	}
}

func appendArrowValues(dst []any, arr arrow.Array) []any {
	for i := 0; i < arr.Len(); i++ {
		if arr.IsNull(i) {
			dst = append(dst, nil)
			continue
		}
		var v any
		switch a := arr.(type) {
		case *array.Int8:
			v = int64(a.Value(i))
		case *array.Int16:
			v = int64(a.Value(i))
		case *array.Int32:
			v = int64(a.Value(i))
		case *array.Int64:
			v = a.Value(i)
		case *array.Uint8:
			v = int64(a.Value(i))
		case *array.Uint16:
			v = int64(a.Value(i))
		case *array.Uint32:
			v = int64(a.Value(i))
		case *array.Uint64:
			v = float64(a.Value(i))
		case *array.Float32:
			v = float64(a.Value(i))
		case *array.Float64:
			v = a.Value(i)
		case *array.Boolean:
			v = a.Value(i)
		case *array.String:
			v = a.Value(i)
		case *array.LargeString:
			v = a.Value(i)
		case *array.Date32:
			v = a.Value(i).ToTime().UTC()
		case *array.Date64:
			v = a.Value(i).ToTime().UTC()
		case *array.Timestamp:
			unit := a.DataType().(*arrow.TimestampType).Unit
			v = a.Value(i).ToTime(unit).UTC()
		default:
			v = arr.ValueStr(i)
		}
		dst = append(dst, v)
	}
	return dst
}

// arrowSchema maps table columns to nullable Arrow fields. Timestamps are
// stored in microseconds, UTC.
func arrowSchema(t *table.Table) *arrow.Schema {
	fields := make([]arrow.Field, t.NumCols())
	for i, c := range t.Columns() {
		var dt arrow.DataType
		switch c.Type {
		case table.Int:
			dt = arrow.PrimitiveTypes.Int64
		case table.Float:
			dt = arrow.PrimitiveTypes.Float64
		case table.Bool:
			dt = arrow.FixedWidthTypes.Boolean
		case table.Time:
			dt = &arrow.TimestampType{Unit: arrow.Microsecond, TimeZone: "UTC"}
		default:
			dt = arrow.BinaryTypes.String
		}
		fields[i] = arrow.Field{Name: c.Name, Type: dt, Nullable: true}
	}
	return arrow.NewSchema(fields, nil)
}

// WriteParquet writes t as a Snappy-compressed Parquet file.
func WriteParquet(w io.Writer, t *table.Table) error {
	mem := memory.DefaultAllocator
	schema := arrowSchema(t)

	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()
	for j, c := range t.Columns() {
		fb := b.Field(j)
		for _, v := range c.Values {
			if v == nil {
				fb.AppendNull()
				continue
			}
			switch x := fb.(type) {
			case *array.Int64Builder:
				x.Append(v.(int64))
			case *array.Float64Builder:
				x.Append(v.(float64))
			case *array.BooleanBuilder:
				x.Append(v.(bool))
			case *array.TimestampBuilder:
				x.Append(arrow.Timestamp(v.(time.Time).UnixMicro()))
			case *array.StringBuilder:
				x.Append(v.(string))
			}
		}
	}
	rec := b.NewRecord()
	defer rec.Release()

	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema())
	// The writer closes its sink when it is an io.Closer; the caller owns w.
	fw, err := pqarrow.NewFileWriter(schema, struct{ io.Writer }{w}, props, arrowProps)
	if err != nil {
		return fmt.Errorf("create parquet writer: %w", err)
	}
	if err := fw.Write(rec); err != nil {
		fw.Close()
		return fmt.Errorf("write parquet: %w", err)
	}
	if err := fw.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return nil
}
