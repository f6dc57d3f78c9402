// Package archive writes the raw sample series of a run to a timestamped
// parquet file, so measurements can be reprocessed later with different
// tunables.
package archive

import (
	"os"
	"path/filepath"
	"time"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/smartinertia/flywheel/internal/dsp"
)

type rawRow struct {
	TimeS  float64 `parquet:"name=time_s, type=DOUBLE"`
	FreqHz float64 `parquet:"name=freq_hz, type=DOUBLE"`
}

// WriteRaw stores ds under dir, named after the run's start time, and
// returns the file path. The timestamp format avoids characters that are
// invalid in Windows file names.
func WriteRaw(dir string, startedAt time.Time, ds dsp.DataSet) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, startedAt.Format("2006-01-02T15-04-05")+".parquet")

	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return "", err
	}
	pw, err := writer.NewParquetWriter(fw, new(rawRow), 4)
	if err != nil {
		_ = fw.Close()
		return "", err
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for i := 0; i < ds.Len(); i++ {
		if err := pw.Write(rawRow{TimeS: ds.X[i], FreqHz: ds.Y[i]}); err != nil {
			_ = pw.WriteStop()
			_ = fw.Close()
			return "", err
		}
	}
	if err := pw.WriteStop(); err != nil {
		_ = fw.Close()
		return "", err
	}
	if err := fw.Close(); err != nil {
		return "", err
	}
	return path, nil
}
