package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"

	"marketing-analytics/pkg/models"
)

func ExportJSON(filename string, data interface{}) error {
	return writeFile(filename, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(data); err != nil {
			return eris.Wrap(err, "encode json")
		}
		return nil
	})
}

// TimestampedFilename("out", "report", "json") -> out/report_20060102_150405.json
func TimestampedFilename(baseDir, name, ext string) string {
	t := time.Now().Format("20060102_150405")
	return filepath.Join(baseDir, fmt.Sprintf("%s_%s.%s", name, t, ext))
}

// WriteBundle écrit tous les artefacts d'un rapport dans dir et retourne les chemins créés.
func WriteBundle(dir string, report models.Report, showProgress bool) ([]string, error) {
	files := []struct {
		name  string
		write func(io.Writer) error
	}{
		{"segments_rfm.csv", func(w io.Writer) error { return WriteRFMCSV(w, report.RFM) }},
		{"transactions_filtrees.csv", func(w io.Writer) error { return WriteTransactionsCSV(w, report.Filtered) }},
		{"retention.csv", func(w io.Writer) error { return WriteMatrixCSV(w, report.Cohorts.Retention) }},
		{"arpu.csv", func(w io.Writer) error { return WriteMatrixCSV(w, report.Cohorts.ARPU) }},
		{"cohort_sizes.csv", func(w io.Writer) error { return WriteCohortSizesCSV(w, report.Cohorts.Sizes) }},
	}

	var bar *progressbar.ProgressBar
	if showProgress {
		bar = progressbar.Default(int64(len(files)+1), "export")
	}
	paths := make([]string, 0, len(files)+1)
	for _, f := range files {
		p := filepath.Join(dir, f.name)
		if err := writeFile(p, f.write); err != nil {
			return paths, err
		}
		paths = append(paths, p)
		if bar != nil {
			_ = bar.Add(1)
		}
	}

	name := "report"
	if len(report.RunID) >= 8 {
		name += "_" + report.RunID[:8]
	}
	reportPath := TimestampedFilename(dir, name, "json")
	if err := ExportJSON(reportPath, report); err != nil {
		return paths, err
	}
	paths = append(paths, reportPath)
	if bar != nil {
		_ = bar.Add(1)
	}
	log.Info().Str("dir", dir).Int("files", len(paths)).Str("run_id", report.RunID).Msg("export complete")
	return paths, nil
}

// WriteRFMFile écrit la table RFM dans path ; une erreur de fermeture est remontée.
func WriteRFMFile(path string, table models.RFMTable) error {
	return writeFile(path, func(w io.Writer) error { return WriteRFMCSV(w, table) })
}

func writeFile(filename string, write func(io.Writer) error) error {
	// Make sure the folder exists
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return eris.Wrapf(err, "create folder for %s", filename)
	}
	file, err := os.Create(filename)
	if err != nil {
		return eris.Wrapf(err, "create %s", filename)
	}
	if err := write(file); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return eris.Wrapf(err, "close %s", filename)
	}
	return nil
}
