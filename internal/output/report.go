package output

import (
	"encoding/csv"
	"io"

	"github.com/rohankatakam/sceneaudit/internal/models"
)

// UnusedReportHeader is the first line of the unused-scripts report.
const UnusedReportHeader = "Relative Path, GUID"

// WriteUnusedCSV writes the unused-scripts report: the header line, then
// one row per script in the order given.
func WriteUnusedCSV(w io.Writer, scripts []models.Script) error {
	if _, err := io.WriteString(w, UnusedReportHeader+"\n"); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	for _, s := range scripts {
		if err := cw.Write([]string{s.RelativePath, s.GUID}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
