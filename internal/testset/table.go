package testset

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"
)

const xlsxSheet = "testset"

// Columns of the tabular export. id is the row position; sample_id keeps the
// identifier assigned by the generator.
var Columns = []string{
	"question",
	"reference_answer",
	"reference_context",
	"conversation_history",
	"metadata",
	"sample_id",
	"id",
}

// Rows flattens the samples into table rows matching Columns.
func (t *Testset) Rows() ([][]string, error) {
	rows := make([][]string, 0, len(t.Samples))
	for i, s := range t.Samples {
		history := s.ConversationHistory
		if history == nil {
			history = []Message{}
		}
		h, err := json.Marshal(history)
		if err != nil {
			return nil, fmt.Errorf("failed to encode conversation history of sample %d: %w", i, err)
		}
		m, err := json.Marshal(s.Metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to encode metadata of sample %d: %w", i, err)
		}
		rows = append(rows, []string{
			s.Question,
			s.ReferenceAnswer,
			s.ReferenceContext,
			string(h),
			string(m),
			s.ID,
			strconv.Itoa(i),
		})
	}
	return rows, nil
}

func (t *Testset) WriteCSV(w io.Writer) error {
	rows, err := t.Rows()
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write csv rows: %w", err)
	}
	return nil
}

// WriteXLSX writes the same table as WriteCSV as a single-sheet workbook.
func (t *Testset) WriteXLSX(w io.Writer) error {
	rows, err := t.Rows()
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]interface{}, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(xlsxSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write xlsx header: %w", err)
	}
	for i, row := range rows {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		// id stays numeric in the workbook
		cells[len(cells)-1] = i
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(xlsxSheet, cell, &cells); err != nil {
			return fmt.Errorf("failed to write xlsx row %d: %w", i, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write xlsx: %w", err)
	}
	return nil
}
