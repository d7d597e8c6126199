package testset

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleSet() *Testset {
	return New([]Sample{
		{
			ID:               "5d1c7b9e-0000-4000-8000-000000000001",
			Question:         "When is GST payable?",
			ReferenceAnswer:  "By the last day of the month.",
			ReferenceContext: "Document 0: Tax is payable by the last day of the month.",
			Metadata:         Metadata{QuestionType: "simple", SeedDocumentID: 0, Topic: "Others"},
		},
		{
			ID:                  "5d1c7b9e-0000-4000-8000-000000000002",
			Question:            "Is interest charged on late payment, \"really\"?",
			ReferenceAnswer:     "Yes, interest applies.",
			ReferenceContext:    "Document 3: Interest is charged on late payment,\nat 18%.",
			ConversationHistory: []Message{{Role: "user", Content: "Hi"}},
			Metadata:            Metadata{QuestionType: "simple", SeedDocumentID: 3, Topic: "Others"},
		},
	})
}

func Test_Save_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	paths := Paths{
		JSONL: filepath.Join(dir, "testset.jsonl"),
		CSV:   filepath.Join(dir, "out.csv"),
	}
	ts := sampleSet()
	require.NoError(t, ts.Save(paths))

	loaded, err := Load(paths.JSONL)
	require.NoError(t, err)
	require.Equal(t, ts.Len(), loaded.Len())
	assert.Equal(t, []Message{}, loaded.Samples[0].ConversationHistory)
	assert.Equal(t, ts.Samples[1], loaded.Samples[1])

	f, err := os.Open(paths.CSV)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, ts.Len()+1)
	assert.Equal(t, Columns, records[0])

	for i, row := range records[1:] {
		assert.Equal(t, loaded.Samples[i].Question, row[0])
		assert.Equal(t, loaded.Samples[i].ReferenceAnswer, row[1])
		assert.Equal(t, loaded.Samples[i].ReferenceContext, row[2])
		assert.Equal(t, loaded.Samples[i].ID, row[5])
		assert.Equal(t, []string{"0", "1"}[i], row[6])
	}
	assert.Equal(t, "[]", records[1][3])
	assert.JSONEq(t, `{"question_type":"simple","seed_document_id":3,"topic":"Others"}`, records[2][4])
}

func Test_Save_Overwrites(t *testing.T) {
	dir := t.TempDir()
	paths := Paths{JSONL: filepath.Join(dir, "testset.jsonl"), CSV: filepath.Join(dir, "out.csv")}
	require.NoError(t, os.WriteFile(paths.JSONL, []byte("stale\nstale\nstale\n"), 0o644))

	one := New(sampleSet().Samples[:1])
	require.NoError(t, one.Save(paths))

	loaded, err := Load(paths.JSONL)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Len())
}

func Test_Save_FileMode(t *testing.T) {
	dir := t.TempDir()
	paths := Paths{JSONL: filepath.Join(dir, "testset.jsonl"), CSV: filepath.Join(dir, "out.csv")}
	require.NoError(t, sampleSet().Save(paths))

	for _, path := range []string{paths.JSONL, paths.CSV} {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o644), info.Mode().Perm(), path)
	}
}

func Test_Save_DuplicatePaths(t *testing.T) {
	dir := t.TempDir()
	same := filepath.Join(dir, "out.txt")

	cases := map[string]Paths{
		"jsonl_and_csv": {JSONL: same, CSV: same},
		"csv_and_xlsx":  {JSONL: filepath.Join(dir, "testset.jsonl"), CSV: same, XLSX: filepath.Join(dir, ".", "out.txt")},
	}
	for name, paths := range cases {
		t.Run(name, func(t *testing.T) {
			err := sampleSet().Save(paths)
			assert.ErrorIs(t, err, ErrDuplicateOutput)
			assert.NoFileExists(t, same)
		})
	}
}

func Test_Save_XLSX(t *testing.T) {
	dir := t.TempDir()
	paths := Paths{
		JSONL: filepath.Join(dir, "testset.jsonl"),
		CSV:   filepath.Join(dir, "out.csv"),
		XLSX:  filepath.Join(dir, "out.xlsx"),
	}
	require.NoError(t, sampleSet().Save(paths))

	f, err := excelize.OpenFile(paths.XLSX)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(xlsxSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, Columns, rows[0])
	assert.Equal(t, "When is GST payable?", rows[1][0])
	assert.Equal(t, "1", rows[2][6])
}

func Test_ReadJSONL_Malformed(t *testing.T) {
	_, err := ReadJSONL(strings.NewReader("{\"question\":\"ok\"}\n{broken\n"))
	assert.ErrorContains(t, err, "line 2")
}

func Test_Display(t *testing.T) {
	var buf bytes.Buffer
	ts := sampleSet()

	require.NoError(t, ts.Display(&buf, 1))
	assert.Equal(t,
		"Question 1: When is GST payable?\n"+
			"Reference answer: By the last day of the month.\n"+
			"Reference context:\n"+
			"Document 0: Tax is payable by the last day of the month.\n"+
			"******************\n\n",
		buf.String())

	buf.Reset()
	require.NoError(t, ts.Display(&buf, 3))
	assert.Equal(t, 2, strings.Count(buf.String(), "******************"))
	assert.NotContains(t, buf.String(), "Question 3")

	buf.Reset()
	require.NoError(t, New(nil).Display(&buf, 3))
	assert.Empty(t, buf.String())
}
