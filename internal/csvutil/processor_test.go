package csvutil

import (
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/lepinkainen/bookfill/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type person struct {
	Name string
	City string
}

func parsePerson(r Row) (person, error) {
	if r.Get("name") == "" {
		return person{}, errors.New("name is empty")
	}
	return person{Name: r.Get("name"), City: r.Get("city")}, nil
}

func TestProcessCSV(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.WriteFileString("test.csv", "\ufeffname,age,city\nAlice,30, NYC \nBob,25,LA\n")

	people, err := ProcessCSV(env.Path("test.csv"), parsePerson, ProcessorOptions{Required: []string{"name"}})
	require.NoError(t, err)

	assert.Equal(t, []person{{"Alice", "NYC"}, {"Bob", "LA"}}, people)
}

func TestProcessCSV_EmptyFile(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.WriteFileString("empty.csv", "")

	_, err := ProcessCSV(env.Path("empty.csv"), parsePerson, ProcessorOptions{})
	assert.Error(t, err)
}

func TestProcessCSV_FileNotFound(t *testing.T) {
	_, err := ProcessCSV("/nonexistent/file.csv", parsePerson, ProcessorOptions{})
	assert.Error(t, err)
}

func TestProcess_MissingRequiredColumn(t *testing.T) {
	_, err := Process(strings.NewReader("city\nNYC\n"), parsePerson, ProcessorOptions{Required: []string{"name"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"name"`)
}

func TestProcess_InvalidRecords(t *testing.T) {
	input := "name,city\n,Nowhere\nCarol\n"

	people, err := Process(strings.NewReader(input), parsePerson, ProcessorOptions{SkipInvalid: true})
	require.NoError(t, err)
	assert.Equal(t, []person{{Name: "Carol"}}, people, "short rows read missing columns as empty")

	_, err = Process(strings.NewReader(input), parsePerson, ProcessorOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestProcess_SpreadsheetQuotedValues(t *testing.T) {
	input := "name,city\nDune,=\"0441013597\"\n\"Herbert, Frank\",Arrakis\n"

	people, err := Process(strings.NewReader(input), parsePerson, ProcessorOptions{})
	require.NoError(t, err)
	assert.Equal(t, []person{{"Dune", `="0441013597"`}, {"Herbert, Frank", "Arrakis"}}, people)
}

func TestProcess_ReadError(t *testing.T) {
	errBoom := errors.New("disk gone")
	r := io.MultiReader(strings.NewReader("name,city\nAlice,NYC\n"), iotest.ErrReader(errBoom))

	_, err := Process(r, parsePerson, ProcessorOptions{SkipInvalid: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, errBoom)
	assert.Contains(t, err.Error(), "line 3")
}

func TestRow(t *testing.T) {
	r := Row{index: map[string]int{"a": 0, "b": 5}, values: []string{" x "}}
	assert.Equal(t, "x", r.Get("a"))
	assert.Equal(t, "", r.Get("b"))
	assert.Equal(t, "", r.Get("c"))
	assert.True(t, r.Has("b"))
	assert.False(t, r.Has("c"))
}
