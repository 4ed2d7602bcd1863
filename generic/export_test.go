package generic_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/warp/hvac-insights/generic"
)

func TestExportCSV_QuotesEveryField(t *testing.T) {
	rows := []unit{{ID: "J-1", Client: `Joe's "Best" HVAC`, Status: "paid", Hours: hours(4), Revenue: 600}}
	table := generic.NewTable(rows, unitColumns())

	var buf bytes.Buffer
	require.NoError(t, table.ExportCSV(&buf))

	lines := strings.Split(buf.String(), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `"ID","Client","Status","Hours","Revenue","Completed"`, lines[0])
	assert.Equal(t, `"J-1","Joe's ""Best"" HVAC","paid","4","$600.00",""`, lines[1])
}

func TestExportCSV_UsesFilteredSortedRowsAcrossPages(t *testing.T) {
	table := generic.NewTable(manyUnits(25), unitColumns(), generic.WithPageSize[unit](10))
	table.SetSearch("J-1")
	require.NoError(t, table.SortBy("id", generic.SortDesc))
	table.SetPage(2)

	var buf bytes.Buffer
	require.NoError(t, table.ExportCSV(&buf))

	lines := strings.Split(buf.String(), "\n")
	assert.Len(t, lines, len(table.Filtered())+1, "header plus every filtered row")
	assert.True(t, strings.HasPrefix(lines[1], `"J-19"`))
}

func TestExportCSV_EmptyTableWritesHeaderOnly(t *testing.T) {
	table := generic.NewTable([]unit{}, unitColumns())

	var buf bytes.Buffer
	require.NoError(t, table.ExportCSV(&buf))

	assert.NotContains(t, buf.String(), "\n")
}

func TestExportFilename(t *testing.T) {
	assert.Equal(t, "data-export.csv", generic.NewTable([]unit{}, unitColumns()).ExportFilename("csv"))

	titled := generic.NewTable([]unit{}, unitColumns(), generic.WithTitle[unit]("jobs"))
	assert.Equal(t, "jobs-export.xlsx", titled.ExportFilename("xlsx"))
}

func TestExportXLSX(t *testing.T) {
	table := generic.NewTable(sampleUnits(), unitColumns(), generic.WithTitle[unit]("jobs"))
	require.NoError(t, table.SetColumnFilter("status", "paid"))

	var buf bytes.Buffer
	require.NoError(t, table.ExportXLSX(&buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("jobs")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "ID", rows[0][0])
	assert.Equal(t, "J-1", rows[1][0])
	assert.Equal(t, "$1800.00", rows[2][4])
}
