package email

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func ptr(s string) *string {
	return &s
}

func TestDerivedFieldsSetTogether(t *testing.T) {
	record := Record{ID: "1", Content: ptr("print 200 flyers")}

	analyzed := record.WithExtraction(Extraction{
		WhatIsBeingPrinted: "flyers",
		WhoIsPrinting:      "Jane Doe",
	})
	require.NotNil(t, analyzed.WhatIsBeingPrinted)
	require.NotNil(t, analyzed.WhoIsPrinting)
	require.Equal(t, "flyers", *analyzed.WhatIsBeingPrinted)
	require.Equal(t, "Jane Doe", *analyzed.WhoIsPrinting)
	require.Equal(t, record, analyzed.Record)

	empty := record.Unanalyzed()
	require.Nil(t, empty.WhatIsBeingPrinted)
	require.Nil(t, empty.WhoIsPrinting)
}

func TestRowColumnOrder(t *testing.T) {
	analyzed := Record{
		ID:      "C05739545",
		Href:    "emailid/1",
		Date:    "2010-03-04 12:00",
		Subject: ptr("printing"),
	}.Unanalyzed()

	var names []string
	for _, f := range analyzed.Row() {
		names = append(names, f.Name)
	}
	require.Equal(t, []string{
		"id", "href", "date", "subject", "from", "to",
		"content", "whatIsBeingPrinted", "whoIsPrinting",
	}, names)

	row := analyzed.Row()
	require.Equal(t, "C05739545", *row[0].Value)
	require.Equal(t, "printing", *row[3].Value)
	require.Nil(t, row[4].Value)
	require.Nil(t, row[7].Value)
}

func TestRowsPreservesOrder(t *testing.T) {
	rows := Rows([]Analyzed{
		Record{ID: "a"}.Unanalyzed(),
		Record{ID: "b"}.Unanalyzed(),
	})
	require.Len(t, rows, 2)
	require.Equal(t, "a", *rows[0][0].Value)
	require.Equal(t, "b", *rows[1][0].Value)
}
