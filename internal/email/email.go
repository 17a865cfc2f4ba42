// Package email holds the records that flow from the archive scraper through
// the analyzer and into the spreadsheet.
package email

import "github.com/samber/lo"

// Record is one email scraped from the archive listing.
type Record struct {
	// ID is unique within a single scrape.
	ID string
	// Href is the link to the detail document, relative to the archive base.
	Href string
	// Date is kept exactly as the archive displays it.
	Date    string
	Subject *string
	From    *string
	To      *string
	// Content is nil until the detail document has been fetched, and stays
	// nil if the detail document had no content.
	Content *string
}

// Extraction holds the two fields the language model derives from an email.
type Extraction struct {
	WhatIsBeingPrinted string `json:"whatIsBeingPrinted"`
	WhoIsPrinting      string `json:"whoIsPrinting"`
}

// Analyzed is a Record with its derived fields. The derived fields are either
// both nil or both set.
type Analyzed struct {
	Record
	WhatIsBeingPrinted *string
	WhoIsPrinting      *string
}

// WithExtraction returns a copy of the record carrying the extracted fields.
func (r Record) WithExtraction(e Extraction) Analyzed {
	return Analyzed{
		Record:             r,
		WhatIsBeingPrinted: &e.WhatIsBeingPrinted,
		WhoIsPrinting:      &e.WhoIsPrinting,
	}
}

// Unanalyzed returns a copy of the record with both derived fields nil.
func (r Record) Unanalyzed() Analyzed {
	return Analyzed{Record: r}
}

// Field is a named cell, a nil Value is an absent value.
type Field struct {
	Name  string
	Value *string
}

// Row is an ordered set of fields.
type Row []Field

// Row flattens the record in the column order used by the spreadsheet.
func (a Analyzed) Row() Row {
	return Row{
		{Name: "id", Value: &a.ID},
		{Name: "href", Value: &a.Href},
		{Name: "date", Value: &a.Date},
		{Name: "subject", Value: a.Subject},
		{Name: "from", Value: a.From},
		{Name: "to", Value: a.To},
		{Name: "content", Value: a.Content},
		{Name: "whatIsBeingPrinted", Value: a.WhatIsBeingPrinted},
		{Name: "whoIsPrinting", Value: a.WhoIsPrinting},
	}
}

// Rows flattens every record.
func Rows(records []Analyzed) []Row {
	return lo.Map(records, func(r Analyzed, _ int) Row {
		return r.Row()
	})
}
