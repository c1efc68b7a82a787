package ingest

import (
	"bytes"
	"encoding/csv"
)

var sampleHeader = []string{"date", "amount", "description", "category", "merchant", "tags", "notes"}

var sampleRows = [][]string{
	{"2024-08-15", "1500.00", "Fall 2024 Tuition", "tuition", "University", "tuition,fall2024", "First semester tuition payment"},
	{"2024-08-20", "89.99", "Strategic Management Textbook", "books", "University Bookstore", "textbook,strategy", "Required textbook for Strategy class"},
	{"2024-09-05", "45.00", "Networking Event - Finance Club", "networking", "Finance Club", "networking,finance", "Monthly networking mixer"},
	{"2024-09-10", "25.50", "Lunch with study group", "food", "Campus Cafe", "food,study", "Group study lunch"},
	{"2024-09-15", "120.00", "Monthly rent payment", "housing", "Apartment Complex", "rent,housing", "September rent"},
}

// SampleCSV returns a small template file in the expected format.
func SampleCSV() []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write(sampleHeader)
	w.WriteAll(sampleRows)
	return buf.Bytes()
}
