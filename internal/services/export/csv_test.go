package export

import (
	"bytes"
	"testing"

	"github.com/Ashford-Glazing/survey-tools-api/internal/models"
)

func TestWriteCSV(t *testing.T) {
	openings := []models.SheetOpening{
		{
			Position: 1, SalesLine: "0010",
			OrderWidth: 1200, OrderHeight: 900,
			Reference: "W1", Location: "Kitchen", System: "Alu 58",
			Width: 1150, Height: 880, LocationInput: "Kitchen rear", Remarks: "tight reveal",
		},
		{
			Position: 2, SalesLine: "0020",
			OrderWidth: 600, OrderHeight: 450,
			Reference: "W2", Location: "Hall", System: "Alu 58",
		},
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, openings); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	want := "sales_line,order_width,order_height,reference,location,system,width,height,location_input,remarks\n" +
		"0010,1200,900,W1,Kitchen,Alu 58,1150,880,Kitchen rear,tight reveal\n" +
		"0020,600,450,W2,Hall,Alu 58,,,,\n"
	if buf.String() != want {
		t.Errorf("CSV output:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestWriteCSVNoOpenings(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	want := "sales_line,order_width,order_height,reference,location,system,width,height,location_input,remarks\n"
	if buf.String() != want {
		t.Errorf("CSV output = %q, want header only", buf.String())
	}
}
