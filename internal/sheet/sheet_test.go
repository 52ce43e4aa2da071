package sheet

import (
	"errors"
	"strings"
	"testing"
)

func TestDecodeCSV(t *testing.T) {
	input := "No. Pesanan,Status Pesanan,Nama Produk\nINV001,Selesai,Kopi Susu\nINV002,Dibatalkan,Teh Manis\n"
	rows, err := DecodeCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[1][0] != "INV001" || rows[2][2] != "Teh Manis" {
		t.Fatalf("unexpected cells: %+v", rows)
	}
}

func TestDecodeCSVRaggedRows(t *testing.T) {
	input := "a,b,c\n1,2\n3,4,5,6\n"
	rows, err := DecodeCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ragged rows must decode: %v", err)
	}
	if len(rows[1]) != 2 || len(rows[2]) != 4 {
		t.Fatalf("unexpected row widths: %+v", rows)
	}
}

func TestDecodeUnsupportedExtension(t *testing.T) {
	_, err := Decode("laporan.pdf", strings.NewReader("x"))
	if !errors.Is(err, ErrUnsupportedFile) {
		t.Fatalf("expected ErrUnsupportedFile, got %v", err)
	}
}

func TestDecodeDispatchesByExtension(t *testing.T) {
	rows, err := Decode("Laporan.CSV", strings.NewReader("a,b\n1,2\n"))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
}
