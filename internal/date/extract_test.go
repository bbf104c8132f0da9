package date

import (
	"testing"
	"time"
)

func baseAt(t *testing.T, s string) time.Time {
	t.Helper()
	loc, err := time.LoadLocation("America/Argentina/Buenos_Aires")
	if err != nil {
		t.Fatalf("loading zone: %v", err)
	}
	ts, err := time.ParseInLocation(Layout, s, loc)
	if err != nil {
		t.Fatalf("parsing base: %v", err)
	}
	return ts.Add(12 * time.Hour)
}

const buenosAires = "America/Argentina/Buenos_Aires"

func TestExtractExplicitDates_DayMonthSameYear(t *testing.T) {
	got, err := ExtractExplicitDates("Mover la revisión al 3/10 por favor", buenosAires, baseAt(t, "2025-09-10"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 candidate, got %d: %+v", len(got), got)
	}
	c := got[0]
	if c.ISODate != "2025-10-03" {
		t.Errorf("ISODate = %q, want 2025-10-03", c.ISODate)
	}
	if c.OriginalText != "3/10" {
		t.Errorf("OriginalText = %q, want 3/10", c.OriginalText)
	}
	if c.RolledToFuture {
		t.Error("expected RolledToFuture=false")
	}
	if c.SourceFormat != SourceDayMonth {
		t.Errorf("SourceFormat = %q, want %q", c.SourceFormat, SourceDayMonth)
	}
}

func TestExtractExplicitDates_RollsForward(t *testing.T) {
	got, err := ExtractExplicitDates("entrega el 3/10", buenosAires, baseAt(t, "2023-10-04"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(got))
	}
	c := got[0]
	if c.ISODate != "2024-10-03" {
		t.Errorf("ISODate = %q, want 2024-10-03", c.ISODate)
	}
	if !c.RolledToFuture {
		t.Error("expected RolledToFuture=true")
	}
	if c.Date().IsWeekend() {
		t.Errorf("rolled date %s falls on a weekend", c.ISODate)
	}
}

func TestExtractExplicitDates_RolledWeekendMovesToMonday(t *testing.T) {
	// 2025-10-04 is a Saturday; base is after 4/10 in 2024.
	got, err := ExtractExplicitDates("para el 4/10", "UTC", time.Date(2024, 10, 20, 9, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(got))
	}
	if got[0].ISODate != "2025-10-06" {
		t.Errorf("ISODate = %q, want 2025-10-06 (Monday)", got[0].ISODate)
	}
	if !got[0].RolledToFuture {
		t.Error("expected RolledToFuture=true after weekend adjustment")
	}
}

func TestExtractExplicitDates_SameYearWeekendUntouched(t *testing.T) {
	got, err := ExtractExplicitDates("el 4/10", "UTC", time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ISODate != "2025-10-04" {
		t.Fatalf("got %+v, want a single 2025-10-04 candidate", got)
	}
}

func TestExtractExplicitDates_ISOWinsOverlap(t *testing.T) {
	got, err := ExtractExplicitDates("planificar para 2025-10-03 sin falta", buenosAires, baseAt(t, "2025-09-10"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected exactly 1 candidate, got %d: %+v", len(got), got)
	}
	if got[0].SourceFormat != SourceISO {
		t.Errorf("SourceFormat = %q, want iso", got[0].SourceFormat)
	}
	if got[0].ISODate != "2025-10-03" || got[0].OriginalText != "2025-10-03" {
		t.Errorf("unexpected candidate %+v", got[0])
	}
}

func TestExtractExplicitDates_TextOrder(t *testing.T) {
	text := "primero 15/11, luego 2026-01-20 y finalmente 2/12"
	got, err := ExtractExplicitDates(text, "UTC", time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"15/11", "2026-01-20", "2/12"}
	if len(got) != len(want) {
		t.Fatalf("expected %d candidates, got %d: %+v", len(want), len(got), got)
	}
	for i, w := range want {
		if got[i].OriginalText != w {
			t.Errorf("candidate %d = %q, want %q", i, got[i].OriginalText, w)
		}
	}
	if got[2].ISODate != "2025-12-02" {
		t.Errorf("2/12 resolved to %q, want 2025-12-02", got[2].ISODate)
	}
}

func TestExtractExplicitDates_Skips(t *testing.T) {
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		text string
	}{
		{"full date with year", "vence 3/10/2025"},
		{"invalid month", "el 5/13"},
		{"invalid day for month", "el 31/4"},
		{"invalid iso", "el 2025-02-30"},
		{"no dates", "sin fechas aquí"},
		{"hyphenated range", "Crear tarea de 2-3 horas para revisar planos"},
		{"hyphenated day-month", "el 15-11"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractExplicitDates(tt.text, "UTC", base)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != 0 {
				t.Errorf("expected no candidates, got %+v", got)
			}
		})
	}
}

func TestExtractExplicitDates_UnknownZone(t *testing.T) {
	_, err := ExtractExplicitDates("3/10", "Mars/Olympus", time.Now())
	if err == nil {
		t.Fatal("expected error for unknown time zone")
	}
}

func TestExtractExplicitDates_ZoneChangesToday(t *testing.T) {
	// 02:00 UTC on Oct 3 is still Oct 2 in Buenos Aires, so 2/10 has not passed there.
	base := time.Date(2025, 10, 3, 2, 0, 0, 0, time.UTC)

	inBA, err := ExtractExplicitDates("el 2/10", buenosAires, base)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(inBA) != 1 || inBA[0].ISODate != "2025-10-02" || inBA[0].RolledToFuture {
		t.Errorf("Buenos Aires: got %+v, want 2025-10-02 not rolled", inBA)
	}

	inUTC, err := ExtractExplicitDates("el 2/10", "UTC", base)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(inUTC) != 1 || !inUTC[0].RolledToFuture {
		t.Errorf("UTC: got %+v, want rolled candidate", inUTC)
	}
}
