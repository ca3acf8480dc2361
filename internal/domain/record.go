package domain

// Source layouts of the bakery sales dataset, in time.Parse notation.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Columns is the destination column order shared by DDL, INSERT and Values.
var Columns = []string{
	"id",
	"date",
	"time",
	"ticket_number",
	"article",
	"quantity",
	"unit_price",
}

// business object for one row of the sales CSV.
type Sale struct {
	ID           *int64
	Date         string
	Time         string
	TicketNumber *int64
	Article      string
	Quantity     *int64
	UnitPrice    string

	// Line is the 1-based physical line in the source file (header is line 1).
	Line int
}

// Values returns the row aligned to Columns. Empty text becomes NULL.
func (s Sale) Values() []any {
	return []any{
		int64OrNil(s.ID),
		s.Date,
		s.Time,
		int64OrNil(s.TicketNumber),
		stringOrNil(s.Article),
		int64OrNil(s.Quantity),
		stringOrNil(s.UnitPrice),
	}
}

func int64OrNil(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}

func stringOrNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}
