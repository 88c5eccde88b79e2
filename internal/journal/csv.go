package journal

import (
	"context"

	"github.com/gocarina/gocsv"
)

// ExportCSV renders the whole ledger, newest first, as CSV.
func (s *SQLite) ExportCSV(ctx context.Context) ([]byte, error) {
	entries, err := s.List(ctx, 0)
	if err != nil {
		return nil, err
	}
	return gocsv.MarshalBytes(&entries)
}
