package menu

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"canteen-connect/internal/models"
)

func TestMapDeleteError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantInvalid bool
	}{
		{
			name:        "foreign key violation",
			err:         &pgconn.PgError{Code: "23503"},
			wantInvalid: true,
		},
		{
			name:        "wrapped foreign key violation",
			err:         fmt.Errorf("exec failed: %w", &pgconn.PgError{Code: "23503"}),
			wantInvalid: true,
		},
		{
			name:        "other postgres error",
			err:         &pgconn.PgError{Code: "40001"},
			wantInvalid: false,
		},
		{
			name:        "plain error",
			err:         errors.New("connection reset"),
			wantInvalid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapDeleteError(7, tt.err)
			if got == nil {
				t.Fatal("mapDeleteError() = nil, want error")
			}
			if errors.Is(got, models.ErrInvalidInput) != tt.wantInvalid {
				t.Errorf("mapDeleteError() = %v, wantInvalid %v", got, tt.wantInvalid)
			}
		})
	}
}
