// Package mocks provides function-field mocks of the service interfaces for
// handler and wiring tests.
//
// Each mock method calls the matching XxxFn field when it is set and
// otherwise returns zero values. Calls are recorded by method name:
//
//	units := &mocks.MockUnitService{
//	    GetSnapshotFn: func(ctx context.Context, id uuid.UUID) (*domain.UnitSnapshot, error) {
//	        return nil, domain.NewNotFoundError("unit", id.String())
//	    },
//	}
//	...
//	assert.Equal(t, 1, units.CallCount("GetSnapshot"))
package mocks
