package conflict

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/domain/apply"
)

func TestDetect(t *testing.T) {
	live := func(version int64) *apply.EntityState {
		return &apply.EntityState{Version: version}
	}
	deleted := func(version int64) *apply.EntityState {
		return &apply.EntityState{Version: version, Deleted: true}
	}

	tests := []struct {
		name       string
		op         apply.Operation
		base       int64
		state      *apply.EntityState
		wantType   Type
		wantDetect bool
	}{
		{"insert of new record", apply.OpInsert, 0, nil, "", false},
		{"update of unknown record", apply.OpUpdate, 3, nil, TypeVersionMismatch, true},
		{"delete of unknown record", apply.OpDelete, 1, nil, TypeVersionMismatch, true},

		{"update against current version", apply.OpUpdate, 5, live(5), "", false},
		{"delete against current version", apply.OpDelete, 5, live(5), "", false},
		{"update against newer server", apply.OpUpdate, 3, live(5), TypeUpdateUpdate, true},
		{"delete against newer server", apply.OpDelete, 3, live(5), TypeUpdateUpdate, true},
		{"base ahead of server", apply.OpUpdate, 9, live(5), TypeVersionMismatch, true},

		{"update of deleted record", apply.OpUpdate, 3, deleted(5), TypeUpdateDelete, true},
		{"delete of deleted record", apply.OpDelete, 3, deleted(5), TypeUpdateDelete, true},
		{"recreate after delete", apply.OpInsert, 0, deleted(5), "", false},

		{"insert onto existing record", apply.OpInsert, 0, live(2), TypeUpdateUpdate, true},

		// UPDATE_DELETE побеждает VERSION_MISMATCH при устаревшей базе
		{"deleted record with stale base", apply.OpUpdate, 9, deleted(5), TypeUpdateDelete, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			typ, detected := Detect(tt.op, tt.base, tt.state)

			assert.Equal(t, tt.wantDetect, detected)
			assert.Equal(t, tt.wantType, typ)
		})
	}
}

func TestDetectIsDeterministic(t *testing.T) {
	state := &apply.EntityState{Version: 7}

	first, ok1 := Detect(apply.OpUpdate, 4, state)
	second, ok2 := Detect(apply.OpUpdate, 4, state)

	assert.Equal(t, first, second)
	assert.Equal(t, ok1, ok2)
}
