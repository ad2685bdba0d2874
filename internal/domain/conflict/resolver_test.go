package conflict

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/domain/snapshot"
)

func snap(t *testing.T, raw string) *snapshot.Snapshot {
	t.Helper()
	var s snapshot.Snapshot
	require.NoError(t, json.Unmarshal([]byte(raw), &s))
	return &s
}

func testConflict(t *testing.T) *Conflict {
	return &Conflict{
		ID:         1,
		EntityType: "PRODUCT",
		EntityID:   "41",
		ServerData: snap(t, `{"name":"bolt","qty":100}`),
		ClientData: snap(t, `{"name":"bolt M6","qty":80}`),
		Type:       TypeUpdateUpdate,
		Status:     StatusDetected,
	}
}

func TestResolve_ServerWins(t *testing.T) {
	r := NewResolver(nil)
	c := testConflict(t)

	res, err := r.Resolve(c, StrategyServerWins)

	require.NoError(t, err)
	assert.False(t, res.NeedsManual)
	assert.True(t, res.Data.Equal(c.ServerData))
}

func TestResolve_ClientWins(t *testing.T) {
	r := NewResolver(nil)
	c := testConflict(t)

	res, err := r.Resolve(c, StrategyClientWins)

	require.NoError(t, err)
	assert.True(t, res.Data.Equal(c.ClientData))
}

func TestResolve_Manual(t *testing.T) {
	r := NewResolver(nil)

	res, err := r.Resolve(testConflict(t), StrategyManual)

	require.NoError(t, err)
	assert.True(t, res.NeedsManual)
	assert.Nil(t, res.Data)
}

func TestResolve_MergeWithRegisteredFunc(t *testing.T) {
	merges := NewMergeRegistry()
	require.NoError(t, merges.Register("PRODUCT", func(server, client *snapshot.Snapshot) (*snapshot.Snapshot, error) {
		// имя берем с клиента, количество с сервера
		out := server.Clone()
		if v, ok := client.Get("name"); ok {
			out.Set("name", v)
		}
		return out, nil
	}))

	r := NewResolver(merges)
	res, err := r.Resolve(testConflict(t), StrategyMerge)

	require.NoError(t, err)
	assert.True(t, res.Data.Equal(snap(t, `{"name":"bolt M6","qty":100}`)))
}

func TestResolve_MergeWithoutFunc(t *testing.T) {
	r := NewResolver(NewMergeRegistry())

	_, err := r.Resolve(testConflict(t), StrategyMerge)

	assert.ErrorIs(t, err, ErrUnsupportedMerge)
}

func TestResolve_MergeFuncFailure(t *testing.T) {
	merges := NewMergeRegistry()
	mergeErr := errors.New("incompatible units")
	require.NoError(t, merges.Register("PRODUCT", func(_, _ *snapshot.Snapshot) (*snapshot.Snapshot, error) {
		return nil, mergeErr
	}))

	r := NewResolver(merges)
	_, err := r.Resolve(testConflict(t), StrategyMerge)

	assert.ErrorIs(t, err, mergeErr)
}

func TestResolve_UnknownStrategy(t *testing.T) {
	r := NewResolver(nil)

	_, err := r.Resolve(testConflict(t), "COIN_FLIP")

	assert.ErrorIs(t, err, ErrUnknownStrategy)
}

func TestMergeRegistry_DuplicateRegistration(t *testing.T) {
	merges := NewMergeRegistry()
	fn := func(_, _ *snapshot.Snapshot) (*snapshot.Snapshot, error) { return nil, nil }

	require.NoError(t, merges.Register("PRODUCT", fn))
	assert.Error(t, merges.Register("PRODUCT", fn))
}

func TestResolve_ServerWinsReturnsDetectionTimeSnapshot(t *testing.T) {
	r := NewResolver(nil)
	c := testConflict(t)
	want := c.ServerData.Clone()

	res, err := r.Resolve(c, StrategyServerWins)
	require.NoError(t, err)

	// мутация результата не должна трогать слепок конфликта
	res.Data.Set("qty", json.RawMessage(`0`))
	assert.True(t, c.ServerData.Equal(want))
}
