package typelib_test

import (
	"encoding/json"
	"testing"

	"github.com/aretw0/orocos/pkg/typelib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNavRegistry(t *testing.T) *typelib.Registry {
	t.Helper()
	r := typelib.NewRegistry()
	require.NoError(t, r.Add(typelib.Type{
		Name:   "/Nav/Mode",
		Kind:   typelib.KindEnum,
		Values: []string{"IDLE", "TRACKING"},
	}))
	require.NoError(t, r.Add(typelib.Type{
		Name: "/Nav/Pose",
		Kind: typelib.KindCompound,
		Fields: []typelib.Field{
			{Name: "x", Type: "/double"},
			{Name: "y", Type: "/double"},
			{Name: "mode", Type: "/Nav/Mode"},
		},
	}))
	require.NoError(t, r.Add(typelib.Type{
		Name:    "/std/vector</Nav/Pose>",
		Kind:    typelib.KindSequence,
		Element: "/Nav/Pose",
	}))
	return r
}

func TestRegistry_Builtins(t *testing.T) {
	r := typelib.NewRegistry()

	str, ok := r.Get(typelib.StringTypeName)
	require.True(t, ok)
	assert.Equal(t, typelib.KindString, str.Kind)

	i, ok := r.Get("int")
	require.True(t, ok, "C alias should resolve")
	assert.Equal(t, "/int32_t", i.Name)
	assert.True(t, r.Exported("int"))

	_, err := r.Lookup("/Nav/Pose")
	assert.ErrorIs(t, err, typelib.ErrUnknownType)
}

func TestRegistry_MergeKeepsExports(t *testing.T) {
	a := typelib.NewRegistry()
	b := typelib.NewRegistry()
	require.NoError(t, b.Add(typelib.Type{Name: "/Nav/Id", Kind: typelib.KindUint, Size: 4}))
	b.Export("/Nav/Id")

	a.Merge(b)
	assert.True(t, a.Has("/Nav/Id"))
	assert.True(t, a.Exported("/Nav/Id"))
}

func TestRegistry_AddRejectsInvalid(t *testing.T) {
	r := typelib.NewRegistry()
	assert.Error(t, r.Add(typelib.Type{Name: "/Bad", Kind: typelib.KindInt, Size: 3}))
	assert.Error(t, r.Add(typelib.Type{Name: "/Bad", Kind: typelib.KindEnum}))
	assert.Error(t, r.Add(typelib.Type{Name: "/Bad", Kind: "matrix"}))
}

func TestConvert_Scalars(t *testing.T) {
	r := typelib.NewRegistry()

	v, err := r.Convert("/int32_t", 42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)

	v, err = r.Convert("/int32_t", float64(7))
	require.NoError(t, err, "integral floats come back from JSON")
	assert.Equal(t, int64(7), v)

	v, err = r.Convert("/double", json.Number("1.5"))
	require.NoError(t, err)
	assert.Equal(t, 1.5, v)

	_, err = r.Convert("/int32_t", "hello")
	assert.ErrorIs(t, err, typelib.ErrMismatch)

	_, err = r.Convert("/int8_t", 300)
	assert.ErrorIs(t, err, typelib.ErrMismatch)

	_, err = r.Convert("/uint16_t", -1)
	assert.ErrorIs(t, err, typelib.ErrMismatch)

	_, err = r.Convert("/uint8_t", uint64(1)<<63)
	assert.ErrorIs(t, err, typelib.ErrMismatch, "uint64 above MaxInt64 is still range checked")

	v, err = r.Convert("/uint64_t", uint64(1)<<63)
	require.NoError(t, err)
	assert.Equal(t, uint64(1)<<63, v)

	_, err = r.Convert("/int32_t", 1.25)
	assert.ErrorIs(t, err, typelib.ErrMismatch)

	_, err = r.Convert("/bool", 1)
	assert.ErrorIs(t, err, typelib.ErrMismatch)
}

func TestConvert_Compound(t *testing.T) {
	r := newNavRegistry(t)

	type pose struct {
		X    float64
		Y    float64
		Mode string
	}
	v, err := r.Convert("/Nav/Pose", pose{X: 1, Y: 2, Mode: "TRACKING"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"x": 1.0, "y": 2.0, "mode": "TRACKING"}, v)

	v, err = r.Convert("/Nav/Pose", map[string]any{"x": 3, "mode": 0})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"x": 3.0, "mode": "IDLE"}, v)

	_, err = r.Convert("/Nav/Pose", map[string]any{"z": 1.0})
	var convErr *typelib.ConversionError
	require.ErrorAs(t, err, &convErr)
	assert.Contains(t, convErr.Reason, "unknown field")

	_, err = r.Convert("/Nav/Pose", map[string]any{"mode": "LOST"})
	require.ErrorAs(t, err, &convErr)
	assert.Equal(t, "mode", convErr.Path)
}

func TestConvert_Sequence(t *testing.T) {
	r := newNavRegistry(t)

	v, err := r.Convert("/std/vector</Nav/Pose>", []map[string]any{{"x": 1.0}, {"y": 2.0}})
	require.NoError(t, err)
	assert.Len(t, v, 2)

	_, err = r.Convert("/std/vector</Nav/Pose>", map[string]any{"x": 1.0})
	assert.ErrorIs(t, err, typelib.ErrMismatch)
}

func TestParseTypelist(t *testing.T) {
	data := []byte(`# generated
/Nav/Pose 1
/Nav/InternalState 0

/Nav/Legacy
`)
	tl, err := typelib.ParseTypelist(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"/Nav/Pose", "/Nav/InternalState", "/Nav/Legacy"}, tl.All)
	assert.Equal(t, []string{"/Nav/Pose", "/Nav/Legacy"}, tl.Exported)

	_, err = typelib.ParseTypelist([]byte("/Nav/Pose yes\n"))
	assert.Error(t, err)
}

func TestTypelistPath(t *testing.T) {
	assert.Equal(t, "/opt/lib/nav.typelist", typelib.TypelistPath("/opt/lib/nav.tlb"))
	assert.Equal(t, "/opt/v1.2/nav.typelist", typelib.TypelistPath("/opt/v1.2/nav"))
}
