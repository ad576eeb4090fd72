package schema

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// A positional list binds to the same parameters as the equivalent object.
func TestProperty_PositionalMatchesObject(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		names := rapid.SliceOfNDistinct(rapid.StringMatching(`[a-z]{1,6}`), 1, 5, func(s string) string { return s }).Draw(rt, "names")

		fields := make([]Field, len(names))
		for i, n := range names {
			fields[i] = Field{Name: n, Validator: String()}
		}
		s := Fields(fields...)

		values := make([]any, len(names))
		obj := make(map[string]any, len(names))
		for i, n := range names {
			v := rapid.String().Draw(rt, fmt.Sprintf("value_%d", i))
			values[i] = v
			obj[n] = v
		}

		byPosition, err := Parse(s, values)
		require.NoError(t, err)
		byName, err := Parse(s, obj)
		require.NoError(t, err)

		require.Equal(t, byName.Map(), byPosition.Map())
		require.Equal(t, values, byPosition.Values())
	})
}

// Every missing required field yields exactly one issue.
func TestProperty_MissingFieldsReported(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		names := rapid.SliceOfNDistinct(rapid.StringMatching(`[a-z]{1,6}`), 1, 6, func(s string) string { return s }).Draw(rt, "names")
		present := rapid.IntRange(0, len(names)-1).Draw(rt, "present")

		fields := make([]Field, len(names))
		for i, n := range names {
			fields[i] = Field{Name: n, Validator: Any()}
		}

		obj := map[string]any{}
		for _, n := range names[:present] {
			obj[n] = true
		}

		_, err := Parse(Fields(fields...), obj)
		require.Error(t, err)

		var want []string
		for _, n := range names[present:] {
			want = append(want, n+": field required")
		}
		require.Equal(t, want, err.(*ValidationError).Strings())
	})
}
