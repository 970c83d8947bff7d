package phpserialize

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type emptyCommand struct{}

type scalarCommand struct {
	Episode string   `php:"episode"`
	Count   int      `php:"count"`
	Ratio   float64  `php:"ratio"`
	Enabled bool     `php:"enabled"`
	Queue   string   `php:"queue,protected"`
	Seconds *float64 `php:"seconds"`
}

type nestedCommand struct {
	Name     string            `php:"name"`
	Heights  []int             `php:"heights"`
	Tags     map[string]string `php:"tags"`
	Child    *scalarCommand    `php:"child"`
	Anything interface{}       `php:"anything"`
	internal string
}

func testScope(t *testing.T) *Scope {
	t.Helper()
	scope := NewScope()
	require.NoError(t, scope.Register(`App\Jobs\Empty`, func() interface{} { return &emptyCommand{} }))
	require.NoError(t, scope.Register(`App\Jobs\Scalar`, func() interface{} { return &scalarCommand{} }))
	require.NoError(t, scope.Register(`App\Jobs\Nested`, func() interface{} { return &nestedCommand{} }))
	return scope
}

func TestMarshalScalarObject(t *testing.T) {
	scope := testScope(t)
	secs := 12.5
	data, err := Marshal(&scalarCommand{Episode: "ep-1", Count: 3, Ratio: 0.1, Enabled: true, Queue: "default", Seconds: &secs}, scope)
	require.NoError(t, err)

	want := `O:15:"App\Jobs\Scalar":6:{` +
		`s:7:"episode";s:4:"ep-1";` +
		`s:5:"count";i:3;` +
		`s:5:"ratio";d:0.1;` +
		`s:7:"enabled";b:1;` +
		"s:8:\"\x00*\x00queue\";s:7:\"default\";" +
		`s:7:"seconds";d:12.5;}`
	assert.Equal(t, want, string(data))
}

func TestRoundTrip(t *testing.T) {
	scope := testScope(t)
	secs := 42.0

	tests := []struct {
		name string
		in   interface{}
	}{
		{"empty object", &emptyCommand{}},
		{"scalar fields", &scalarCommand{Episode: "pilot", Count: -7, Ratio: 1.5e20, Enabled: false, Queue: "low", Seconds: &secs}},
		{"nil pointer field", &scalarCommand{Episode: "pilot"}},
		{"nested array field", &nestedCommand{
			Name:     "season",
			Heights:  []int{144, 240, 360},
			Tags:     map[string]string{"a": "1", "b": "2"},
			Child:    &scalarCommand{Episode: "child", Count: 1},
			Anything: []interface{}{int64(1), "two", map[string]interface{}{"k": true}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Marshal(tt.in, scope)
			require.NoError(t, err)

			out, err := Unmarshal(data, scope)
			require.NoError(t, err)
			assert.Equal(t, tt.in, out)
		})
	}
}

func TestUnmarshalUnknownClass(t *testing.T) {
	_, err := Unmarshal([]byte(`O:14:"App\Jobs\Other":0:{}`), testScope(t))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownClass))
}

func TestUnmarshalNestedUnknownClass(t *testing.T) {
	data := `O:15:"App\Jobs\Nested":1:{s:8:"anything";O:8:"stdClass":0:{}}`
	_, err := Unmarshal([]byte(data), testScope(t))
	assert.True(t, errors.Is(err, ErrUnknownClass))
}

func TestUnmarshalIgnoresUnknownAndMangledProperties(t *testing.T) {
	data := `O:15:"App\Jobs\Scalar":4:{` +
		`s:7:"episode";s:5:"hello";` +
		"s:8:\"\x00*\x00queue\";s:4:\"high\";" +
		"s:23:\"\x00App\\Jobs\\Scalar\x00secret\";s:1:\"x\";" +
		`s:10:"connection";N;}`
	out, err := Unmarshal([]byte(data), testScope(t))
	require.NoError(t, err)

	cmd := out.(*scalarCommand)
	assert.Equal(t, "hello", cmd.Episode)
	assert.Equal(t, "high", cmd.Queue)
}

func TestDecodeMultibyteStringLength(t *testing.T) {
	v, err := Decode([]byte(`s:5:"héllo";`))
	require.Error(t, err)

	v, err = Decode([]byte(`s:6:"héllo";`))
	require.NoError(t, err)
	assert.Equal(t, "héllo", v)
}

func TestDecodeSyntaxErrors(t *testing.T) {
	inputs := []string{
		``,
		`i:12`,
		`b:2;`,
		`s:10:"short";`,
		`a:1:{i:0;}`,
		`O:3:"Foo":1:{i:0;i:1;`,
		`N;N;`,
		`r:1;`,
		`a:1:{a:0:{}i:1;}`,
		`a:9223372036854775807:{}`,
		`s:9223372036854775807:"x";`,
		`O:9223372036854775807:"x":0:{}`,
		`O:3:"Foo":9223372036854775807:{}`,
	}
	for _, in := range inputs {
		_, err := Decode([]byte(in))
		var syntaxErr *SyntaxError
		assert.True(t, errors.As(err, &syntaxErr), "input %q: got %v", in, err)
	}
}

func TestDecodeArray(t *testing.T) {
	v, err := Decode([]byte(`a:2:{i:0;s:1:"a";s:3:"key";d:2.5;}`))
	require.NoError(t, err)

	arr := v.(*Array)
	assert.False(t, arr.IsList())
	got, ok := arr.Get("key")
	assert.True(t, ok)
	assert.Equal(t, 2.5, got)
}

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{1, "1"},
		{0.1, "0.1"},
		{-2.5, "-2.5"},
		{0.0001, "0.0001"},
		{0.00001, "1.0E-5"},
		{1e14, "100000000000000"},
		{1e15, "1.0E+15"},
		{1.5e20, "1.5E+20"},
		{math.Inf(1), "INF"},
		{math.Inf(-1), "-INF"},
		{math.NaN(), "NAN"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatFloat(tt.in))
	}
}

func TestRegisterRejectsNonStruct(t *testing.T) {
	scope := NewScope()
	assert.Error(t, scope.Register("Foo", func() interface{} { return "nope" }))
	assert.Error(t, scope.Register("", func() interface{} { return &emptyCommand{} }))
	require.NoError(t, scope.Register("Foo", func() interface{} { return &emptyCommand{} }))
	assert.Error(t, scope.Register("Foo", func() interface{} { return &emptyCommand{} }))
}
