package yaml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Details struct {
	Location string `yaml:"location" jsonschema:"description=location" fake:"Beijing"`
	Gender   string `yaml:"gender" jsonschema:"description=gender" fake:"male"`
}

type Person struct {
	Name       string    `yaml:"name" comment:"Full Name" jsonschema:"description=person name" fake:"Syd Xu"`
	Age        *int      `yaml:"age" jsonschema:"description=Age of a person" fake:"24"`
	Details    *Details  `yaml:"details" jsonschema:"description=Details of a person"`
	DetailList []Details `yaml:"details_list" jsonschema:"description=Details list of a person" fakesize:"1"`
}

func TestFormatInstructions(t *testing.T) {
	t.Parallel()

	var p Person
	enc := NewEncoder(p).WithCommentStyle(LineComment)
	exp := `
Respond with YAML in the following YAML schema without comments:
` + "```yaml" + `
name: Syd Xu # Full Name
age: 24 # Age of a person
details: # Details of a person
    location: Beijing # location
    gender: male # gender
details_list: # Details list of a person
    - location: Beijing # location
      gender: male # gender
` + "```" + `
Make sure to return an instance of the YAML, not the schema itself.
`

	assert.Equal(t, exp, enc.GetFormatInstructions())
}

type forecast struct {
	City    string            `json:"city" jsonschema:"description=City name"`
	Temp    float64           `json:"temp" jsonschema:"description=Temperature\\, in Celsius"`
	Note    string            `json:"note,omitempty"`
	Sources map[string]string `json:"sources,omitempty"`
	Skip    string            `json:"-"`
}

func TestMarshal(t *testing.T) {
	t.Parallel()

	f := forecast{City: "Paris", Temp: 22.5, Sources: map[string]string{"met": "ok"}, Skip: "x"}

	bs, err := NewEncoder(f).Marshal(f)
	require.NoError(t, err)
	// yaml.v3 uses the lower cased field names
	assert.Equal(t, "city: Paris\ntemp: 22.5\nnote: \"\"\nsources:\n    met: ok\nskip: x\n", string(bs))

	bs, err = NewEncoder(f).WithCommentStyle(LineComment).Marshal(&f)
	require.NoError(t, err)
	assert.Equal(t, "city: Paris # City name\ntemp: 22.5 # Temperature, in Celsius\nsources:\n    met: ok\n", string(bs))

	bs, err = NewEncoder(f).WithCommentStyle(HeadComment).Marshal(forecast{City: "Rome"})
	require.NoError(t, err)
	assert.Contains(t, string(bs), "# City name\ncity: Rome\n")
	assert.Contains(t, string(bs), "# Temperature, in Celsius\ntemp: 0\n")

	var nilForecast *forecast
	bs, err = NewEncoder(f).WithCommentStyle(LineComment).Marshal(nilForecast)
	require.NoError(t, err)
	assert.Equal(t, "null\n", string(bs))
}

func TestUnmarshal(t *testing.T) {
	t.Parallel()

	type answer struct {
		City string `yaml:"city" validate:"required"`
	}
	enc := NewEncoder(answer{})

	var a answer
	require.NoError(t, enc.Unmarshal([]byte("```yaml\ncity: Paris\n```"), &a))
	assert.Equal(t, "Paris", a.City)
	assert.NoError(t, enc.Validate(&a))
	assert.Error(t, enc.Validate(&answer{}))
}
