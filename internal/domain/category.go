package domain

import (
	"fmt"
	"regexp"
	"strconv"
)

// Category identifies one of the six MSG.1 statistical groups.
// The zero value is not a valid group and marks an absent data_group.
type Category int

const (
	Group3 Category = 3
	Group4 Category = 4
	Group5 Category = 5
	Group6 Category = 6
	Group7 Category = 7
	Group9 Category = 9
)

// VariableCount is the number of named variables carried by every group.
const VariableCount = 4

// MergedKey is the collection key used when groups are not separated.
const MergedKey = "all"

// groupHintRe matches the group marker in archive names such as
// "MSG1_R3.0.0_ENH_G3_1960-1969.tar".
var groupHintRe = regexp.MustCompile(`_G(\d+)_`)

// Definition describes the variables carried by a group.
type Definition struct {
	Name        string
	Variables   [VariableCount]string
	Description string
}

var definitions = map[Category]Definition{
	Group3: {
		Name:        "Basic Ocean-Atmosphere Variables",
		Variables:   [VariableCount]string{"sea_surface_temp", "air_temp", "specific_humidity", "rainfall_rate"},
		Description: "Basic temperature, humidity, and precipitation measurements",
	},
	Group4: {
		Name:        "Wind and Pressure Variables",
		Variables:   [VariableCount]string{"wind_speed", "wind_u_component", "wind_v_component", "sea_level_pressure"},
		Description: "Wind speed, components, and atmospheric pressure",
	},
	Group5: {
		Name:        "Cloud and Wind Products",
		Variables:   [VariableCount]string{"cloud_coverage", "rainfall_amount", "wind_stress_u", "wind_stress_v"},
		Description: "Cloud, precipitation, and wind stress variables",
	},
	Group6: {
		Name:        "Temperature and Humidity Differences",
		Variables:   [VariableCount]string{"sea_air_temp_diff", "temp_diff_wind", "humidity_deficit", "humidity_flux"},
		Description: "Temperature and humidity differences and fluxes",
	},
	Group7: {
		Name:        "Wind-Temperature/Humidity Products",
		Variables:   [VariableCount]string{"wind_u_temp", "wind_v_temp", "wind_u_humidity", "wind_v_humidity"},
		Description: "Wind-temperature and wind-humidity interaction products",
	},
	Group9: {
		Name:        "Moisture Flux and Turbulence",
		Variables:   [VariableCount]string{"moisture_flux_u", "moisture_flux_v", "wind_cubed_b1", "wind_cubed_b2"},
		Description: "Advanced moisture flux and turbulence parameters",
	},
}

// Categories returns every known group in ascending order.
func Categories() []Category {
	return []Category{Group3, Group4, Group5, Group6, Group7, Group9}
}

// ParseCategory validates a decoded group id.
func ParseCategory(id int) (Category, error) {
	c := Category(id)
	if !c.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrUnknownCategory, id)
	}
	return c, nil
}

// Valid reports whether c is one of the six known groups.
func (c Category) Valid() bool {
	_, ok := definitions[c]
	return ok
}

// Definition returns the static metadata for the group.
func (c Category) Definition() (Definition, error) {
	def, ok := definitions[c]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %d", ErrUnknownCategory, int(c))
	}
	return def, nil
}

func (c Category) String() string {
	return "G" + strconv.Itoa(int(c))
}

// CategoryFromName extracts the advisory group hint from an archive name.
func CategoryFromName(name string) (Category, bool) {
	m := groupHintRe.FindStringSubmatch(name)
	if len(m) != 2 {
		return 0, false
	}
	id, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	c := Category(id)
	return c, c.Valid()
}

// GroupKey is the collection key under which rows of group c are stored.
func GroupKey(c Category) string {
	return strconv.Itoa(int(c))
}

// ParseGroupKey is the inverse of GroupKey. MergedKey is not accepted.
func ParseGroupKey(key string) (Category, error) {
	id, err := strconv.Atoi(key)
	if err != nil {
		return 0, fmt.Errorf("%w: key %q", ErrUnknownCategory, key)
	}
	return ParseCategory(id)
}
