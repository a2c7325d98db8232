package domain

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// Statistic column suffixes, in slot block order (S1, S3, S5, M).
var statNames = [4]string{"tercile1", "median", "tercile3", "mean"}

// Auxiliary column suffixes, in slot block order (N, S, D, H, X, Y).
var auxNames = [6]string{"count", "stddev", "mean_day", "daylight", "mean_lon", "mean_lat"}

const (
	firstAuxSlot = 26
	auxBlocks    = len(auxNames)
)

// Stats holds the four reported statistics of one variable.
// A nil value was not reported.
type Stats struct {
	Tercile1 *float64
	Median   *float64
	Tercile3 *float64
	Mean     *float64
}

func (s Stats) values() [4]*float64 {
	return [4]*float64{s.Tercile1, s.Median, s.Tercile3, s.Mean}
}

func statsOf(v [4]*float64) Stats {
	return Stats{Tercile1: v[0], Median: v[1], Tercile3: v[2], Mean: v[3]}
}

// Variables is the group-specific part of a row. Each group has its own
// concrete type with four named variables.
type Variables interface {
	Category() Category
	Stats() [VariableCount]Stats
}

// BasicOceanAtmosphere carries group 3.
type BasicOceanAtmosphere struct {
	SeaSurfaceTemp   Stats
	AirTemp          Stats
	SpecificHumidity Stats
	RainfallRate     Stats
}

func (BasicOceanAtmosphere) Category() Category { return Group3 }

func (v BasicOceanAtmosphere) Stats() [VariableCount]Stats {
	return [VariableCount]Stats{v.SeaSurfaceTemp, v.AirTemp, v.SpecificHumidity, v.RainfallRate}
}

// WindPressure carries group 4.
type WindPressure struct {
	WindSpeed        Stats
	WindU            Stats
	WindV            Stats
	SeaLevelPressure Stats
}

func (WindPressure) Category() Category { return Group4 }

func (v WindPressure) Stats() [VariableCount]Stats {
	return [VariableCount]Stats{v.WindSpeed, v.WindU, v.WindV, v.SeaLevelPressure}
}

// CloudWind carries group 5.
type CloudWind struct {
	CloudCoverage  Stats
	RainfallAmount Stats
	WindStressU    Stats
	WindStressV    Stats
}

func (CloudWind) Category() Category { return Group5 }

func (v CloudWind) Stats() [VariableCount]Stats {
	return [VariableCount]Stats{v.CloudCoverage, v.RainfallAmount, v.WindStressU, v.WindStressV}
}

// TemperatureHumidityDiff carries group 6.
type TemperatureHumidityDiff struct {
	SeaAirTempDiff  Stats
	TempDiffWind    Stats
	HumidityDeficit Stats
	HumidityFlux    Stats
}

func (TemperatureHumidityDiff) Category() Category { return Group6 }

func (v TemperatureHumidityDiff) Stats() [VariableCount]Stats {
	return [VariableCount]Stats{v.SeaAirTempDiff, v.TempDiffWind, v.HumidityDeficit, v.HumidityFlux}
}

// WindTemperatureHumidity carries group 7.
type WindTemperatureHumidity struct {
	WindUTemp     Stats
	WindVTemp     Stats
	WindUHumidity Stats
	WindVHumidity Stats
}

func (WindTemperatureHumidity) Category() Category { return Group7 }

func (v WindTemperatureHumidity) Stats() [VariableCount]Stats {
	return [VariableCount]Stats{v.WindUTemp, v.WindVTemp, v.WindUHumidity, v.WindVHumidity}
}

// MoistureFluxTurbulence carries group 9.
type MoistureFluxTurbulence struct {
	MoistureFluxU Stats
	MoistureFluxV Stats
	WindCubedB1   Stats
	WindCubedB2   Stats
}

func (MoistureFluxTurbulence) Category() Category { return Group9 }

func (v MoistureFluxTurbulence) Stats() [VariableCount]Stats {
	return [VariableCount]Stats{v.MoistureFluxU, v.MoistureFluxV, v.WindCubedB1, v.WindCubedB2}
}

func newVariables(c Category, s [VariableCount]Stats) (Variables, error) {
	switch c {
	case Group3:
		return BasicOceanAtmosphere{SeaSurfaceTemp: s[0], AirTemp: s[1], SpecificHumidity: s[2], RainfallRate: s[3]}, nil
	case Group4:
		return WindPressure{WindSpeed: s[0], WindU: s[1], WindV: s[2], SeaLevelPressure: s[3]}, nil
	case Group5:
		return CloudWind{CloudCoverage: s[0], RainfallAmount: s[1], WindStressU: s[2], WindStressV: s[3]}, nil
	case Group6:
		return TemperatureHumidityDiff{SeaAirTempDiff: s[0], TempDiffWind: s[1], HumidityDeficit: s[2], HumidityFlux: s[3]}, nil
	case Group7:
		return WindTemperatureHumidity{WindUTemp: s[0], WindVTemp: s[1], WindUHumidity: s[2], WindVHumidity: s[3]}, nil
	case Group9:
		return MoistureFluxTurbulence{MoistureFluxU: s[0], MoistureFluxV: s[1], WindCubedB1: s[2], WindCubedB2: s[3]}, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCategory, int(c))
	}
}

// AuxiliaryStats holds the derived quantities of one variable (slots 26-49).
type AuxiliaryStats struct {
	Count    *float64
	StdDev   *float64
	MeanDay  *float64
	Daylight *float64
	MeanLon  *float64
	MeanLat  *float64
}

func (a AuxiliaryStats) values() [auxBlocks]*float64 {
	return [auxBlocks]*float64{a.Count, a.StdDev, a.MeanDay, a.Daylight, a.MeanLon, a.MeanLat}
}

func auxiliaryOf(v [auxBlocks]*float64) AuxiliaryStats {
	return AuxiliaryStats{Count: v[0], StdDev: v[1], MeanDay: v[2], Daylight: v[3], MeanLon: v[4], MeanLat: v[5]}
}

// Auxiliary is indexed by variable, in group definition order.
type Auxiliary [VariableCount]AuxiliaryStats

// Header holds the fields shared by every group. Year, Month and a zero
// DataGroup mark absent values.
type Header struct {
	Year           *int
	Month          *int
	Longitude      float64
	Latitude       float64
	BoxSizeDegrees float64
	PlatformID1    float64
	PlatformID2    float64
	DataGroup      Category
	Checksum       int
	SourceFile     string
}

// Row is one materialized MSG.1 record.
type Row struct {
	Header
	Variables Variables

	// Auxiliary is only set in extended output mode.
	Auxiliary *Auxiliary
}

// MaterializeOptions controls which optional columns are produced.
type MaterializeOptions struct {
	IncludeAuxiliary bool
}

// Materialize maps physical slots onto the named columns of group c.
func Materialize(p Physical, c Category, source string, opts MaterializeOptions) (Row, error) {
	var stats [VariableCount]Stats
	for v := range VariableCount {
		var vals [4]*float64
		for s := range vals {
			vals[s] = reported(p[firstDataSlot+s*VariableCount+v])
		}
		stats[v] = statsOf(vals)
	}
	vars, err := newVariables(c, stats)
	if err != nil {
		return Row{}, err
	}

	year := int(p[1])
	month := int(p[2])
	row := Row{
		Header: Header{
			Year:           &year,
			Month:          &month,
			Longitude:      p[4],
			Latitude:       p[5],
			BoxSizeDegrees: p[3],
			PlatformID1:    p[6],
			PlatformID2:    p[7],
			DataGroup:      c,
			Checksum:       int(p[9]),
			SourceFile:     source,
		},
		Variables: vars,
	}

	if opts.IncludeAuxiliary {
		var aux Auxiliary
		for v := range VariableCount {
			var vals [auxBlocks]*float64
			for b := range vals {
				vals[b] = reported(p[firstAuxSlot+b*VariableCount+v])
			}
			aux[v] = auxiliaryOf(vals)
		}
		row.Auxiliary = &aux
	}

	return row, nil
}

func reported(v float64) *float64 {
	if v == Missing {
		return nil
	}
	return &v
}

// Validate reports rows lacking any essential header field.
func (r Row) Validate() error {
	switch {
	case r.Year == nil:
		return fmt.Errorf("%w: year", ErrMissingEssentialField)
	case r.Month == nil:
		return fmt.Errorf("%w: month", ErrMissingEssentialField)
	case r.DataGroup == 0:
		return fmt.Errorf("%w: data_group", ErrMissingEssentialField)
	}
	return nil
}

// DateString formats the row's month as YYYY-MM, or "" when absent.
func (r Row) DateString() string {
	if r.Year == nil || r.Month == nil {
		return ""
	}
	return fmt.Sprintf("%d-%02d", *r.Year, *r.Month)
}

// ID produces a deterministic identifier from the row's identifying fields.
// Replaying the same payload yields the same IDs.
func (r Row) ID() string {
	input := fmt.Sprintf("%s|%s|%d|%.1f|%.1f|%g|%g|%g|%d",
		r.SourceFile, r.DateString(), int(r.DataGroup),
		r.Longitude, r.Latitude, r.BoxSizeDegrees, r.PlatformID1, r.PlatformID2, r.Checksum)
	hash := sha256.Sum256([]byte(input))
	short := hex.EncodeToString(hash[:8])
	if !r.DataGroup.Valid() {
		return short
	}
	return strings.ToLower(r.DataGroup.String()) + "-" + short
}

// Field is one flattened output column.
type Field struct {
	Name  string
	Value any
}

// Fields flattens the row into its output columns, in schema order.
// Absent values are nil.
func (r Row) Fields() []Field {
	fields := []Field{
		{"year", intOrNil(r.Year)},
		{"month", intOrNil(r.Month)},
		{"longitude", r.Longitude},
		{"latitude", r.Latitude},
		{"box_size_degrees", r.BoxSizeDegrees},
		{"platform_id1", r.PlatformID1},
		{"platform_id2", r.PlatformID2},
		{"data_group", groupOrNil(r.DataGroup)},
		{"checksum", r.Checksum},
		{"source_file", r.SourceFile},
		{"date_string", stringOrNil(r.DateString())},
	}
	if r.Variables == nil {
		return fields
	}
	def, err := r.Variables.Category().Definition()
	if err != nil {
		return fields
	}

	stats := r.Variables.Stats()
	for v, name := range def.Variables {
		for s, val := range stats[v].values() {
			fields = append(fields, Field{name + "_" + statNames[s], val})
		}
	}
	if r.Auxiliary != nil {
		for v, name := range def.Variables {
			for b, val := range r.Auxiliary[v].values() {
				fields = append(fields, Field{name + "_" + auxNames[b], val})
			}
		}
	}
	return fields
}

// Value returns a named variable column. The bool is false when the row has
// no such column; a nil value means the column was not reported.
func (r Row) Value(column string) (*float64, bool) {
	for _, f := range r.Fields() {
		if f.Name != column {
			continue
		}
		v, ok := f.Value.(*float64)
		return v, ok
	}
	return nil, false
}

func intOrNil(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func groupOrNil(c Category) any {
	if c == 0 {
		return nil
	}
	return int(c)
}

func stringOrNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// MarshalJSON writes the flat column layout, preserving schema order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.Fields() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("encode row field %s: %w", f.Name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads the flat column layout written by MarshalJSON.
func (r *Row) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode row: %w", err)
	}

	var row Row
	var group *int
	header := []struct {
		name string
		dst  any
	}{
		{"year", &row.Year},
		{"month", &row.Month},
		{"longitude", &row.Longitude},
		{"latitude", &row.Latitude},
		{"box_size_degrees", &row.BoxSizeDegrees},
		{"platform_id1", &row.PlatformID1},
		{"platform_id2", &row.PlatformID2},
		{"data_group", &group},
		{"checksum", &row.Checksum},
		{"source_file", &row.SourceFile},
	}
	for _, h := range header {
		v, ok := raw[h.name]
		if !ok {
			continue
		}
		if err := json.Unmarshal(v, h.dst); err != nil {
			return fmt.Errorf("decode row field %s: %w", h.name, err)
		}
	}

	if group == nil {
		*r = row
		return nil
	}
	c, err := ParseCategory(*group)
	if err != nil {
		return fmt.Errorf("decode row: %w", err)
	}
	row.DataGroup = c
	def, _ := c.Definition()

	var stats [VariableCount]Stats
	for v, name := range def.Variables {
		var vals [4]*float64
		for s := range vals {
			if err := decodeColumn(raw, name+"_"+statNames[s], &vals[s]); err != nil {
				return err
			}
		}
		stats[v] = statsOf(vals)
	}
	if row.Variables, err = newVariables(c, stats); err != nil {
		return err
	}

	if _, ok := raw[def.Variables[0]+"_"+auxNames[0]]; ok {
		var aux Auxiliary
		for v, name := range def.Variables {
			var vals [auxBlocks]*float64
			for b := range vals {
				if err := decodeColumn(raw, name+"_"+auxNames[b], &vals[b]); err != nil {
					return err
				}
			}
			aux[v] = auxiliaryOf(vals)
		}
		row.Auxiliary = &aux
	}

	*r = row
	return nil
}

func decodeColumn(raw map[string]json.RawMessage, name string, dst **float64) error {
	v, ok := raw[name]
	if !ok {
		return nil
	}
	if err := json.Unmarshal(v, dst); err != nil {
		return fmt.Errorf("decode row field %s: %w", name, err)
	}
	return nil
}
