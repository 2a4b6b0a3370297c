package nc

import (
	"fmt"
	"reflect"
	"sort"
	"time"

	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/batchatco/go-native-netcdf/netcdf/cdf"
	"github.com/batchatco/go-native-netcdf/netcdf/util"

	"github.com/climtools/dataprep/internal/climo"
	"github.com/climtools/dataprep/internal/meta"
	"github.com/climtools/dataprep/internal/units"
)

const secondsPerDay = 86400

// Units of a pr variable that get converted to a per-day rate.
var perSecondPrUnits = []units.Unit{
	units.MustParse("kg m-2 s-1"),
	units.MustParse("mm s-1"),
}

// FinishSpec describes the corrections applied to a statistics-tool output
// file to make it a proper climatology file.
type FinishSpec struct {
	Resolutions []climo.Resolution
	Statistic   climo.Statistic
	Start, End  time.Time

	ConvertLongitudes bool
	ConvertPrUnits    bool

	TrackingID string
	History    []string
}

// FinishClimo writes a corrected copy of a climatology file produced by the
// statistics tool:
//
//   - time values become CF climatological times and a climatology_bnds
//     variable records the averaging periods
//   - optionally, longitudes in [0, 360) are shifted to [-180, 180) and the
//     data rotated to keep the axis monotonic
//   - optionally, a per-second pr variable is converted to per-day; packed
//     files only have their packing parameters scaled
//   - cell_methods notes the climatological operation, and global attributes
//     record the frequency code, period, source tracking id, and history
func FinishClimo(in *Dataset, outPath string, spec FinishSpec) error {
	tg, err := in.Getter("time")
	if err != nil {
		return err
	}
	timeUnits, _ := attrString(tg.Attributes(), "units")
	timeCalendar, _ := attrString(tg.Attributes(), "calendar")
	enc, err := meta.ParseTimeEncoding(timeUnits, timeCalendar)
	if err != nil {
		return fmt.Errorf("%s: %w", in.Path(), err)
	}

	climoTimes, climoBounds := meta.ClimatologyTimes(spec.Start, spec.End, spec.Resolutions)
	if int64(len(climoTimes)) != tg.Len() {
		return fmt.Errorf("%s: expected %d time steps for %s, found %d",
			in.Path(), len(climoTimes), meta.FrequencyCode(spec.Resolutions, spec.Statistic), tg.Len())
	}

	boundsValues := make([][]float64, len(climoBounds))
	for i, b := range climoBounds {
		boundsValues[i] = []float64{enc.Encode(b[0]), enc.Encode(b[1])}
	}

	// Replaced by climatology_bnds.
	oldTimeBounds, _ := attrString(tg.Attributes(), "bounds")

	lon, err := in.findLongitude(spec.ConvertLongitudes)
	if err != nil {
		return err
	}

	cw, err := cdf.OpenWriter(outPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", outPath, err)
	}

	for _, name := range in.Variables() {
		if name == oldTimeBounds && oldTimeBounds != "" {
			continue
		}
		vg, err := in.Getter(name)
		if err != nil {
			return err
		}
		vr, err := in.finishVariable(name, vg, spec, enc, climoTimes, lon)
		if err != nil {
			return err
		}
		if err := cw.AddVar(name, vr); err != nil {
			return fmt.Errorf("write %s: variable %s: %w", outPath, name, err)
		}
	}

	bndsAttrs, err := rebuildAttrs(nil, map[string]any{
		"units":    timeUnits,
		"calendar": timeCalendar,
	})
	if err != nil {
		return err
	}
	err = cw.AddVar("climatology_bnds", api.Variable{
		Values:     boundsValues,
		Dimensions: []string{"time", "bnds"},
		Attributes: bndsAttrs,
	})
	if err != nil {
		return fmt.Errorf("write %s: climatology_bnds: %w", outPath, err)
	}

	globals, err := in.finishGlobalAttrs(spec)
	if err != nil {
		return err
	}
	if err := cw.AddAttributes(globals); err != nil {
		return fmt.Errorf("write %s: global attributes: %w", outPath, err)
	}

	if err := cw.Close(); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}
	return nil
}

// lonInfo captures what longitude conversion needs: the axis variable, its
// bounds variable, and the rotation pivot that restores monotonic order
// after shifting.
type lonInfo struct {
	name   string
	bounds string
	pivot  int
}

func (d *Dataset) findLongitude(convert bool) (lonInfo, error) {
	if !convert {
		return lonInfo{}, nil
	}
	for _, name := range []string{"lon", "longitude"} {
		vg, err := d.group.GetVarGetter(name)
		if err != nil {
			continue
		}
		raw, err := vg.Values()
		if err != nil {
			return lonInfo{}, fmt.Errorf("%s: read %s: %w", d.path, name, err)
		}
		values, err := Float64s(raw)
		if err != nil {
			return lonInfo{}, fmt.Errorf("%s: %s: %w", d.path, name, err)
		}
		pivot := len(values)
		for i, v := range values {
			if v >= 180 {
				pivot = i
				break
			}
		}
		if pivot == len(values) {
			// Already in [-180, 180).
			return lonInfo{}, nil
		}
		bounds, _ := attrString(vg.Attributes(), "bounds")
		return lonInfo{name: name, bounds: bounds, pivot: pivot}, nil
	}
	return lonInfo{}, nil
}

func (d *Dataset) finishVariable(name string, vg api.VarGetter, spec FinishSpec, enc meta.TimeEncoding, climoTimes []time.Time, lon lonInfo) (api.Variable, error) {
	raw, err := vg.Values()
	if err != nil {
		return api.Variable{}, fmt.Errorf("%s: read %s: %w", d.path, name, err)
	}
	dims := vg.Dimensions()
	attrs := vg.Attributes()

	set := map[string]any{}
	var del []string

	switch {
	case name == "time":
		raw = enc.EncodeAll(climoTimes)
		set["climatology"] = "climatology_bnds"
		del = append(del, "bounds")

	case name == lon.name && lon.name != "":
		raw = mapLeaves(raw, shiftLon)
		raw = rotateAxis(raw, 0, lon.pivot)

	case name == lon.bounds && lon.bounds != "":
		raw = mapLeaves(raw, shiftLon)
		raw = rotateAxis(raw, 0, lon.pivot)

	default:
		if cm, ok := attrString(attrs, "cell_methods"); ok {
			set["cell_methods"] = cm + " time: " + cellMethodOp(spec.Statistic) + " over days"
		}
		if name == "pr" && spec.ConvertPrUnits {
			raw, set, err = convertPr(raw, attrs, set)
			if err != nil {
				return api.Variable{}, fmt.Errorf("%s: %w", d.path, err)
			}
		}
		if lon.name != "" {
			if axis := indexOf(dims, lon.name); axis >= 0 {
				raw = rotateAxis(raw, axis, lon.pivot)
			}
		}
	}

	newAttrs, err := rebuildAttrs(attrs, set, del...)
	if err != nil {
		return api.Variable{}, err
	}
	return api.Variable{Values: raw, Dimensions: dims, Attributes: newAttrs}, nil
}

// convertPr converts a per-second precipitation rate to per-day. Packed
// variables keep their stored values; scaling the packing parameters scales
// the unpacked data.
func convertPr(raw any, attrs api.AttributeMap, set map[string]any) (any, map[string]any, error) {
	us, ok := attrString(attrs, "units")
	if !ok {
		return raw, set, nil
	}
	parsed, err := units.Parse(us)
	if err != nil {
		return nil, nil, fmt.Errorf("pr units %q: %w", us, err)
	}
	perSecond := false
	for _, u := range perSecondPrUnits {
		if parsed.Equal(u) {
			perSecond = true
			break
		}
	}
	if !perSecond {
		return raw, set, nil
	}

	set["units"] = parsed.Mul(units.MustParse("s d-1")).String()

	scale, hasScale := attrFloat(attrs, "scale_factor")
	offset, hasOffset := attrFloat(attrs, "add_offset")
	if hasScale || hasOffset {
		if !hasScale {
			scale = 1
		}
		if !hasOffset {
			offset = 0
		}
		set["scale_factor"] = scale * secondsPerDay
		set["add_offset"] = offset * secondsPerDay
		return raw, set, nil
	}

	return mapLeaves(raw, func(v float64) float64 { return v * secondsPerDay }), set, nil
}

func (d *Dataset) finishGlobalAttrs(spec FinishSpec) (api.AttributeMap, error) {
	history, _ := d.Attr("history")
	set := map[string]any{
		"frequency":        meta.FrequencyCode(spec.Resolutions, spec.Statistic),
		"climo_start_time": spec.Start.Format("2006-01-02T15:04:05") + "Z",
		"climo_end_time":   spec.End.Format("2006-01-02T15:04:05") + "Z",
		"history":          meta.PrependHistory(history, spec.History...),
	}
	if spec.TrackingID != "" {
		set["climo_tracking_id"] = spec.TrackingID
	}
	return rebuildAttrs(d.group.Attributes(), set)
}

func cellMethodOp(s climo.Statistic) string {
	if s == climo.StatStdDev {
		return "standard_deviation"
	}
	return "mean"
}

func shiftLon(v float64) float64 {
	if v >= 180 {
		return v - 360
	}
	return v
}

func indexOf(ss []string, s string) int {
	for i, v := range ss {
		if v == s {
			return i
		}
	}
	return -1
}

// BuildAttrs copies an attribute map, applying overrides and deletions.
// Existing keys keep their position; new keys are appended in sorted order.
func BuildAttrs(src api.AttributeMap, set map[string]any, del ...string) (api.AttributeMap, error) {
	return rebuildAttrs(src, set, del...)
}

// rebuildAttrs copies an attribute map, applying overrides and deletions.
// Existing keys keep their position; new keys are appended in sorted order.
func rebuildAttrs(src api.AttributeMap, set map[string]any, del ...string) (api.AttributeMap, error) {
	deleted := map[string]bool{}
	for _, k := range del {
		deleted[k] = true
	}

	var keys []string
	values := map[string]any{}
	if src != nil {
		for _, k := range src.Keys() {
			if deleted[k] {
				continue
			}
			v, _ := src.Get(k)
			if nv, ok := set[k]; ok {
				v = nv
			}
			keys = append(keys, k)
			values[k] = v
		}
	}

	var added []string
	for k := range set {
		if _, exists := values[k]; !exists && !deleted[k] {
			added = append(added, k)
		}
	}
	sort.Strings(added)
	for _, k := range added {
		keys = append(keys, k)
		values[k] = set[k]
	}

	om, err := util.NewOrderedMap(keys, values)
	if err != nil {
		return nil, fmt.Errorf("build attributes: %w", err)
	}
	return om, nil
}

// mapLeaves applies f to every float32/float64 element of an arbitrarily
// nested slice, returning a new nested slice of the same shape. Non-float
// values pass through unchanged.
func mapLeaves(v any, f func(float64) float64) any {
	return mapLeavesValue(reflect.ValueOf(v), f).Interface()
}

func mapLeavesValue(v reflect.Value, f func(float64) float64) reflect.Value {
	switch v.Kind() {
	case reflect.Slice:
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(mapLeavesValue(v.Index(i), f))
		}
		return out
	case reflect.Float32, reflect.Float64:
		out := reflect.New(v.Type()).Elem()
		out.SetFloat(f(v.Float()))
		return out
	default:
		return v
	}
}

// rotateAxis rotates a nested slice by pivot positions along the given axis.
// Elements [pivot:] move to the front, matching a longitude shift that pulls
// the [180, 360) half of the axis to the start.
func rotateAxis(v any, axis, pivot int) any {
	return rotateAxisValue(reflect.ValueOf(v), axis, pivot).Interface()
}

func rotateAxisValue(v reflect.Value, axis, pivot int) reflect.Value {
	if v.Kind() != reflect.Slice {
		return v
	}
	n := v.Len()
	out := reflect.MakeSlice(v.Type(), 0, n)
	if axis == 0 {
		out = reflect.AppendSlice(out, v.Slice(pivot, n))
		return reflect.AppendSlice(out, v.Slice(0, pivot))
	}
	for i := 0; i < n; i++ {
		out = reflect.Append(out, rotateAxisValue(v.Index(i), axis-1, pivot))
	}
	return out
}
