package wiki

import (
	"strconv"
	"strings"
)

/********** claim path helpers **********/

// lookupAny: safe nested lookup with dot paths over maps and arrays.
// Numeric segments index into arrays: "P571.0.mainsnak.datavalue.value".
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		switch obj := cur.(type) {
		case map[string]any:
			v, ok := obj[part]
			if !ok {
				return nil
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(part)
			if err != nil || i < 0 || i >= len(obj) {
				return nil
			}
			cur = obj[i]
		default:
			return nil
		}
	}
	return cur
}

// lookupStr returns string at path or "".
func lookupStr(m map[string]any, path string) string {
	if v := lookupAny(m, path); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// getFloatFlexible: number from several paths (float64/int/string like "+333" or "8,0").
func getFloatFlexible(m map[string]any, paths ...string) *float64 {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case float64:
			f := v
			return &f
		case int:
			f := float64(v)
			return &f
		case string:
			s := strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
			if s == "" {
				continue
			}
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return &f
			}
		}
	}
	return nil
}

func ptrStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

/********** Wikidata property registry **********/

const (
	propFounded   = "P571"
	propHeight    = "P2048"
	propArea      = "P2046"
	propArchitect = "P84"
	propStyle     = "P149"
	propHeritage  = "P1435"
	propCoords    = "P625"
	propWebsite   = "P856"
	propAddress   = "P6375"
)

// claimValue is the path to the first statement's value of a property.
func claimValue(prop string) string { return prop + ".0.mainsnak.datavalue.value" }

func claimTime(claims map[string]any, prop string) string {
	return lookupStr(claims, claimValue(prop)+".time")
}

func claimAmount(claims map[string]any, prop string) *float64 {
	return getFloatFlexible(claims, claimValue(prop)+".amount")
}

func claimString(claims map[string]any, prop string) string {
	return lookupStr(claims, claimValue(prop))
}

// claimRef returns the entity id an item-valued claim points to.
func claimRef(claims map[string]any, prop string) string {
	return lookupStr(claims, claimValue(prop)+".id")
}

func claimMonolingual(claims map[string]any, prop string) string {
	return lookupStr(claims, claimValue(prop)+".text")
}

func claimCoords(claims map[string]any, prop string) (lat, lng float64, ok bool) {
	la := getFloatFlexible(claims, claimValue(prop)+".latitude")
	lo := getFloatFlexible(claims, claimValue(prop)+".longitude")
	if la == nil || lo == nil {
		return 0, 0, false
	}
	return *la, *lo, true
}

/********** calendar **********/

var monthsEn = [...]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// FormatWikidataTime renders "+YYYY-MM-DDT00:00:00Z" at the precision the
// value carries: "00" months or days are treated as unknown. A leading "-"
// marks a year before the common era. Input that does
// not parse is returned unchanged.
func FormatWikidataTime(t, lang string) string {
	bce := strings.HasPrefix(t, "-")
	s := strings.TrimPrefix(strings.TrimPrefix(t, "+"), "-")
	if i := strings.IndexByte(s, 'T'); i >= 0 {
		s = s[:i]
	}
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return t
	}
	y, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	d, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil || m < 0 || m > 12 || d < 0 || d > 31 {
		return t
	}
	year := strconv.Itoa(y)

	if lang == "ja" {
		if bce {
			year = "紀元前" + year
		}
		switch {
		case m == 0:
			return year + "年"
		case d == 0:
			return year + "年" + strconv.Itoa(m) + "月"
		default:
			return year + "年" + strconv.Itoa(m) + "月" + strconv.Itoa(d) + "日"
		}
	}
	if bce {
		year += " BC"
	}
	switch {
	case m == 0:
		return year
	case d == 0:
		return monthsEn[m-1] + " " + year
	default:
		return strconv.Itoa(d) + " " + monthsEn[m-1] + " " + year
	}
}
